package gdb

// Default commands for an STM8 target behind an ST-Link, as used with the
// STVD gdb build.
const (
	DefaultResetCatch   = "gdi icdbreak -set CR 0xA 0"
	DefaultUARTWriteBK1 = "gdi icdbreak -set BK1 0x00005231 0"
	DefaultUARTWriteBK2 = "gdi icdbreak -set BK2 0x00005231 0"
	DefaultConnect      = "emulator-reset-port-mcu usb://usb STM8S003F3"

	DefaultRunCommand    = "run"
	DefaultReadCommand   = "print $A"
	DefaultResumeCommand = "continue"
	DefaultQuitCommand   = "quit"
)

// SetupCommands configures the breakpoints the spy relies on.
type SetupCommands struct {
	// ResetCatch halts on a hardware reset condition.
	ResetCatch string
	// Breakpoints are sent in order. The stock profile defines BK1 and BK2 at
	// the same UART write instruction; only BK1's notification is acted on.
	Breakpoints []string
}

// DefaultSetupCommands returns the stock breakpoint configuration.
func DefaultSetupCommands() SetupCommands {
	return SetupCommands{
		ResetCatch:  DefaultResetCatch,
		Breakpoints: []string{DefaultUARTWriteBK1, DefaultUARTWriteBK2},
	}
}

// Setup sends the reset catch and then every breakpoint definition. Replies
// are not awaited; they show up on the event queue later.
func Setup(s Sender, cmds SetupCommands) error {
	if cmds.ResetCatch != "" {
		if err := s.Send(cmds.ResetCatch); err != nil {
			return err
		}
	}
	for _, bp := range cmds.Breakpoints {
		if err := s.Send(bp); err != nil {
			return err
		}
	}
	return nil
}

// ConnectAndReset sends the target connect sequence in order.
func ConnectAndReset(s Sender, commands []string) error {
	for _, c := range commands {
		if err := s.Send(c); err != nil {
			return err
		}
	}
	return nil
}
