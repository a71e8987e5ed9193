package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Template is the commented profile.yaml written by `uartspy config init`.
const Template = `# uartspy session profile
#
# Describes how to launch the debugger and which breakpoint marks a UART
# write. Every byte the firmware writes halts the target; uartspy reads the
# byte from register A and resumes.

debugger:
  path: gdb7.exe
  # args: []                 # extra arguments, appended after --command
  # work_dir: ""             # directory the debugger is started in

firmware: firmware.elf       # ELF image loaded by the debugger
init_script: swim\gdbswim_stlink.ini

connect:                     # sent right after the debugger starts
  - emulator-reset-port-mcu usb://usb STM8S003F3

setup:
  reset_catch: gdi icdbreak -set CR 0xA 0
  breakpoints:               # address of the UART data register write
    - gdi icdbreak -set BK1 0x00005231 0
    - gdi icdbreak -set BK2 0x00005231 0

commands:
  run: run
  read: print $A             # register holding the byte being written
  resume: continue
  quit: quit

grammar:
  trigger: "warning: Break on advanced breakpoint BK1 of Debug Module 0"

idle_gap: 500ms              # silence that ends a line of the byte trace

console:
  drain_delay: 50ms          # wait before printing debugger output
  setup_word: xxx            # arm the breakpoints without running
  spy_word: spy              # start spying; Ctrl-C returns to the console
  quit_word: q

stop_timeout: 2s             # grace period before the debugger is killed
# transcript: true           # keep an O>/E> transcript of every session
`

// WriteTemplate writes Template to path. An existing file is left alone
// unless force is set.
func WriteTemplate(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(Template), 0644); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}
