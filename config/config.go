// Package config loads the session profile: how to launch the debugger, the
// breakpoints to arm and the commands the spy and console use.
package config

import (
	"fmt"
	"time"

	"github.com/zhubert/uartspy/gdb"
)

// Profile is the top-level profile.yaml document.
type Profile struct {
	Debugger    DebuggerConfig `yaml:"debugger"`
	Firmware    string         `yaml:"firmware"`
	InitScript  string         `yaml:"init_script,omitempty"` // passed as --command=<script>
	Connect     []string       `yaml:"connect"`
	Setup       SetupConfig    `yaml:"setup"`
	Commands    CommandsConfig `yaml:"commands"`
	Grammar     GrammarConfig  `yaml:"grammar"`
	IdleGap     Duration       `yaml:"idle_gap"`
	Console     ConsoleConfig  `yaml:"console"`
	StopTimeout Duration       `yaml:"stop_timeout"`
	Transcript  bool           `yaml:"transcript,omitempty"` // write O>/E> transcript per session

	filePath string
}

// DebuggerConfig describes the debugger executable.
type DebuggerConfig struct {
	Path    string   `yaml:"path"`
	Args    []string `yaml:"args,omitempty"`
	WorkDir string   `yaml:"work_dir,omitempty"`
}

// SetupConfig holds the breakpoint commands sent before the target runs.
type SetupConfig struct {
	ResetCatch  string   `yaml:"reset_catch"`
	Breakpoints []string `yaml:"breakpoints"`
}

// CommandsConfig names the debugger commands for each protocol step.
type CommandsConfig struct {
	Run    string `yaml:"run"`
	Read   string `yaml:"read"`
	Resume string `yaml:"resume"`
	Quit   string `yaml:"quit"`
}

// GrammarConfig holds the trigger notification text.
type GrammarConfig struct {
	Trigger string `yaml:"trigger"`
}

// ConsoleConfig configures the interactive console.
type ConsoleConfig struct {
	DrainDelay Duration `yaml:"drain_delay"`
	SetupWord  string   `yaml:"setup_word"`
	SpyWord    string   `yaml:"spy_word"`
	QuitWord   string   `yaml:"quit_word"`
}

// Duration is a wrapper around time.Duration that implements YAML unmarshaling
// from human-readable strings like "500ms", "2s".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

// DefaultProfile returns the STM8 / ST-Link profile.
func DefaultProfile() *Profile {
	setup := gdb.DefaultSetupCommands()
	return &Profile{
		Debugger:   DebuggerConfig{Path: "gdb7.exe"},
		Firmware:   "firmware.elf",
		InitScript: `swim\gdbswim_stlink.ini`,
		Connect:    []string{gdb.DefaultConnect},
		Setup: SetupConfig{
			ResetCatch:  setup.ResetCatch,
			Breakpoints: setup.Breakpoints,
		},
		Commands: CommandsConfig{
			Run:    gdb.DefaultRunCommand,
			Read:   gdb.DefaultReadCommand,
			Resume: gdb.DefaultResumeCommand,
			Quit:   gdb.DefaultQuitCommand,
		},
		Grammar: GrammarConfig{Trigger: gdb.DefaultTrigger},
		IdleGap: Duration{gdb.DefaultIdleGap},
		Console: ConsoleConfig{
			DrainDelay: Duration{50 * time.Millisecond},
			SetupWord:  "xxx",
			SpyWord:    "spy",
			QuitWord:   "q",
		},
		StopTimeout: Duration{gdb.DefaultStopTimeout},
	}
}

// FilePath returns the path the profile was loaded from or will be saved to.
func (p *Profile) FilePath() string {
	return p.filePath
}

// SessionConfig returns the debugger launch settings.
func (p *Profile) SessionConfig() gdb.SessionConfig {
	return gdb.SessionConfig{
		Debugger:    p.Debugger.Path,
		WorkDir:     p.Debugger.WorkDir,
		Firmware:    p.Firmware,
		InitScript:  p.InitScript,
		Args:        append([]string(nil), p.Debugger.Args...),
		Connect:     append([]string(nil), p.Connect...),
		Quit:        p.Commands.Quit,
		StopTimeout: p.StopTimeout.Duration,
	}
}

// SpyConfig returns the spy's commands and timing.
func (p *Profile) SpyConfig() gdb.SpyConfig {
	return gdb.SpyConfig{
		Setup: gdb.SetupCommands{
			ResetCatch:  p.Setup.ResetCatch,
			Breakpoints: append([]string(nil), p.Setup.Breakpoints...),
		},
		Run:     p.Commands.Run,
		Read:    p.Commands.Read,
		Resume:  p.Commands.Resume,
		Trigger: p.Grammar.Trigger,
		IdleGap: p.IdleGap.Duration,
	}
}
