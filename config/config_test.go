package config

import (
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zhubert/uartspy/gdb"
	"github.com/zhubert/uartspy/paths"
)

func TestDefaultProfileIsValid(t *testing.T) {
	if errs := Validate(DefaultProfile()); len(errs) > 0 {
		t.Errorf("default profile invalid: %v", errs)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.FilePath() != path {
		t.Errorf("FilePath = %q, want %q", p.FilePath(), path)
	}
	want := DefaultProfile()
	want.SetFilePath(path)
	if !reflect.DeepEqual(p, want) {
		t.Errorf("Load = %+v, want defaults", p)
	}
}

func TestLoad_EmptyPathUsesConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "cfg"))
	paths.Reset()
	t.Cleanup(paths.Reset)

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := filepath.Join(home, "cfg", "uartspy", "profile.yaml")
	if p.FilePath() != want {
		t.Errorf("FilePath = %q, want %q", p.FilePath(), want)
	}
}

func TestLoad_PartialOverridesKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := `debugger:
  path: /opt/stm8/bin/gdb
  args: ["-q"]
firmware: build/app.elf
idle_gap: 250ms
console:
  spy_word: watch
transcript: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if p.Debugger.Path != "/opt/stm8/bin/gdb" {
		t.Errorf("debugger.path = %q", p.Debugger.Path)
	}
	if p.Firmware != "build/app.elf" {
		t.Errorf("firmware = %q", p.Firmware)
	}
	if p.IdleGap.Duration != 250*time.Millisecond {
		t.Errorf("idle_gap = %v", p.IdleGap.Duration)
	}
	if p.Console.SpyWord != "watch" {
		t.Errorf("spy_word = %q", p.Console.SpyWord)
	}
	if !p.Transcript {
		t.Error("transcript = false")
	}

	// Untouched keys keep their defaults.
	if p.Console.QuitWord != "q" || p.Console.SetupWord != "xxx" {
		t.Errorf("console words = %q/%q", p.Console.QuitWord, p.Console.SetupWord)
	}
	if p.Commands.Read != gdb.DefaultReadCommand {
		t.Errorf("commands.read = %q", p.Commands.Read)
	}
	if p.Console.DrainDelay.Duration != 50*time.Millisecond {
		t.Errorf("drain_delay = %v", p.Console.DrainDelay.Duration)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "debugger: [unclosed\n", "failed to parse profile"},
		{"bad duration", "idle_gap: soon\n", "invalid duration"},
		{"zero idle gap", "idle_gap: 0s\n", "idle_gap"},
		{"duplicate word", "console:\n  spy_word: q\n", "console.spy_word"},
		{"empty debugger", "debugger:\n  path: \"\"\n", "debugger.path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "profile.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		modify     func(p *Profile)
		wantFields []string
	}{
		{"defaults", func(p *Profile) {}, nil},
		{"no read command", func(p *Profile) { p.Commands.Read = "" }, []string{"commands.read"}},
		{"no run or resume", func(p *Profile) {
			p.Commands.Run = ""
			p.Commands.Resume = ""
		}, []string{"commands.run", "commands.resume"}},
		{"empty trigger", func(p *Profile) { p.Grammar.Trigger = "" }, []string{"grammar.trigger"}},
		{"negative idle gap", func(p *Profile) { p.IdleGap.Duration = -time.Second }, []string{"idle_gap"}},
		{"negative drain", func(p *Profile) { p.Console.DrainDelay.Duration = -1 }, []string{"console.drain_delay"}},
		{"zero drain ok", func(p *Profile) { p.Console.DrainDelay.Duration = 0 }, nil},
		{"same setup and spy word", func(p *Profile) { p.Console.SpyWord = "xxx" }, []string{"console.spy_word"}},
		{"empty quit word", func(p *Profile) { p.Console.QuitWord = "" }, []string{"console.quit_word"}},
		{"no quit command ok", func(p *Profile) { p.Commands.Quit = "" }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultProfile()
			tt.modify(p)

			var got []string
			for _, e := range Validate(p) {
				got = append(got, e.Field)
			}
			if !slices.Equal(got, tt.wantFields) {
				t.Errorf("invalid fields = %v, want %v", got, tt.wantFields)
			}
		})
	}
}

func TestSave_LoadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "profile.yaml")
	p := DefaultProfile()
	p.SetFilePath(path)
	p.Firmware = "out/uart.elf"
	p.StopTimeout = Duration{5 * time.Second}

	if err := p.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(loaded, p) {
		t.Errorf("loaded %+v, want %+v", loaded, p)
	}
}

func TestSave_NoPath(t *testing.T) {
	if err := DefaultProfile().Save(); err == nil {
		t.Error("Save without a path succeeded")
	}
}

func TestDurationYAML(t *testing.T) {
	var out struct {
		D Duration `yaml:"d"`
	}
	if err := yaml.Unmarshal([]byte("d: 1m30s\n"), &out); err != nil {
		t.Fatal(err)
	}
	if out.D.Duration != 90*time.Second {
		t.Errorf("got %v, want 90s", out.D.Duration)
	}

	data, err := yaml.Marshal(Duration{500 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "500ms" {
		t.Errorf("marshal = %q, want 500ms", data)
	}
}

func TestProfile_SessionAndSpyConfig(t *testing.T) {
	p := DefaultProfile()
	p.Debugger.Args = []string{"-nx"}
	p.Debugger.WorkDir = "/fw"

	sc := p.SessionConfig()
	if sc.Debugger != "gdb7.exe" || sc.WorkDir != "/fw" || sc.Firmware != "firmware.elf" {
		t.Errorf("session config = %+v", sc)
	}
	wantArgs := []string{"firmware.elf", `--command=swim\gdbswim_stlink.ini`, "-nx"}
	if got := gdb.BuildCommandArgs(sc); !slices.Equal(got, wantArgs) {
		t.Errorf("args = %q, want %q", got, wantArgs)
	}
	if sc.Quit != gdb.DefaultQuitCommand || sc.StopTimeout != gdb.DefaultStopTimeout {
		t.Errorf("quit/timeout = %q/%v", sc.Quit, sc.StopTimeout)
	}

	// The returned slices must not alias the profile.
	sc.Args[0] = "changed"
	if p.Debugger.Args[0] != "-nx" {
		t.Error("SessionConfig aliases Debugger.Args")
	}

	if got, want := p.SpyConfig(), gdb.DefaultSpyConfig(); !reflect.DeepEqual(got, want) {
		t.Errorf("SpyConfig = %+v, want %+v", got, want)
	}
}
