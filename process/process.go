// Package process finds and cleans up debugger processes left behind by an
// earlier session. A leftover debugger keeps the USB probe open, so the next
// session cannot connect to the target.
package process

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/zhubert/uartspy/exec"
	"github.com/zhubert/uartspy/logger"
)

// DebuggerProcess represents a running debugger process found on the system.
type DebuggerProcess struct {
	PID     int    // Process ID
	Command string // Full command line, or only the image name on Windows
}

// exitCoder is satisfied by *os/exec.ExitError.
type exitCoder interface {
	ExitCode() int
}

// FindDebuggerProcesses lists running processes of the debugger executable.
func FindDebuggerProcesses(ctx context.Context, debugger string) ([]DebuggerProcess, error) {
	log := logger.WithComponent("process")
	executor := exec.GetDefaultExecutor()
	image := baseName(debugger)

	var processes []DebuggerProcess
	switch runtime.GOOS {
	case "windows":
		output, err := executor.Output(ctx, "", "tasklist", "/FI", "IMAGENAME eq "+image, "/FO", "CSV", "/NH")
		if err != nil {
			return nil, err
		}
		processes = parseTasklist(string(output))

	default:
		output, err := executor.Output(ctx, "", "pgrep", "-f", regexp.QuoteMeta(image))
		if err != nil {
			// pgrep returns exit code 1 if no processes found
			var ec exitCoder
			if errors.As(err, &ec) && ec.ExitCode() == 1 {
				return nil, nil
			}
			return nil, err
		}

		for _, pidStr := range strings.Fields(string(output)) {
			pid, err := strconv.Atoi(pidStr)
			if err != nil {
				continue
			}

			// Get the full command line for this PID
			psOutput, err := executor.Output(ctx, "", "ps", "-p", pidStr, "-o", "args=")
			if err != nil {
				continue
			}
			cmdLine := strings.TrimSpace(string(psOutput))
			if !isDebuggerCommand(cmdLine, image) {
				continue
			}
			processes = append(processes, DebuggerProcess{PID: pid, Command: cmdLine})
		}
	}

	log.Debug("found debugger processes", "debugger", image, "count", len(processes))
	return processes, nil
}

// parseTasklist parses `tasklist /FO CSV /NH` output.
func parseTasklist(output string) []DebuggerProcess {
	var processes []DebuggerProcess
	for line := range strings.SplitSeq(output, "\n") {
		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			continue
		}
		// Remove quotes from PID field
		pidStr := strings.Trim(strings.TrimSpace(fields[1]), "\"")
		pid, err := strconv.Atoi(pidStr)
		if err != nil {
			continue
		}
		processes = append(processes, DebuggerProcess{
			PID:     pid,
			Command: strings.Trim(fields[0], "\""),
		})
	}
	return processes
}

// isDebuggerCommand reports whether the executable of cmdLine is image.
// pgrep -f also matches processes that merely mention the name, such as an
// editor with the debugger's source open.
func isDebuggerCommand(cmdLine, image string) bool {
	fields := strings.Fields(cmdLine)
	if len(fields) == 0 {
		return false
	}
	return baseName(fields[0]) == image
}

// UsesFirmware reports whether the debugger command line loads firmware.
// Arguments are compared by base name since sessions may be started from
// different working directories.
func UsesFirmware(cmdLine, firmware string) bool {
	want := baseName(firmware)
	if want == "" || want == "." {
		return false
	}
	fields := strings.Fields(cmdLine)
	if len(fields) < 2 {
		return false
	}
	for _, arg := range fields[1:] {
		if baseName(arg) == want {
			return true
		}
	}
	return false
}

// baseName returns the last element of p, accepting either path separator.
func baseName(p string) string {
	return path.Base(strings.ReplaceAll(p, `\`, "/"))
}

// KillProcess kills a process by PID.
func KillProcess(ctx context.Context, pid int) error {
	executor := exec.GetDefaultExecutor()
	switch runtime.GOOS {
	case "windows":
		_, _, err := executor.Run(ctx, "", "taskkill", "/F", "/PID", strconv.Itoa(pid))
		return err
	default:
		_, _, err := executor.Run(ctx, "", "kill", "-9", strconv.Itoa(pid))
		return err
	}
}

// FindStaleDebuggers returns debugger processes holding firmware. With all
// set, every process of the debugger is returned, which is the only option
// where command lines are not available.
func FindStaleDebuggers(ctx context.Context, debugger, firmware string, all bool) ([]DebuggerProcess, error) {
	processes, err := FindDebuggerProcesses(ctx, debugger)
	if err != nil {
		return nil, fmt.Errorf("failed to list debugger processes: %w", err)
	}
	if all {
		return processes, nil
	}

	log := logger.WithComponent("process")
	var stale []DebuggerProcess
	for _, proc := range processes {
		if UsesFirmware(proc.Command, firmware) {
			stale = append(stale, proc)
			log.Info("found stale debugger", "pid", proc.PID, "command", proc.Command)
		}
	}
	return stale, nil
}

// CleanupStaleDebuggers kills the processes FindStaleDebuggers returns.
// Returns the number of processes killed.
func CleanupStaleDebuggers(ctx context.Context, debugger, firmware string, all bool) (int, error) {
	stale, err := FindStaleDebuggers(ctx, debugger, firmware, all)
	if err != nil {
		return 0, err
	}

	log := logger.WithComponent("process")
	killed := 0
	for _, proc := range stale {
		log.Info("killing stale debugger", "pid", proc.PID)
		if err := KillProcess(ctx, proc.PID); err != nil {
			log.Error("failed to kill process", "pid", proc.PID, "error", err)
			continue
		}
		killed++
	}
	return killed, nil
}
