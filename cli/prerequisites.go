// Package cli checks that the tools and files a debug session needs are
// available before the debugger is started.
package cli

import (
	"context"
	"fmt"
	"os"
	osexec "os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/zhubert/uartspy/exec"
)

// versionTimeout bounds each version probe. Some debugger builds wait for a
// probe to be connected before printing anything.
const versionTimeout = 3 * time.Second

// Prerequisite represents a required CLI tool
type Prerequisite struct {
	Name        string // Command name or path (e.g., "gdb7.exe")
	Required    bool   // Whether the tool is required to run a session
	Description string // Human-readable description
	InstallURL  string // URL for installation instructions
}

// DebuggerPrerequisites returns the tools needed to drive debugger. The
// process listing tool is only used by cleanup and so is optional.
func DebuggerPrerequisites(debugger string) []Prerequisite {
	prereqs := []Prerequisite{
		{
			Name:        debugger,
			Required:    true,
			Description: "Debugger with target support (STVD gdb for STM8)",
			InstallURL:  "https://www.st.com/en/development-tools/stvd-stm8.html",
		},
	}

	lister := Prerequisite{
		Name:        "pgrep",
		Required:    false,
		Description: "Process lister (optional, for cleanup)",
		InstallURL:  "https://gitlab.com/procps-ng/procps",
	}
	if runtime.GOOS == "windows" {
		lister.Name = "tasklist"
		lister.InstallURL = ""
	}
	return append(prereqs, lister)
}

// CheckResult contains the result of checking a prerequisite
type CheckResult struct {
	Prerequisite Prerequisite
	Found        bool
	Path         string // Path to the executable or file if found
	Version      string // Version string if available
	Error        error
}

// Check verifies that a CLI tool is available in PATH
func Check(prereq Prerequisite) CheckResult {
	result := CheckResult{Prerequisite: prereq}

	path, err := osexec.LookPath(prereq.Name)
	if err != nil {
		result.Error = fmt.Errorf("%s not found in PATH", prereq.Name)
		return result
	}

	result.Found = true
	result.Path = path

	// Try to get version
	version := getVersion(prereq.Name)
	if version != "" {
		result.Version = version
	}

	return result
}

// CheckFile verifies that a file the debugger loads exists. Relative paths
// are resolved against workDir, which is where the debugger runs.
func CheckFile(prereq Prerequisite, workDir string) CheckResult {
	result := CheckResult{Prerequisite: prereq}

	path := prereq.Name
	if !filepath.IsAbs(path) && workDir != "" {
		path = filepath.Join(workDir, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		result.Error = fmt.Errorf("%s not found", path)
		return result
	}
	if info.IsDir() {
		result.Error = fmt.Errorf("%s is a directory", path)
		return result
	}

	result.Found = true
	result.Path = path
	return result
}

// CheckAll verifies all prerequisites and returns results
func CheckAll(prereqs []Prerequisite) []CheckResult {
	results := make([]CheckResult, len(prereqs))
	for i, prereq := range prereqs {
		results[i] = Check(prereq)
	}
	return results
}

// ValidateRequired checks that all required prerequisites are met
// Returns nil if all required tools are found, otherwise returns an error
// describing what's missing
func ValidateRequired(prereqs []Prerequisite) error {
	var missing []string

	for _, prereq := range prereqs {
		if !prereq.Required {
			continue
		}
		result := Check(prereq)
		if !result.Found {
			missing = append(missing, fmt.Sprintf("  - %s (%s)\n    Install: %s",
				prereq.Name, prereq.Description, prereq.InstallURL))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required CLI tools:\n%s", strings.Join(missing, "\n"))
	}

	return nil
}

// getVersion attempts to get the version of a CLI tool
func getVersion(name string) string {
	executor := exec.GetDefaultExecutor()

	// Different tools use different version flags
	versionFlags := []string{"--version", "-v", "version"}

	for _, flag := range versionFlags {
		ctx, cancel := context.WithTimeout(context.Background(), versionTimeout)
		// Some tools print their banner on stderr.
		output, err := executor.CombinedOutput(ctx, "", name, flag)
		cancel()
		if err == nil {
			// Return first line of output, trimmed
			lines := strings.Split(string(output), "\n")
			if len(lines) > 0 {
				version := strings.TrimSpace(lines[0])
				// Limit length to avoid overly long version strings
				if len(version) > 100 {
					version = version[:100] + "..."
				}
				return version
			}
		}
	}

	return ""
}

// FormatCheckResults formats check results for display under title
func FormatCheckResults(title string, results []CheckResult) string {
	var sb strings.Builder

	sb.WriteString(title + ":\n")
	for _, r := range results {
		status := "✓"
		if !r.Found {
			if r.Prerequisite.Required {
				status = "✗"
			} else {
				status = "○"
			}
		}

		sb.WriteString(fmt.Sprintf("  %s %s", status, r.Prerequisite.Name))
		if r.Found && r.Version != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", r.Version))
		} else if !r.Found {
			if r.Prerequisite.Required {
				sb.WriteString(" [REQUIRED]")
			} else {
				sb.WriteString(" [optional]")
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
