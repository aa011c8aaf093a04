package shell

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Dialect describes how to launch a particular shell and how to frame a
// command so that its completion is announced by a marker line.
type Dialect interface {
	// Name is the short identifier used in configuration ("pwsh", "bash").
	Name() string
	// Command returns the executable and its fixed startup flags.
	Command() (string, []string)
	// Env returns extra environment entries for the subprocess.
	Env() []string
	// Wrap frames command so that, whatever the command does, a line equal
	// to marker is written to standard output afterwards.
	Wrap(command, marker string) string
}

// PowerShell runs commands through pwsh.
type PowerShell struct {
	Path string
}

func (PowerShell) Name() string { return "pwsh" }

func (d PowerShell) Command() (string, []string) {
	path := d.Path
	if path == "" {
		path = "pwsh"
	}
	return path, []string{"-NoLogo", "-NoProfile", "-NonInteractive"}
}

func (PowerShell) Env() []string {
	return []string{"NO_COLOR=1"}
}

// Wrap runs the command in a script block whose exceptions are written to
// standard output, then prints the marker.
func (PowerShell) Wrap(command, marker string) string {
	return fmt.Sprintf(
		"Invoke-Command -ScriptBlock { try { %s } catch { Write-Output $_.Exception.Message } }; Write-Output '%s'",
		command, marker,
	)
}

// Bash runs commands through a profile-less bash.
type Bash struct {
	Path string
}

func (Bash) Name() string { return "bash" }

func (d Bash) Command() (string, []string) {
	path := d.Path
	if path == "" {
		path = "bash"
	}
	return path, []string{"--noprofile", "--norc"}
}

func (Bash) Env() []string {
	return []string{"NO_COLOR=1", "TERM=dumb", "PAGER=cat", "GIT_PAGER=cat", "GIT_TERMINAL_PROMPT=0"}
}

// Wrap evaluates the command with stderr folded into stdout. Going through
// eval turns syntax errors into ordinary failures instead of aborting the
// non-interactive shell. Stdin is /dev/null because the shell's own stdin
// carries the next command. The marker is preceded by a newline so output
// without a trailing newline cannot share its line.
func (Bash) Wrap(command, marker string) string {
	quoted := "'" + strings.ReplaceAll(command, "'", `'\''`) + "'"
	return fmt.Sprintf("eval %s </dev/null 2>&1; printf '\\n%%s\\n' '%s'", quoted, marker)
}

// DialectByName returns the dialect for a configuration name. An empty path
// keeps the dialect's default executable.
func DialectByName(name, path string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", "pwsh", "powershell":
		return PowerShell{Path: path}, nil
	case "bash":
		return Bash{Path: path}, nil
	default:
		return nil, fmt.Errorf("unsupported shell %q", name)
	}
}

// StripComments drops every line whose first non-blank character is '#'.
// Such lines would swallow the framing appended by Wrap.
func StripComments(command string) string {
	lines := lo.Filter(strings.Split(command, "\n"), func(line string, _ int) bool {
		return !strings.HasPrefix(strings.TrimSpace(line), "#")
	})
	return strings.Join(lines, "\n")
}

// TrimCommand removes surrounding whitespace and stray backticks left over
// from markdown fences.
func TrimCommand(command string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(command), "`"))
}
