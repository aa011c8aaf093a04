// Package classify decides whether a shell command needs a human to approve
// it before it runs.
//
// Classification is an allow-list: only commands recognised as read-only skip
// confirmation. Everything the rules cannot vouch for is Unknown.
package classify

import (
	"strings"
)

// Kind is the risk class of a command.
type Kind int

const (
	// Read commands retrieve information without side effects.
	Read Kind = iota
	// Write commands change state outside the conversation.
	Write
	// Unknown commands could not be analysed and are treated as unsafe.
	Unknown
)

func (k Kind) String() string {
	switch k {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return "unknown"
	}
}

// RequiresConfirmation reports whether the operator has to approve a command
// of this kind.
func (k Kind) RequiresConfirmation() bool {
	return k != Read
}

// Func classifies a command.
type Func func(command string) Kind

const importModulePrefix = "Import-Module"

var (
	readPrefixes  = []string{"Get-", "Select-", "Read-"}
	writePrefixes = []string{"Set-", "New-", "Add-", "Remove-", "Update-", "Write-"}
)

// Classify classifies a PowerShell command by its leading verb. Matching is
// case-sensitive. Module imports are always Read; any pipe makes the command
// Unknown, since a mutation can hide after it.
func Classify(command string) Kind {
	command = strings.TrimLeft(command, " \t\r\n")

	if strings.HasPrefix(command, importModulePrefix) {
		return Read
	}
	if strings.Contains(command, "|") {
		return Unknown
	}
	if hasAnyPrefix(command, readPrefixes) {
		return Read
	}
	if hasAnyPrefix(command, writePrefixes) {
		return Write
	}
	return Unknown
}

// ForDialect returns the classifier for a shell dialect name.
func ForDialect(name string) Func {
	if name == "bash" {
		return Posix
	}
	return Classify
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
