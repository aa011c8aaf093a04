package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripComments(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		expected string
	}{
		{"no comments", "Get-Process", "Get-Process"},
		{"leading comment", "# list processes\nGet-Process", "Get-Process"},
		{"indented comment", "Get-Service\n    # note\nGet-Process", "Get-Service\nGet-Process"},
		{"trailing hash kept", "echo a # b", "echo a # b"},
		{"only comments", "# a\n# b", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripComments(tt.command))
		})
	}
}

func TestTrimCommand(t *testing.T) {
	assert.Equal(t, "Get-Process", TrimCommand("  `Get-Process`\n"))
	assert.Equal(t, "ls -la", TrimCommand("\nls -la\n"))
}

func TestPowerShellWrap(t *testing.T) {
	wrapped := PowerShell{}.Wrap("Get-Process", "MARK")
	assert.Equal(t,
		"Invoke-Command -ScriptBlock { try { Get-Process } catch { Write-Output $_.Exception.Message } }; Write-Output 'MARK'",
		wrapped)
}

func TestBashWrap_QuotesCommand(t *testing.T) {
	wrapped := Bash{}.Wrap("echo 'it works'", "MARK")
	assert.Equal(t, `eval 'echo '\''it works'\''' </dev/null 2>&1; printf '\n%s\n' 'MARK'`, wrapped)
}

func TestDialectCommands(t *testing.T) {
	path, args := PowerShell{}.Command()
	assert.Equal(t, "pwsh", path)
	assert.Equal(t, []string{"-NoLogo", "-NoProfile", "-NonInteractive"}, args)
	assert.Contains(t, PowerShell{}.Env(), "NO_COLOR=1")

	path, args = Bash{Path: "/usr/local/bin/bash"}.Command()
	assert.Equal(t, "/usr/local/bin/bash", path)
	assert.Equal(t, []string{"--noprofile", "--norc"}, args)
	assert.Contains(t, Bash{}.Env(), "NO_COLOR=1")
}

func TestDialectByName(t *testing.T) {
	d, err := DialectByName("", "")
	require.NoError(t, err)
	assert.Equal(t, "pwsh", d.Name())

	d, err = DialectByName("BASH", "")
	require.NoError(t, err)
	assert.Equal(t, "bash", d.Name())

	_, err = DialectByName("fish", "")
	assert.Error(t, err)
}

func TestNewMarker_UniquePerCall(t *testing.T) {
	a := NewMarker()
	b := NewMarker()
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "___COMMAND_END_")
	assert.NotContains(t, a, "-")
}

func TestStripEcho(t *testing.T) {
	wrapped := "WRAPPED CMD"
	assert.Equal(t, "out\n", stripEcho("PS> WRAPPED CMD\nout\n", wrapped))
	assert.Equal(t, "out\n", stripEcho("WRAPPED CMD\r\nout\n", wrapped))
	assert.Equal(t, "plain\n", stripEcho("plain\n", wrapped))
}
