package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		command  string
		expected Kind
	}{
		{"Get-Process", Read},
		{"  Get-ServiceFabricClusterHealth", Read},
		{"Select-String -Path log.txt -Pattern error", Read},
		{"Read-Host", Read},
		{"New-Item foo", Write},
		{"Set-Location C:\\", Write},
		{"Add-Content a.txt b", Write},
		{"Remove-Item foo", Write},
		{"Update-Help", Write},
		{"Write-Output hello", Write},
		{"Import-Module ServiceFabric", Read},
		{"Restart-ServiceFabricNode", Unknown},
		{"Connect-ServiceFabricCluster", Unknown},
		{"Get-Process | Stop-Process", Unknown},
		{"get-process", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.command))
		})
	}
}

func TestClassify_PipeAlwaysUnknown(t *testing.T) {
	verbs := []string{"Get-Item", "Select-Object", "New-Item", "Remove-Item", "Invoke-Thing", "ls"}
	for _, verb := range verbs {
		assert.Equal(t, Unknown, Classify(verb+" | Out-Null"), verb)
		assert.Equal(t, Unknown, Classify(verb+" x|y"), verb)
	}
}

func TestClassify_ImportModuleWinsOverEverything(t *testing.T) {
	assert.Equal(t, Read, Classify("Import-Module Foo; Remove-Item bar"))
	assert.Equal(t, Read, Classify("Import-Module Foo | Set-Thing"))
	assert.Equal(t, Read, Classify("\tImport-Module ServiceFabric"))
}

func TestKind(t *testing.T) {
	assert.False(t, Read.RequiresConfirmation())
	assert.True(t, Write.RequiresConfirmation())
	assert.True(t, Unknown.RequiresConfirmation())

	assert.Equal(t, "read", Read.String())
	assert.Equal(t, "write", Write.String())
	assert.Equal(t, "unknown", Unknown.String())
}

func TestForDialect(t *testing.T) {
	assert.Equal(t, Read, ForDialect("pwsh")("Get-Process"))
	assert.Equal(t, Read, ForDialect("bash")("ls -la"))
	assert.Equal(t, Unknown, ForDialect("bash")("Get-Process"))
}

func TestPosix(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		expected Kind
	}{
		{"simple read", "ls -la /tmp", Read},
		{"read with stderr to devnull", "cat /etc/hostname 2>/dev/null", Read},
		{"read with dup", "ls missing 2>&1", Read},
		{"sequence of reads", "pwd; whoami", Read},
		{"and list of reads", "uname -a && uptime", Read},
		{"write command", "rm -rf build", Write},
		{"redirect makes write", "echo hi > out.txt", Write},
		{"append makes write", "echo hi >> out.txt", Write},
		{"read then write", "ls && mkdir x", Write},
		{"pipe", "ps aux | grep ssh", Unknown},
		{"or list contains pipe char", "ls || true", Unknown},
		{"unknown utility", "systemctl restart nginx", Unknown},
		{"command substitution", "echo $(rm -rf /)", Unknown},
		{"process substitution", "cat <(ls)", Unknown},
		{"background", "sleep 10 &", Unknown},
		{"assignment", "FOO=bar", Unknown},
		{"env prefix", "FOO=bar ls", Unknown},
		{"dynamic command name", "$CMD arg", Unknown},
		{"subshell", "(ls)", Unknown},
		{"if clause", "if true; then ls; fi", Unknown},
		{"find listing", "find . -name '*.go'", Read},
		{"find delete", "find . -name '*.tmp' -delete", Unknown},
		{"parse error", "echo 'unterminated", Unknown},
		{"empty", "", Unknown},
		{"comment only", "# nothing", Unknown},
		{"env runs another command", "env rm -rf /tmp/x", Unknown},
		{"env with assignment", "env X=1 rm -rf /tmp/x", Unknown},
		{"bare env", "env", Unknown},
		{"bare date", "date", Read},
		{"date sets clock", "date -s '2000-01-01'", Unknown},
		{"bare hostname", "hostname", Read},
		{"hostname sets name", "hostname evil", Unknown},
		{"dup redirect to file", "echo pwned >& /tmp/f", Write},
		{"dup redirect to devnull", "echo hi >& /dev/null", Read},
		{"dup input from file", "cat <& /tmp/f", Write},
		{"close descriptor", "ls 2>&-", Read},
		{"find fprint0", "find . -fprint0 /tmp/out", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Posix(tt.command))
		})
	}
}
