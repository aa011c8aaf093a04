package llm

import (
	_ "embed"
	"strings"
)

//go:embed system_prompt.txt
var systemPromptTemplate string

// SystemPrompt returns the instructions sent as the first message of every
// conversation, naming the shell the commands will run in.
func SystemPrompt(shellName string) string {
	name := "PowerShell"
	if shellName == "bash" {
		name = "bash"
	}
	return strings.TrimSpace(strings.ReplaceAll(systemPromptTemplate, "{{SHELL}}", name))
}
