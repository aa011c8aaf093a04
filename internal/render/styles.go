// Package render writes the operator-facing console output: model text,
// command execution status, confirmation prompts and errors.
package render

import (
	"github.com/charmbracelet/lipgloss"
)

const (
	ColorCyan   = lipgloss.Color("12") // Headers and prompt
	ColorYellow = lipgloss.Color("11") // Pending and confirmation
	ColorGreen  = lipgloss.Color("10") // Success indicator
	ColorRed    = lipgloss.Color("9")  // Error indicator
	ColorGray   = lipgloss.Color("8")  // Dim/secondary (timing, meta info)
)

const (
	SymbolExec          = "▶" // Command start
	SymbolSuccess       = "✓"
	SymbolError         = "✗"
	SymbolDeclined      = "⊘"
	SymbolSystemMessage = "→"
	SymbolPrompt        = ">"
)

var (
	HeaderStyle = lipgloss.NewStyle().Foreground(ColorCyan)

	PromptStyle = lipgloss.NewStyle().Foreground(ColorCyan).Bold(true)

	ExecStartStyle = lipgloss.NewStyle().Foreground(ColorYellow)

	QuestionStyle = lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)

	SuccessStyle = lipgloss.NewStyle().Foreground(ColorGreen)

	ErrorStyle = lipgloss.NewStyle().Foreground(ColorRed)

	DimStyle = lipgloss.NewStyle().Foreground(ColorGray)

	SystemMessageStyle = lipgloss.NewStyle().Foreground(ColorGray)
)

// StyledSymbol returns a symbol with appropriate styling applied
func StyledSymbol(symbol string) string {
	switch symbol {
	case SymbolExec:
		return ExecStartStyle.Render(symbol)
	case SymbolSuccess:
		return SuccessStyle.Render(symbol)
	case SymbolError, SymbolDeclined:
		return ErrorStyle.Render(symbol)
	case SymbolSystemMessage:
		return SystemMessageStyle.Render(symbol)
	case SymbolPrompt:
		return PromptStyle.Render(symbol)
	default:
		return symbol
	}
}
