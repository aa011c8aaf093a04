package render

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/muesli/reflow/wordwrap"
)

// Options configures a Renderer.
type Options struct {
	// Width reports the current terminal width. Zero or nil falls back to 80.
	Width func() int
	// WrapWidth forces a fixed wrap width for model text when positive.
	WrapWidth int
	// Spinner enables the thinking spinner. Only useful on a terminal.
	Spinner bool
}

// Renderer handles all operator-facing output.
type Renderer struct {
	writer io.Writer
	opts   Options
}

// New creates a new Renderer writing to writer.
func New(writer io.Writer, opts Options) *Renderer {
	return &Renderer{
		writer: writer,
		opts:   opts,
	}
}

// RenderWelcome prints the session banner.
func (r *Renderer) RenderWelcome(shellName, model string) {
	fmt.Fprintln(r.writer, HeaderStyle.Render(fmt.Sprintf("── sfctl-ai · %s · %s ───", shellName, model)))
	fmt.Fprintln(r.writer, DimStyle.Render("Type a request, /exit to quit."))
}

// RenderPrompt prints the input prompt without a trailing newline.
func (r *Renderer) RenderPrompt() {
	fmt.Fprintf(r.writer, "%s ", StyledSymbol(SymbolPrompt))
}

// RenderAgentText prints model text, word-wrapped to the terminal width.
func (r *Renderer) RenderAgentText(text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}
	fmt.Fprintln(r.writer, wordwrap.String(text, r.wrapWidth()))
}

// RenderExecStart prints the command about to run with its classification.
func (r *Renderer) RenderExecStart(command, kind string) {
	fmt.Fprintf(r.writer, "%s %s %s\n", StyledSymbol(SymbolExec), command, DimStyle.Render("["+kind+"]"))
}

// RenderExecEnd prints the completion line for a command.
func (r *Renderer) RenderExecEnd(command string, duration time.Duration, complete bool) {
	firstWord := commandFirstWord(command)
	if complete {
		fmt.Fprintf(r.writer, "%s %s %s\n", StyledSymbol(SymbolSuccess), firstWord, DimStyle.Render(fmt.Sprintf("(%.1fs)", duration.Seconds())))
		return
	}
	fmt.Fprintf(r.writer, "%s %s %s\n", StyledSymbol(SymbolError), firstWord,
		DimStyle.Render(fmt.Sprintf("(%.1fs) shell exited before the command finished", duration.Seconds())))
}

// RenderExecFailed prints a command that could not be run at all.
func (r *Renderer) RenderExecFailed(command string, err error) {
	fmt.Fprintf(r.writer, "%s %s %s\n", StyledSymbol(SymbolError), commandFirstWord(command), ErrorStyle.Render(err.Error()))
}

// RenderDeclined prints a command the operator declined.
func (r *Renderer) RenderDeclined(command string) {
	fmt.Fprintf(r.writer, "%s %s %s\n", StyledSymbol(SymbolDeclined), command, DimStyle.Render("(declined)"))
}

// RenderConfirmPrompt asks the operator to approve command.
func (r *Renderer) RenderConfirmPrompt(command, kind string) {
	fmt.Fprintf(r.writer, "You are about to run the command: %s %s\n", command, DimStyle.Render("["+kind+"]"))
	fmt.Fprintf(r.writer, "%s ", QuestionStyle.Render("Do you want to proceed? (yes/no)"))
}

// RenderReasonPrompt asks the operator why they declined.
func (r *Renderer) RenderReasonPrompt() {
	fmt.Fprintf(r.writer, "%s ", QuestionStyle.Render("Please provide reason for declining:"))
}

// RenderSystemMessage renders a system/status message with → prefix
func (r *Renderer) RenderSystemMessage(message string) {
	fmt.Fprintln(r.writer, SystemMessageStyle.Render(fmt.Sprintf("%s %s", SymbolSystemMessage, message)))
}

// RenderError prints an error that ended the current turn.
func (r *Renderer) RenderError(err error) {
	fmt.Fprintln(r.writer, ErrorStyle.Render(fmt.Sprintf("%s %v", SymbolError, err)))
}

// StartThinkingSpinner starts a "Thinking..." spinner and returns a stop
// function. When spinners are disabled the stop function does nothing.
func (r *Renderer) StartThinkingSpinner(ctx context.Context) func() {
	if !r.opts.Spinner {
		return func() {}
	}
	spinner := NewSpinner(r.writer)
	spinner.SetMessage("Thinking...")
	return spinner.Start(ctx)
}

func (r *Renderer) wrapWidth() int {
	if r.opts.WrapWidth > 0 {
		return r.opts.WrapWidth
	}
	if r.opts.Width != nil {
		if width := r.opts.Width(); width > 0 {
			return width
		}
	}
	return 80
}

func commandFirstWord(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return command
	}
	return fields[0]
}
