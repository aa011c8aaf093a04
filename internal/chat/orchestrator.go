// Package chat runs the conversation loop: it streams model turns, queues
// the commands the model proposes, runs them through the confirmation gate
// and the shell, and feeds the results back to the model.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinylittleshell/sfctl-ai/internal/classify"
	"github.com/atinylittleshell/sfctl-ai/internal/confirm"
	"github.com/atinylittleshell/sfctl-ai/internal/history"
	"github.com/atinylittleshell/sfctl-ai/internal/llm"
	"github.com/atinylittleshell/sfctl-ai/internal/response"
	"github.com/atinylittleshell/sfctl-ai/internal/shell"
)

const (
	finalResponseMessage = "All commands executed. Please give the final response if any."
	incompleteNote       = "[the shell exited before the command finished; output may be truncated]"
)

// timeNow is a variable that can be overridden for testing.
var timeNow = time.Now

// State is the orchestrator's position in its loop.
type State int

const (
	StateAwaitingUserInput State = iota
	StateStreamingTurn
	StateExecutingCommands
	StateReportingResults
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateAwaitingUserInput:
		return "awaiting_user_input"
	case StateStreamingTurn:
		return "streaming_turn"
	case StateExecutingCommands:
		return "executing_commands"
	case StateReportingResults:
		return "reporting_results"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Shell runs one command at a time.
type Shell interface {
	Run(command string) (shell.Result, error)
}

// Gate asks the operator about a command.
type Gate interface {
	Confirm(ctx context.Context, command, kind string) (confirm.Decision, error)
}

// LineReader reads operator input.
type LineReader interface {
	ReadLine(ctx context.Context) (string, error)
}

// Display is the operator-facing output surface.
type Display interface {
	RenderPrompt()
	RenderAgentText(text string)
	RenderExecStart(command, kind string)
	RenderExecEnd(command string, duration time.Duration, complete bool)
	RenderExecFailed(command string, err error)
	RenderDeclined(command string)
	RenderError(err error)
	StartThinkingSpinner(ctx context.Context) func()
}

// Recorder stores command outcomes.
type Recorder interface {
	Record(entry *history.Entry) error
}

// CommandResult is a command paired with its output or decline explanation.
type CommandResult struct {
	Command string
	Output  string
}

// Options configures an Orchestrator. Recorder and Logger are optional.
type Options struct {
	Transport    llm.Transport
	Shell        Shell
	ShellName    string
	Classify     classify.Func
	Gate         Gate
	Input        LineReader
	Display      Display
	Recorder     Recorder
	SystemPrompt string
	Model        string
	// AlwaysConfirm sends read commands through the gate too.
	AlwaysConfirm bool
	Logger        *zap.Logger
}

// Orchestrator owns one conversation and its three queues. It is not safe
// for concurrent use.
type Orchestrator struct {
	opts   Options
	logger *zap.Logger

	state      State
	transcript []llm.Message

	pendingCommands []string
	pendingResults  []CommandResult
	pendingInput    []string
}

// New creates an orchestrator whose transcript starts with the system prompt.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Classify == nil {
		opts.Classify = classify.Classify
	}

	return &Orchestrator{
		opts:   opts,
		logger: logger,
		state:  StateAwaitingUserInput,
		transcript: []llm.Message{
			{Role: llm.RoleSystem, Content: opts.SystemPrompt},
		},
	}
}

// State returns the current loop state.
func (o *Orchestrator) State() State {
	return o.state
}

// Transcript returns a copy of the conversation so far.
func (o *Orchestrator) Transcript() []llm.Message {
	return slices.Clone(o.transcript)
}

// PendingCommands returns a copy of the queued commands.
func (o *Orchestrator) PendingCommands() []string {
	return slices.Clone(o.pendingCommands)
}

// PendingResults returns a copy of the results not yet reported.
func (o *Orchestrator) PendingResults() []CommandResult {
	return slices.Clone(o.pendingResults)
}

// PendingInput returns a copy of the decline reasons not yet reported.
func (o *Orchestrator) PendingInput() []string {
	return slices.Clone(o.pendingInput)
}

// Run loops until the operator quits, input ends or ctx is cancelled. A
// failed turn is shown to the operator and the loop waits for new input.
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		err := o.Step(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			o.state = StateCancelled
			o.logger.Info("conversation cancelled")
			return ctx.Err()
		case errors.Is(err, ErrQuit), errors.Is(err, io.EOF):
			o.logger.Info("conversation ended by operator")
			return nil
		default:
			o.logger.Error("turn failed", zap.Error(err))
			o.opts.Display.RenderError(err)
			o.discardPending()
		}
	}
}

// Step runs one iteration: read input if nothing is queued, run the queued
// commands, report their results and ask for a final response once the
// queue drains.
func (o *Orchestrator) Step(ctx context.Context) error {
	if !o.hasPending() {
		o.state = StateAwaitingUserInput
		started, err := o.readUserInput(ctx)
		if err != nil {
			return o.fail(ctx, err)
		}
		if !started {
			return nil
		}
		if err := o.runTurn(ctx); err != nil {
			return o.fail(ctx, err)
		}
	}

	if err := o.executeCommands(ctx); err != nil {
		return o.fail(ctx, err)
	}

	reported, err := o.reportResults(ctx)
	if err != nil {
		return o.fail(ctx, err)
	}

	if reported && len(o.pendingCommands) == 0 {
		o.appendMessage(llm.RoleSystem, finalResponseMessage)
		if err := o.runTurn(ctx); err != nil {
			return o.fail(ctx, err)
		}
	}

	o.logger.Debug("step complete",
		zap.Int("pending_commands", len(o.pendingCommands)),
		zap.Int("pending_results", len(o.pendingResults)),
		zap.Int("pending_input", len(o.pendingInput)))

	if len(o.pendingCommands) > 0 {
		o.state = StateExecutingCommands
	} else {
		o.state = StateAwaitingUserInput
	}
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		o.state = StateCancelled
		return ctx.Err()
	}
	return err
}

func (o *Orchestrator) hasPending() bool {
	return len(o.pendingCommands) > 0 || len(o.pendingResults) > 0
}

func (o *Orchestrator) discardPending() {
	if len(o.pendingCommands) > 0 || len(o.pendingResults) > 0 || len(o.pendingInput) > 0 {
		o.logger.Warn("discarding queued work",
			zap.Int("pending_commands", len(o.pendingCommands)),
			zap.Int("pending_results", len(o.pendingResults)),
			zap.Int("pending_input", len(o.pendingInput)))
	}
	o.pendingCommands = nil
	o.pendingResults = nil
	o.pendingInput = nil
	o.state = StateAwaitingUserInput
}

// readUserInput reads one line and appends it to the transcript. It reports
// false when the line was empty.
func (o *Orchestrator) readUserInput(ctx context.Context) (bool, error) {
	o.opts.Display.RenderPrompt()

	line, err := o.opts.Input.ReadLine(ctx)
	if err != nil {
		return false, err
	}

	input := strings.TrimSpace(line)
	switch input {
	case "":
		o.logger.Debug("no user input provided")
		return false, nil
	case "/exit", "/quit":
		return false, ErrQuit
	}

	o.appendMessage(llm.RoleUser, input)
	return true, nil
}

// runTurn streams one model response, queues its command blocks and shows
// its text blocks.
func (o *Orchestrator) runTurn(ctx context.Context) error {
	o.state = StateStreamingTurn

	stopSpinner := o.opts.Display.StartThinkingSpinner(ctx)
	defer stopSpinner()

	req := llm.Request{
		Model:    o.opts.Model,
		Messages: o.Transcript(),
	}

	var sb strings.Builder
	for event, err := range o.opts.Transport.Stream(ctx, req) {
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &TransportError{Err: err}
		}

		switch event.Kind {
		case llm.EventStart:
			o.logger.Debug("stream started")
		case llm.EventText:
			stopSpinner()
			sb.WriteString(event.Text)
		case llm.EventReasoning:
			o.logger.Debug("reasoning", zap.String("text", event.Text))
		case llm.EventToolCall:
			name := ""
			if event.ToolCall != nil {
				name = event.ToolCall.Name
			}
			return fmt.Errorf("%w: %q", ErrProtocolViolation, name)
		case llm.EventEnd:
			o.logger.Debug("stream ended")
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	text := sb.String()
	o.logger.Debug("captured turn", zap.String("text", text))
	if strings.TrimSpace(text) == "" {
		return ErrEmptyTurn
	}
	o.appendMessage(llm.RoleAssistant, text)

	commands := response.CommandBlocks(text)
	o.pendingCommands = append(o.pendingCommands, commands...)
	o.logger.Info("turn complete", zap.Int("commands", len(commands)))

	if texts := response.TextBlocks(text); len(texts) > 0 {
		o.opts.Display.RenderAgentText(strings.Join(texts, "\n"))
	}
	return nil
}

// executeCommands drains the command queue in order. Command failures become
// result text; only operator input errors abort.
func (o *Orchestrator) executeCommands(ctx context.Context) error {
	if len(o.pendingCommands) > 0 {
		o.state = StateExecutingCommands
	}

	for len(o.pendingCommands) > 0 {
		command := shell.TrimCommand(o.pendingCommands[0])
		o.pendingCommands = o.pendingCommands[1:]

		if command == "" {
			o.logger.Debug("skipping empty command block")
			continue
		}

		kind := o.opts.Classify(command)
		o.logger.Info("classified command", zap.String("command", command), zap.Stringer("kind", kind))

		decision := confirm.Decision{Approved: true}
		if o.opts.AlwaysConfirm || kind.RequiresConfirmation() {
			var err error
			decision, err = o.opts.Gate.Confirm(ctx, command, kind.String())
			if err != nil {
				return err
			}
		}

		entry := &history.Entry{
			Shell:          o.opts.ShellName,
			Command:        command,
			Classification: kind.String(),
			Approved:       decision.Approved,
			Reason:         decision.Reason,
		}

		var output string
		if decision.Approved {
			output = o.runCommand(command, kind, entry)
		} else {
			o.opts.Display.RenderDeclined(command)
			if decision.Reason != "" {
				o.pendingInput = append(o.pendingInput, decision.Reason)
			}
			output = "User declined to run the command: " + command
		}

		o.logger.Info("tool response", zap.String("command", command), zap.String("output", output))
		o.pendingResults = append(o.pendingResults, CommandResult{Command: command, Output: output})
		o.record(entry)
	}
	return nil
}

func (o *Orchestrator) runCommand(command string, kind classify.Kind, entry *history.Entry) string {
	o.opts.Display.RenderExecStart(command, kind.String())

	start := timeNow()
	result, err := o.opts.Shell.Run(command)
	duration := timeNow().Sub(start)
	entry.DurationMs = duration.Milliseconds()

	if err != nil {
		o.logger.Warn("command failed", zap.String("command", command), zap.Error(err))
		o.opts.Display.RenderExecFailed(command, err)
		entry.Output = err.Error()
		return fmt.Sprintf("Error running command: %v", err)
	}

	o.opts.Display.RenderExecEnd(command, duration, result.Complete)
	entry.Output = result.Output
	entry.Complete = result.Complete

	if !result.Complete {
		o.logger.Warn("command output incomplete", zap.String("command", command))
		if result.Output == "" {
			return incompleteNote
		}
		return result.Output + "\n" + incompleteNote
	}
	return result.Output
}

func (o *Orchestrator) record(entry *history.Entry) {
	if o.opts.Recorder == nil {
		return
	}
	if err := o.opts.Recorder.Record(entry); err != nil {
		o.logger.Warn("failed to record command", zap.Error(err))
	}
}

// reportResults folds queued results and decline reasons into the transcript
// and starts a turn. It reports false when there was nothing to report.
func (o *Orchestrator) reportResults(ctx context.Context) (bool, error) {
	if len(o.pendingResults) == 0 {
		o.logger.Debug("no pending command results to send")
		return false, nil
	}
	o.state = StateReportingResults

	for _, result := range o.pendingResults {
		o.appendMessage(llm.RoleSystem, formatToolResult(result))
	}
	o.pendingResults = nil

	for _, reason := range o.pendingInput {
		o.appendMessage(llm.RoleUser, reason)
	}
	o.pendingInput = nil

	return true, o.runTurn(ctx)
}

func (o *Orchestrator) appendMessage(role llm.Role, content string) {
	o.transcript = append(o.transcript, llm.Message{Role: role, Content: content})
}

func formatToolResult(result CommandResult) string {
	return fmt.Sprintf("Tool call: ```\n%s\n```\nTool response: ```\n%s\n```", result.Command, result.Output)
}
