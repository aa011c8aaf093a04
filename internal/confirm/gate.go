// Package confirm asks the operator to approve commands before they run.
package confirm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// LineReader reads one line of operator input.
type LineReader interface {
	ReadLine(ctx context.Context) (string, error)
}

// Prompter displays the confirmation questions.
type Prompter interface {
	RenderConfirmPrompt(command, kind string)
	RenderReasonPrompt()
}

// Decision is the operator's answer for one command. Reason is only set when
// the command was declined and may be empty.
type Decision struct {
	Approved bool
	Reason   string
}

// Gate blocks until the operator approves or declines a command. It never
// retries or times out on its own.
type Gate struct {
	input    LineReader
	prompter Prompter
	logger   *zap.Logger
}

// NewGate creates a gate reading answers from input.
func NewGate(input LineReader, prompter Prompter, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		input:    input,
		prompter: prompter,
		logger:   logger,
	}
}

// Confirm shows command with its classification and reads a yes/no answer.
// Anything other than an approval is a decline, after which one more line is
// read as the reason.
func (g *Gate) Confirm(ctx context.Context, command, kind string) (Decision, error) {
	g.prompter.RenderConfirmPrompt(command, kind)

	answer, err := g.input.ReadLine(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to read confirmation: %w", err)
	}

	if IsApproval(answer) {
		g.logger.Info("command approved", zap.String("command", command))
		return Decision{Approved: true}, nil
	}

	g.prompter.RenderReasonPrompt()
	reason, err := g.input.ReadLine(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to read decline reason: %w", err)
	}
	reason = strings.TrimSpace(reason)

	g.logger.Info("command declined", zap.String("command", command), zap.String("reason", reason))
	return Decision{Reason: reason}, nil
}

// IsApproval reports whether answer is "yes" or "y", ignoring case and
// surrounding whitespace.
func IsApproval(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y":
		return true
	default:
		return false
	}
}
