package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocolViolation is returned when the model emits a structured tool
	// call. Commands are only accepted as fenced tool_code blocks.
	ErrProtocolViolation = errors.New("unsupported structured tool call in model output")

	// ErrEmptyTurn is returned when a turn completes without any text.
	ErrEmptyTurn = errors.New("model returned an empty response")

	// ErrQuit is returned by Step when the operator asks to leave.
	ErrQuit = errors.New("operator quit")
)

// TransportError wraps a failure of the chat-completion backend.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("chat transport failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
