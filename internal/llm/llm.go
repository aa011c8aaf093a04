// Package llm is the boundary to the chat-completion backends. A Transport
// takes the whole conversation and returns a stream of events.
package llm

import (
	"context"
	"iter"
)

// Role tags a message in the conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Request is a single streaming completion request.
type Request struct {
	Model    string
	Messages []Message
}

// EventKind identifies the type of a stream event.
type EventKind int

const (
	EventStart EventKind = iota
	EventText
	EventReasoning
	EventToolCall
	EventEnd
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventText:
		return "text"
	case EventReasoning:
		return "reasoning"
	case EventToolCall:
		return "tool_call"
	case EventEnd:
		return "end"
	default:
		return "unknown"
	}
}

// ToolCall is a structured function call emitted by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Event is one element of a streamed turn.
type Event struct {
	Kind     EventKind
	Text     string
	ToolCall *ToolCall
}

// Transport streams one turn. A stream yields EventStart first and EventEnd
// last when it completes normally; any error ends the stream.
type Transport interface {
	Stream(ctx context.Context, req Request) iter.Seq2[Event, error]
}
