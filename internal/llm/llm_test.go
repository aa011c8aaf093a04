package llm

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "start", EventStart.String())
	assert.Equal(t, "text", EventText.String())
	assert.Equal(t, "reasoning", EventReasoning.String())
	assert.Equal(t, "tool_call", EventToolCall.String())
	assert.Equal(t, "end", EventEnd.String())
	assert.Equal(t, "unknown", EventKind(42).String())
}

func TestSystemPrompt(t *testing.T) {
	pwsh := SystemPrompt("pwsh")
	assert.Contains(t, pwsh, "PowerShell")
	assert.Contains(t, pwsh, "```tool_code")
	assert.Contains(t, pwsh, "```text")
	assert.NotContains(t, pwsh, "{{SHELL}}")

	bash := SystemPrompt("bash")
	assert.Contains(t, bash, "live bash session")
	assert.NotContains(t, bash, "PowerShell")
}

func TestGeminiContents(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "instructions"},
		{Role: RoleUser, Content: "list processes"},
		{Role: RoleAssistant, Content: "```tool_code\nGet-Process\n```"},
		{Role: RoleSystem, Content: "Tool call: ..."},
	}

	contents, config := geminiContents(messages)

	require.NotNil(t, config.SystemInstruction)
	require.Len(t, config.SystemInstruction.Parts, 1)
	assert.Equal(t, "instructions", config.SystemInstruction.Parts[0].Text)

	require.Len(t, contents, 3)
	assert.Equal(t, string(genai.RoleUser), contents[0].Role)
	assert.Equal(t, "list processes", contents[0].Parts[0].Text)
	assert.Equal(t, string(genai.RoleModel), contents[1].Role)
	assert.Equal(t, string(genai.RoleUser), contents[2].Role)
	assert.Equal(t, "Tool call: ...", contents[2].Parts[0].Text)
}

func TestGeminiContents_NoLeadingSystem(t *testing.T) {
	contents, config := geminiContents([]Message{{Role: RoleUser, Content: "hi"}})

	assert.Nil(t, config.SystemInstruction)
	assert.Len(t, contents, 1)
}

func TestGeminiEvents(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Role: genai.RoleModel,
					Parts: []*genai.Part{
						{Text: "thinking about it", Thought: true},
						{Text: "Hello"},
						{Text: ""},
						{FunctionCall: &genai.FunctionCall{ID: "c1", Name: "run", Args: map[string]any{"cmd": "ls"}}},
					},
				},
			},
			{Content: nil},
		},
	}

	events := geminiEvents(resp)

	require.Len(t, events, 3)
	assert.Equal(t, Event{Kind: EventReasoning, Text: "thinking about it"}, events[0])
	assert.Equal(t, Event{Kind: EventText, Text: "Hello"}, events[1])
	assert.Equal(t, EventToolCall, events[2].Kind)
	require.NotNil(t, events[2].ToolCall)
	assert.Equal(t, "run", events[2].ToolCall.Name)
	assert.JSONEq(t, `{"cmd":"ls"}`, events[2].ToolCall.Arguments)

	assert.Nil(t, geminiEvents(nil))
}

type fakeTransport struct {
	events []Event
	err    error
}

func (f fakeTransport) Stream(ctx context.Context, req Request) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for _, e := range f.events {
			if !yield(e, nil) {
				return
			}
		}
		if f.err != nil {
			yield(Event{}, f.err)
		}
	}
}

func TestTransportStreamEarlyStop(t *testing.T) {
	var transport Transport = fakeTransport{
		events: []Event{{Kind: EventStart}, {Kind: EventText, Text: "a"}, {Kind: EventText, Text: "b"}},
		err:    errors.New("never reached"),
	}

	var got []string
	for event, err := range transport.Stream(context.Background(), Request{}) {
		require.NoError(t, err)
		if event.Kind == EventText {
			got = append(got, event.Text)
			break
		}
	}
	assert.Equal(t, []string{"a"}, got)
}
