package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIOptions configures the OpenAI-compatible transport.
type OpenAIOptions struct {
	APIKey string
	// BaseURL overrides the API root, e.g. for Ollama or OpenRouter.
	BaseURL string
	Logger  *zap.Logger
}

// OpenAI streams turns from any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client *openai.Client
	logger *zap.Logger
}

// NewOpenAI creates an OpenAI-compatible client.
func NewOpenAI(opts OpenAIOptions) *OpenAI {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		logger: logger,
	}
}

// Stream implements Transport.
func (o *OpenAI) Stream(ctx context.Context, req Request) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		stream, err := o.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:    req.Model,
			Messages: openAIMessages(req.Messages),
			Stream:   true,
		})
		if err != nil {
			yield(Event{}, fmt.Errorf("openai stream failed: %w", err))
			return
		}
		defer stream.Close()

		o.logger.Debug("openai stream start", zap.String("model", req.Model), zap.Int("messages", len(req.Messages)))
		if !yield(Event{Kind: EventStart}, nil) {
			return
		}

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				yield(Event{Kind: EventEnd}, nil)
				return
			}
			if err != nil {
				yield(Event{}, fmt.Errorf("openai stream failed: %w", err))
				return
			}
			for _, event := range openAIEvents(resp) {
				if !yield(event, nil) {
					return
				}
			}
		}
	}
}

func openAIMessages(messages []Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		case RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		result[i] = openai.ChatCompletionMessage{Role: role, Content: msg.Content}
	}
	return result
}

func openAIEvents(resp openai.ChatCompletionStreamResponse) []Event {
	var events []Event
	for _, choice := range resp.Choices {
		if choice.Delta.Content != "" {
			events = append(events, Event{Kind: EventText, Text: choice.Delta.Content})
		}
		for _, tc := range choice.Delta.ToolCalls {
			events = append(events, Event{
				Kind: EventToolCall,
				ToolCall: &ToolCall{
					ID:        tc.ID,
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
	}
	return events
}
