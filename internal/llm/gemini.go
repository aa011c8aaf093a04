package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiOptions configures the Gemini transport.
type GeminiOptions struct {
	APIKey  string
	BaseURL string
	Logger  *zap.Logger
}

// Gemini streams turns from the Gemini API.
type Gemini struct {
	client *genai.Client
	logger *zap.Logger
}

// NewGemini creates a Gemini API client.
func NewGemini(ctx context.Context, opts GeminiOptions) (*Gemini, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Gemini{client: client, logger: logger}, nil
}

// Stream implements Transport.
func (g *Gemini) Stream(ctx context.Context, req Request) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		contents, config := geminiContents(req.Messages)

		g.logger.Debug("gemini stream start", zap.String("model", req.Model), zap.Int("messages", len(req.Messages)))
		if !yield(Event{Kind: EventStart}, nil) {
			return
		}

		for resp, err := range g.client.Models.GenerateContentStream(ctx, req.Model, contents, config) {
			if err != nil {
				yield(Event{}, fmt.Errorf("gemini stream failed: %w", err))
				return
			}
			for _, event := range geminiEvents(resp) {
				if !yield(event, nil) {
					return
				}
			}
		}

		yield(Event{Kind: EventEnd}, nil)
	}
}

// geminiContents maps the conversation onto Gemini contents. A leading system
// message becomes the system instruction; later system messages are sent as
// user turns because Gemini has no mid-conversation system role.
func geminiContents(messages []Message) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{}
	contents := make([]*genai.Content, 0, len(messages))

	for i, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			if i == 0 {
				config.SystemInstruction = genai.NewContentFromText(msg.Content, genai.RoleUser)
				continue
			}
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	return contents, config
}

func geminiEvents(resp *genai.GenerateContentResponse) []Event {
	if resp == nil {
		return nil
	}

	var events []Event
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			switch {
			case part.FunctionCall != nil:
				args, _ := json.Marshal(part.FunctionCall.Args)
				events = append(events, Event{
					Kind: EventToolCall,
					ToolCall: &ToolCall{
						ID:        part.FunctionCall.ID,
						Name:      part.FunctionCall.Name,
						Arguments: string(args),
					},
				})
			case part.Thought:
				events = append(events, Event{Kind: EventReasoning, Text: part.Text})
			case part.Text != "":
				events = append(events, Event{Kind: EventText, Text: part.Text})
			}
		}
	}
	return events
}
