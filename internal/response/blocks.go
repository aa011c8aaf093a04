// Package response pulls fenced blocks out of model output. Commands the model
// wants to run arrive in ```tool_code fences, prose for the operator in
// ```text fences.
package response

import "strings"

const (
	// CommandTag marks a block holding a command to run.
	CommandTag = "tool_code"
	// TextTag marks a block holding text for the operator.
	TextTag = "text"

	fence = "```"
)

// ExtractBlocks returns the trimmed contents of every ```tag ... ``` block in
// text, in order of appearance. An opening fence without a closing fence ends
// the scan and its partial contents are dropped. Nested fences are not
// supported.
func ExtractBlocks(text, tag string) []string {
	var blocks []string
	open := fence + tag
	rest := text
	for {
		start := strings.Index(rest, open)
		if start < 0 {
			return blocks
		}
		body := rest[start+len(open):]
		end := strings.Index(body, fence)
		if end < 0 {
			return blocks
		}
		blocks = append(blocks, strings.TrimSpace(body[:end]))
		rest = body[end+len(fence):]
	}
}

// CommandBlocks returns the commands proposed in text.
func CommandBlocks(text string) []string {
	return ExtractBlocks(text, CommandTag)
}

// TextBlocks returns the operator-facing text blocks in text.
func TextBlocks(text string) []string {
	return ExtractBlocks(text, TextTag)
}

// Fence wraps body in a tagged fence. It is the inverse of ExtractBlocks for a
// single block.
func Fence(tag, body string) string {
	return fence + tag + "\n" + body + "\n" + fence
}
