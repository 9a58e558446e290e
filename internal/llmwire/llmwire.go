// Package llmwire converts a projected message list into the Anthropic
// Messages API's wire param shapes, for callers that hand a projection
// straight to a provider call rather than rendering it for a human.
package llmwire

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/sessiontree/sessiontree/internal/types"
)

// ToMessageParams converts a projected message list (§4.4) into the
// anthropic-sdk-go param shape. The core never constructs an
// anthropic.Client itself; this is a data-shape conversion for embedders
// who do.
func ToMessageParams(messages []types.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		blocks := toBlockParams(m.Content)
		if m.Role == "assistant" {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out
}

func toBlockParams(blocks []types.Block) []anthropic.ContentBlockParamUnion {
	out := make([]anthropic.ContentBlockParamUnion, 0, len(blocks))
	for _, b := range blocks {
		switch b.Type {
		case types.BlockText:
			out = append(out, anthropic.NewTextBlock(b.Text))
		case types.BlockImage:
			out = append(out, anthropic.NewImageBlockBase64(b.MediaType, b.Data))
		case types.BlockToolUse:
			out = append(out, anthropic.NewToolUseBlock(b.ToolUseID, b.ToolInput, b.ToolName))
		case types.BlockToolResult:
			out = append(out, anthropic.NewToolResultBlock(b.ToolResultForID, textOf(b.Content), b.IsError))
		case types.BlockThinking:
			out = append(out, anthropic.NewThinkingBlock("", b.Thinking))
		}
	}
	return out
}

// textOf flattens a tool result's content blocks into the plain string the
// SDK's simple tool-result constructor expects; nested tool-result content
// richer than text is out of scope here.
func textOf(blocks []types.Block) string {
	var s string
	for _, b := range blocks {
		if b.Type == types.BlockText {
			s += b.Text
		}
	}
	return s
}
