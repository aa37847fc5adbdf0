package toolconv

import (
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/lowire/lowire/internal/agent"
)

// ToAnthropicTools converts tool definitions to Anthropic's tool schema.
func ToAnthropicTools(tools []agent.Tool) ([]anthropic.ToolUnionParam, error) {
	result := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(tool.InputSchema, &schema); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", tool.Name, err)
		}
		toolParam := anthropic.ToolUnionParamOfTool(schema, tool.Name)
		toolParam.OfTool.Description = anthropic.String(tool.Description)
		result = append(result, toolParam)
	}
	return result, nil
}

// ToAnthropicMessages converts a Conversation's messages to Anthropic's
// message params. System prompt is carried separately: Anthropic's API
// takes it outside the message list.
func ToAnthropicMessages(conv *agent.Conversation) ([]anthropic.MessageParam, error) {
	var result []anthropic.MessageParam
	for _, m := range conv.Messages {
		switch m.Role {
		case agent.RoleUser:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(m.UserContent)))

		case agent.RoleAssistant:
			blocks, toolResultBlocks, err := assistantToAnthropicBlocks(m)
			if err != nil {
				return nil, err
			}
			result = append(result, anthropic.NewAssistantMessage(blocks...))
			if len(toolResultBlocks) > 0 {
				result = append(result, anthropic.NewUserMessage(toolResultBlocks...))
			}
			if m.ToolError != "" {
				result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(m.ToolError)))
			}

		case agent.RoleToolResult:
			isError := m.Result != nil && m.Result.IsError
			result = append(result, anthropic.NewUserMessage(anthropic.ContentBlockParamUnion{
				OfToolResult: &anthropic.ToolResultBlockParam{
					ToolUseID: m.ToolCallID,
					IsError:   anthropic.Bool(isError),
					Content:   toolResultContentBlocks(m.Result),
				},
			}))
		}
	}
	return result, nil
}

// toolResultContentBlocks builds a tool_result block's content directly
// from a ToolResult's parts, carrying image parts as base64 image blocks
// rather than collapsing them to text (Anthropic's tool_result content
// accepts text and image blocks side by side).
func toolResultContentBlocks(r *agent.ToolResult) []anthropic.ToolResultBlockParamContentUnion {
	if r == nil {
		return nil
	}
	var blocks []anthropic.ToolResultBlockParamContentUnion
	if text := resultContentText(r); text != "" {
		blocks = append(blocks, anthropic.ToolResultBlockParamContentUnion{OfText: &anthropic.TextBlockParam{Text: text}})
	}
	for _, p := range r.Content {
		if p.Type != agent.ContentImage {
			continue
		}
		blocks = append(blocks, anthropic.ToolResultBlockParamContentUnion{
			OfImage: &anthropic.ImageBlockParam{
				Source: anthropic.ImageBlockParamSourceUnion{
					OfBase64: &anthropic.Base64ImageSourceParam{
						Data:      p.ImageData,
						MediaType: anthropic.Base64ImageSourceMediaType(p.ImageMimeType),
					},
				},
			},
		})
	}
	return blocks
}

func assistantToAnthropicBlocks(m agent.Message) ([]anthropic.ContentBlockParamUnion, []anthropic.ContentBlockParamUnion, error) {
	var blocks, toolResults []anthropic.ContentBlockParamUnion
	for _, p := range m.Parts {
		switch p.Type {
		case agent.ContentText:
			blocks = append(blocks, anthropic.NewTextBlock(p.Text))
		case agent.ContentThinking:
			blocks = append(blocks, anthropic.NewThinkingBlock(p.Signature, p.Text))
		case agent.ContentToolCall:
			var input map[string]any
			if len(p.Arguments) > 0 {
				if err := json.Unmarshal(p.Arguments, &input); err != nil {
					return nil, nil, fmt.Errorf("invalid tool call input for %s: %w", p.ToolCallName, err)
				}
			}
			blocks = append(blocks, anthropic.NewToolUseBlock(p.ToolCallID, input, p.ToolCallName))
			if p.Result != nil {
				toolResults = append(toolResults, anthropic.ContentBlockParamUnion{
					OfToolResult: &anthropic.ToolResultBlockParam{
						ToolUseID: p.ToolCallID,
						IsError:   anthropic.Bool(p.Result.IsError),
						Content:   toolResultContentBlocks(p.Result),
					},
				})
			}
		}
	}
	return blocks, toolResults, nil
}

// FromAnthropicMessage converts an Anthropic response's content blocks into
// a canonical assistant Message, preserving thinking signatures for
// round-trip (§4.2's Anthropic row).
func FromAnthropicMessage(content []anthropic.ContentBlockUnion) agent.Message {
	out := agent.Message{Role: agent.RoleAssistant}
	for _, block := range content {
		switch block.Type {
		case "text":
			out.Parts = append(out.Parts, agent.ContentPart{Type: agent.ContentText, Text: block.Text})
		case "thinking":
			out.Parts = append(out.Parts, agent.ContentPart{Type: agent.ContentThinking, Text: block.Thinking, Signature: block.Signature})
		case "tool_use":
			args, _ := json.Marshal(block.Input)
			out.Parts = append(out.Parts, agent.ContentPart{
				Type: agent.ContentToolCall, ToolCallID: block.ID, ToolCallName: block.Name, Arguments: args,
			})
		}
	}
	return out
}
