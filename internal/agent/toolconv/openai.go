// Package toolconv translates the canonical agent.Conversation/agent.Tool
// model to and from each provider's wire format.
package toolconv

import (
	"encoding/json"
	"strings"

	"github.com/lowire/lowire/internal/agent"
	openai "github.com/sashabaranov/go-openai"
)

// ToOpenAITools converts tool definitions to OpenAI's function-calling schema.
func ToOpenAITools(tools []agent.Tool) []openai.Tool {
	result := make([]openai.Tool, len(tools))
	for i, tool := range tools {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  schemaMap(tool.InputSchema),
			},
		}
	}
	return result
}

func schemaMap(schema agent.Schema) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(schema, &m); err != nil || m == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return m
}

// ToOpenAIMessages flattens a Conversation into OpenAI's message list. A
// tool_call part's attached Result is emitted as its own "tool"-role message
// immediately after the assistant message that produced the call, matching
// the wire protocol's requirement of one tool message per call id.
func ToOpenAIMessages(conv *agent.Conversation) []openai.ChatCompletionMessage {
	var out []openai.ChatCompletionMessage
	if conv.SystemPrompt != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: conv.SystemPrompt})
	}

	for _, m := range conv.Messages {
		switch m.Role {
		case agent.RoleUser:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.UserContent})

		case agent.RoleAssistant:
			assistantMsg, toolResults := assistantToOpenAI(m)
			out = append(out, assistantMsg)
			out = append(out, toolResults...)
			if m.ToolError != "" {
				out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.ToolError})
			}

		case agent.RoleToolResult:
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    resultContentText(m.Result),
				ToolCallID: m.ToolCallID,
			})
			if img := imageMessage(m.Result); img != nil {
				out = append(out, *img)
			}
		}
	}
	return out
}

func assistantToOpenAI(m agent.Message) (openai.ChatCompletionMessage, []openai.ChatCompletionMessage) {
	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant}
	var texts []string
	var toolResults []openai.ChatCompletionMessage

	for _, p := range m.Parts {
		switch p.Type {
		case agent.ContentText:
			texts = append(texts, p.Text)
		case agent.ContentToolCall:
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   p.ToolCallID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      p.ToolCallName,
					Arguments: string(p.Arguments),
				},
			})
			if p.Result != nil {
				toolResults = append(toolResults, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    resultContentText(p.Result),
					ToolCallID: p.ToolCallID,
				})
				if img := imageMessage(p.Result); img != nil {
					toolResults = append(toolResults, *img)
				}
			}
		}
	}
	msg.Content = strings.Join(texts, "\n")
	return msg, toolResults
}

// resultContentText joins a tool result's text parts. Image parts are
// carried separately (see imageMessage) since the Chat Completions API's
// "tool" role only accepts string content.
func resultContentText(r *agent.ToolResult) string {
	if r == nil {
		return ""
	}
	var texts []string
	for _, p := range r.Content {
		if p.Type == agent.ContentText {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// imageMessage builds a follow-up "user"-role message carrying a tool
// result's image parts as data-URL image_url content, since Chat
// Completions tool messages cannot themselves hold image content. Returns
// nil when the result has no images.
func imageMessage(r *agent.ToolResult) *openai.ChatCompletionMessage {
	if r == nil {
		return nil
	}
	var parts []openai.ChatMessagePart
	for _, p := range r.Content {
		if p.Type != agent.ContentImage {
			continue
		}
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:" + p.ImageMimeType + ";base64," + p.ImageData,
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}
	if len(parts) == 0 {
		return nil
	}
	return &openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: parts}
}

// FromOpenAIMessage converts an OpenAI assistant reply into a canonical
// assistant Message.
func FromOpenAIMessage(msg openai.ChatCompletionMessage) agent.Message {
	out := agent.Message{Role: agent.RoleAssistant}
	if msg.Content != "" {
		out.Parts = append(out.Parts, agent.ContentPart{Type: agent.ContentText, Text: msg.Content})
	}
	for _, tc := range msg.ToolCalls {
		out.Parts = append(out.Parts, agent.ContentPart{
			Type:         agent.ContentToolCall,
			ToolCallID:   tc.ID,
			ToolCallName: tc.Function.Name,
			Arguments:    json.RawMessage(tc.Function.Arguments),
		})
	}
	return out
}
