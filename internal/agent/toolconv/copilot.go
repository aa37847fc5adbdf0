package toolconv

import (
	"encoding/json"

	"github.com/lowire/lowire/internal/agent"
)

const intentProperty = "_intent"

// InjectIntentTools returns a copy of tools with an "_intent" string
// property added to every input schema. The Copilot endpoint otherwise
// tends to emit a plain narration ("Navigating to …") without a tool call;
// forcing the narration into the tool call's own arguments gives the
// adapter somewhere to read it back from.
func InjectIntentTools(tools []agent.Tool) ([]agent.Tool, error) {
	out := make([]agent.Tool, len(tools))
	for i, tool := range tools {
		var schema map[string]any
		if len(tool.InputSchema) > 0 {
			if err := json.Unmarshal(tool.InputSchema, &schema); err != nil {
				return nil, err
			}
		}
		if schema == nil {
			schema = map[string]any{"type": "object"}
		}
		props, _ := schema["properties"].(map[string]any)
		if props == nil {
			props = map[string]any{}
		}
		props[intentProperty] = map[string]any{
			"type":        "string",
			"description": "brief narration of why this tool is being called",
		}
		schema["properties"] = props

		required, _ := schema["required"].([]any)
		schema["required"] = append(required, intentProperty)

		raw, err := json.Marshal(schema)
		if err != nil {
			return nil, err
		}
		tool.InputSchema = raw
		out[i] = tool
	}
	return out, nil
}

// StripIntentForOutgoing merges a companion intent text part's content back
// into its originating tool_call part's arguments, so a conversation loaded
// from a cached or prior turn carries `_intent` again on the next request.
// The companion text parts themselves are dropped from the wire message.
func StripIntentForOutgoing(conv *agent.Conversation) *agent.Conversation {
	out := &agent.Conversation{SystemPrompt: conv.SystemPrompt, Tools: conv.Tools}
	out.Messages = make([]agent.Message, len(conv.Messages))
	for i, m := range conv.Messages {
		if m.Role != agent.RoleAssistant {
			out.Messages[i] = m
			continue
		}
		intents := make(map[string]string)
		for _, p := range m.Parts {
			if p.Type == agent.ContentText && p.CopilotToolCallID != "" {
				intents[p.CopilotToolCallID] = p.Text
			}
		}
		nm := m
		nm.Parts = make([]agent.ContentPart, 0, len(m.Parts))
		for _, p := range m.Parts {
			if p.Type == agent.ContentText && p.CopilotToolCallID != "" {
				continue // merged back into its tool call below
			}
			if p.Type == agent.ContentToolCall {
				if intent, ok := intents[p.ToolCallID]; ok {
					p.Arguments = setIntentArgument(p.Arguments, intent)
				}
			}
			nm.Parts = append(nm.Parts, p)
		}
		out.Messages[i] = nm
	}
	return out
}

func setIntentArgument(args json.RawMessage, intent string) json.RawMessage {
	var m map[string]any
	if len(args) > 0 {
		_ = json.Unmarshal(args, &m)
	}
	if m == nil {
		m = map[string]any{}
	}
	m[intentProperty] = intent
	raw, err := json.Marshal(m)
	if err != nil {
		return args
	}
	return raw
}

// ExtractIntentIncoming reads "_intent" out of every tool_call part's
// arguments, strips it, and materialises it as a companion assistant text
// part immediately preceding the call, carrying the originating
// CopilotToolCallID so a later outgoing turn can reattach it.
func ExtractIntentIncoming(m agent.Message) agent.Message {
	out := agent.Message{Role: m.Role, ToolError: m.ToolError}
	for _, p := range m.Parts {
		if p.Type != agent.ContentToolCall {
			out.Parts = append(out.Parts, p)
			continue
		}
		var args map[string]any
		if len(p.Arguments) > 0 {
			_ = json.Unmarshal(p.Arguments, &args)
		}
		intent, ok := args[intentProperty].(string)
		if ok {
			delete(args, intentProperty)
			if raw, err := json.Marshal(args); err == nil {
				p.Arguments = raw
			}
			out.Parts = append(out.Parts, agent.ContentPart{
				Type: agent.ContentText, Text: intent, CopilotToolCallID: p.ToolCallID,
			})
		}
		out.Parts = append(out.Parts, p)
	}
	return out
}
