package toolconv

import (
	"encoding/json"

	"github.com/lowire/lowire/internal/agent"
	sdk "github.com/openai/openai-go/v2"
	rs "github.com/openai/openai-go/v2/responses"
)

// ToResponsesTools converts tool definitions to the Responses API's function
// tool shape. Strict mode is left off: the Responses API's strict mode
// requires "required" to list every property, which would reject tools with
// genuinely optional arguments.
func ToResponsesTools(tools []agent.Tool) []rs.ToolUnionParam {
	out := make([]rs.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		fn := rs.FunctionToolParam{
			Name:        tool.Name,
			Description: sdk.String(tool.Description),
			Parameters:  schemaMap(tool.InputSchema),
			Strict:      sdk.Bool(false),
		}
		out = append(out, rs.ToolUnionParam{OfFunction: &fn})
	}
	return out
}

// ToResponsesInput flattens a Conversation into the Responses API's "input"
// item list. The system prompt is carried separately on Conversation and
// merged into "instructions" by the caller, not emitted as an input item.
// Plain assistant text is omitted, matching the Responses API's own
// treatment of prior output as context rather than input.
func ToResponsesInput(conv *agent.Conversation) rs.ResponseInputParam {
	items := make(rs.ResponseInputParam, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		switch m.Role {
		case agent.RoleUser:
			content := m.UserContent
			if content == "" {
				content = " "
			}
			part := rs.ResponseInputContentParamOfInputText(content)
			items = append(items, rs.ResponseInputItemUnionParam{OfInputMessage: &rs.ResponseInputItemMessageParam{
				Content: rs.ResponseInputMessageContentListParam{part},
				Role:    "user",
			}})

		case agent.RoleAssistant:
			for _, p := range m.Parts {
				if p.Type != agent.ContentToolCall {
					continue
				}
				items = append(items, rs.ResponseInputItemParamOfFunctionCall(string(p.Arguments), p.ToolCallID, p.ToolCallName))
				if p.Result != nil {
					items = append(items, rs.ResponseInputItemParamOfFunctionCallOutput(p.ToolCallID, resultContentText(p.Result)))
					if img := responsesImageItem(p.Result); img != nil {
						items = append(items, *img)
					}
				}
			}

		case agent.RoleToolResult:
			items = append(items, rs.ResponseInputItemParamOfFunctionCallOutput(m.ToolCallID, resultContentText(m.Result)))
			if img := responsesImageItem(m.Result); img != nil {
				items = append(items, *img)
			}
		}
	}
	return items
}

// responsesImageItem builds a follow-up "user"-role input message carrying
// a tool result's image parts as data-URL input_image content, since a
// function_call_output item's output is plain text only. Returns nil when
// the result has no images.
func responsesImageItem(r *agent.ToolResult) *rs.ResponseInputItemUnionParam {
	if r == nil {
		return nil
	}
	var content rs.ResponseInputMessageContentListParam
	for _, p := range r.Content {
		if p.Type != agent.ContentImage {
			continue
		}
		dataURL := "data:" + p.ImageMimeType + ";base64," + p.ImageData
		content = append(content, rs.ResponseInputContentParamOfInputImage(dataURL))
	}
	if len(content) == 0 {
		return nil
	}
	return &rs.ResponseInputItemUnionParam{OfInputMessage: &rs.ResponseInputItemMessageParam{
		Content: content,
		Role:    "user",
	}}
}

// FromResponsesOutput converts a Responses API reply into a canonical
// assistant Message, recording the response's opaque id/status on the
// message and on each tool call part as ProviderOpaque. ToResponsesInput
// does not send these fields back on a later turn.
func FromResponsesOutput(resp *rs.Response) agent.Message {
	out := agent.Message{
		Role:           agent.RoleAssistant,
		ProviderOpaque: map[string]any{"id": resp.ID, "status": string(resp.Status)},
	}
	if text := resp.OutputText(); text != "" {
		out.Parts = append(out.Parts, agent.ContentPart{Type: agent.ContentText, Text: text})
	}
	for _, item := range resp.Output {
		fn := item.AsFunctionCall()
		if fn.Name == "" && fn.CallID == "" && fn.Arguments == "" {
			continue
		}
		id := fn.CallID
		if id == "" {
			id = fn.ID
		}
		out.Parts = append(out.Parts, agent.ContentPart{
			Type:           agent.ContentToolCall,
			ToolCallID:     id,
			ToolCallName:   fn.Name,
			Arguments:      json.RawMessage(fn.Arguments),
			ProviderOpaque: map[string]any{"id": fn.ID, "status": string(fn.Status)},
		})
	}
	return out
}
