package toolconv

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lowire/lowire/internal/agent"
	"google.golang.org/genai"
)

// ToGeminiTools converts tool definitions to Gemini's FunctionDeclaration
// format, stripping additionalProperties (Gemini's schema validator rejects
// it) from every nested object schema.
func ToGeminiTools(tools []agent.Tool) ([]*genai.Tool, error) {
	if len(tools) == 0 {
		return nil, nil
	}

	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		var schemaMap map[string]any
		if len(tool.InputSchema) > 0 {
			if err := json.Unmarshal(tool.InputSchema, &schemaMap); err != nil {
				return nil, fmt.Errorf("invalid tool schema for %s: %w", tool.Name, err)
			}
		}
		StripAdditionalProperties(schemaMap)
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  toGeminiSchema(schemaMap),
		})
	}

	return []*genai.Tool{{FunctionDeclarations: declarations}}, nil
}

// StripAdditionalProperties recursively removes "additionalProperties" from
// a JSON-Schema map and every nested properties/items schema. Gemini's
// GenerateContent rejects schemas carrying that keyword.
func StripAdditionalProperties(schema map[string]any) {
	if schema == nil {
		return
	}
	delete(schema, "additionalProperties")

	if props, ok := schema["properties"].(map[string]any); ok {
		for _, p := range props {
			if pm, ok := p.(map[string]any); ok {
				StripAdditionalProperties(pm)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		StripAdditionalProperties(items)
	}
}

func toGeminiSchema(schemaMap map[string]any) *genai.Schema {
	if schemaMap == nil {
		return nil
	}
	schema := &genai.Schema{}

	if t, ok := schemaMap["type"].(string); ok {
		schema.Type = genai.Type(strings.ToUpper(t))
	}
	if desc, ok := schemaMap["description"].(string); ok {
		schema.Description = desc
	}
	if enum, ok := schemaMap["enum"].([]any); ok {
		for _, e := range enum {
			if s, ok := e.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}
	if props, ok := schemaMap["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema, len(props))
		for name, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				schema.Properties[name] = toGeminiSchema(propMap)
			}
		}
	}
	if required, ok := schemaMap["required"].([]any); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	if items, ok := schemaMap["items"].(map[string]any); ok {
		schema.Items = toGeminiSchema(items)
	}
	return schema
}

// ToGeminiContents converts a Conversation's messages to Gemini's Content
// list. System prompt is carried separately: Gemini takes it as
// SystemInstruction on the generation config, not as a turn.
func ToGeminiContents(conv *agent.Conversation) ([]*genai.Content, error) {
	var result []*genai.Content
	for _, m := range conv.Messages {
		switch m.Role {
		case agent.RoleUser:
			result = append(result, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: m.UserContent}},
			})

		case agent.RoleAssistant:
			modelParts, responseParts, imageParts, err := assistantToGeminiParts(m)
			if err != nil {
				return nil, err
			}
			result = append(result, &genai.Content{Role: genai.RoleModel, Parts: modelParts})
			if len(responseParts) > 0 {
				result = append(result, &genai.Content{Role: genai.RoleUser, Parts: responseParts})
			}
			if len(imageParts) > 0 {
				result = append(result, &genai.Content{Role: genai.RoleUser, Parts: imageParts})
			}
			if m.ToolError != "" {
				result = append(result, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: m.ToolError}}})
			}

		case agent.RoleToolResult:
			result = append(result, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{
				FunctionResponse: &genai.FunctionResponse{
					Name:     m.ToolName,
					Response: functionResponseBody(m.Result),
				},
			}}})
			if imgs := geminiImageParts(m.Result); len(imgs) > 0 {
				result = append(result, &genai.Content{Role: genai.RoleUser, Parts: imgs})
			}
		}
	}
	return result, nil
}

func assistantToGeminiParts(m agent.Message) ([]*genai.Part, []*genai.Part, []*genai.Part, error) {
	var parts, responses, images []*genai.Part
	for _, p := range m.Parts {
		switch p.Type {
		case agent.ContentText:
			parts = append(parts, &genai.Part{Text: p.Text, ThoughtSignature: signatureBytes(p.Signature)})
		case agent.ContentThinking:
			parts = append(parts, &genai.Part{Text: p.Text, Thought: true, ThoughtSignature: signatureBytes(p.Signature)})
		case agent.ContentToolCall:
			var args map[string]any
			if len(p.Arguments) > 0 {
				if err := json.Unmarshal(p.Arguments, &args); err != nil {
					return nil, nil, nil, fmt.Errorf("invalid tool call args for %s: %w", p.ToolCallName, err)
				}
			}
			parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{Name: p.ToolCallName, Args: args}})
			if p.Result != nil {
				responses = append(responses, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					Name:     p.ToolCallName,
					Response: functionResponseBody(p.Result),
				}})
				images = append(images, geminiImageParts(p.Result)...)
			}
		}
	}
	return parts, responses, images, nil
}

// geminiImageParts converts a tool result's image parts to Gemini's
// inline_data Blob shape (§4.2's Gemini row: "images attached as a
// following user message with inline_data").
func geminiImageParts(r *agent.ToolResult) []*genai.Part {
	if r == nil {
		return nil
	}
	var parts []*genai.Part
	for _, p := range r.Content {
		if p.Type != agent.ContentImage {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.ImageData)
		if err != nil {
			continue
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{Data: data, MIMEType: p.ImageMimeType}})
	}
	return parts
}

func signatureBytes(sig string) []byte {
	if sig == "" {
		return nil
	}
	return []byte(sig)
}

func functionResponseBody(r *agent.ToolResult) map[string]any {
	if r == nil {
		return map[string]any{"result": ""}
	}
	body := map[string]any{"result": resultContentText(r)}
	if r.IsError {
		body["error"] = true
	}
	return body
}

// FromGeminiContent converts a Gemini response candidate's content into a
// canonical assistant Message. Gemini never assigns its own tool-call IDs,
// so callers must synthesise one per function call (see
// providers.GoogleProvider.nextToolCallID); parts with neither text nor a function
// call are dropped, matching the behaviour already documented on
// agent.ContentPart.
func FromGeminiContent(content *genai.Content, nextToolCallID func(name string) string) agent.Message {
	out := agent.Message{Role: agent.RoleAssistant}
	if content == nil {
		return out
	}
	for _, part := range content.Parts {
		switch {
		case part.FunctionCall != nil:
			args, _ := json.Marshal(part.FunctionCall.Args)
			out.Parts = append(out.Parts, agent.ContentPart{
				Type:         agent.ContentToolCall,
				ToolCallID:   nextToolCallID(part.FunctionCall.Name),
				ToolCallName: part.FunctionCall.Name,
				Arguments:    args,
			})
		case part.Thought:
			out.Parts = append(out.Parts, agent.ContentPart{
				Type: agent.ContentThinking, Text: part.Text, Signature: string(part.ThoughtSignature),
			})
		case part.Text != "":
			out.Parts = append(out.Parts, agent.ContentPart{
				Type: agent.ContentText, Text: part.Text, Signature: string(part.ThoughtSignature),
			})
		}
	}
	return out
}
