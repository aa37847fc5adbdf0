// Package agent implements the turn-by-turn agentic loop: a driver that
// turns a natural-language task plus a set of callable tools into a
// structured result by repeatedly asking an LLM provider to choose a tool,
// invoking it, and feeding the result back until the model calls the
// distinguished report_result tool.
package agent

import (
	"context"
	"encoding/json"
)

// Schema is a JSON-Schema object fragment describing a tool's input shape,
// e.g. {"type":"object","properties":{...},"required":[...]}.
type Schema = json.RawMessage

// Tool is a user-supplied callable the model may invoke. Tool execution
// itself is out of scope for this package; callers supply Execute.
type Tool struct {
	Name        string
	Description string
	InputSchema Schema

	// Execute runs the tool with its call arguments exactly as the model
	// produced them; the loop adds no "_meta" to them. Tool failures are returned
	// as an error; the loop converts them to an isError ToolResult and
	// continues rather than aborting the run.
	Execute func(ctx context.Context, name string, arguments json.RawMessage) (ToolResult, error)
}

// ContentPartType discriminates the tagged union of ContentPart.
type ContentPartType string

const (
	ContentText     ContentPartType = "text"
	ContentToolCall ContentPartType = "tool_call"
	ContentThinking ContentPartType = "thinking"
	ContentImage    ContentPartType = "image"
)

// ContentPart is a tagged union over the four content shapes a message may
// carry. Exactly the fields relevant to Type are populated. The toolconv
// serialisers skip a part whose Type they do not handle (and a message
// whose Role they do not handle) without raising an error;
// ErrUnsupportedContentType and ErrUnsupportedRole are not called by them.
type ContentPart struct {
	Type ContentPartType `json:"type"`

	// Text, valid when Type == ContentText or ContentThinking.
	Text string `json:"text,omitempty"`

	// Signature carries a provider-opaque value round-tripped with a text
	// or thinking part (Anthropic thinking signatures, Gemini
	// thoughtSignature).
	Signature string `json:"signature,omitempty"`

	// ToolCall fields, valid when Type == ContentToolCall.
	ToolCallID   string          `json:"id,omitempty"`
	ToolCallName string          `json:"name,omitempty"`
	Arguments    json.RawMessage `json:"arguments,omitempty"`
	Result       *ToolResult     `json:"result,omitempty"`

	// CopilotToolCallID correlates a materialised Copilot intent text part
	// back to the tool_call part it was extracted from (§4.2 Copilot row).
	CopilotToolCallID string `json:"copilot_tool_call_id,omitempty"`

	// ProviderOpaque carries fields a round-trip must preserve verbatim but
	// that no adapter other than the one that produced them interprets:
	// OpenAI Responses' per-item id/status.
	ProviderOpaque map[string]any `json:"provider_opaque,omitempty"`

	// Image fields, valid when Type == ContentImage. Image parts only ever
	// appear inside tool-result content, never inside assistant content.
	ImageData     string `json:"data,omitempty"`
	ImageMimeType string `json:"mime_type,omitempty"`
}

// MessageRole discriminates the tagged union of Message.
type MessageRole string

const (
	RoleUser       MessageRole = "user"
	RoleAssistant  MessageRole = "assistant"
	RoleToolResult MessageRole = "tool_result"
)

// Message is a tagged union on Role.
//
//   - user:        Content holds the plain text.
//   - assistant:    Content holds the content parts; ToolError, when set,
//     means the previous turn produced zero tool calls and must be
//     surfaced to the provider on the next turn.
//   - tool_result:  legacy representation of a tool result as its own
//     message rather than attached inline to the originating tool_call
//     part. ToolName/ToolCallID/Result are populated.
type Message struct {
	Role MessageRole `json:"role"`

	// Content, valid for RoleUser (plain text) and RoleAssistant (parts).
	UserContent string        `json:"content,omitempty"`
	Parts       []ContentPart `json:"parts,omitempty"`

	// ToolError, valid for RoleAssistant: set when the assistant's turn
	// produced zero tool calls.
	ToolError string `json:"tool_error,omitempty"`

	// ProviderOpaque carries per-message round-trip fields (OpenAI
	// Responses' item id/status).
	ProviderOpaque map[string]any `json:"provider_opaque,omitempty"`

	// Legacy tool_result fields.
	ToolName   string     `json:"tool_name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Result     *ToolResult `json:"result,omitempty"`
}

// ToolResult is what a tool callback returns: a list of text/image content
// parts, an error flag, and optional metadata consumed by the summariser
// (§4.4, §6).
type ToolResult struct {
	Content []ContentPart  `json:"content"`
	IsError bool           `json:"is_error,omitempty"`
	Meta    map[string]any `json:"_meta,omitempty"`
}

// Conversation is the canonical, provider-independent conversation model
// every adapter translates to and from its wire format.
type Conversation struct {
	SystemPrompt string
	Messages     []Message
	Tools        []Tool
}

// Usage accumulates input/output token counts across turns.
type Usage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// Add accumulates other into u and returns u for chaining.
func (u *Usage) Add(other Usage) *Usage {
	u.Input += other.Input
	u.Output += other.Output
	return u
}

// Completion is the result of a single provider.Complete call: the
// assistant message it produced plus the usage it consumed.
type Completion struct {
	Result Message
	Usage  Usage
}

// ReportResultTool is the distinguished tool name whose arguments become a
// run's return value.
const ReportResultTool = "report_result"

// DefaultResultSchema is used when RunOptions.ResultSchema is nil.
var DefaultResultSchema = json.RawMessage(`{"type":"object","properties":{"result":{"type":"string"}},"required":["result"]}`)
