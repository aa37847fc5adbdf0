package providers

import (
	"encoding/json"
	"testing"

	"github.com/lowire/lowire/internal/agent"
	"github.com/lowire/lowire/internal/agent/toolconv"
	openai "github.com/sashabaranov/go-openai"
)

func fakeOpenAIAssistantMessage(callID, name, args string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleAssistant,
		ToolCalls: []openai.ToolCall{
			{ID: callID, Type: openai.ToolTypeFunction, Function: openai.FunctionCall{Name: name, Arguments: args}},
		},
	}
}

func TestOpenAIProviderName(t *testing.T) {
	p := &OpenAIProvider{}
	if got := p.Name(); got != "openai" {
		t.Errorf("Name() = %v, want openai", got)
	}
}

func TestNewOpenAIProviderRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewOpenAIProvider(); err == nil {
		t.Fatal("expected error when OPENAI_API_KEY is unset")
	}
}

func TestToOpenAIMessagesEmitsToolResultAfterAssistant(t *testing.T) {
	conv := &agent.Conversation{
		SystemPrompt: "be helpful",
		Messages: []agent.Message{
			{Role: agent.RoleUser, UserContent: "what's the weather?"},
			{Role: agent.RoleAssistant, Parts: []agent.ContentPart{
				{Type: agent.ContentToolCall, ToolCallID: "call_1", ToolCallName: "get_weather", Arguments: json.RawMessage(`{"loc":"nyc"}`),
					Result: &agent.ToolResult{Content: []agent.ContentPart{{Type: agent.ContentText, Text: "sunny"}}}},
			}},
		},
	}

	got := toolconv.ToOpenAIMessages(conv)
	if len(got) != 4 { // system + user + assistant + tool
		t.Fatalf("got %d messages, want 4: %+v", len(got), got)
	}
	if got[3].Role != "tool" || got[3].ToolCallID != "call_1" || got[3].Content != "sunny" {
		t.Errorf("tool result message = %+v", got[3])
	}
}

func TestToOpenAIMessagesSurfacesToolError(t *testing.T) {
	conv := &agent.Conversation{Messages: []agent.Message{
		{Role: agent.RoleAssistant, Parts: []agent.ContentPart{{Type: agent.ContentText, Text: "thinking"}}, ToolError: toolCallExpectedErrorForTest},
	}}
	got := toolconv.ToOpenAIMessages(conv)
	last := got[len(got)-1]
	if last.Role != "user" || last.Content != toolCallExpectedErrorForTest {
		t.Errorf("expected ToolError surfaced as a user message, got %+v", last)
	}
}

const toolCallExpectedErrorForTest = "Error: tool call is expected in every assistant message. Call \"report_result\" when complete."

func TestFromOpenAIMessageBuildsToolCallParts(t *testing.T) {
	msg := fakeOpenAIAssistantMessage("call_1", "report_result", `{"result":"done"}`)
	got := toolconv.FromOpenAIMessage(msg)
	if got.Role != agent.RoleAssistant {
		t.Fatalf("Role = %v", got.Role)
	}
	if len(got.Parts) != 1 || got.Parts[0].ToolCallName != "report_result" {
		t.Errorf("Parts = %+v", got.Parts)
	}
}
