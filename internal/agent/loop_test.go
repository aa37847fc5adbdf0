package agent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

type scriptedProvider struct {
	turns []Message
	calls int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, conv *Conversation, opts CompleteOptions) (Completion, error) {
	if p.calls >= len(p.turns) {
		return Completion{}, context.DeadlineExceeded
	}
	msg := p.turns[p.calls]
	p.calls++
	return Completion{Result: msg, Usage: Usage{Input: 10, Output: 5}}, nil
}

func toolCallMessage(name string, args string) Message {
	return Message{Role: RoleAssistant, Parts: []ContentPart{
		{Type: ContentToolCall, ToolCallName: name, ToolCallID: "1", Arguments: json.RawMessage(args)},
	}}
}

func TestRunReturnsResultOnReportResult(t *testing.T) {
	provider := &scriptedProvider{turns: []Message{
		toolCallMessage(ReportResultTool, `{"result":"done"}`),
	}}
	loop := NewLoop(provider)

	res, err := loop.Run(context.Background(), "say done", RunOptions{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Status != StatusOK {
		t.Errorf("Status = %v, want ok", res.Status)
	}
	if string(res.Result) != `{"result":"done"}` {
		t.Errorf("Result = %s", res.Result)
	}
	if res.Usage.Input != 10 || res.Usage.Output != 5 {
		t.Errorf("Usage = %+v", res.Usage)
	}
}

func TestRunSetsToolErrorWhenNoToolCall(t *testing.T) {
	provider := &scriptedProvider{turns: []Message{
		{Role: RoleAssistant, Parts: []ContentPart{{Type: ContentText, Text: "thinking out loud"}}},
		toolCallMessage(ReportResultTool, `{"result":"ok"}`),
	}}
	loop := NewLoop(provider)

	res, err := loop.Run(context.Background(), "task", RunOptions{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Status != StatusOK {
		t.Errorf("Status = %v, want ok", res.Status)
	}
}

func TestRunFailsAfterMaxTurns(t *testing.T) {
	turns := make([]Message, 3)
	for i := range turns {
		turns[i] = Message{Role: RoleAssistant, Parts: []ContentPart{{Type: ContentText, Text: "stalling"}}}
	}
	provider := &scriptedProvider{turns: turns}
	loop := NewLoop(provider)

	_, err := loop.Run(context.Background(), "task", RunOptions{MaxTurns: 3})
	if err == nil || !strings.Contains(err.Error(), "max attempts reached") {
		t.Fatalf("expected max attempts error, got %v", err)
	}
}

func TestRunSummarizeReturnsSummaryInsteadOfError(t *testing.T) {
	turns := make([]Message, 2)
	for i := range turns {
		turns[i] = Message{Role: RoleAssistant, Parts: []ContentPart{{Type: ContentText, Text: "stalling"}}}
	}
	provider := &scriptedProvider{turns: turns}
	loop := NewLoop(provider)

	res, err := loop.Run(context.Background(), "task", RunOptions{MaxTurns: 2, Summarize: true})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Status != StatusOK {
		t.Errorf("Status = %v, want ok", res.Status)
	}
	var decoded map[string]string
	if err := json.Unmarshal(res.Result, &decoded); err != nil {
		t.Fatalf("Result not valid JSON: %v", err)
	}
	if decoded["summary"] == "" {
		t.Errorf("expected non-empty summary")
	}
}

func TestRunHonorsBeforeToolCallDisallow(t *testing.T) {
	provider := &scriptedProvider{turns: []Message{
		toolCallMessage("dangerous_tool", `{}`),
		toolCallMessage(ReportResultTool, `{"result":"recovered"}`),
	}}
	loop := NewLoop(provider)

	called := false
	res, err := loop.Run(context.Background(), "task", RunOptions{
		Tools: []Tool{{Name: "dangerous_tool", Execute: func(ctx context.Context, name string, args json.RawMessage) (ToolResult, error) {
			called = true
			return ToolResult{}, nil
		}}},
		Hooks: Hooks{OnBeforeToolCall: func(ctx context.Context, name string, args []byte) HookVote {
			if name == "dangerous_tool" {
				return HookDisallow
			}
			return HookContinue
		}},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if called {
		t.Error("expected dangerous_tool.Execute not to be called when disallowed")
	}
	if res.Status != StatusOK {
		t.Errorf("Status = %v, want ok", res.Status)
	}
}

func TestRunBreaksOnBeforeTurnHook(t *testing.T) {
	provider := &scriptedProvider{turns: []Message{
		toolCallMessage(ReportResultTool, `{"result":"unreachable"}`),
	}}
	loop := NewLoop(provider)

	res, err := loop.Run(context.Background(), "task", RunOptions{
		Hooks: Hooks{OnBeforeTurn: func(ctx context.Context, conv *Conversation, usage Usage, budget int) HookVote {
			return HookBreak
		}},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Status != StatusBreak {
		t.Errorf("Status = %v, want break", res.Status)
	}
	if provider.calls != 0 {
		t.Errorf("expected provider not to be called once beforeTurn breaks")
	}
}

func TestRunSurfacesToolExecutionError(t *testing.T) {
	provider := &scriptedProvider{turns: []Message{
		toolCallMessage("flaky_tool", `{}`),
		toolCallMessage(ReportResultTool, `{"result":"recovered"}`),
	}}
	loop := NewLoop(provider)

	res, err := loop.Run(context.Background(), "task", RunOptions{
		Tools: []Tool{{Name: "flaky_tool", Execute: func(ctx context.Context, name string, args json.RawMessage) (ToolResult, error) {
			return ToolResult{}, errFlaky
		}}},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Status != StatusOK {
		t.Errorf("Status = %v, want ok", res.Status)
	}
}

var errFlaky = &simpleError{"tool exploded"}

type simpleError struct{ msg string }

func (e *simpleError) Error() string { return e.msg }
