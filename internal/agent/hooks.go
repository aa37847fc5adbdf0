package agent

import "context"

// HookVote is what a hook returns to steer the loop: proceed, stop the run
// cleanly, or (tool-call hooks only) refuse the call.
type HookVote string

const (
	HookContinue  HookVote = "continue"
	HookBreak     HookVote = "break"
	HookDisallow  HookVote = "disallow"
)

// Hooks are optional callbacks invoked at fixed points in the turn state
// machine. A nil callback behaves as HookContinue.
type Hooks struct {
	// OnBeforeTurn fires before each provider call.
	OnBeforeTurn func(ctx context.Context, conv *Conversation, totalUsage Usage, budgetTokens int) HookVote

	// OnAfterTurn fires after each provider call, before the assistant
	// message is dispatched for tool calls.
	OnAfterTurn func(ctx context.Context, assistantMessage Message, totalUsage Usage) HookVote

	// OnBeforeToolCall fires before a tool callback is invoked. Returning
	// HookDisallow attaches an isError result without invoking the tool.
	OnBeforeToolCall func(ctx context.Context, name string, arguments []byte) HookVote

	// OnAfterToolCall fires after a tool callback returns successfully.
	// Returning HookDisallow overwrites the result with an isError text.
	OnAfterToolCall func(ctx context.Context, name string, result ToolResult) HookVote

	// OnToolCallError fires when a tool callback returns an error, before
	// the loop surfaces it to the model as an isError result.
	OnToolCallError func(ctx context.Context, name string, err error) HookVote
}

func vote(v HookVote) HookVote {
	if v == "" {
		return HookContinue
	}
	return v
}

func (h Hooks) beforeTurn(ctx context.Context, conv *Conversation, usage Usage, budget int) HookVote {
	if h.OnBeforeTurn == nil {
		return HookContinue
	}
	return vote(h.OnBeforeTurn(ctx, conv, usage, budget))
}

func (h Hooks) afterTurn(ctx context.Context, msg Message, usage Usage) HookVote {
	if h.OnAfterTurn == nil {
		return HookContinue
	}
	return vote(h.OnAfterTurn(ctx, msg, usage))
}

func (h Hooks) beforeToolCall(ctx context.Context, name string, args []byte) HookVote {
	if h.OnBeforeToolCall == nil {
		return HookContinue
	}
	return vote(h.OnBeforeToolCall(ctx, name, args))
}

func (h Hooks) afterToolCall(ctx context.Context, name string, result ToolResult) HookVote {
	if h.OnAfterToolCall == nil {
		return HookContinue
	}
	return vote(h.OnAfterToolCall(ctx, name, result))
}

func (h Hooks) toolCallError(ctx context.Context, name string, err error) HookVote {
	if h.OnToolCallError == nil {
		return HookContinue
	}
	return vote(h.OnToolCallError(ctx, name, err))
}
