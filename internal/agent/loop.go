package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lowire/lowire/internal/cache"
	"github.com/lowire/lowire/internal/transcript"
)

// defaultSystemPrompt is the fixed agent preamble prepended to every run
// (§4.1 Initial state).
const defaultSystemPrompt = `You are an autonomous agent. You have been given a task and a set of tools.
Call tools to make progress on the task. When the task is complete, call the
"report_result" tool with your final answer matching its schema. Every
response you give must include exactly one tool call.`

// RunStatus is the terminal status of a Run call (§4.1 Termination table).
type RunStatus string

const (
	StatusOK    RunStatus = "ok"
	StatusBreak RunStatus = "break"
)

// RunOptions configures a single Run call.
type RunOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Reasoning   bool
	Debug       bool

	// Tools are the user-supplied callables available this run, in
	// addition to the always-present report_result tool.
	Tools []Tool

	// MaxTurns bounds the loop before it fails with
	// "Failed to perform step, max attempts reached". Default 100.
	MaxTurns int

	// ResultSchema constrains report_result's arguments. Defaults to
	// DefaultResultSchema.
	ResultSchema Schema

	// BudgetTokens is an optional input+output token budget for the run.
	// Zero means unbounded.
	BudgetTokens int

	// Cache, when non-nil, enables the replay cache (§4.3).
	Cache *cache.Caches

	// Summarize enables conversation summarisation between turns (§4.4).
	Summarize bool

	Hooks Hooks
}

// DefaultRunOptions returns the loop's documented defaults: MaxTurns 100,
// MaxTokens 4096.
func DefaultRunOptions() RunOptions {
	return RunOptions{MaxTurns: 100, MaxTokens: 4096}
}

func sanitizeRunOptions(opts RunOptions) RunOptions {
	defaults := DefaultRunOptions()
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = defaults.MaxTurns
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaults.MaxTokens
	}
	if opts.ResultSchema == nil {
		opts.ResultSchema = DefaultResultSchema
	}
	if opts.BudgetTokens < 0 {
		opts.BudgetTokens = 0
	}
	return opts
}

// RunResult is the loop's return value (§4.1 Contract).
type RunResult struct {
	Result json.RawMessage
	Status RunStatus
	Usage  Usage
	Turns  int
}

// Loop drives one provider through the turn-by-turn state machine. A Loop
// holds only its provider; the replay cache is passed per run in
// RunOptions.Cache and is mutated by that run, so one Caches value must
// not be shared across concurrent Run calls (§5 Shared resources).
type Loop struct {
	provider Provider
}

// NewLoop builds a Loop bound to provider.
func NewLoop(provider Provider) *Loop {
	return &Loop{provider: provider}
}

func reportResultTool(schema Schema) Tool {
	return Tool{
		Name:        ReportResultTool,
		Description: "Report the final result of the task. Call this when you are done.",
		InputSchema: schema,
		Execute: func(ctx context.Context, name string, arguments json.RawMessage) (ToolResult, error) {
			return ToolResult{}, fmt.Errorf("report_result is handled by the loop and must never be executed directly")
		},
	}
}

// Run executes task to completion, per §4.1's per-turn algorithm.
func (l *Loop) Run(ctx context.Context, task string, opts RunOptions) (RunResult, error) {
	opts = sanitizeRunOptions(opts)

	tools := make([]Tool, 0, len(opts.Tools)+1)
	tools = append(tools, opts.Tools...)
	tools = append(tools, reportResultTool(opts.ResultSchema))

	conv := &Conversation{
		SystemPrompt: defaultSystemPrompt,
		Messages:     []Message{{Role: RoleUser, UserContent: task}},
		Tools:        tools,
	}

	var totalUsage Usage
	remaining := opts.BudgetTokens
	turn := 0

	for {
		if opts.BudgetTokens > 0 && remaining <= 0 {
			return RunResult{}, errBudgetExhausted(opts.BudgetTokens, PhaseInit, turn)
		}

		turnConv := conv
		if opts.Summarize {
			derived, err := transcript.Summarize(task, toTranscriptConversation(conv))
			if err != nil {
				return RunResult{}, err
			}
			turnConv = fromTranscriptConversation(conv, derived, conv.SystemPrompt, conv.Tools)
		}

		if v := opts.Hooks.beforeTurn(ctx, turnConv, totalUsage, remaining); v == HookBreak {
			return RunResult{Status: StatusBreak, Usage: totalUsage, Turns: turn}, nil
		}

		maxTokens := opts.MaxTokens
		if opts.BudgetTokens > 0 && remaining < maxTokens {
			maxTokens = remaining
		}
		completeOpts := CompleteOptions{
			Model: opts.Model, MaxTokens: maxTokens, Temperature: opts.Temperature,
			Reasoning: opts.Reasoning, Debug: opts.Debug,
		}

		completion, err := CachedComplete(ctx, l.provider, turnConv, opts.Cache, completeOpts)
		if err != nil {
			return RunResult{}, err
		}

		totalUsage.Add(completion.Usage)
		if opts.BudgetTokens > 0 {
			remaining -= completion.Usage.Input + completion.Usage.Output
		}

		if v := opts.Hooks.afterTurn(ctx, completion.Result, totalUsage); v == HookBreak {
			return RunResult{Status: StatusBreak, Usage: totalUsage, Turns: turn}, nil
		}

		conv.Messages = append(conv.Messages, completion.Result)
		msgIdx := len(conv.Messages) - 1

		toolCallIdx := collectToolCallIndices(conv.Messages[msgIdx].Parts)
		if len(toolCallIdx) == 0 {
			conv.Messages[msgIdx].ToolError = toolCallExpectedError
			turn++
			if turn >= opts.MaxTurns {
				return l.handleMaxTurns(ctx, task, conv, totalUsage, turn, opts)
			}
			continue
		}

		for _, partIdx := range toolCallIdx {
			part := &conv.Messages[msgIdx].Parts[partIdx]

			if part.ToolCallName == ReportResultTool {
				return RunResult{Result: part.Arguments, Status: StatusOK, Usage: totalUsage, Turns: turn + 1}, nil
			}

			if v := opts.Hooks.beforeToolCall(ctx, part.ToolCallName, part.Arguments); v == HookDisallow {
				part.Result = &ToolResult{
					Content: []ContentPart{{Type: ContentText, Text: disallowedToolCallText}},
					IsError: true,
				}
				continue
			} else if v == HookBreak {
				return RunResult{Status: StatusBreak, Usage: totalUsage, Turns: turn}, nil
			}

			result, execErr := invokeTool(ctx, tools, part.ToolCallName, part.Arguments)
			if execErr != nil {
				if v := opts.Hooks.toolCallError(ctx, part.ToolCallName, execErr); v == HookBreak {
					return RunResult{Status: StatusBreak, Usage: totalUsage, Turns: turn}, nil
				}
				result = ToolResult{
					Content: []ContentPart{{Type: ContentText, Text: toolExecutionErrorText(part.ToolCallName, execErr)}},
					IsError: true,
				}
			} else if v := opts.Hooks.afterToolCall(ctx, part.ToolCallName, result); v == HookDisallow {
				result = ToolResult{
					Content: []ContentPart{{Type: ContentText, Text: disallowedToolResultText}},
					IsError: true,
				}
			} else if v == HookBreak {
				return RunResult{Status: StatusBreak, Usage: totalUsage, Turns: turn}, nil
			}

			part.Result = &result
		}

		turn++
		if turn >= opts.MaxTurns {
			return l.handleMaxTurns(ctx, task, conv, totalUsage, turn, opts)
		}
	}
}

// handleMaxTurns implements the termination table's maxTurns row: fail with
// the literal max-attempts error, unless Summarize is set, in which case the
// run returns the rendered summary as its result rather than erroring.
func (l *Loop) handleMaxTurns(ctx context.Context, task string, conv *Conversation, usage Usage, turn int, opts RunOptions) (RunResult, error) {
	if !opts.Summarize {
		return RunResult{}, errMaxAttempts(turn)
	}
	summary, err := transcript.Summarize(task, toTranscriptConversation(conv))
	if err != nil {
		return RunResult{}, errMaxAttempts(turn)
	}
	result, _ := json.Marshal(map[string]string{"summary": summary.Summary})
	return RunResult{Result: result, Status: StatusOK, Usage: usage, Turns: turn}, nil
}

func collectToolCallIndices(parts []ContentPart) []int {
	var idx []int
	for i, p := range parts {
		if p.Type == ContentToolCall {
			idx = append(idx, i)
		}
	}
	return idx
}

func invokeTool(ctx context.Context, tools []Tool, name string, arguments json.RawMessage) (ToolResult, error) {
	for _, t := range tools {
		if t.Name == name {
			if t.Execute == nil {
				return ToolResult{}, fmt.Errorf("tool %q has no executor", name)
			}
			return t.Execute(ctx, name, arguments)
		}
	}
	return ToolResult{}, fmt.Errorf("unknown tool: %s", name)
}
