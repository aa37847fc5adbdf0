package providers

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/lowire/lowire/internal/agent"
	"github.com/lowire/lowire/internal/agent/toolconv"
	sdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	rs "github.com/openai/openai-go/v2/responses"
	"github.com/openai/openai-go/v2/shared"
)

// ResponsesProvider implements agent.Provider against OpenAI's Responses API
// (§4.2's OpenAI Responses row): "input" items rather than "messages", a
// system prompt merged into "instructions", and parallel_tool_calls:false.
// It is a second, distinct OpenAI SDK client from OpenAIProvider since the
// two APIs live under separate Go modules.
type ResponsesProvider struct {
	BaseProvider
	client sdk.Client
}

// NewOpenAIResponsesProvider builds a ResponsesProvider reading its key from
// OPENAI_API_KEY.
func NewOpenAIResponsesProvider() (agent.Provider, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	return &ResponsesProvider{
		BaseProvider: NewBaseProvider("openai-responses", 3, time.Second),
		client:       sdk.NewClient(option.WithAPIKey(key)),
	}, nil
}

func (p *ResponsesProvider) Name() string { return "openai-responses" }

// Complete performs one synchronous Responses API call.
func (p *ResponsesProvider) Complete(ctx context.Context, conv *agent.Conversation, opts agent.CompleteOptions) (agent.Completion, error) {
	params := rs.ResponseNewParams{
		Model: rs.ResponsesModel(opts.Model),
	}
	if input := toolconv.ToResponsesInput(conv); len(input) > 0 {
		params.Input.OfInputItemList = input
	}
	if conv.SystemPrompt != "" {
		params.Instructions = sdk.String(conv.SystemPrompt)
	}

	extra := map[string]any{}
	if len(conv.Tools) > 0 {
		params.Tools = toolconv.ToResponsesTools(conv.Tools)
		extra["parallel_tool_calls"] = false
	}
	if opts.MaxTokens > 0 {
		extra["max_output_tokens"] = opts.MaxTokens
	}
	if len(extra) > 0 {
		params.SetExtraFields(extra)
	}
	if opts.Reasoning {
		params.Reasoning.Effort = shared.ReasoningEffort("medium")
	}

	var resp *rs.Response
	err := p.Retry(ctx, IsRetryable, func() error {
		var callErr error
		resp, callErr = p.client.Responses.New(ctx, params)
		return wrapResponsesError(callErr, opts.Model)
	})
	if err != nil {
		return agent.Completion{}, err
	}

	return agent.Completion{
		Result: toolconv.FromResponsesOutput(resp),
		Usage:  agent.Usage{Input: int(resp.Usage.InputTokens), Output: int(resp.Usage.OutputTokens)},
	}, nil
}

func wrapResponsesError(err error, model string) error {
	if err == nil {
		return nil
	}
	if IsProviderError(err) {
		return err
	}
	return NewProviderError("openai-responses", model, err)
}
