package providers

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/lowire/lowire/internal/agent"
	"github.com/lowire/lowire/internal/agent/toolconv"
)

const defaultAnthropicModel = "claude-sonnet-4-20250514"

// AnthropicProvider implements agent.Provider against Anthropic's Messages
// API (§4.2's Anthropic row, including extended thinking).
type AnthropicProvider struct {
	BaseProvider
	client anthropic.Client
}

// NewAnthropicProvider builds an AnthropicProvider reading its key from
// ANTHROPIC_API_KEY.
func NewAnthropicProvider() (agent.Provider, error) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		return nil, errors.New("ANTHROPIC_API_KEY is not set")
	}
	opts := []option.RequestOption{option.WithAPIKey(key)}
	if base := os.Getenv("ANTHROPIC_BASE_URL"); strings.TrimSpace(base) != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	return &AnthropicProvider{
		BaseProvider: NewBaseProvider("anthropic", 3, time.Second),
		client:       anthropic.NewClient(opts...),
	}, nil
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

// Complete performs one synchronous Anthropic Messages call. When
// opts.Reasoning is set, extended thinking is enabled with a budget of
// opts.MaxTokens/10 (minimum 1024 tokens).
func (p *AnthropicProvider) Complete(ctx context.Context, conv *agent.Conversation, opts agent.CompleteOptions) (agent.Completion, error) {
	messages, err := toolconv.ToAnthropicMessages(conv)
	if err != nil {
		return agent.Completion{}, err
	}
	tools, err := toolconv.ToAnthropicTools(conv.Tools)
	if err != nil {
		return agent.Completion{}, err
	}

	model := opts.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  messages,
		MaxTokens: int64(maxTokens),
		Tools:     tools,
	}
	if conv.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: conv.SystemPrompt}}
	}
	if opts.Reasoning {
		budget := int64(maxTokens / 10)
		if budget < 1024 {
			budget = 1024
		}
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(budget)
	}

	var resp *anthropic.Message
	err = p.Retry(ctx, IsRetryable, func() error {
		var callErr error
		resp, callErr = p.client.Messages.New(ctx, params)
		return wrapAnthropicError(callErr, model)
	})
	if err != nil {
		return agent.Completion{}, err
	}

	return agent.Completion{
		Result: toolconv.FromAnthropicMessage(resp.Content),
		Usage:  agent.Usage{Input: int(resp.Usage.InputTokens), Output: int(resp.Usage.OutputTokens)},
	}, nil
}

func wrapAnthropicError(err error, model string) error {
	if err == nil {
		return nil
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return NewProviderError("anthropic", model, err).WithStatus(apiErr.StatusCode)
	}
	return NewProviderError("anthropic", model, err)
}
