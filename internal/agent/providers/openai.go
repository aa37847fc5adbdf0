package providers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lowire/lowire/internal/agent"
	"github.com/lowire/lowire/internal/agent/toolconv"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements agent.Provider against OpenAI's Chat
// Completions API.
type OpenAIProvider struct {
	BaseProvider
	client *openai.Client
}

// NewOpenAIProvider builds an OpenAIProvider reading its key from
// OPENAI_API_KEY.
func NewOpenAIProvider() (agent.Provider, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	return &OpenAIProvider{
		BaseProvider: NewBaseProvider("openai", 3, time.Second),
		client:       openai.NewClient(key),
	}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

// Complete performs one synchronous OpenAI Chat Completions call (§4.2's
// OpenAI Chat row).
func (p *OpenAIProvider) Complete(ctx context.Context, conv *agent.Conversation, opts agent.CompleteOptions) (agent.Completion, error) {
	req := openai.ChatCompletionRequest{
		Model:       opts.Model,
		Messages:    toolconv.ToOpenAIMessages(conv),
		MaxTokens:   opts.MaxTokens,
		Temperature: float32(opts.Temperature),
		Tools:       toolconv.ToOpenAITools(conv.Tools),
	}

	var resp openai.ChatCompletionResponse
	err := p.Retry(ctx, IsRetryable, func() error {
		var callErr error
		resp, callErr = p.client.CreateChatCompletion(ctx, req)
		return wrapOpenAIError(callErr)
	})
	if err != nil {
		return agent.Completion{}, err
	}
	if len(resp.Choices) == 0 {
		return agent.Completion{}, NewProviderError("openai", opts.Model, errors.New("no choices in response"))
	}

	return agent.Completion{
		Result: toolconv.FromOpenAIMessage(resp.Choices[0].Message),
		Usage:  agent.Usage{Input: resp.Usage.PromptTokens, Output: resp.Usage.CompletionTokens},
	}, nil
}

func wrapOpenAIError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError("openai", "", fmt.Errorf("API error: %d %s %s", apiErr.HTTPStatusCode, apiErr.Code, apiErr.Message)).WithStatus(apiErr.HTTPStatusCode)
	}
	return NewProviderError("openai", "", err)
}
