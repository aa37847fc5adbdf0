package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lowire/lowire/internal/agent"
	"github.com/lowire/lowire/internal/agent/toolconv"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GoogleProvider implements agent.Provider against Gemini's synchronous
// GenerateContent API (§4.2's Gemini row).
type GoogleProvider struct {
	BaseProvider
	client *genai.Client

	mu       sync.Mutex
	callIDs  map[string]string // correlates a synthesised call id back to its tool name
}

// NewGoogleProvider builds a GoogleProvider reading its key from
// GOOGLE_API_KEY.
func NewGoogleProvider() (agent.Provider, error) {
	key := os.Getenv("GOOGLE_API_KEY")
	if key == "" {
		return nil, errors.New("GOOGLE_API_KEY is not set")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("google: failed to create client: %w", err)
	}
	return &GoogleProvider{
		BaseProvider: NewBaseProvider("google", 3, time.Second),
		client:       client,
		callIDs:      make(map[string]string),
	}, nil
}

func (p *GoogleProvider) Name() string { return "google" }

// Complete performs one synchronous Gemini GenerateContent call. Gemini
// assigns no id to a function call, so one is synthesised per call (see
// nextToolCallID); the FunctionResponse sent on a later turn takes its name
// from the tool_call part itself.
func (p *GoogleProvider) Complete(ctx context.Context, conv *agent.Conversation, opts agent.CompleteOptions) (agent.Completion, error) {
	contents, err := toolconv.ToGeminiContents(conv)
	if err != nil {
		return agent.Completion{}, err
	}
	tools, err := toolconv.ToGeminiTools(conv.Tools)
	if err != nil {
		return agent.Completion{}, err
	}

	model := opts.Model
	if model == "" {
		model = defaultGeminiModel
	}

	config := &genai.GenerateContentConfig{Tools: tools}
	if conv.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: conv.SystemPrompt}}}
	}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(min(opts.MaxTokens, math.MaxInt32))
	}

	var resp *genai.GenerateContentResponse
	err = p.Retry(ctx, IsRetryable, func() error {
		var callErr error
		resp, callErr = p.client.Models.GenerateContent(ctx, model, contents, config)
		return wrapGoogleError(callErr, model)
	})
	if err != nil {
		return agent.Completion{}, err
	}
	if len(resp.Candidates) == 0 {
		return agent.Completion{}, NewProviderError("google", model, errors.New("No candidates in response"))
	}

	result := toolconv.FromGeminiContent(resp.Candidates[0].Content, p.nextToolCallID)
	return agent.Completion{
		Result: result,
		Usage:  agent.Usage{Input: int(resp.UsageMetadata.PromptTokenCount), Output: int(resp.UsageMetadata.CandidatesTokenCount)},
	}, nil
}

// nextToolCallID synthesises a correlation id for a function call and
// remembers its name so a later lookup (if ever needed by a caller tracking
// calls outside the Conversation) can recover it.
func (p *GoogleProvider) nextToolCallID(name string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := fmt.Sprintf("call_%s_%d", name, len(p.callIDs))
	p.callIDs[id] = name
	return id
}

func wrapGoogleError(err error, model string) error {
	if err == nil {
		return nil
	}
	if IsProviderError(err) {
		return err
	}
	providerErr := NewProviderError("google", model, err)
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401"), strings.Contains(msg, "unauthenticated"):
		providerErr = providerErr.WithStatus(http.StatusUnauthorized)
	case strings.Contains(msg, "403"), strings.Contains(msg, "permission denied"):
		providerErr = providerErr.WithStatus(http.StatusForbidden)
	case strings.Contains(msg, "404"), strings.Contains(msg, "not found"):
		providerErr = providerErr.WithStatus(http.StatusNotFound)
	case strings.Contains(msg, "429"), strings.Contains(msg, "resource exhausted"), strings.Contains(msg, "quota"):
		providerErr = providerErr.WithStatus(http.StatusTooManyRequests)
	case strings.Contains(msg, "500"):
		providerErr = providerErr.WithStatus(http.StatusInternalServerError)
	case strings.Contains(msg, "503"):
		providerErr = providerErr.WithStatus(http.StatusServiceUnavailable)
	}
	return providerErr
}
