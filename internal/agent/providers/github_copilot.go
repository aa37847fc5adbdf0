package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/lowire/lowire/internal/agent"
	"github.com/lowire/lowire/internal/agent/toolconv"
	openai "github.com/sashabaranov/go-openai"
)

const (
	copilotChatURL  = "https://api.githubcopilot.com/chat/completions"
	copilotTokenURL = "https://api.github.com/copilot_internal/v2/token"
	copilotEditorVersion = "lowire/0.1.0"
)

// CopilotProvider implements agent.Provider against GitHub Copilot's chat
// endpoint (§4.2's Copilot row). It composes OpenAI Chat's wire format by
// delegation rather than embedding an OpenAIProvider: requests need
// Copilot-specific headers and a lazily-exchanged bearer token the
// sashabaranov/go-openai client has no hook for.
type CopilotProvider struct {
	BaseProvider
	httpClient *http.Client
	apiKey     string
	chatURL    string
	tokenURL   string

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewGitHubCopilotProvider builds a CopilotProvider reading its key from
// COPILOT_API_KEY.
func NewGitHubCopilotProvider() (agent.Provider, error) {
	key := os.Getenv("COPILOT_API_KEY")
	if key == "" {
		return nil, errors.New("COPILOT_API_KEY is not set")
	}
	return &CopilotProvider{
		BaseProvider: NewBaseProvider("github", 3, time.Second),
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		apiKey:       key,
		chatURL:      copilotChatURL,
		tokenURL:     copilotTokenURL,
	}, nil
}

func (p *CopilotProvider) Name() string { return "github" }

type copilotTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

func (p *CopilotProvider) getToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token != "" && time.Now().Before(p.tokenExpiry) {
		return p.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.tokenURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "token "+p.apiKey)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", errors.New("Failed to get Copilot token")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.New("Failed to get Copilot token")
	}

	var tok copilotTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil || tok.Token == "" {
		return "", errors.New("Failed to get Copilot token")
	}

	p.token = tok.Token
	p.tokenExpiry = time.Unix(tok.ExpiresAt, 0).Add(-30 * time.Second)
	return p.token, nil
}

// copilotRequest mirrors openai.ChatCompletionRequest's wire shape but adds
// the fixed parallel_tool_calls:false field the endpoint expects.
type copilotRequest struct {
	Model             string                         `json:"model"`
	Messages          []openai.ChatCompletionMessage `json:"messages"`
	MaxTokens         int                            `json:"max_tokens,omitempty"`
	Temperature       float32                        `json:"temperature,omitempty"`
	Tools             []openai.Tool                  `json:"tools,omitempty"`
	ParallelToolCalls bool                            `json:"parallel_tool_calls"`
}

// Complete performs one synchronous Copilot chat completion call, retrying
// up to 3 times when the response arrives with zero choices.
func (p *CopilotProvider) Complete(ctx context.Context, conv *agent.Conversation, opts agent.CompleteOptions) (agent.Completion, error) {
	intentTools, err := toolconv.InjectIntentTools(conv.Tools)
	if err != nil {
		return agent.Completion{}, err
	}
	outgoing := toolconv.StripIntentForOutgoing(conv)
	outgoing.Tools = intentTools

	body := copilotRequest{
		Model:             opts.Model,
		Messages:          toolconv.ToOpenAIMessages(outgoing),
		MaxTokens:         opts.MaxTokens,
		Temperature:       float32(opts.Temperature),
		Tools:             toolconv.ToOpenAITools(intentTools),
		ParallelToolCalls: false,
	}

	var resp openai.ChatCompletionResponse
	const maxEmptyChoiceRetries = 3
	for attempt := 1; ; attempt++ {
		var callErr error
		err = p.Retry(ctx, IsRetryable, func() error {
			resp, callErr = p.doRequest(ctx, body)
			return callErr
		})
		if err != nil {
			return agent.Completion{}, err
		}
		if len(resp.Choices) > 0 {
			break
		}
		if attempt >= maxEmptyChoiceRetries {
			return agent.Completion{}, NewProviderError("github", opts.Model, errors.New("no choices in response"))
		}
	}

	result := toolconv.ExtractIntentIncoming(toolconv.FromOpenAIMessage(resp.Choices[0].Message))
	return agent.Completion{
		Result: result,
		Usage:  agent.Usage{Input: resp.Usage.PromptTokens, Output: resp.Usage.CompletionTokens},
	}, nil
}

func (p *CopilotProvider) doRequest(ctx context.Context, body copilotRequest) (openai.ChatCompletionResponse, error) {
	token, err := p.getToken(ctx)
	if err != nil {
		return openai.ChatCompletionResponse{}, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return openai.ChatCompletionResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.chatURL, bytes.NewReader(payload))
	if err != nil {
		return openai.ChatCompletionResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Editor-Version", copilotEditorVersion)
	req.Header.Set("Copilot-Integration-Id", "vscode-chat")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return openai.ChatCompletionResponse{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return openai.ChatCompletionResponse{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return openai.ChatCompletionResponse{}, NewProviderError("github", body.Model,
			fmt.Errorf("API error: %d %s %s", resp.StatusCode, resp.Status, string(respBody))).WithStatus(resp.StatusCode)
	}

	var out openai.ChatCompletionResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return openai.ChatCompletionResponse{}, err
	}
	return out, nil
}
