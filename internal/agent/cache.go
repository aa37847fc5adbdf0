package agent

import (
	"context"
	"encoding/json"
	"os"

	"github.com/lowire/lowire/internal/cache"
)

// cacheFingerprintPayload is what gets redacted and hashed to produce a
// cache key. OpenAI Responses' opaque per-message/per-tool-call id/status
// fields are normalised out here (§9 Open Question 5) so a cache hit is
// unaffected by whether those fields happen to be present on replay.
type cacheFingerprintPayload struct {
	SystemPrompt string              `json:"system_prompt"`
	Messages     []fingerprintMsg    `json:"messages"`
	Tools        []fingerprintTool   `json:"tools"`
	Model        string              `json:"model"`
	MaxTokens    int                 `json:"max_tokens"`
	Temperature  float64             `json:"temperature"`
	Reasoning    bool                `json:"reasoning"`
}

type fingerprintMsg struct {
	Role        MessageRole      `json:"role"`
	UserContent string           `json:"content,omitempty"`
	Parts       []fingerprintPart `json:"parts,omitempty"`
	ToolError   string           `json:"tool_error,omitempty"`
	ToolName    string           `json:"tool_name,omitempty"`
	ToolCallID  string           `json:"tool_call_id,omitempty"`
	Result      *ToolResult      `json:"result,omitempty"`
}

type fingerprintPart struct {
	Type         ContentPartType `json:"type"`
	Text         string          `json:"text,omitempty"`
	ToolCallName string          `json:"name,omitempty"`
	Arguments    json.RawMessage `json:"arguments,omitempty"`
	Result       *ToolResult     `json:"result,omitempty"`
	ImageData    string          `json:"data,omitempty"`
	ImageMime    string          `json:"mime_type,omitempty"`
}

type fingerprintTool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"input_schema"`
}

func fingerprintPayloadFor(conv *Conversation, opts CompleteOptions) cacheFingerprintPayload {
	payload := cacheFingerprintPayload{
		SystemPrompt: conv.SystemPrompt,
		Model:        opts.Model,
		MaxTokens:    opts.MaxTokens,
		Temperature:  opts.Temperature,
		Reasoning:    opts.Reasoning,
	}
	for _, m := range conv.Messages {
		fm := fingerprintMsg{
			Role:        m.Role,
			UserContent: m.UserContent,
			ToolError:   m.ToolError,
			ToolName:    m.ToolName,
			ToolCallID:  m.ToolCallID,
			Result:      m.Result,
		}
		for _, p := range m.Parts {
			fm.Parts = append(fm.Parts, fingerprintPart{
				Type: p.Type, Text: p.Text, ToolCallName: p.ToolCallName,
				Arguments: p.Arguments, Result: p.Result,
				ImageData: p.ImageData, ImageMime: p.ImageMimeType,
			})
		}
		payload.Messages = append(payload.Messages, fm)
	}
	for _, t := range conv.Tools {
		payload.Tools = append(payload.Tools, fingerprintTool{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
	}
	return payload
}

// CachedComplete implements §4.3: fingerprint the redacted request, return
// a recorded reply on a hit, otherwise call provider and record the redacted
// reply. A nil caches delegates straight to provider.Complete.
func CachedComplete(ctx context.Context, provider Provider, conv *Conversation, caches *cache.Caches, opts CompleteOptions) (Completion, error) {
	if caches == nil {
		return provider.Complete(ctx, conv, opts)
	}

	redactedPayload, err := cache.Redact(fingerprintPayloadFor(conv, opts), caches.Secrets)
	if err != nil {
		return Completion{}, err
	}
	key, err := cache.Fingerprint(redactedPayload)
	if err != nil {
		return Completion{}, err
	}

	if os.Getenv("LOWIRE_NO_CACHE") == "" {
		if entry, ok := caches.Input[key]; ok {
			caches.Output[key] = entry
			return decodeCacheEntry(entry, caches.Secrets)
		}
		if entry, ok := caches.Output[key]; ok {
			return decodeCacheEntry(entry, caches.Secrets)
		}
	}

	if os.Getenv("LOWIRE_FORCE_CACHE") != "" {
		return Completion{}, &LoopError{Message: "Cache missing but LOWIRE_FORCE_CACHE is set"}
	}

	completion, err := provider.Complete(ctx, conv, opts)
	if err != nil {
		return Completion{}, err
	}

	redactedResult, err := cache.Redact(completion.Result, caches.Secrets)
	if err == nil {
		caches.Output[key] = cache.Entry{
			Result: redactedResult,
			Usage:  cache.Usage{Input: completion.Usage.Input, Output: completion.Usage.Output},
		}
	}

	return completion, nil
}

func decodeCacheEntry(entry cache.Entry, secrets map[string]string) (Completion, error) {
	unredacted := cache.Unredact(entry.Result, secrets)
	var msg Message
	if err := json.Unmarshal(unredacted, &msg); err != nil {
		return Completion{}, err
	}
	return Completion{
		Result: msg,
		Usage:  Usage{Input: entry.Usage.Input, Output: entry.Usage.Output},
	}, nil
}
