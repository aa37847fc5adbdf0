package providers

import (
	"testing"
)

func TestResponsesProviderName(t *testing.T) {
	p := &ResponsesProvider{}
	if got := p.Name(); got != "openai-responses" {
		t.Errorf("Name() = %v, want openai-responses", got)
	}
}

func TestNewOpenAIResponsesProviderRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewOpenAIResponsesProvider(); err == nil {
		t.Fatal("expected error when OPENAI_API_KEY is unset")
	}
}
