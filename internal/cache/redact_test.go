package cache

import (
	"encoding/json"
	"testing"
)

func TestRedactUnredactRoundTrip(t *testing.T) {
	secrets := map[string]string{
		"OPENAI_API_KEY": "sk-live-abc123",
		"ANOTHER_SECRET": "xyz",
	}
	original := map[string]any{
		"header": "Bearer sk-live-abc123",
		"nested": map[string]any{"token": "xyz"},
	}

	redacted, err := Redact(original, secrets)
	if err != nil {
		t.Fatalf("Redact() error = %v", err)
	}
	if containsAny(string(redacted), secrets) {
		t.Fatalf("expected no secret values in redacted payload, got: %s", redacted)
	}

	unredacted := Unredact(redacted, secrets)

	var want, got map[string]any
	origRaw, _ := json.Marshal(original)
	if err := json.Unmarshal(origRaw, &want); err != nil {
		t.Fatalf("failed to normalise original: %v", err)
	}
	if err := json.Unmarshal(unredacted, &got); err != nil {
		t.Fatalf("failed to unmarshal unredacted payload: %v", err)
	}

	gotRaw, _ := json.Marshal(got)
	wantRaw, _ := json.Marshal(want)
	if string(gotRaw) != string(wantRaw) {
		t.Errorf("unredact(redact(x)) = %s, want %s", gotRaw, wantRaw)
	}
}

func containsAny(s string, secrets map[string]string) bool {
	for _, v := range secrets {
		if v != "" && stringsContains(s, v) {
			return true
		}
	}
	return false
}

func stringsContains(s, substr string) bool {
	return len(substr) > 0 && indexOf(s, substr) >= 0
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

func TestRedactPrefersLongerSecretValues(t *testing.T) {
	secrets := map[string]string{
		"SHORT": "ab",
		"LONG":  "abcdef",
	}
	redacted, err := Redact(map[string]any{"v": "abcdef"}, secrets)
	if err != nil {
		t.Fatalf("Redact() error = %v", err)
	}
	if !stringsContains(string(redacted), "<LONG>") {
		t.Errorf("expected the longer secret to be substituted first, got: %s", redacted)
	}
	if stringsContains(string(redacted), "<SHORT>") {
		t.Errorf("did not expect the shorter secret's placeholder once the longer one matched, got: %s", redacted)
	}
}
