package cache

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsEmptyStore(t *testing.T) {
	store, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(store) != 0 {
		t.Errorf("expected empty store for missing file, got %d entries", len(store))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir, "anthropic", "Hello world test!")

	store := Store{
		"deadbeef": Entry{Result: []byte(`{"role":"assistant"}`), Usage: Usage{Input: 10, Output: 5}},
	}
	if err := Save(path, store); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got["deadbeef"].Usage.Input != 10 {
		t.Errorf("Usage.Input = %d, want 10", got["deadbeef"].Usage.Input)
	}
}

func TestSanitizeTestName(t *testing.T) {
	cases := map[string]string{
		"Hello world test!": "Hello_world_test",
		"":                  "run",
		"  spaces  ":        "spaces",
	}
	for input, want := range cases {
		if got := SanitizeTestName(input); got != want {
			t.Errorf("SanitizeTestName(%q) = %q, want %q", input, got, want)
		}
	}
}
