package agent

import (
	"fmt"

	"github.com/lowire/lowire/internal/transcript"
)

// Tool metadata keys. The summariser reads MetaHistoryKey and MetaStateKey
// from a ToolResult's _meta; the loop passes call arguments through
// unchanged, so nothing in this package writes MetaIntentKey.
const (
	MetaIntentKey  = "dev.lowire/intent"
	MetaHistoryKey = "dev.lowire/history"
	MetaStateKey   = "dev.lowire/state"
)

// historyEntries extracts _meta['dev.lowire/history'] into the summariser's
// category/content pairs. Accepts either native []transcript.HistoryEntry
// (a tool written in this module) or the []any/map[string]any shape a
// result decoded from JSON (e.g. the replay cache) would produce.
func historyEntries(meta map[string]any) []transcript.HistoryEntry {
	raw, ok := meta[MetaHistoryKey]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []transcript.HistoryEntry:
		return v
	case []any:
		out := make([]transcript.HistoryEntry, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			out = append(out, transcript.HistoryEntry{
				Category: stringField(m, "category"),
				Content:  stringField(m, "content"),
			})
		}
		return out
	default:
		return nil
	}
}

// stateEntries extracts _meta['dev.lowire/state'] into a name->value map,
// per the same native-or-decoded tolerance as historyEntries.
func stateEntries(meta map[string]any) map[string]string {
	raw, ok := meta[MetaStateKey]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case map[string]string:
		return v
	case map[string]any:
		out := make(map[string]string, len(v))
		for k, val := range v {
			out[k] = fmt.Sprint(val)
		}
		return out
	default:
		return nil
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
