package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Fingerprint returns the hex SHA-1 of a canonicalised re-serialisation of
// raw: object keys are sorted recursively so the same logical payload
// produces the same key regardless of provider-object construction order
// (§9 Open Question 2).
func Fingerprint(raw json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	canonical, err := json.Marshal(canonicalize(v))
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// canonicalize rewrites v so that json.Marshal emits object keys in sorted
// order at every depth. encoding/json already sorts map[string]any keys on
// marshal, so this mainly exists to make that guarantee explicit and to
// recurse into slices uniformly.
func canonicalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out[k] = canonicalize(val[k])
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = canonicalize(item)
		}
		return out
	default:
		return val
	}
}
