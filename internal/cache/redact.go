package cache

import (
	"encoding/json"
	"strings"
)

// Redact stringifies v, replaces every occurrence of each secret value with
// the literal <name>, and re-parses the result back into v's JSON shape.
// Longer secret values are substituted first so one secret's value can't be
// a substring that clobbers the substitution of a different, longer one.
func Redact(v any, secrets map[string]string) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(substitute(string(raw), orderedByValueLength(secrets), false)), nil
}

// Unredact substitutes every <name> placeholder in raw back to its live
// value from secrets.
func Unredact(raw json.RawMessage, secrets map[string]string) json.RawMessage {
	return json.RawMessage(substitute(string(raw), orderedByValueLength(secrets), true))
}

type secretPair struct{ name, value string }

func orderedByValueLength(secrets map[string]string) []secretPair {
	pairs := make([]secretPair, 0, len(secrets))
	for name, value := range secrets {
		if value == "" {
			continue
		}
		pairs = append(pairs, secretPair{name: name, value: value})
	}
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && len(pairs[j].value) > len(pairs[j-1].value); j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
	return pairs
}

// substitute replaces value->placeholder (redact) or placeholder->value
// (unredact) for every pair, in order.
func substitute(s string, pairs []secretPair, reverse bool) string {
	for _, p := range pairs {
		placeholder := "<" + p.name + ">"
		if reverse {
			s = strings.ReplaceAll(s, placeholder, p.value)
		} else {
			s = strings.ReplaceAll(s, p.value, placeholder)
		}
	}
	return s
}
