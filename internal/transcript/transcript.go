// Package transcript renders a prior conversation into an indented textual
// summary (§4.4). It has no dependency on the agent package: callers
// project their own conversation type into transcript.Conversation, keeping
// the summariser reusable and avoiding an import cycle with internal/agent.
package transcript

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type Role string

const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolResult Role = "tool_result"
)

// HistoryEntry is one `_meta['dev.lowire/history']` item a tool result may
// carry: a free-form category label and the content to fold into the step
// that produced it.
type HistoryEntry struct {
	Category string
	Content  string
}

// Part mirrors the agent package's ContentPart, stripped to what rendering
// needs. History and State come from the tool result's `_meta` (if any),
// already normalised by the caller into these shapes.
type Part struct {
	Type          string
	Text          string
	ToolCallName  string
	Arguments     json.RawMessage
	HasResult     bool
	ResultIsError bool
	History       []HistoryEntry
	State         map[string]string
}

// Message mirrors the agent package's Message.
type Message struct {
	Role      Role
	Content   string
	Parts     []Part
	ToolError string
}

// Conversation is the input to Summarize.
type Conversation struct {
	Messages []Message
}

// Summary is Summarize's result: the rendered markup for every assistant
// turn but the last, plus the last assistant message verbatim so the loop
// can re-attach it to a fresh conversation without losing the immediately
// preceding state.
type Summary struct {
	Summary     string
	LastMessage *Message
}

// Summarize renders conv's assistant turns (save the last) into indented
// "step"/"tool-call"/"state" markup prefixed by task, per §4.4's algorithm.
// The last assistant message is excluded from the rendered steps and
// returned separately; its tool results' state is likewise excluded from
// the merged combinedState since lastMessage already carries it verbatim.
func Summarize(task string, conv Conversation) (Summary, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n", task)

	var assistants []Message
	for _, m := range conv.Messages {
		if m.Role == RoleAssistant {
			assistants = append(assistants, m)
		}
	}
	if len(assistants) == 0 {
		return Summary{Summary: b.String()}, nil
	}

	last := assistants[len(assistants)-1]
	steps := assistants[:len(assistants)-1]

	combinedState := map[string]string{}
	for i, m := range steps {
		renderStep(&b, m, i+1, combinedState)
	}
	for _, name := range sortedKeys(combinedState) {
		fmt.Fprintf(&b, "state: (name=%s) %s\n", name, combinedState[name])
	}

	return Summary{Summary: b.String(), LastMessage: &last}, nil
}

// renderStep emits one "step: (turn=<n>)" block: its title (concatenated
// text parts), one "tool-call:" block per tool call with a sorted
// arguments dump, each call's meta-history entries, and a trailing error
// line when the turn produced none. Each call's meta-state is merged into
// combinedState as a side effect (step 3 of §4.4's algorithm).
func renderStep(b *strings.Builder, m Message, turn int, combinedState map[string]string) {
	fmt.Fprintf(b, "step: (turn=%d)\n", turn)

	if title := concatText(m.Parts); title != "" {
		fmt.Fprintf(b, "  title: %s\n", title)
	}

	for _, p := range m.Parts {
		if p.Type != "tool_call" {
			continue
		}
		fmt.Fprintf(b, "  tool-call:\n")
		fmt.Fprintf(b, "    name: %s\n", p.ToolCallName)
		if args := argMap(p.Arguments); len(args) > 0 {
			fmt.Fprintf(b, "    arguments:\n")
			for _, k := range sortedKeys(args) {
				fmt.Fprintf(b, "      %s: %s\n", k, args[k])
			}
		}
		for _, h := range p.History {
			fmt.Fprintf(b, "  %s: %s\n", h.Category, h.Content)
		}
		for name, value := range p.State {
			combinedState[name] = value
		}
	}

	if m.ToolError != "" {
		fmt.Fprintf(b, "  error: %s\n", m.ToolError)
	}
}

func concatText(parts []Part) string {
	var texts []string
	for _, p := range parts {
		if p.Type == "text" && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, " ")
}

// argMap decodes a tool call's arguments into name->compact-JSON-value
// pairs, matching §4.4's "<key>: <JSON value>" line shape.
func argMap(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = compactJSON(v)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func compactJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
