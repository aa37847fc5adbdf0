package agent

import "github.com/lowire/lowire/internal/transcript"

func toTranscriptConversation(conv *Conversation) transcript.Conversation {
	out := transcript.Conversation{Messages: make([]transcript.Message, 0, len(conv.Messages))}
	for _, m := range conv.Messages {
		out.Messages = append(out.Messages, toTranscriptMessage(m))
	}
	return out
}

func toTranscriptMessage(m Message) transcript.Message {
	tm := transcript.Message{
		Role:      transcript.Role(m.Role),
		Content:   m.UserContent,
		ToolError: m.ToolError,
	}
	for _, p := range m.Parts {
		tp := transcript.Part{
			Type:         string(p.Type),
			Text:         p.Text,
			ToolCallName: p.ToolCallName,
			Arguments:    p.Arguments,
		}
		if p.Result != nil {
			tp.HasResult = true
			tp.ResultIsError = p.Result.IsError
			tp.History = historyEntries(p.Result.Meta)
			tp.State = stateEntries(p.Result.Meta)
		}
		tm.Parts = append(tm.Parts, tp)
	}
	return tm
}

// fromTranscriptConversation builds a fresh conversation from a rendered
// summary: a synthetic user turn carrying the summary text, followed by the
// original last assistant message verbatim (taken directly from conv, not
// reconstructed from the transcript package's rendering-oriented Part
// shape, so image parts and multiple result parts survive intact).
func fromTranscriptConversation(conv *Conversation, summary transcript.Summary, systemPrompt string, tools []Tool) *Conversation {
	messages := []Message{{Role: RoleUser, UserContent: summary.Summary}}
	if last := lastAssistantMessage(conv); last != nil {
		messages = append(messages, *last)
	}
	return &Conversation{SystemPrompt: systemPrompt, Messages: messages, Tools: tools}
}

func lastAssistantMessage(conv *Conversation) *Message {
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		if conv.Messages[i].Role == RoleAssistant {
			m := conv.Messages[i]
			return &m
		}
	}
	return nil
}
