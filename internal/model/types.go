// Package model holds the conversation data types shared by the codec,
// the eviction policy and the store.
package model

import "strings"

// Sender identifies who authored a message.
type Sender string

const (
	SenderLocal  Sender = "local"
	SenderRemote Sender = "remote"
)

// Message is a single chat message. Immutable once appended, except that
// the reveal scheduler replaces the text of remote messages in place.
type Message struct {
	ID        string `json:"id"`
	Sender    Sender `json:"sender"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at"` // unix milliseconds
}

// Topic is one conversation: metadata plus its ordered messages,
// oldest first.
type Topic struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt int64     `json:"created_at"` // unix milliseconds
	Messages  []Message `json:"messages"`
}

// previewLen caps the sidebar preview.
const previewLen = 40

// Preview returns the last message's text, newlines flattened and
// truncated for list display. Empty when the topic has no messages.
func (t Topic) Preview() string {
	if len(t.Messages) == 0 {
		return ""
	}
	text := strings.ReplaceAll(t.Messages[len(t.Messages)-1].Text, "\n", " ")
	runes := []rune(text)
	if len(runes) > previewLen {
		return string(runes[:previewLen])
	}
	return text
}

// Clone returns a deep copy so callers cannot mutate store-owned state.
func (t Topic) Clone() Topic {
	out := t
	if t.Messages != nil {
		out.Messages = make([]Message, len(t.Messages))
		copy(out.Messages, t.Messages)
	}
	return out
}

// CloneTopics deep-copies a topic list.
func CloneTopics(topics []Topic) []Topic {
	if topics == nil {
		return nil
	}
	out := make([]Topic, len(topics))
	for i, t := range topics {
		out[i] = t.Clone()
	}
	return out
}
