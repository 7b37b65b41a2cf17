package model

import (
	"strings"
	"testing"
)

func TestPreview(t *testing.T) {
	topic := Topic{Messages: []Message{
		{Text: "first"},
		{Text: "line one\nline two"},
	}}
	if got := topic.Preview(); got != "line one line two" {
		t.Errorf("Preview = %q", got)
	}

	topic.Messages = append(topic.Messages, Message{Text: strings.Repeat("é", 60)})
	if got := topic.Preview(); got != strings.Repeat("é", 40) {
		t.Errorf("Preview truncation = %q (%d runes)", got, len([]rune(got)))
	}

	if got := (Topic{}).Preview(); got != "" {
		t.Errorf("Preview of empty topic = %q", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := Topic{ID: "t1", Messages: []Message{{ID: "m1", Text: "hello"}}}
	cl := orig.Clone()
	cl.Messages[0].Text = "mutated"
	if orig.Messages[0].Text != "hello" {
		t.Error("Clone shares message backing array")
	}

	list := CloneTopics([]Topic{orig})
	list[0].Messages[0].Text = "mutated again"
	if orig.Messages[0].Text != "hello" {
		t.Error("CloneTopics shares message backing array")
	}
}
