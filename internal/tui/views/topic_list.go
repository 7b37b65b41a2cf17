package views

import (
	"time"

	"github.com/rivo/tview"

	"vedchat/internal/model"
)

// TopicList is the conversation list view (K9s-inspired table), newest
// first like the underlying store.
type TopicList struct {
	*tview.Table
	topics     []model.Topic
	selectedFn func() (int, int)
}

// NewTopicList creates a new topic list table.
func NewTopicList() *TopicList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Chats ")

	tl := &TopicList{Table: table}
	tl.selectedFn = table.GetSelection
	return tl
}

// Update refreshes the topic list with new data.
func (tl *TopicList) Update(topics []model.Topic, activeID string) {
	tl.topics = topics
	tl.Clear()

	// Header row.
	tl.SetCell(0, 0, tview.NewTableCell(" Title").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	tl.SetCell(0, 1, tview.NewTableCell(" Last Message").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	tl.SetCell(0, 2, tview.NewTableCell(" Created").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))

	for i, topic := range topics {
		row := i + 1
		title := topic.Title
		if title == "" {
			title = "New Chat"
		}
		if topic.ID == activeID {
			title = "* " + title
		}

		tl.SetCell(row, 0, tview.NewTableCell(" "+title).SetMaxWidth(30).SetExpansion(1))
		tl.SetCell(row, 1, tview.NewTableCell(" "+topic.Preview()).SetMaxWidth(40).SetExpansion(2))
		tl.SetCell(row, 2, tview.NewTableCell(" "+formatTimestamp(topic.CreatedAt)).SetMaxWidth(12))
	}
}

// SelectedTopic returns the id of the currently selected topic.
func (tl *TopicList) SelectedTopic() string {
	row, _ := tl.selectedFn()
	idx := row - 1 // account for header
	if idx >= 0 && idx < len(tl.topics) {
		return tl.topics[idx].ID
	}
	return ""
}

func formatTimestamp(ms int64) string {
	if ms == 0 {
		return ""
	}
	t := time.UnixMilli(ms)
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02")
}
