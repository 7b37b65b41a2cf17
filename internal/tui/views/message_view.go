package views

import (
	"fmt"

	"github.com/rivo/tview"

	"vedchat/internal/model"
)

// MessageView displays the messages of a single topic. With no topic open
// it renders the landing page instead.
type MessageView struct {
	*tview.TextView
}

// NewMessageView creates a new message view.
func NewMessageView() *MessageView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Messages ")

	return &MessageView{TextView: tv}
}

// Update refreshes the view with a topic's messages, oldest first.
func (mv *MessageView) Update(topic model.Topic) {
	mv.Clear()
	title := topic.Title
	if title == "" {
		title = "New Chat"
	}
	mv.SetTitle(fmt.Sprintf(" %s ", title))

	for _, m := range topic.Messages {
		sender := "Assistant"
		if m.Sender == model.SenderLocal {
			sender = "You"
		}
		ts := formatTimestamp(m.CreatedAt)
		line := fmt.Sprintf("[::b]%s[-:-:-] [::d]%s[-:-:-]\n%s\n\n", sender, ts, tview.Escape(m.Text))
		_, _ = fmt.Fprint(mv, line)
	}

	mv.ScrollToEnd()
}

// ShowLanding renders the no-conversation state.
func (mv *MessageView) ShowLanding() {
	mv.Clear()
	mv.SetTitle(" vedchat ")
	_, _ = fmt.Fprint(mv,
		"[::b] ╦  ╦╔═╗╔╦╗╔═╗╦ ╦╔═╗╔╦╗[-:-:-]\n"+
			"[::b] ╚╗╔╝║╣  ║║║  ╠═╣╠═╣ ║[-:-:-]\n"+
			"[::b]  ╚╝ ╚═╝═╩╝╚═╝╩ ╩╩ ╩ ╩[-:-:-]\n\n"+
			"Type a message below to start a new chat,\n"+
			"or press Esc to browse existing ones.")
}
