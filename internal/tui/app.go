package tui

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"vedchat/internal/bus"
	"vedchat/internal/draft"
	"vedchat/internal/remote"
	"vedchat/internal/store"
	"vedchat/internal/tui/keys"
	"vedchat/internal/tui/views"
)

// App is the main TUI application shell. It renders the conversation store
// and reacts to bus events; all mutation goes through the store and the
// send pipeline.
type App struct {
	app       *tview.Application
	pages     *tview.Pages
	store     *store.Store
	drafts    *draft.Cache
	pipeline  *remote.Pipeline
	bus       *bus.Bus
	logger    *zap.Logger
	registry  *keys.Registry
	flash     *Flash
	statusBar *views.StatusBar
	topicList *views.TopicList
	msgView   *views.MessageView
	composer  *views.Composer
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(st *store.Store, drafts *draft.Cache, pipe *remote.Pipeline, b *bus.Bus, logger *zap.Logger, sessionName string) *App {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		store:     st,
		drafts:    drafts,
		pipeline:  pipe,
		bus:       b,
		logger:    logger,
		registry:  keys.NewRegistry(),
		flash:     &Flash{},
		statusBar: views.NewStatusBar(),
		topicList: views.NewTopicList(),
		msgView:   views.NewMessageView(),
		composer:  views.NewComposer(),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.statusBar.SetSession(sessionName)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal("quit", &keys.Action{
		Rune: 'q', Key: tcell.KeyRune,
		Description: "q:quit", Visible: true,
		Handler: func() { a.app.Stop() },
	})
	a.registry.AddGlobal("new", &keys.Action{
		Rune: 'n', Key: tcell.KeyRune,
		Description: "n:new chat", Visible: true,
		Handler: func() { a.newTopic() },
	})
	a.registry.AddView("topics", "delete", &keys.Action{
		Rune: 'd', Key: tcell.KeyRune,
		Description: "d:delete", Visible: true,
		Handler: func() { a.deleteSelected() },
	})
}

func (a *App) setupCallbacks() {
	a.topicList.SetSelectedFunc(func(row, col int) {
		if id := a.topicList.SelectedTopic(); id != "" {
			a.openTopic(id)
		}
	})

	a.composer.SetOnChange(func(text string) {
		a.drafts.Set(a.store.ActiveID(), text)
	})

	a.composer.SetOnSend(func(text string) {
		topicID := a.store.ActiveID()
		if topicID == "" {
			// First message from the landing page starts a chat.
			topicID = a.store.CreateTopic("New Chat").ID
			a.drafts.Clear("")
		}
		a.drafts.Clear(topicID)
		if _, err := a.pipeline.Send(a.ctx, topicID, text); err != nil {
			a.flash.Set("Send failed: "+err.Error(), 5*time.Second)
		}
		a.refresh()
	})
}

func (a *App) setupLayout() {
	chatFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.msgView, 0, 1, false).
		AddItem(a.composer, 1, 0, true)

	a.pages.AddPage("chat", chatFlex, true, true)
	a.pages.AddPage("topics", a.topicList, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentPage, _ := a.pages.GetFrontPage()

		if event.Key() == tcell.KeyEscape {
			switch currentPage {
			case "chat":
				a.pages.SwitchToPage("topics")
				a.app.SetFocus(a.topicList)
				a.refresh()
			case "topics":
				a.showChat()
			}
			return nil
		}

		// Let text input widgets handle all keys normally.
		focused := a.app.GetFocus()
		if _, ok := focused.(*tview.InputField); ok {
			return event
		}

		// 'i' focuses the composer (only when not already in an input field).
		if currentPage == "chat" && event.Key() == tcell.KeyRune && event.Rune() == 'i' {
			a.app.SetFocus(a.composer.InputField)
			return nil
		}

		if a.registry.HandleEvent(currentPage, event) {
			return nil
		}

		return event
	})
}

func (a *App) openTopic(id string) {
	if err := a.store.SetActive(id); err != nil {
		a.flash.Set("Open failed: "+err.Error(), 5*time.Second)
		return
	}
	a.composer.Load(a.drafts.Get(id))
	a.showChat()
}

func (a *App) showChat() {
	a.pages.SwitchToPage("chat")
	a.app.SetFocus(a.composer.InputField)
	a.refresh()
}

func (a *App) newTopic() {
	topic := a.store.CreateTopic("New Chat")
	a.composer.Load(a.drafts.Get(topic.ID))
	a.showChat()
}

func (a *App) deleteSelected() {
	id := a.topicList.SelectedTopic()
	if id == "" {
		return
	}
	if err := a.store.DeleteTopic(id); err != nil {
		a.flash.Set("Delete failed: "+err.Error(), 5*time.Second)
	}
	a.drafts.Clear(id)
	a.refresh()
}

// refresh redraws every view from current store state. Must run on the UI
// goroutine.
func (a *App) refresh() {
	a.topicList.Update(a.store.Topics(), a.store.ActiveID())

	if topic, ok := a.store.Active(); ok {
		a.msgView.Update(topic)
	} else {
		a.msgView.ShowLanding()
	}

	a.statusBar.SetStorage(a.store.ApproxBytes(), a.store.Degraded())
	a.statusBar.SetFlash(a.flash.Get())
}

// Run starts the TUI application.
func (a *App) Run() error {
	a.composer.Load(a.drafts.Get(a.store.ActiveID()))
	a.refresh()
	go a.eventLoop()
	return a.app.Run()
}

// eventLoop repaints on every domain event and ticks the clock and flash
// expiry between events.
func (a *App) eventLoop() {
	events, unsub := a.bus.Subscribe("", 256)
	defer unsub()
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case e := <-events:
			if e.Kind == bus.KindSendFailed {
				if fail, ok := e.Payload.(bus.SendFailure); ok {
					a.flash.Set("Send failed: "+fail.Err, 5*time.Second)
				}
			}
			if e.Kind == bus.KindStoreDegraded {
				a.flash.Set("Storage full: changes not persisted", 5*time.Second)
			}
			a.app.QueueUpdateDraw(a.refresh)
		case <-ticker.C:
			a.app.QueueUpdateDraw(a.refresh)
		case <-a.ctx.Done():
			return
		}
	}
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
