package route

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"vedchat/internal/bus"
)

// Location is where the current token lives between runs.
type Location interface {
	Read() (string, error)
	Write(token string) error
}

// FileLocation keeps the token in a single file under the session
// directory, the moral equivalent of the address bar.
type FileLocation struct {
	path string
}

// NewFileLocation returns a Location backed by the file at path.
func NewFileLocation(path string) *FileLocation {
	return &FileLocation{path: path}
}

// Read returns the stored token. A missing file is the landing token.
func (f *FileLocation) Read() (string, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Write stores the token, replacing whatever was there.
func (f *FileLocation) Write(token string) error {
	return os.WriteFile(f.path, []byte(token), 0600)
}

// Selector is the slice of the conversation store the binder drives.
type Selector interface {
	SetActive(topicID string) error
	ActiveID() string
}

// Binder keeps the location token and the store's active pointer in sync:
// Restore applies the stored token on startup, Start mirrors every
// active-pointer change back into the token.
type Binder struct {
	loc    Location
	store  Selector
	bus    *bus.Bus
	logger *zap.Logger

	once sync.Once
	stop func()
	quit chan struct{}
}

// NewBinder wires a location to a store over the bus.
func NewBinder(loc Location, store Selector, b *bus.Bus, logger *zap.Logger) *Binder {
	return &Binder{loc: loc, store: store, bus: b, logger: logger}
}

// Restore applies the stored token to the store. A token pointing at a
// topic that no longer exists falls back to whatever the store already
// holds, and the token is rewritten to match.
func (b *Binder) Restore() {
	token, err := b.loc.Read()
	if err != nil {
		b.logger.Warn("read location", zap.Error(err))
		token = ""
	}

	if id, ok := ConversationFor(token); ok {
		if err := b.store.SetActive(id); err == nil {
			return
		}
		b.logger.Info("stored location is stale", zap.String("token", token))
	}

	if err := b.loc.Write(LocationFor(b.store.ActiveID())); err != nil {
		b.logger.Warn("write location", zap.Error(err))
	}
}

// Start begins mirroring active-pointer changes into the location token.
func (b *Binder) Start() {
	events, unsub := b.bus.Subscribe(bus.KindActiveChanged, 16)
	b.stop = unsub
	b.quit = make(chan struct{})
	go func() {
		for {
			select {
			case <-b.quit:
				return
			case e := <-events:
				ref, ok := e.Payload.(bus.TopicRef)
				if !ok {
					continue
				}
				if err := b.loc.Write(LocationFor(ref.ActiveID)); err != nil {
					b.logger.Warn("write location", zap.Error(err))
				}
			}
		}
	}()
}

// Close stops mirroring. Safe to call more than once.
func (b *Binder) Close() {
	b.once.Do(func() {
		if b.stop != nil {
			b.stop()
			close(b.quit)
		}
	})
}
