// Package reveal turns a fully-known reply string into an incremental
// on-screen reveal. The reply is appended as an empty remote message, then
// its text is replaced with strictly growing prefixes on a timer; rendering
// is left to observers of the resulting message.replaced events.
package reveal

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"vedchat/internal/bus"
	"vedchat/internal/metrics"
	"vedchat/internal/model"
)

// State of one in-flight reveal.
type State string

const (
	Idle      State = "IDLE"
	Revealing State = "REVEALING"
	Complete  State = "COMPLETE"
	Cancelled State = "CANCELLED"
)

// validTransitions defines allowed state transitions.
var validTransitions = map[State][]State{
	Idle:      {Revealing, Complete},
	Revealing: {Complete, Cancelled},
}

// NewlinePause multiplies the interval at line breaks, so paragraph
// boundaries read as deliberate pauses.
const NewlinePause = 6

// Writer is the slice of the conversation store the scheduler writes
// through.
type Writer interface {
	AppendMessage(topicID string, sender model.Sender, text string) (model.Message, error)
	ReplaceMessageText(topicID, messageID, text string) error
}

// Scheduler runs at most one reveal per topic; reveals on different topics
// are independent.
type Scheduler struct {
	writer   Writer
	bus      *bus.Bus
	logger   *zap.Logger
	interval time.Duration

	mu     sync.Mutex
	active map[string]*reveal
}

type reveal struct {
	topicID   string
	messageID string
	state     State
	cancelled bool
	cancel    chan struct{}
	done      chan struct{}
}

// NewScheduler creates a scheduler writing through w. interval is the time
// between prefix steps; zero or less disables incremental reveal.
func NewScheduler(w Writer, b *bus.Bus, logger *zap.Logger, interval time.Duration) *Scheduler {
	return &Scheduler{
		writer:   w,
		bus:      b,
		logger:   logger,
		interval: interval,
		active:   make(map[string]*reveal),
	}
}

// Reveal starts revealing text in the given topic, cancelling any reveal
// already in flight there. It returns the created message; with a zero
// interval the full text is written at once and no timer is scheduled.
func (s *Scheduler) Reveal(topicID, text string) (model.Message, error) {
	s.Cancel(topicID)

	msg, err := s.writer.AppendMessage(topicID, model.SenderRemote, "")
	if err != nil {
		return model.Message{}, err
	}
	metrics.RevealsStarted.Inc()
	ref := bus.MessageRef{TopicID: topicID, MessageID: msg.ID}

	if s.interval <= 0 {
		if err := s.writer.ReplaceMessageText(topicID, msg.ID, text); err != nil {
			return model.Message{}, err
		}
		s.publish(bus.KindRevealStarted, ref)
		s.publish(bus.KindRevealComplete, ref)
		return msg, nil
	}

	r := &reveal{
		topicID:   topicID,
		messageID: msg.ID,
		state:     Revealing,
		cancel:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	s.mu.Lock()
	s.active[topicID] = r
	s.mu.Unlock()

	s.publish(bus.KindRevealStarted, ref)
	go s.run(r, text)
	return msg, nil
}

// Cancel stops the in-flight reveal for topicID, if any, and waits until
// its writer has gone quiet. The partial text stays as last written.
func (s *Scheduler) Cancel(topicID string) {
	s.mu.Lock()
	r := s.active[topicID]
	if r == nil {
		s.mu.Unlock()
		return
	}
	if !r.cancelled {
		r.cancelled = true
		close(r.cancel)
	}
	s.mu.Unlock()
	<-r.done
}

// CancelAll stops every in-flight reveal. Used on shutdown.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.active))
	for id := range s.active {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.Cancel(id)
	}
}

// State reports the reveal state for a topic: Revealing while one is in
// flight, Idle otherwise.
func (s *Scheduler) State(topicID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.active[topicID]; r != nil {
		return r.state
	}
	return Idle
}

func (s *Scheduler) run(r *reveal, text string) {
	runes := []rune(text)
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for i := 1; i <= len(runes); i++ {
		select {
		case <-r.cancel:
			s.finish(r, Cancelled)
			return
		case <-timer.C:
		}

		if err := s.writer.ReplaceMessageText(r.topicID, r.messageID, string(runes[:i])); err != nil {
			// Topic or message deleted mid-reveal; stop quietly.
			s.logger.Debug("reveal target gone",
				zap.String("topic_id", r.topicID), zap.Error(err))
			s.finish(r, Cancelled)
			return
		}
		s.publish(bus.KindRevealStep, bus.MessageRef{TopicID: r.topicID, MessageID: r.messageID})

		if i < len(runes) {
			d := s.interval
			if runes[i-1] == '\n' {
				d *= NewlinePause
			}
			timer.Reset(d)
		}
	}
	s.finish(r, Complete)
}

func (s *Scheduler) finish(r *reveal, to State) {
	s.mu.Lock()
	r.state = s.transition(r.state, to)
	if s.active[r.topicID] == r {
		delete(s.active, r.topicID)
	}
	s.mu.Unlock()

	ref := bus.MessageRef{TopicID: r.topicID, MessageID: r.messageID}
	if to == Cancelled {
		metrics.RevealsCancelled.Inc()
		s.publish(bus.KindRevealCancelled, ref)
	} else {
		s.publish(bus.KindRevealComplete, ref)
	}
	close(r.done)
}

func (s *Scheduler) transition(from, to State) State {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return to
		}
	}
	s.logger.Warn("invalid reveal transition",
		zap.String("from", string(from)), zap.String("to", string(to)))
	return to
}

func (s *Scheduler) publish(kind string, payload any) {
	if s.bus != nil {
		s.bus.Publish(bus.Event{Kind: kind, Payload: payload})
	}
}
