// Package store owns the ordered topic collection and the active-topic
// pointer. Every mutation re-serializes the set and persists it through the
// bounded key-value adapter; capacity failures are absorbed by the eviction
// policy and never surface to callers as errors.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vedchat/internal/bus"
	"vedchat/internal/codec"
	"vedchat/internal/evict"
	"vedchat/internal/kv"
	"vedchat/internal/metrics"
	"vedchat/internal/model"
)

// Structural errors. These are contract violations and propagate; storage
// failures never do.
var (
	ErrNoSuchTopic   = errors.New("store: no such topic")
	ErrNoSuchMessage = errors.New("store: no such message")
)

// Store is the conversation store. Topics are ordered newest first.
type Store struct {
	mu     sync.Mutex
	kv     kv.Store
	codec  *codec.Codec
	bus    *bus.Bus
	logger *zap.Logger
	limits evict.Limits

	topics   []model.Topic
	activeID string
	degraded bool
}

// New constructs the store and loads the persisted state. A store is
// always constructible: unreadable or malformed storage starts empty.
func New(kvs kv.Store, c *codec.Codec, b *bus.Bus, logger *zap.Logger, lim evict.Limits) *Store {
	s := &Store{
		kv:     kvs,
		codec:  c,
		bus:    b,
		logger: logger,
		limits: lim,
	}

	blob, ok, err := kvs.Get(kv.KeyTopics)
	if err != nil {
		logger.Warn("load topics", zap.Error(err))
	} else if ok {
		s.topics = c.Decode(blob)
	}

	if raw, ok, err := kvs.Get(kv.KeyActive); err != nil {
		logger.Warn("load active id", zap.Error(err))
	} else if ok {
		s.activeID = string(raw)
	}

	// The active pointer must reference a present topic; fall back to the
	// newest topic, or none.
	if s.findLocked(s.activeID) < 0 {
		s.activeID = ""
		if len(s.topics) > 0 {
			s.activeID = s.topics[0].ID
		}
	}

	logger.Info("store loaded",
		zap.Int("topics", len(s.topics)),
		zap.String("active", s.activeID))
	return s
}

// CreateTopic inserts a new empty topic at the front of the order, makes
// it active and persists. It never fails the caller.
func (s *Store) CreateTopic(title string) model.Topic {
	s.mu.Lock()
	defer s.mu.Unlock()

	topic := model.Topic{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: time.Now().UnixMilli(),
		Messages:  []model.Message{},
	}
	s.topics = append([]model.Topic{topic}, s.topics...)
	s.activeID = topic.ID

	s.persistLocked()
	s.persistActiveLocked()
	s.publish(bus.KindTopicCreated, bus.TopicRef{ID: topic.ID, ActiveID: s.activeID})
	s.publish(bus.KindActiveChanged, bus.TopicRef{ID: s.activeID, ActiveID: s.activeID})
	return topic.Clone()
}

// AppendMessage appends a message to the given topic and persists.
func (s *Store) AppendMessage(topicID string, sender model.Sender, text string) (model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findLocked(topicID)
	if i < 0 {
		return model.Message{}, ErrNoSuchTopic
	}

	msg := model.Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		CreatedAt: time.Now().UnixMilli(),
	}
	s.topics[i].Messages = append(s.topics[i].Messages, msg)

	s.persistLocked()
	s.publish(bus.KindMessageAppended, bus.MessageRef{TopicID: topicID, MessageID: msg.ID})
	return msg, nil
}

// ReplaceMessageText replaces a message's text in place, preserving its
// identity and position. Used by the reveal scheduler.
func (s *Store) ReplaceMessageText(topicID, messageID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findLocked(topicID)
	if i < 0 {
		return ErrNoSuchTopic
	}
	msgs := s.topics[i].Messages
	for j := range msgs {
		if msgs[j].ID == messageID {
			msgs[j].Text = text
			s.persistLocked()
			s.publish(bus.KindMessageReplaced, bus.MessageRef{TopicID: topicID, MessageID: messageID})
			return nil
		}
	}
	return ErrNoSuchMessage
}

// DeleteTopic removes a topic. If it was active, the new first topic
// becomes active, or none if the set is now empty.
func (s *Store) DeleteTopic(topicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findLocked(topicID)
	if i < 0 {
		return ErrNoSuchTopic
	}
	s.topics = append(s.topics[:i], s.topics[i+1:]...)

	if s.activeID == topicID {
		s.activeID = ""
		if len(s.topics) > 0 {
			s.activeID = s.topics[0].ID
		}
		s.persistActiveLocked()
		defer s.publish(bus.KindActiveChanged, bus.TopicRef{ID: s.activeID, ActiveID: s.activeID})
	}

	s.persistLocked()
	s.publish(bus.KindTopicDeleted, bus.TopicRef{ID: topicID, ActiveID: s.activeID})
	return nil
}

// ClearAll empties the set and clears the active pointer.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.topics = nil
	s.activeID = ""
	s.persistLocked()
	if err := s.kv.Delete(kv.KeyActive); err != nil {
		s.logger.Warn("clear active id", zap.Error(err))
	}
	s.publish(bus.KindTopicsCleared, bus.TopicRef{})
	s.publish(bus.KindActiveChanged, bus.TopicRef{})
}

// SetActive updates the active pointer. The pointer is persisted as its
// own scalar so pure navigation does not rewrite the whole set.
func (s *Store) SetActive(topicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findLocked(topicID) < 0 {
		return ErrNoSuchTopic
	}
	if s.activeID == topicID {
		return nil
	}
	s.activeID = topicID
	s.persistActiveLocked()
	s.publish(bus.KindActiveChanged, bus.TopicRef{ID: topicID, ActiveID: topicID})
	return nil
}

// Topics returns a deep copy of the topic list, newest first.
func (s *Store) Topics() []model.Topic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneTopics(s.topics)
}

// Topic returns a deep copy of one topic.
func (s *Store) Topic(topicID string) (model.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findLocked(topicID)
	if i < 0 {
		return model.Topic{}, ErrNoSuchTopic
	}
	return s.topics[i].Clone(), nil
}

// ActiveID returns the active topic id, or "" when no topic is active.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Active returns the active topic, if any.
func (s *Store) Active() (model.Topic, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findLocked(s.activeID)
	if i < 0 {
		return model.Topic{}, false
	}
	return s.topics[i].Clone(), true
}

// Degraded reports whether the last persist attempt failed even after
// eviction and retry. It resets on the next successful persist.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// ApproxBytes returns the encoded size of the current set, the number the
// storage meter displays.
func (s *Store) ApproxBytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codec.Size(s.topics)
}

// Stats summarizes the stored set for status displays.
type Stats struct {
	Topics   int
	Messages int
	Bytes    int
}

// Stats reports topic/message counts and the encoded byte size.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{Topics: len(s.topics), Bytes: s.codec.Size(s.topics)}
	for i := range s.topics {
		st.Messages += len(s.topics[i].Messages)
	}
	return st
}

func (s *Store) findLocked(topicID string) int {
	if topicID == "" {
		return -1
	}
	for i := range s.topics {
		if s.topics[i].ID == topicID {
			return i
		}
	}
	return -1
}

// persistLocked implements the persistence discipline: encode, evict when a
// post-mutation check finds the set over budget, save, and on a capacity
// failure evict and retry once. A save that still fails leaves the evicted
// in-memory state in place and raises the degraded signal.
func (s *Store) persistLocked() {
	data := s.codec.Encode(s.topics)
	if s.overLimitsLocked(len(data)) {
		data = s.evictLocked()
	}

	err := s.kv.Set(kv.KeyTopics, data)
	if errors.Is(err, kv.ErrCapacityExceeded) {
		data = s.evictLocked()
		err = s.kv.Set(kv.KeyTopics, data)
	}
	if err != nil {
		metrics.DegradedSaves.Inc()
		s.logger.Warn("persistence degraded", zap.Error(err))
		if !s.degraded {
			s.degraded = true
			s.publish(bus.KindStoreDegraded, err.Error())
		}
		return
	}
	s.degraded = false
}

func (s *Store) overLimitsLocked(encodedLen int) bool {
	if s.limits.TopicLimit > 0 && len(s.topics) > s.limits.TopicLimit {
		return true
	}
	if s.limits.MessagesPerTopic > 0 {
		for i := range s.topics {
			if len(s.topics[i].Messages) > s.limits.MessagesPerTopic {
				return true
			}
		}
	}
	return s.limits.ByteBudget > 0 && encodedLen > s.limits.ByteBudget
}

func (s *Store) evictLocked() []byte {
	var rep evict.Report
	s.topics, rep = evict.Apply(s.topics, s.limits, func(ts []model.Topic) int {
		return s.codec.Size(ts)
	})
	if rep.Changed() {
		metrics.TopicsEvicted.Add(float64(rep.TopicsDropped))
		metrics.MessagesEvicted.Add(float64(rep.MessagesDropped))
		s.logger.Info("evicted",
			zap.Int("topics", rep.TopicsDropped),
			zap.Int("messages", rep.MessagesDropped))
		s.publish(bus.KindStoreEvicted, rep)
		s.ensureActiveLocked()
	}
	return s.codec.Encode(s.topics)
}

// ensureActiveLocked repairs the active pointer after eviction removed the
// topic it referenced.
func (s *Store) ensureActiveLocked() {
	if s.findLocked(s.activeID) >= 0 {
		return
	}
	s.activeID = ""
	if len(s.topics) > 0 {
		s.activeID = s.topics[0].ID
	}
	s.persistActiveLocked()
	s.publish(bus.KindActiveChanged, bus.TopicRef{ID: s.activeID, ActiveID: s.activeID})
}

func (s *Store) persistActiveLocked() {
	if err := s.kv.Set(kv.KeyActive, []byte(s.activeID)); err != nil {
		s.logger.Warn("persist active id", zap.Error(err))
	}
}

func (s *Store) publish(kind string, payload any) {
	if s.bus != nil {
		s.bus.Publish(bus.Event{Kind: kind, Payload: payload})
	}
}
