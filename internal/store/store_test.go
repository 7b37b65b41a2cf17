package store

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"vedchat/internal/bus"
	"vedchat/internal/codec"
	"vedchat/internal/evict"
	"vedchat/internal/kv"
	"vedchat/internal/model"

	"go.uber.org/zap"
)

func testStore(t *testing.T, kvs kv.Store, lim evict.Limits) *Store {
	t.Helper()
	return New(kvs, codec.New(nil), bus.New(), zap.NewNop(), lim)
}

func TestCreateAndAppend(t *testing.T) {
	// Scenario: create a topic, append one local "hi".
	s := testStore(t, kv.NewMemory(0), evict.DefaultLimits())

	topic := s.CreateTopic("New Chat")
	if topic.ID == "" {
		t.Fatal("empty topic id")
	}
	if s.ActiveID() != topic.ID {
		t.Errorf("active = %q, want %q", s.ActiveID(), topic.ID)
	}

	msg, err := s.AppendMessage(topic.ID, model.SenderLocal, "hi")
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.Topic(topic.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(got.Messages))
	}
	if got.Messages[0].Sender != model.SenderLocal || got.Messages[0].ID != msg.ID {
		t.Errorf("message = %+v", got.Messages[0])
	}
}

func TestAppendToMissingTopic(t *testing.T) {
	s := testStore(t, kv.NewMemory(0), evict.DefaultLimits())
	if _, err := s.AppendMessage("missing", model.SenderLocal, "x"); !errors.Is(err, ErrNoSuchTopic) {
		t.Errorf("err = %v, want ErrNoSuchTopic", err)
	}
}

func TestReplaceMessageText(t *testing.T) {
	s := testStore(t, kv.NewMemory(0), evict.DefaultLimits())
	topic := s.CreateTopic("New Chat")
	msg, _ := s.AppendMessage(topic.ID, model.SenderRemote, "")

	if err := s.ReplaceMessageText(topic.ID, msg.ID, "partial"); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Topic(topic.ID)
	if got.Messages[0].Text != "partial" {
		t.Errorf("text = %q, want partial", got.Messages[0].Text)
	}
	if got.Messages[0].ID != msg.ID {
		t.Error("replace changed message identity")
	}

	if err := s.ReplaceMessageText(topic.ID, "missing", "x"); !errors.Is(err, ErrNoSuchMessage) {
		t.Errorf("err = %v, want ErrNoSuchMessage", err)
	}
	if err := s.ReplaceMessageText("missing", msg.ID, "x"); !errors.Is(err, ErrNoSuchTopic) {
		t.Errorf("err = %v, want ErrNoSuchTopic", err)
	}
}

func TestMessagesPerTopicLimit(t *testing.T) {
	// Scenario: 205 appends leave the last 200 in original order.
	s := testStore(t, kv.NewMemory(0), evict.DefaultLimits())
	topic := s.CreateTopic("New Chat")

	var ids []string
	for i := 0; i < 205; i++ {
		m, err := s.AppendMessage(topic.ID, model.SenderLocal, fmt.Sprintf("msg %d", i))
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, m.ID)
	}

	got, _ := s.Topic(topic.ID)
	if len(got.Messages) != 200 {
		t.Fatalf("messages = %d, want 200", len(got.Messages))
	}
	for i, m := range got.Messages {
		if m.ID != ids[5+i] {
			t.Fatalf("message %d = %s, want %s (last 200 in order)", i, m.ID, ids[5+i])
		}
	}
}

func TestTopicLimit(t *testing.T) {
	// Scenario: 85 topics leave 80, the 5 oldest gone.
	s := testStore(t, kv.NewMemory(0), evict.DefaultLimits())

	var ids []string
	for i := 0; i < 85; i++ {
		ids = append(ids, s.CreateTopic(fmt.Sprintf("chat %d", i)).ID)
	}

	topics := s.Topics()
	if len(topics) != 80 {
		t.Fatalf("topics = %d, want 80", len(topics))
	}
	present := make(map[string]bool, len(topics))
	for _, tp := range topics {
		present[tp.ID] = true
	}
	for _, id := range ids[:5] {
		if present[id] {
			t.Errorf("oldest topic %s still present", id)
		}
	}
	if !present[ids[84]] {
		t.Error("newest topic missing")
	}
}

func TestByteBudgetRecovery(t *testing.T) {
	// Scenario: push the serialized set toward 3MB; the post-mutation check
	// must keep it at or under the 2MB budget with the newest topic intact.
	s := testStore(t, kv.NewMemory(0), evict.DefaultLimits())

	big := strings.Repeat("a", 150_000)
	var last string
	for i := 0; i < 20; i++ {
		topic := s.CreateTopic(fmt.Sprintf("big %d", i))
		if _, err := s.AppendMessage(topic.ID, model.SenderLocal, big); err != nil {
			t.Fatal(err)
		}
		last = topic.ID
	}

	st := s.Stats()
	if st.Bytes > 2_000_000 {
		t.Errorf("encoded size = %d, want <= 2000000", st.Bytes)
	}
	if _, err := s.Topic(last); err != nil {
		t.Error("most recently created topic was evicted")
	}
	if s.Degraded() {
		t.Error("store degraded; eviction should have absorbed the overflow")
	}
}

func TestDegradedWhenCapacityBelowBudget(t *testing.T) {
	// The adapter is too small for even the evicted set: the in-memory
	// state stays consistent and the degraded signal is raised, no error.
	b := bus.New()
	events, unsub := b.Subscribe("store.", 10)
	defer unsub()

	s := New(kv.NewMemory(64), codec.New(nil), b, zap.NewNop(), evict.DefaultLimits())
	topic := s.CreateTopic("New Chat")
	if _, err := s.AppendMessage(topic.ID, model.SenderLocal, strings.Repeat("x", 200)); err != nil {
		t.Fatal(err)
	}

	if !s.Degraded() {
		t.Error("store should be degraded")
	}
	got, err := s.Topic(topic.ID)
	if err != nil || len(got.Messages) != 1 {
		t.Error("in-memory state lost on storage failure")
	}

	var sawDegraded bool
	for len(events) > 0 {
		if e := <-events; e.Kind == bus.KindStoreDegraded {
			sawDegraded = true
		}
	}
	if !sawDegraded {
		t.Error("no store.degraded event published")
	}
}

func TestDeleteActiveTopicMovesPointer(t *testing.T) {
	s := testStore(t, kv.NewMemory(0), evict.DefaultLimits())
	t1 := s.CreateTopic("one")
	t2 := s.CreateTopic("two") // newest, active

	if err := s.DeleteTopic(t2.ID); err != nil {
		t.Fatal(err)
	}
	if s.ActiveID() != t1.ID {
		t.Errorf("active = %q, want %q", s.ActiveID(), t1.ID)
	}

	if err := s.DeleteTopic(t1.ID); err != nil {
		t.Fatal(err)
	}
	if s.ActiveID() != "" {
		t.Errorf("active = %q, want empty", s.ActiveID())
	}

	if err := s.DeleteTopic("missing"); !errors.Is(err, ErrNoSuchTopic) {
		t.Errorf("err = %v, want ErrNoSuchTopic", err)
	}
}

func TestDeleteInactiveTopicKeepsPointer(t *testing.T) {
	s := testStore(t, kv.NewMemory(0), evict.DefaultLimits())
	t1 := s.CreateTopic("one")
	t2 := s.CreateTopic("two")

	if err := s.DeleteTopic(t1.ID); err != nil {
		t.Fatal(err)
	}
	if s.ActiveID() != t2.ID {
		t.Errorf("active = %q, want %q", s.ActiveID(), t2.ID)
	}
}

func TestClearAll(t *testing.T) {
	s := testStore(t, kv.NewMemory(0), evict.DefaultLimits())
	s.CreateTopic("one")
	s.CreateTopic("two")

	s.ClearAll()
	if len(s.Topics()) != 0 || s.ActiveID() != "" {
		t.Error("ClearAll left state behind")
	}
}

func TestSetActive(t *testing.T) {
	kvs := kv.NewMemory(0)
	s := testStore(t, kvs, evict.DefaultLimits())
	t1 := s.CreateTopic("one")
	s.CreateTopic("two")

	if err := s.SetActive(t1.ID); err != nil {
		t.Fatal(err)
	}
	if s.ActiveID() != t1.ID {
		t.Errorf("active = %q, want %q", s.ActiveID(), t1.ID)
	}
	// The pointer is persisted as its own scalar.
	raw, ok, _ := kvs.Get(kv.KeyActive)
	if !ok || string(raw) != t1.ID {
		t.Errorf("persisted active = %q, %v", raw, ok)
	}

	if err := s.SetActive("missing"); !errors.Is(err, ErrNoSuchTopic) {
		t.Errorf("err = %v, want ErrNoSuchTopic", err)
	}
}

func TestReloadFromStorage(t *testing.T) {
	kvs := kv.NewMemory(0)
	s := testStore(t, kvs, evict.DefaultLimits())
	t1 := s.CreateTopic("one")
	s.CreateTopic("two")
	if _, err := s.AppendMessage(t1.ID, model.SenderLocal, "hello"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetActive(t1.ID); err != nil {
		t.Fatal(err)
	}

	// A second store over the same adapter sees identical state.
	s2 := testStore(t, kvs, evict.DefaultLimits())
	if s2.ActiveID() != t1.ID {
		t.Errorf("active after reload = %q, want %q", s2.ActiveID(), t1.ID)
	}
	topics := s2.Topics()
	if len(topics) != 2 {
		t.Fatalf("topics after reload = %d, want 2", len(topics))
	}
	got, err := s2.Topic(t1.ID)
	if err != nil || len(got.Messages) != 1 || got.Messages[0].Text != "hello" {
		t.Errorf("messages after reload = %+v, err %v", got.Messages, err)
	}
}

func TestReloadWithDanglingActiveFallsBack(t *testing.T) {
	kvs := kv.NewMemory(0)
	s := testStore(t, kvs, evict.DefaultLimits())
	t1 := s.CreateTopic("one")

	// Simulate a stale pointer left by an interrupted run.
	if err := kvs.Set(kv.KeyActive, []byte("gone")); err != nil {
		t.Fatal(err)
	}
	s2 := testStore(t, kvs, evict.DefaultLimits())
	if s2.ActiveID() != t1.ID {
		t.Errorf("active = %q, want fallback to %q", s2.ActiveID(), t1.ID)
	}
	_ = s
}
