package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("topic.", 10)
	defer unsub()

	b.Publish(Event{Kind: KindTopicCreated, Payload: TopicRef{ID: "t1", ActiveID: "t1"}})

	select {
	case evt := <-ch:
		if evt.Kind != KindTopicCreated {
			t.Errorf("got kind %q, want %q", evt.Kind, KindTopicCreated)
		}
		if evt.Timestamp.IsZero() {
			t.Error("Publish should fill in a zero timestamp")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("reveal.", 10)
	defer unsub()

	b.Publish(Event{Kind: KindMessageAppended})
	b.Publish(Event{Kind: KindRevealStarted})

	select {
	case evt := <-ch:
		if evt.Kind != KindRevealStarted {
			t.Errorf("got kind %q, want %q", evt.Kind, KindRevealStarted)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	// Ensure the message event was not delivered.
	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
		// Expected: no more events.
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("topic.", 10)
	unsub()

	b.Publish(Event{Kind: KindTopicCreated})

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
		// Expected.
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("send.", 1)
	defer unsub()

	// Fill buffer.
	b.Publish(Event{Kind: KindSendStarted})
	// This should be dropped (non-blocking).
	b.Publish(Event{Kind: KindSendFinished})

	evt := <-ch
	if evt.Kind != KindSendStarted {
		t.Errorf("got %q, want %q", evt.Kind, KindSendStarted)
	}
}
