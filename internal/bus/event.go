package bus

import "time"

// Event kinds published by the core. Subscribers filter by namespace
// prefix, e.g. "topic." receives every topic event.
const (
	KindTopicCreated  = "topic.created"
	KindTopicDeleted  = "topic.deleted"
	KindTopicsCleared = "topic.cleared"
	KindActiveChanged = "topic.active_changed"

	KindMessageAppended = "message.appended"
	KindMessageReplaced = "message.replaced"

	KindStoreDegraded = "store.degraded"
	KindStoreEvicted  = "store.evicted"

	KindRevealStarted   = "reveal.started"
	KindRevealStep      = "reveal.step"
	KindRevealComplete  = "reveal.complete"
	KindRevealCancelled = "reveal.cancelled"

	KindSendStarted  = "send.started"
	KindSendFinished = "send.finished"
	KindSendFailed   = "send.failed"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// TopicRef identifies a topic in topic.* payloads. ActiveID is the active
// topic after the event, which may differ from ID on deletes.
type TopicRef struct {
	ID       string
	ActiveID string
}

// MessageRef identifies a message in message.* and reveal.* payloads.
type MessageRef struct {
	TopicID   string
	MessageID string
}

// SendFailure is the payload for send.failed events.
type SendFailure struct {
	TopicID string
	Err     string
}
