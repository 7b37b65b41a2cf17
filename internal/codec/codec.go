// Package codec converts the topic list to and from its persisted JSON
// form. Decoding never fails: the store must always be constructible, so
// malformed or absent input yields an empty list.
package codec

import (
	"encoding/json"

	"go.uber.org/zap"

	"vedchat/internal/model"
)

// Codec encodes and decodes the serialized topic blob.
type Codec struct {
	logger *zap.Logger
}

// New creates a codec. A nil logger is replaced with a no-op one.
func New(logger *zap.Logger) *Codec {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Codec{logger: logger}
}

// Encode serializes topics. A topic that fails to marshal is an editor
// bug, not a fatal condition: it is dropped with a log line and the rest
// is encoded.
func (c *Codec) Encode(topics []model.Topic) []byte {
	parts := make([]json.RawMessage, 0, len(topics))
	for _, t := range topics {
		b, err := json.Marshal(t)
		if err != nil {
			c.logger.Warn("dropping unencodable topic",
				zap.String("topic_id", t.ID), zap.Error(err))
			continue
		}
		parts = append(parts, b)
	}
	out, err := json.Marshal(parts)
	if err != nil {
		c.logger.Error("encode topic list", zap.Error(err))
		return []byte("[]")
	}
	return out
}

// Decode parses a serialized topic blob. Absent or malformed input
// decodes to an empty list.
func (c *Codec) Decode(data []byte) []model.Topic {
	if len(data) == 0 {
		return nil
	}
	var topics []model.Topic
	if err := json.Unmarshal(data, &topics); err != nil {
		c.logger.Warn("malformed topic blob, starting empty", zap.Error(err))
		return nil
	}
	return topics
}

// Size reports the encoded byte length of topics, the approximation the
// eviction budget is measured against.
func (c *Codec) Size(topics []model.Topic) int {
	return len(c.Encode(topics))
}
