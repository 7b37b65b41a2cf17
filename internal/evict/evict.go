// Package evict implements the destructive capacity policy for the topic
// list. It is never invoked speculatively: the store calls it only after a
// failed write or when a post-mutation check finds the set over budget.
package evict

import "vedchat/internal/model"

// Limits are the three budgets every topic set must satisfy.
type Limits struct {
	TopicLimit       int
	MessagesPerTopic int
	ByteBudget       int
}

// DefaultLimits returns the stock budgets.
func DefaultLimits() Limits {
	return Limits{
		TopicLimit:       80,
		MessagesPerTopic: 200,
		ByteBudget:       2_000_000,
	}
}

// SizeFunc reports the serialized byte size of a topic list.
type SizeFunc func([]model.Topic) int

// Report counts what an Apply run discarded.
type Report struct {
	TopicsDropped   int
	MessagesDropped int
}

// Changed reports whether the run discarded anything.
func (r Report) Changed() bool {
	return r.TopicsDropped > 0 || r.MessagesDropped > 0
}

// Apply trims topics until all three budgets hold and returns the result.
// topics is ordered newest first; "oldest" is purely positional (last in
// the list, first in a message sequence), so the outcome is deterministic
// even with duplicate timestamps. The input slice is consumed.
//
// Order of operations:
//  1. truncate the topic list to TopicLimit (drop the tail);
//  2. per topic, keep only the most recent MessagesPerTopic messages;
//  3. while the serialized size exceeds ByteBudget and more than one topic
//     remains, drop the last topic and remeasure;
//  4. if the sole remaining topic alone exceeds ByteBudget, drop its oldest
//     messages one at a time, never the newest.
func Apply(topics []model.Topic, lim Limits, size SizeFunc) ([]model.Topic, Report) {
	var rep Report

	if lim.TopicLimit > 0 && len(topics) > lim.TopicLimit {
		rep.TopicsDropped += len(topics) - lim.TopicLimit
		topics = topics[:lim.TopicLimit]
	}

	if lim.MessagesPerTopic > 0 {
		for i := range topics {
			if n := len(topics[i].Messages); n > lim.MessagesPerTopic {
				rep.MessagesDropped += n - lim.MessagesPerTopic
				topics[i].Messages = topics[i].Messages[n-lim.MessagesPerTopic:]
			}
		}
	}

	if lim.ByteBudget <= 0 || size == nil {
		return topics, rep
	}

	for size(topics) > lim.ByteBudget && len(topics) > 1 {
		rep.TopicsDropped++
		topics = topics[:len(topics)-1]
	}

	if len(topics) == 1 {
		for size(topics) > lim.ByteBudget && len(topics[0].Messages) > 1 {
			rep.MessagesDropped++
			topics[0].Messages = topics[0].Messages[1:]
		}
	}

	return topics, rep
}
