package remote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"vedchat/internal/bus"
	"vedchat/internal/metrics"
	"vedchat/internal/model"
	"vedchat/internal/reveal"
	"vedchat/internal/store"
)

// Pipeline drives one send end to end: append the local message, call the
// endpoint with retries, and reveal either the reply or the failure text in
// the same topic. Sends run in the background; completion is observable on
// the bus under the send namespace.
type Pipeline struct {
	store    *store.Store
	client   Client
	revealer *reveal.Scheduler
	bus      *bus.Bus
	logger   *zap.Logger
	policy   RetryPolicy
	timeout  time.Duration

	wg sync.WaitGroup
}

// NewPipeline wires the send path. timeout bounds each individual attempt.
func NewPipeline(st *store.Store, client Client, rev *reveal.Scheduler, b *bus.Bus, logger *zap.Logger, policy RetryPolicy, timeout time.Duration) *Pipeline {
	return &Pipeline{
		store:    st,
		client:   client,
		revealer: rev,
		bus:      b,
		logger:   logger,
		policy:   policy,
		timeout:  timeout,
	}
}

// Send appends text as a local message in the topic and starts the remote
// exchange in the background. A reveal already in flight there is cancelled
// first, so the reply lands in a quiet topic.
func (p *Pipeline) Send(ctx context.Context, topicID, text string) (model.Message, error) {
	p.revealer.Cancel(topicID)

	msg, err := p.store.AppendMessage(topicID, model.SenderLocal, text)
	if err != nil {
		return model.Message{}, err
	}
	metrics.Sends.Inc()
	p.publish(bus.KindSendStarted, bus.MessageRef{TopicID: topicID, MessageID: msg.ID})

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.exchange(ctx, topicID, text)
	}()
	return msg, nil
}

// Wait blocks until every in-flight send has finished. Used on shutdown.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) exchange(ctx context.Context, topicID, text string) {
	reply, err := p.policy.retry(ctx, func(ctx context.Context) (string, error) {
		attemptCtx := ctx
		if p.timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, p.timeout)
			defer cancel()
		}
		return p.client.Send(attemptCtx, text)
	})

	if err != nil {
		metrics.SendFailures.Inc()
		p.logger.Warn("send failed",
			zap.String("topic_id", topicID), zap.Error(err))
		p.publish(bus.KindSendFailed, bus.SendFailure{TopicID: topicID, Err: err.Error()})
		// The failure is shown in the conversation through the same reveal
		// path as a reply.
		if _, rerr := p.revealer.Reveal(topicID, fmt.Sprintf("Error: %s", err)); rerr != nil {
			p.logger.Debug("failure text dropped", zap.Error(rerr))
		}
		return
	}

	p.publish(bus.KindSendFinished, bus.TopicRef{ID: topicID})
	if _, rerr := p.revealer.Reveal(topicID, reply); rerr != nil {
		p.logger.Debug("reply dropped", zap.String("topic_id", topicID), zap.Error(rerr))
	}
}

func (p *Pipeline) publish(kind string, payload any) {
	if p.bus != nil {
		p.bus.Publish(bus.Event{Kind: kind, Payload: payload})
	}
}
