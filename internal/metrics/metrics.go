// Package metrics exposes Prometheus counters for the client core and an
// optional localhost scrape endpoint.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	TopicsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vedchat_topics_evicted_total",
		Help: "Topics discarded by the eviction policy.",
	})
	MessagesEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vedchat_messages_evicted_total",
		Help: "Messages discarded by the eviction policy.",
	})
	DegradedSaves = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vedchat_degraded_saves_total",
		Help: "Persist attempts that still failed after eviction and retry.",
	})
	Sends = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vedchat_sends_total",
		Help: "Messages handed to the remote chat API.",
	})
	SendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vedchat_send_failures_total",
		Help: "Sends that exhausted the retry policy.",
	})
	RevealsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vedchat_reveals_started_total",
		Help: "Incremental reveals started.",
	})
	RevealsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vedchat_reveals_cancelled_total",
		Help: "Incremental reveals cancelled before completion.",
	})
)

// Serve starts a /metrics listener on addr and returns a shutdown func.
// An empty addr disables the listener.
func Serve(addr string, logger *zap.Logger) func(context.Context) error {
	if addr == "" {
		return func(context.Context) error { return nil }
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics listener", zap.Error(err))
		}
	}()
	logger.Info("metrics listening", zap.String("addr", addr))

	return srv.Shutdown
}
