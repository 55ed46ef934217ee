// Package notify fans pipeline events out to subscribers. Delivery is
// fire-and-forget: a panicking or failing subscriber never reaches the
// pipeline.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"docvault/internal/core/domain"
)

// Fanout delivers every event to all registered sinks.
type Fanout struct {
	mu     sync.RWMutex
	sinks  []func(domain.Event)
	logger *slog.Logger
}

func NewFanout(logger *slog.Logger) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{logger: logger}
}

func (f *Fanout) Subscribe(sink func(domain.Event)) {
	if sink == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks = append(f.sinks, sink)
}

func (f *Fanout) Publish(event domain.Event) {
	f.mu.RLock()
	sinks := f.sinks
	f.mu.RUnlock()

	for _, sink := range sinks {
		f.deliver(sink, event)
	}
}

func (f *Fanout) deliver(sink func(domain.Event), event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Warn("event_subscriber_panicked", "event", event.Type, "panic", r)
		}
	}()
	sink(event)
}

// LogIndexer is the default search hand-off when no external index is
// attached: it records the signal and nothing else.
type LogIndexer struct {
	logger *slog.Logger
}

func NewLogIndexer(logger *slog.Logger) *LogIndexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogIndexer{logger: logger}
}

func (l *LogIndexer) IndexDocument(_ context.Context, doc *domain.CommittedDocument, text string) error {
	l.logger.Info("search_index_handoff", "id", doc.ID, "text_bytes", len(text))
	return nil
}

// LogSink writes every event to the structured log, useful as the default
// subscriber when no UI is attached.
func LogSink(logger *slog.Logger) func(domain.Event) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(event domain.Event) {
		logger.Info("pipeline_event",
			"type", event.Type,
			"hash", event.Hash,
			"step", event.Step,
			"total_steps", event.TotalSteps,
			"message", event.Message,
		)
	}
}
