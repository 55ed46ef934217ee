package notify

import (
	"testing"

	"docvault/internal/core/domain"
)

func TestFanoutDeliversToAllSubscribers(t *testing.T) {
	fanout := NewFanout(nil)
	var first, second []domain.EventType
	fanout.Subscribe(func(e domain.Event) { first = append(first, e.Type) })
	fanout.Subscribe(func(e domain.Event) { second = append(second, e.Type) })

	fanout.Publish(domain.Event{Type: domain.EventFileDetected, Hash: "abc"})
	fanout.Publish(domain.Event{Type: domain.EventStatus, Hash: "abc"})

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("deliveries = %d/%d, want 2/2", len(first), len(second))
	}
}

func TestFanoutIsolatesPanickingSubscriber(t *testing.T) {
	fanout := NewFanout(nil)
	fanout.Subscribe(func(domain.Event) { panic("subscriber bug") })
	var delivered int
	fanout.Subscribe(func(domain.Event) { delivered++ })

	fanout.Publish(domain.Event{Type: domain.EventProgress, Hash: "abc"})

	if delivered != 1 {
		t.Fatalf("delivered = %d, want panic isolated from other subscribers", delivered)
	}
}

func TestFanoutWithoutSubscribersIsNoop(t *testing.T) {
	fanout := NewFanout(nil)
	fanout.Publish(domain.Event{Type: domain.EventError, Hash: "abc"})
}
