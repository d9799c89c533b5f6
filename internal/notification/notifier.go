// Package notification defines the downstream event dispatch boundary.
// Dispatch is fire-and-forget from the core's perspective: delivery
// guarantees belong to the broker, but the core only notifies after the
// corresponding history entry is persisted.
package notification

import (
	"context"
	"sync"
)

// Event names emitted by the custody lifecycle engine.
const (
	EventCustodyUpdated         = "CustodyUpdated"
	EventCustodyStatusChanged   = "CustodyStatusChanged"
	EventCustodyKeyDatesUpdated = "CustodyKeyDatesUpdated"
)

// Notifier forwards a named event with string attributes downstream.
//
//go:generate mockgen -source=notifier.go -destination=mocks/notifier_mock.go -package=mocks
type Notifier interface {
	Notify(ctx context.Context, event string, attributes map[string]string) error
}

// Noop drops every notification. Used when no broker is configured.
type Noop struct{}

func (Noop) Notify(context.Context, string, map[string]string) error { return nil }

// Recorder captures notifications for test assertions.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

// Recorded is one captured notification.
type Recorded struct {
	Event      string
	Attributes map[string]string
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(_ context.Context, event string, attributes map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{Event: event, Attributes: attributes})
	return nil
}

// Events returns a copy of everything recorded, in dispatch order.
func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recorded{}, r.events...)
}

// Names returns just the event names in dispatch order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.Event
	}
	return names
}
