// Package telemetry emits operational event markers. Markers are not part of
// the domain's observable behaviour: they record why a custody update was
// applied, ignored or rejected so operators can trace prison feed problems
// without trawling request logs.
package telemetry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Client records named event markers with free-form string properties.
type Client interface {
	TrackEvent(ctx context.Context, name string, properties map[string]string)
}

// Tracker is the production Client: each marker becomes a structured log line
// and a prometheus counter increment labelled by event name.
type Tracker struct {
	log    *slog.Logger
	events *prometheus.CounterVec
}

func New(log *slog.Logger) *Tracker {
	return &Tracker{
		log: log,
		events: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "casework_telemetry_events_total",
			Help: "Total telemetry event markers by event name",
		}, []string{"event"}),
	}
}

func (t *Tracker) TrackEvent(ctx context.Context, name string, properties map[string]string) {
	t.events.WithLabelValues(name).Inc()

	attrs := make([]any, 0, 2*len(properties)+2)
	attrs = append(attrs, "event", name)
	for k, v := range properties {
		attrs = append(attrs, k, v)
	}
	t.log.InfoContext(ctx, "telemetry event", attrs...)
}

// Recorder is the test Client: it captures events for assertions.
type Recorder struct {
	mu     sync.Mutex
	events []RecordedEvent
}

type RecordedEvent struct {
	Name       string
	Properties map[string]string
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) TrackEvent(_ context.Context, name string, properties map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, RecordedEvent{Name: name, Properties: properties})
}

// Events returns a copy of everything tracked so far.
func (r *Recorder) Events() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedEvent{}, r.events...)
}

// Names returns just the event names in emission order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.Name
	}
	return names
}
