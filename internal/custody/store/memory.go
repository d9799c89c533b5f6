package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"casework/internal/custody/models"
	"casework/pkg/platform/sentinel"
)

// InMemoryEvents is the sentence event store used by unit tests and local
// development.
type InMemoryEvents struct {
	mu     sync.RWMutex
	events map[int64]models.SentenceEvent
}

func NewInMemoryEvents() *InMemoryEvents {
	return &InMemoryEvents{events: make(map[int64]models.SentenceEvent)}
}

// Seed inserts or replaces sentence events.
func (s *InMemoryEvents) Seed(events ...models.SentenceEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range events {
		s.events[e.ID] = *e.Clone()
	}
}

// Event returns a copy of one event for test assertions.
func (s *InMemoryEvents) Event(eventID int64) (models.SentenceEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[eventID]
	if !ok {
		return models.SentenceEvent{}, false
	}
	return *e.Clone(), true
}

func (s *InMemoryEvents) ActiveCustodialEventsByOffenderID(_ context.Context, offenderID int64) ([]models.SentenceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(e models.SentenceEvent) bool {
		return e.OffenderID == offenderID && e.Active && e.Custody != nil
	}), nil
}

func (s *InMemoryEvents) ActiveCustodialEventsByBookingNumber(_ context.Context, bookingNumber string) ([]models.SentenceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(e models.SentenceEvent) bool {
		return e.Active && e.Custody != nil && strings.EqualFold(e.BookingNumber, bookingNumber)
	}), nil
}

func (s *InMemoryEvents) BookingNumbersByOffenderID(_ context.Context, offenderID int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	var numbers []string
	for _, e := range s.collect(func(e models.SentenceEvent) bool {
		return e.OffenderID == offenderID && e.Custody != nil && e.BookingNumber != ""
	}) {
		if _, ok := seen[e.BookingNumber]; ok {
			continue
		}
		seen[e.BookingNumber] = struct{}{}
		numbers = append(numbers, e.BookingNumber)
	}
	return numbers, nil
}

func (s *InMemoryEvents) UpdateCustody(_ context.Context, eventID int64, custody *models.Custody) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return sentinel.ErrNotFound
	}
	e.Custody = custody.Clone()
	s.events[eventID] = e
	return nil
}

// collect filters under a held lock and returns id-ordered copies.
func (s *InMemoryEvents) collect(match func(models.SentenceEvent) bool) []models.SentenceEvent {
	var out []models.SentenceEvent
	for _, e := range s.events {
		if match(e) {
			out = append(out, *e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InMemoryHistory records custody history entries in append order.
type InMemoryHistory struct {
	mu      sync.RWMutex
	nextID  int64
	entries []models.HistoryEntry
}

func NewInMemoryHistory() *InMemoryHistory {
	return &InMemoryHistory{nextID: 1}
}

func (s *InMemoryHistory) Append(_ context.Context, entry *models.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.nextID
	s.nextID++
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *InMemoryHistory) ByOffenderID(_ context.Context, offenderID int64) ([]models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.HistoryEntry
	for _, e := range s.entries {
		if e.OffenderID == offenderID {
			out = append(out, e)
		}
	}
	return out, nil
}
