package store

import (
	"context"
	"sort"
	"sync"

	"casework/internal/court/models"
	"casework/pkg/platform/sentinel"
)

// InMemory is the court store used by unit tests and local development.
type InMemory struct {
	mu     sync.RWMutex
	nextID int64
	courts map[int64]models.Court
}

func NewInMemory() *InMemory {
	return &InMemory{nextID: 1, courts: make(map[int64]models.Court)}
}

// Seed inserts or replaces court records.
func (s *InMemory) Seed(courts ...models.Court) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range courts {
		s.courts[c.ID] = c
		if c.ID >= s.nextID {
			s.nextID = c.ID + 1
		}
	}
}

func (s *InMemory) FindAllByCode(_ context.Context, code string) ([]models.Court, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Court
	for _, c := range s.courts {
		if c.Code == code {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) FindAll(_ context.Context) ([]models.Court, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Court, 0, len(s.courts))
	for _, c := range s.courts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *InMemory) Insert(_ context.Context, court *models.Court) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	court.ID = s.nextID
	s.nextID++
	s.courts[court.ID] = *court
	return nil
}

func (s *InMemory) Update(_ context.Context, court *models.Court) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courts[court.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.courts[court.ID] = *court
	return nil
}
