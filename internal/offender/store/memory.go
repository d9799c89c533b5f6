package store

import (
	"context"
	"strings"
	"sync"

	"casework/internal/offender/models"
	"casework/pkg/platform/sentinel"
)

// InMemory is the offender store used by unit tests and local development.
type InMemory struct {
	mu        sync.RWMutex
	offenders map[int64]models.Offender
}

func NewInMemory() *InMemory {
	return &InMemory{offenders: make(map[int64]models.Offender)}
}

// Seed inserts or replaces offender records.
func (s *InMemory) Seed(offenders ...models.Offender) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range offenders {
		s.offenders[o.ID] = o
	}
}

func (s *InMemory) FindByID(_ context.Context, offenderID int64) (*models.Offender, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.offenders[offenderID]
	if !ok || o.SoftDeleted {
		return nil, sentinel.ErrNotFound
	}
	return &o, nil
}

func (s *InMemory) FindByCRN(_ context.Context, crn string) (*models.Offender, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.offenders {
		if !o.SoftDeleted && o.CRN == crn {
			found := o
			return &found, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindAllByNomsNumber(_ context.Context, nomsNumber string) ([]models.Offender, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []models.Offender
	for _, o := range s.offenders {
		if !o.SoftDeleted && strings.EqualFold(o.NomsNumber, nomsNumber) {
			matches = append(matches, o)
		}
	}
	// Stable order for in-memory iteration; the resolver does not depend on
	// order but tests read nicer with it.
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j-1].ID > matches[j].ID; j-- {
			matches[j-1], matches[j] = matches[j], matches[j-1]
		}
	}
	return matches, nil
}
