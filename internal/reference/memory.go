package reference

import (
	"context"
	"strings"
	"sync"

	"casework/pkg/platform/sentinel"
)

// InMemoryStore backs unit tests and local development with a fixed set of
// reference entities.
type InMemoryStore struct {
	mu           sync.RWMutex
	institutions map[string]Institution
	statuses     map[string]CustodyStatus
	courtTypes   map[string]CourtType
}

func NewInMemoryStore() *InMemoryStore {
	s := &InMemoryStore{
		institutions: make(map[string]Institution),
		statuses:     make(map[string]CustodyStatus),
		courtTypes:   make(map[string]CourtType),
	}
	for _, status := range []CustodyStatus{StatusSentenced, StatusInCustody, StatusReleased, StatusTerminated} {
		s.statuses[status.Code] = status
	}
	return s
}

// SeedInstitutions registers institutions by NOMIS code.
func (s *InMemoryStore) SeedInstitutions(institutions ...Institution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inst := range institutions {
		s.institutions[strings.ToUpper(inst.NomisCode)] = inst
	}
}

// SeedCourtTypes registers court types by code.
func (s *InMemoryStore) SeedCourtTypes(types ...CourtType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ct := range types {
		s.courtTypes[ct.Code] = ct
	}
}

func (s *InMemoryStore) InstitutionByNomisCode(_ context.Context, nomisCode string) (*Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.institutions[strings.ToUpper(nomisCode)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &inst, nil
}

func (s *InMemoryStore) CustodyStatusByCode(_ context.Context, code string) (*CustodyStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &status, nil
}

func (s *InMemoryStore) CourtTypeByCode(_ context.Context, code string) (*CourtType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ct, ok := s.courtTypes[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &ct, nil
}
