package access

import (
	"context"
	"sync"
)

// Directory answers per-offender user list membership questions. The
// production implementation sits in front of the staff directory; the gate
// only depends on these two questions.
//
//go:generate mockgen -source=directory.go -destination=mocks/directory_mock.go -package=mocks
type Directory interface {
	// IsExcludedFrom reports whether the user is on the exclusion list for
	// the offender.
	IsExcludedFrom(ctx context.Context, username string, offenderID int64) (bool, error)
	// IsAuthorisedFor reports whether the user is on the authorised-viewer
	// list for a restricted offender.
	IsAuthorisedFor(ctx context.Context, username string, offenderID int64) (bool, error)
}

// InMemoryDirectory backs unit tests and local development.
type InMemoryDirectory struct {
	mu         sync.RWMutex
	excluded   map[string]map[int64]bool
	authorised map[string]map[int64]bool
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{
		excluded:   make(map[string]map[int64]bool),
		authorised: make(map[string]map[int64]bool),
	}
}

// Exclude puts the user on the exclusion list for the offender.
func (d *InMemoryDirectory) Exclude(username string, offenderID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.excluded[username] == nil {
		d.excluded[username] = make(map[int64]bool)
	}
	d.excluded[username][offenderID] = true
}

// Authorise puts the user on the authorised-viewer list for the offender.
func (d *InMemoryDirectory) Authorise(username string, offenderID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.authorised[username] == nil {
		d.authorised[username] = make(map[int64]bool)
	}
	d.authorised[username][offenderID] = true
}

func (d *InMemoryDirectory) IsExcludedFrom(_ context.Context, username string, offenderID int64) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.excluded[username][offenderID], nil
}

func (d *InMemoryDirectory) IsAuthorisedFor(_ context.Context, username string, offenderID int64) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.authorised[username][offenderID], nil
}
