// Package store persists court records.
package store

import (
	"context"

	"casework/internal/court/models"
)

// Store reads and writes courts. Implementations return sentinel.ErrNotFound
// for unknown ids.
type Store interface {
	// FindAllByCode returns every court with the code, ordered by id. Codes
	// are matched case-sensitively; they are upper case by convention.
	FindAllByCode(ctx context.Context, code string) ([]models.Court, error)

	// FindAll returns every court ordered by code then id.
	FindAll(ctx context.Context) ([]models.Court, error)

	// Insert stores a new court and assigns its id.
	Insert(ctx context.Context, court *models.Court) error

	// Update replaces an existing court by id.
	Update(ctx context.Context, court *models.Court) error
}
