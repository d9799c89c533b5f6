package store

import (
	"context"

	"casework/internal/offender/models"
)

// Store is the offender record lookup surface. Implementations filter soft
// deleted records and match NOMS numbers case-insensitively. All methods are
// read-only; offender mutation belongs to upstream case-entry processes.
type Store interface {
	FindByID(ctx context.Context, offenderID int64) (*models.Offender, error)
	FindByCRN(ctx context.Context, crn string) (*models.Offender, error)
	// FindAllByNomsNumber returns every record sharing the NOMS number so the
	// caller can apply the most-likely resolution policy.
	FindAllByNomsNumber(ctx context.Context, nomsNumber string) ([]models.Offender, error)
}
