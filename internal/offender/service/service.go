package service

import (
	"context"
	"errors"
	"log/slog"

	"casework/internal/identity"
	"casework/internal/offender/models"
	"casework/internal/offender/store"
	dErrors "casework/pkg/domain-errors"
	"casework/pkg/platform/sentinel"
)

// BookingSource supplies booking numbers for the identifiers view. Satisfied
// by the custody event store.
type BookingSource interface {
	BookingNumbersByOffenderID(ctx context.Context, offenderID int64) ([]string, error)
}

// Service resolves offender identity records. Read-only: it never mutates an
// offender and never caches a resolution, since the duplicate-record sets can
// change between requests.
type Service struct {
	store    store.Store
	bookings BookingSource
	log      *slog.Logger
}

func New(st store.Store, bookings BookingSource, log *slog.Logger) *Service {
	return &Service{store: st, bookings: bookings, log: log}
}

// ByID returns the offender with the internal identifier.
func (s *Service) ByID(ctx context.Context, offenderID int64) (*models.Offender, error) {
	o, err := s.store.FindByID(ctx, offenderID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "offender with id %d not found", offenderID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "looking up offender by id")
	}
	return o, nil
}

// ByCRN returns the offender with the case reference number.
func (s *Service) ByCRN(ctx context.Context, crn string) (*models.Offender, error) {
	o, err := s.store.FindByCRN(ctx, crn)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "offender with crn %s not found", crn)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "looking up offender by crn")
	}
	return o, nil
}

// MostLikelyByNomsNumber resolves a NOMS number that may be shared by several
// records to the single authoritative offender. Duplicates narrow to the one
// record with an active sentence; anything else is a conflict, never a silent
// pick.
func (s *Service) MostLikelyByNomsNumber(ctx context.Context, nomsNumber string) (*models.Offender, error) {
	candidates, err := s.store.FindAllByNomsNumber(ctx, nomsNumber)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "looking up offenders by noms number")
	}

	offender, err := identity.MostLikely(nomsNumber, candidates, func(o models.Offender) bool {
		return o.ActiveSentence
	})
	if err != nil {
		var ambiguous *identity.AmbiguousError
		if errors.As(err, &ambiguous) {
			return nil, dErrors.New(dErrors.CodeConflict,
				"expected a single active offender but found %d offenders with noms number %s",
				ambiguous.Candidates, nomsNumber)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "resolving offender by noms number")
	}
	if offender == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "offender with noms number %s not found", nomsNumber)
	}
	return offender, nil
}

// Identifiers assembles the external-key view for an offender.
func (s *Service) Identifiers(ctx context.Context, offenderID int64) (*models.Identifiers, error) {
	o, err := s.ByID(ctx, offenderID)
	if err != nil {
		return nil, err
	}

	ids := &models.Identifiers{
		OffenderID: o.ID,
		CRN:        o.CRN,
		NomsNumber: o.NomsNumber,
		PNCNumber:  o.PNCNumber,
	}
	if s.bookings != nil {
		bookings, err := s.bookings.BookingNumbersByOffenderID(ctx, o.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading booking numbers")
		}
		ids.Bookings = bookings
	}
	return ids, nil
}
