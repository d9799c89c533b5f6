// Package service manages court reference records. Lookups by code resolve
// through the most-likely policy because court codes carry historical
// duplicates.
package service

import (
	"context"
	"errors"
	"log/slog"

	"casework/internal/court/models"
	"casework/internal/court/store"
	"casework/internal/identity"
	"casework/internal/reference"
	dErrors "casework/pkg/domain-errors"
	"casework/pkg/platform/sentinel"
)

// FeatureSwitches gates which court codes may be created or amended.
type FeatureSwitches interface {
	CourtCodeUpdatable(code string) bool
}

// Service reads and maintains courts.
type Service struct {
	store     store.Store
	reference reference.Store
	switches  FeatureSwitches
	log       *slog.Logger
}

func New(st store.Store, ref reference.Store, switches FeatureSwitches, log *slog.Logger) *Service {
	return &Service{store: st, reference: ref, switches: switches, log: log}
}

// ByCode resolves a court code to the single selectable court. Duplicate
// rows narrow to the one selectable record; anything else is a conflict.
func (s *Service) ByCode(ctx context.Context, code string) (*models.Court, error) {
	candidates, err := s.store.FindAllByCode(ctx, code)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "looking up courts by code")
	}

	court, err := identity.MostLikely(code, candidates, func(c models.Court) bool {
		return c.Selectable
	})
	if err != nil {
		var ambiguous *identity.AmbiguousError
		if errors.As(err, &ambiguous) {
			return nil, dErrors.New(dErrors.CodeConflict,
				"expected a single selectable court but found %d courts with code %s",
				ambiguous.Candidates, code)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "resolving court by code")
	}
	if court == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "court with code %s not found", code)
	}
	return court, nil
}

// List returns every court ordered by code. Duplicate codes collapse to the
// most likely record when one can be resolved; unresolvable duplicates are
// all listed rather than silently dropped.
func (s *Service) List(ctx context.Context) ([]models.Court, error) {
	courts, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing courts")
	}

	byCode := make(map[string][]models.Court)
	var codes []string
	for _, c := range courts {
		if _, seen := byCode[c.Code]; !seen {
			codes = append(codes, c.Code)
		}
		byCode[c.Code] = append(byCode[c.Code], c)
	}

	var out []models.Court
	for _, code := range codes {
		candidates := byCode[code]
		resolved, err := identity.MostLikely(code, candidates, func(c models.Court) bool {
			return c.Selectable
		})
		if err == nil && resolved != nil {
			out = append(out, *resolved)
			continue
		}
		out = append(out, candidates...)
	}
	return out, nil
}

// CreateInput carries the writable court fields.
type CreateInput struct {
	Code       string
	Name       string
	Selectable bool
	TypeCode   string
}

// Create stores a new court. Codes outside the configured updatable pattern
// are rejected, and an existing code is a conflict.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Court, error) {
	if input.Code == "" || input.Name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "court code and name are required")
	}
	if !s.switches.CourtCodeUpdatable(input.Code) {
		return nil, dErrors.New(dErrors.CodeValidation, "court code %s is not updatable", input.Code)
	}

	existing, err := s.store.FindAllByCode(ctx, input.Code)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "checking for existing court")
	}
	if len(existing) > 0 {
		return nil, dErrors.New(dErrors.CodeConflict, "court with code %s already exists", input.Code)
	}

	courtType, err := s.courtType(ctx, input.TypeCode)
	if err != nil {
		return nil, err
	}

	court := &models.Court{
		Code:       input.Code,
		Name:       input.Name,
		Selectable: input.Selectable,
		Type:       *courtType,
	}
	if err := s.store.Insert(ctx, court); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "inserting court")
	}
	return court, nil
}

// UpdateInput carries the amendable court fields.
type UpdateInput struct {
	Name       string
	Selectable bool
	TypeCode   string
}

// Update amends the court resolved from the code. Codes outside the
// updatable pattern log a warning and return the record unmodified; like the
// custody switch this is a deliberate no-op, not an error.
func (s *Service) Update(ctx context.Context, code string, input UpdateInput) (*models.Court, error) {
	court, err := s.ByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if !s.switches.CourtCodeUpdatable(code) {
		s.log.WarnContext(ctx, "court code is not updatable, update ignored", "code", code)
		return court, nil
	}

	courtType, err := s.courtType(ctx, input.TypeCode)
	if err != nil {
		return nil, err
	}

	court.Name = input.Name
	court.Selectable = input.Selectable
	court.Type = *courtType
	if err := s.store.Update(ctx, court); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "updating court")
	}
	return court, nil
}

func (s *Service) courtType(ctx context.Context, typeCode string) (*reference.CourtType, error) {
	courtType, err := s.reference.CourtTypeByCode(ctx, typeCode)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "court type with code %s not found", typeCode)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "looking up court type")
	}
	return courtType, nil
}
