package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"casework/internal/offender/models"
	"casework/pkg/platform/sentinel"
	txcontext "casework/pkg/platform/tx"
)

// Postgres is the production offender store backed by lib/pq.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Postgres) querier(ctx context.Context) rowQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const offenderColumns = `
	id, crn, noms_number, pnc_number, soft_deleted, active_sentence,
	current_exclusion, exclusion_message, current_restriction, restriction_message
`

func (s *Postgres) FindByID(ctx context.Context, offenderID int64) (*models.Offender, error) {
	query := `SELECT ` + offenderColumns + ` FROM offenders WHERE id = $1 AND NOT soft_deleted`
	return s.scanOne(s.querier(ctx).QueryRowContext(ctx, query, offenderID))
}

func (s *Postgres) FindByCRN(ctx context.Context, crn string) (*models.Offender, error) {
	query := `SELECT ` + offenderColumns + ` FROM offenders WHERE crn = $1 AND NOT soft_deleted`
	return s.scanOne(s.querier(ctx).QueryRowContext(ctx, query, crn))
}

func (s *Postgres) FindAllByNomsNumber(ctx context.Context, nomsNumber string) ([]models.Offender, error) {
	query := `SELECT ` + offenderColumns + `
		FROM offenders
		WHERE upper(noms_number) = upper($1) AND NOT soft_deleted
		ORDER BY id`
	rows, err := s.querier(ctx).QueryContext(ctx, query, nomsNumber)
	if err != nil {
		return nil, fmt.Errorf("query offenders by noms number: %w", err)
	}
	defer rows.Close()

	var offenders []models.Offender
	for rows.Next() {
		o, err := scanOffender(rows)
		if err != nil {
			return nil, err
		}
		offenders = append(offenders, *o)
	}
	return offenders, rows.Err()
}

func (s *Postgres) scanOne(row *sql.Row) (*models.Offender, error) {
	o, err := scanOffender(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return o, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOffender(sc scanner) (*models.Offender, error) {
	var o models.Offender
	var noms, pnc, exclusionMsg, restrictionMsg sql.NullString
	err := sc.Scan(
		&o.ID, &o.CRN, &noms, &pnc, &o.SoftDeleted, &o.ActiveSentence,
		&o.CurrentExclusion, &exclusionMsg, &o.CurrentRestriction, &restrictionMsg,
	)
	if err != nil {
		return nil, err
	}
	o.NomsNumber = noms.String
	o.PNCNumber = pnc.String
	o.ExclusionMessage = exclusionMsg.String
	o.RestrictionMessage = restrictionMsg.String
	return &o, nil
}
