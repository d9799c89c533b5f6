package reference

import (
	"context"
	"database/sql"
	"errors"

	"casework/pkg/platform/sentinel"
	txcontext "casework/pkg/platform/tx"
)

// PostgresStore resolves reference entities from the backing database.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) querier(ctx context.Context) interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
} {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) InstitutionByNomisCode(ctx context.Context, nomisCode string) (*Institution, error) {
	row := s.querier(ctx).QueryRowContext(ctx,
		`SELECT id, code, nomis_code, description
		 FROM institutions
		 WHERE upper(nomis_code) = upper($1)`, nomisCode)

	var inst Institution
	err := row.Scan(&inst.ID, &inst.Code, &inst.NomisCode, &inst.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

func (s *PostgresStore) CustodyStatusByCode(ctx context.Context, code string) (*CustodyStatus, error) {
	row := s.querier(ctx).QueryRowContext(ctx,
		`SELECT code, description FROM custody_statuses WHERE code = $1`, code)

	var status CustodyStatus
	err := row.Scan(&status.Code, &status.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (s *PostgresStore) CourtTypeByCode(ctx context.Context, code string) (*CourtType, error) {
	row := s.querier(ctx).QueryRowContext(ctx,
		`SELECT code, description FROM court_types WHERE code = $1`, code)

	var ct CourtType
	err := row.Scan(&ct.Code, &ct.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ct, nil
}
