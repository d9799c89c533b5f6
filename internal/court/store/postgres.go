package store

import (
	"context"
	"database/sql"
	"fmt"

	"casework/internal/court/models"
	"casework/pkg/platform/sentinel"
	txcontext "casework/pkg/platform/tx"
)

// Postgres is the production court store backed by lib/pq.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Postgres) querier(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const courtColumns = `
	c.id, c.code, c.name, c.selectable, c.type_code, t.description
`

const courtJoins = `
	FROM courts c
	JOIN court_types t ON t.code = c.type_code
`

func (s *Postgres) FindAllByCode(ctx context.Context, code string) ([]models.Court, error) {
	query := `SELECT ` + courtColumns + courtJoins + ` WHERE c.code = $1 ORDER BY c.id`
	return s.queryCourts(ctx, query, code)
}

func (s *Postgres) FindAll(ctx context.Context) ([]models.Court, error) {
	query := `SELECT ` + courtColumns + courtJoins + ` ORDER BY c.code, c.id`
	return s.queryCourts(ctx, query)
}

func (s *Postgres) Insert(ctx context.Context, court *models.Court) error {
	err := s.querier(ctx).QueryRowContext(ctx,
		`INSERT INTO courts (code, name, selectable, type_code)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		court.Code, court.Name, court.Selectable, court.Type.Code,
	).Scan(&court.ID)
	if err != nil {
		return fmt.Errorf("insert court: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, court *models.Court) error {
	res, err := s.querier(ctx).ExecContext(ctx,
		`UPDATE courts SET name = $2, selectable = $3, type_code = $4 WHERE id = $1`,
		court.ID, court.Name, court.Selectable, court.Type.Code,
	)
	if err != nil {
		return fmt.Errorf("update court: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) queryCourts(ctx context.Context, query string, args ...any) ([]models.Court, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query courts: %w", err)
	}
	defer rows.Close()

	var courts []models.Court
	for rows.Next() {
		var c models.Court
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Selectable, &c.Type.Code, &c.Type.Description); err != nil {
			return nil, err
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}
