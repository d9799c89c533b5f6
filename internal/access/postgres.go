package access

import (
	"context"
	"database/sql"
	"fmt"

	txcontext "casework/pkg/platform/tx"
)

// PostgresDirectory answers exclusion and authorisation questions from the
// per-offender user list tables.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) IsExcludedFrom(ctx context.Context, username string, offenderID int64) (bool, error) {
	return d.exists(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM offender_exclusions
			WHERE offender_id = $1 AND upper(username) = upper($2)
		)`, offenderID, username)
}

func (d *PostgresDirectory) IsAuthorisedFor(ctx context.Context, username string, offenderID int64) (bool, error) {
	return d.exists(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM offender_restrictions
			WHERE offender_id = $1 AND upper(username) = upper($2)
		)`, offenderID, username)
}

func (d *PostgresDirectory) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var q interface {
		QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	} = d.db
	if tx, ok := txcontext.From(ctx); ok {
		q = tx
	}

	var found bool
	if err := q.QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		return false, fmt.Errorf("directory lookup: %w", err)
	}
	return found, nil
}
