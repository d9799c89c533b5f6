package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"casework/internal/custody/models"
	"casework/internal/reference"
	"casework/pkg/platform/sentinel"
	txcontext "casework/pkg/platform/tx"
)

// PostgresEvents is the production sentence event store backed by lib/pq.
// Custody state lives on sentence_events with key dates in a child table.
type PostgresEvents struct {
	db *sql.DB
}

func NewPostgresEvents(db *sql.DB) *PostgresEvents {
	return &PostgresEvents{db: db}
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresEvents) querier(ctx context.Context) execQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const eventColumns = `
	e.id, e.offender_id, e.booking_number, e.active,
	e.custody_status_code, cs.description,
	e.institution_id, i.code, i.nomis_code, i.description,
	e.status_change_date, e.location_change_date
`

const eventJoins = `
	FROM sentence_events e
	JOIN custody_statuses cs ON cs.code = e.custody_status_code
	LEFT JOIN institutions i ON i.id = e.institution_id
`

func (s *PostgresEvents) ActiveCustodialEventsByOffenderID(ctx context.Context, offenderID int64) ([]models.SentenceEvent, error) {
	query := `SELECT ` + eventColumns + eventJoins + `
		WHERE e.offender_id = $1 AND e.active AND e.custody_status_code IS NOT NULL
		ORDER BY e.id`
	return s.queryEvents(ctx, query, offenderID)
}

func (s *PostgresEvents) ActiveCustodialEventsByBookingNumber(ctx context.Context, bookingNumber string) ([]models.SentenceEvent, error) {
	query := `SELECT ` + eventColumns + eventJoins + `
		WHERE upper(e.booking_number) = upper($1) AND e.active AND e.custody_status_code IS NOT NULL
		ORDER BY e.id`
	return s.queryEvents(ctx, query, bookingNumber)
}

func (s *PostgresEvents) BookingNumbersByOffenderID(ctx context.Context, offenderID int64) ([]string, error) {
	query := `SELECT DISTINCT booking_number
		FROM sentence_events
		WHERE offender_id = $1 AND custody_status_code IS NOT NULL AND booking_number <> ''
		ORDER BY booking_number`
	rows, err := s.querier(ctx).QueryContext(ctx, query, offenderID)
	if err != nil {
		return nil, fmt.Errorf("query booking numbers: %w", err)
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

func (s *PostgresEvents) UpdateCustody(ctx context.Context, eventID int64, custody *models.Custody) error {
	q := s.querier(ctx)

	var institutionID *int64
	if custody.Institution != nil {
		institutionID = &custody.Institution.ID
	}
	res, err := q.ExecContext(ctx, `UPDATE sentence_events
		SET custody_status_code = $2, institution_id = $3,
		    status_change_date = $4, location_change_date = $5
		WHERE id = $1`,
		eventID, custody.Status.Code, institutionID,
		custody.StatusChangeDate, custody.LocationChangeDate,
	)
	if err != nil {
		return fmt.Errorf("update custody: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}

	// Key dates are replaced wholesale; the service owns merge semantics.
	if _, err := q.ExecContext(ctx, `DELETE FROM custody_key_dates WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("clear key dates: %w", err)
	}
	for code, date := range custody.KeyDates {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO custody_key_dates (event_id, type_code, date) VALUES ($1, $2, $3)`,
			eventID, code, date,
		); err != nil {
			return fmt.Errorf("insert key date %s: %w", code, err)
		}
	}
	return nil
}

func (s *PostgresEvents) queryEvents(ctx context.Context, query string, args ...any) ([]models.SentenceEvent, error) {
	q := s.querier(ctx)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sentence events: %w", err)
	}
	defer rows.Close()

	var events []models.SentenceEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range events {
		if err := s.loadKeyDates(ctx, q, &events[i]); err != nil {
			return nil, err
		}
	}
	return events, nil
}

func (s *PostgresEvents) loadKeyDates(ctx context.Context, q execQuerier, event *models.SentenceEvent) error {
	rows, err := q.QueryContext(ctx,
		`SELECT type_code, date FROM custody_key_dates WHERE event_id = $1`, event.ID)
	if err != nil {
		return fmt.Errorf("query key dates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var code string
		var date time.Time
		if err := rows.Scan(&code, &date); err != nil {
			return err
		}
		event.Custody.KeyDates[code] = date
	}
	return rows.Err()
}

func scanEvent(rows *sql.Rows) (*models.SentenceEvent, error) {
	var e models.SentenceEvent
	var bookingNumber sql.NullString
	var statusCode, statusDescription string
	var institutionID sql.NullInt64
	var instCode, instNomisCode, instDescription sql.NullString
	var statusChange, locationChange sql.NullTime

	err := rows.Scan(
		&e.ID, &e.OffenderID, &bookingNumber, &e.Active,
		&statusCode, &statusDescription,
		&institutionID, &instCode, &instNomisCode, &instDescription,
		&statusChange, &locationChange,
	)
	if err != nil {
		return nil, err
	}

	e.BookingNumber = bookingNumber.String
	e.Custody = &models.Custody{
		Status:   reference.CustodyStatus{Code: statusCode, Description: statusDescription},
		KeyDates: make(map[string]time.Time),
	}
	if institutionID.Valid {
		e.Custody.Institution = &reference.Institution{
			ID:          institutionID.Int64,
			Code:        instCode.String,
			NomisCode:   instNomisCode.String,
			Description: instDescription.String,
		}
	}
	if statusChange.Valid {
		e.Custody.StatusChangeDate = &statusChange.Time
	}
	if locationChange.Valid {
		e.Custody.LocationChangeDate = &locationChange.Time
	}
	return &e, nil
}

// PostgresHistory is the production custody history store.
type PostgresHistory struct {
	db *sql.DB
}

func NewPostgresHistory(db *sql.DB) *PostgresHistory {
	return &PostgresHistory{db: db}
}

func (s *PostgresHistory) querier(ctx context.Context) execQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresHistory) Append(ctx context.Context, entry *models.HistoryEntry) error {
	err := s.querier(ctx).QueryRowContext(ctx,
		`INSERT INTO custody_history (event_id, offender_id, type_code, detail, date)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		entry.EventID, entry.OffenderID, entry.Type.Code, entry.Detail, entry.Date,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("insert custody history: %w", err)
	}
	return nil
}

func (s *PostgresHistory) ByOffenderID(ctx context.Context, offenderID int64) ([]models.HistoryEntry, error) {
	rows, err := s.querier(ctx).QueryContext(ctx,
		`SELECT h.id, h.event_id, h.offender_id, h.type_code, t.description, h.detail, h.date
		 FROM custody_history h
		 JOIN custody_event_types t ON t.code = h.type_code
		 WHERE h.offender_id = $1
		 ORDER BY h.id`, offenderID)
	if err != nil {
		return nil, fmt.Errorf("query custody history: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.EventID, &e.OffenderID, &e.Type.Code, &e.Type.Description, &e.Detail, &e.Date); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
