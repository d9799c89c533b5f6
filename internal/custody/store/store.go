// Package store persists sentence events, custody records, and the custody
// history trail.
package store

import (
	"context"

	"casework/internal/custody/models"
)

// EventStore reads and writes sentence events and their custody records.
// Implementations return sentinel.ErrNotFound when an event id is unknown.
type EventStore interface {
	// ActiveCustodialEventsByOffenderID returns the offender's active events
	// that carry a custody record, ordered by event id.
	ActiveCustodialEventsByOffenderID(ctx context.Context, offenderID int64) ([]models.SentenceEvent, error)

	// ActiveCustodialEventsByBookingNumber returns every active custodial
	// event matching the booking number, across offenders, ordered by event
	// id. Booking numbers are matched case-insensitively.
	ActiveCustodialEventsByBookingNumber(ctx context.Context, bookingNumber string) ([]models.SentenceEvent, error)

	// BookingNumbersByOffenderID returns the distinct booking numbers on the
	// offender's custodial events, for the identifiers view.
	BookingNumbersByOffenderID(ctx context.Context, offenderID int64) ([]string, error)

	// UpdateCustody replaces the custody record of the event.
	UpdateCustody(ctx context.Context, eventID int64, custody *models.Custody) error
}

// HistoryStore appends and reads custody history entries.
type HistoryStore interface {
	Append(ctx context.Context, entry *models.HistoryEntry) error
	ByOffenderID(ctx context.Context, offenderID int64) ([]models.HistoryEntry, error)
}
