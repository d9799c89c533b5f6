//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"casework/internal/custody/models"
	"casework/internal/custody/store"
	"casework/internal/reference"
	"casework/pkg/testutil/containers"
)

func TestPostgresEventStore(t *testing.T) {
	ctx := context.Background()
	pc := containers.NewPostgresContainer(t)
	containers.ApplySchema(t, pc.DB)

	_, err := pc.DB.Exec(`INSERT INTO offenders (id, crn, noms_number, active_sentence)
		VALUES (11, 'X320741', 'G9542VP', TRUE)`)
	require.NoError(t, err)
	_, err = pc.DB.Exec(`INSERT INTO institutions (id, code, nomis_code, description)
		VALUES (1, 'MDIHMP', 'MDI', 'Moorland (HMP & YOI)')`)
	require.NoError(t, err)
	_, err = pc.DB.Exec(`INSERT INTO sentence_events (id, offender_id, booking_number, active, custody_status_code)
		VALUES (100, 11, 'V74111', TRUE, 'A')`)
	require.NoError(t, err)

	events := store.NewPostgresEvents(pc.DB)
	history := store.NewPostgresHistory(pc.DB)

	t.Run("loads active custodial events by offender", func(t *testing.T) {
		got, err := events.ActiveCustodialEventsByOffenderID(ctx, 11)
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "V74111", got[0].BookingNumber)
		require.Equal(t, "A", got[0].Custody.Status.Code)
		require.Equal(t, "Sentenced - in custody", got[0].Custody.Status.Description)
		require.Nil(t, got[0].Custody.Institution)
	})

	t.Run("booking number matching is case-insensitive", func(t *testing.T) {
		got, err := events.ActiveCustodialEventsByBookingNumber(ctx, "v74111")
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, int64(11), got[0].OffenderID)
	})

	t.Run("updates custody state and key dates", func(t *testing.T) {
		day := time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC)
		custody := &models.Custody{
			Status:             reference.StatusInCustody,
			Institution:        &reference.Institution{ID: 1},
			StatusChangeDate:   &day,
			LocationChangeDate: &day,
			KeyDates: map[string]time.Time{
				"CRD": time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
			},
		}
		require.NoError(t, events.UpdateCustody(ctx, 100, custody))

		got, err := events.ActiveCustodialEventsByOffenderID(ctx, 11)
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "D", got[0].Custody.Status.Code)
		require.Equal(t, "MDI", got[0].Custody.Institution.NomisCode)
		require.Equal(t, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), got[0].Custody.KeyDates["CRD"].UTC())
	})

	t.Run("replacing key dates clears omitted codes", func(t *testing.T) {
		custody := &models.Custody{
			Status:   reference.StatusInCustody,
			KeyDates: map[string]time.Time{"LED": time.Date(2031, 2, 2, 0, 0, 0, 0, time.UTC)},
		}
		require.NoError(t, events.UpdateCustody(ctx, 100, custody))

		got, err := events.ActiveCustodialEventsByOffenderID(ctx, 11)
		require.NoError(t, err)
		require.NotContains(t, got[0].Custody.KeyDates, "CRD")
		require.Contains(t, got[0].Custody.KeyDates, "LED")
	})

	t.Run("distinct booking numbers for the identifiers view", func(t *testing.T) {
		numbers, err := events.BookingNumbersByOffenderID(ctx, 11)
		require.NoError(t, err)
		require.Equal(t, []string{"V74111"}, numbers)
	})

	t.Run("history appends and reads back in order", func(t *testing.T) {
		day := time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC)
		first := &models.HistoryEntry{
			EventID: 100, OffenderID: 11,
			Type: reference.EventTypeLocationChange, Detail: "Moorland (HMP & YOI)", Date: day,
		}
		second := &models.HistoryEntry{
			EventID: 100, OffenderID: 11,
			Type: reference.EventTypeStatusChange, Detail: "DSS auto update in custody", Date: day,
		}
		require.NoError(t, history.Append(ctx, first))
		require.NoError(t, history.Append(ctx, second))
		require.Less(t, first.ID, second.ID)

		entries, err := history.ByOffenderID(ctx, 11)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		require.Equal(t, "Change of prison location", entries[0].Type.Description)
		require.Equal(t, "DSS auto update in custody", entries[1].Detail)
	})
}
