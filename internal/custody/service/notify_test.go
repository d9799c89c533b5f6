package service

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"casework/internal/access"
	"casework/internal/custody/models"
	"casework/internal/custody/store"
	"casework/internal/notification"
	"casework/internal/notification/mocks"
	offmodels "casework/internal/offender/models"
	offservice "casework/internal/offender/service"
	offstore "casework/internal/offender/store"
	"casework/internal/reference"
	"casework/pkg/platform/tx"
	"casework/pkg/testutil"
)

// A broker outage must not fail a transfer that is already committed:
// delivery is logged and dropped, the mutation stands.
func TestTransferSurvivesNotifierFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	notifier.EXPECT().
		Notify(gomock.Any(), notification.EventCustodyStatusChanged, gomock.Any()).
		Return(errors.New("broker unavailable"))
	notifier.EXPECT().
		Notify(gomock.Any(), notification.EventCustodyUpdated, gomock.Any()).
		Return(errors.New("broker unavailable"))

	offenders := offstore.NewInMemory()
	offenders.Seed(offmodels.Offender{ID: 11, CRN: "X320741", NomsNumber: "G9542VP", ActiveSentence: true})

	events := store.NewInMemoryEvents()
	events.Seed(models.SentenceEvent{
		ID: 100, OffenderID: 11, BookingNumber: "V74111", Active: true,
		Custody: &models.Custody{Status: reference.StatusSentenced, KeyDates: map[string]time.Time{}},
	})

	refStore := reference.NewInMemoryStore()
	refStore.SeedInstitutions(reference.Institution{ID: 1, Code: "MDIHMP", NomisCode: "MDI", Description: "Moorland (HMP & YOI)"})

	log := slog.Default()
	gate := access.NewGate(access.NewInMemoryDirectory(), nil, nil, nil, log)
	svc := New(offservice.New(offenders, events, log), events, store.NewInMemoryHistory(),
		refStore, gate, &switchStub{custodyUpdate: true}, notifier, nil, nil, tx.NoopRunner{}, log)

	event, err := svc.Transfer(testutil.ContextAs("probation.officer"), "G9542VP", "V74111", "MDI")
	require.NoError(t, err)
	require.Equal(t, "D", event.Custody.Status.Code)

	stored, ok := events.Event(100)
	require.True(t, ok)
	require.Equal(t, "MDI", stored.Custody.Institution.NomisCode)
}
