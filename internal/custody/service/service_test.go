package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"casework/internal/access"
	"casework/internal/custody/models"
	"casework/internal/custody/store"
	"casework/internal/notification"
	offmodels "casework/internal/offender/models"
	offservice "casework/internal/offender/service"
	offstore "casework/internal/offender/store"
	"casework/internal/reference"
	dErrors "casework/pkg/domain-errors"
	"casework/pkg/platform/telemetry"
	"casework/pkg/platform/tx"
	"casework/pkg/testutil"
)

type switchStub struct {
	custodyUpdate bool
}

func (s *switchStub) CustodyUpdateEnabled(context.Context) bool { return s.custodyUpdate }

type CustodyServiceSuite struct {
	suite.Suite
	offenders *offstore.InMemory
	directory *access.InMemoryDirectory
	events    *store.InMemoryEvents
	history   *store.InMemoryHistory
	reference *reference.InMemoryStore
	notifier  *notification.Recorder
	telemetry *telemetry.Recorder
	switches  *switchStub
	service   *Service
	ctx       context.Context
}

func TestCustodyServiceSuite(t *testing.T) {
	suite.Run(t, new(CustodyServiceSuite))
}

func (s *CustodyServiceSuite) SetupTest() {
	s.offenders = offstore.NewInMemory()
	s.directory = access.NewInMemoryDirectory()
	s.events = store.NewInMemoryEvents()
	s.history = store.NewInMemoryHistory()
	s.reference = reference.NewInMemoryStore()
	s.notifier = notification.NewRecorder()
	s.telemetry = telemetry.NewRecorder()
	s.switches = &switchStub{custodyUpdate: true}
	s.ctx = testutil.ContextAs("probation.officer")

	log := slog.Default()
	gate := access.NewGate(s.directory, []string{"ROLE_IGNORE_DELIUS_EXCLUSIONS"}, []string{"ROLE_IGNORE_DELIUS_INCLUSIONS"}, nil, log)
	resolver := offservice.New(s.offenders, s.events, log)
	s.service = New(resolver, s.events, s.history, s.reference, gate, s.switches, s.notifier, s.telemetry, nil, tx.NoopRunner{}, log)

	s.reference.SeedInstitutions(
		reference.Institution{ID: 1, Code: "MDIHMP", NomisCode: "MDI", Description: "Moorland (HMP & YOI)"},
		reference.Institution{ID: 2, Code: "WWIHMP", NomisCode: "WWI", Description: "Wandsworth (HMP)"},
	)
}

// seedCustody seeds one offender with a single active custodial event and
// returns the event id.
func (s *CustodyServiceSuite) seedCustody(status reference.CustodyStatus, keyDates map[string]time.Time) int64 {
	s.offenders.Seed(offmodels.Offender{
		ID: 11, CRN: "X320741", NomsNumber: "G9542VP", ActiveSentence: true,
	})
	if keyDates == nil {
		keyDates = map[string]time.Time{}
	}
	s.events.Seed(models.SentenceEvent{
		ID: 100, OffenderID: 11, BookingNumber: "V74111", Active: true,
		Custody: &models.Custody{Status: status, KeyDates: keyDates},
	})
	return 100
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *CustodyServiceSuite) TestTransferIntoCustody() {
	s.seedCustody(reference.StatusSentenced, nil)

	event, err := s.service.Transfer(s.ctx, "G9542VP", "V74111", "MDI")
	s.Require().NoError(err)

	s.Run("custody is admitted to the institution", func() {
		s.Equal("D", event.Custody.Status.Code)
		s.Require().NotNil(event.Custody.Institution)
		s.Equal("MDI", event.Custody.Institution.NomisCode)
		s.Require().NotNil(event.Custody.LocationChangeDate)
		s.Equal(day(2024, 3, 18), *event.Custody.LocationChangeDate)
		s.Require().NotNil(event.Custody.StatusChangeDate)
		s.Equal(day(2024, 3, 18), *event.Custody.StatusChangeDate)
	})

	s.Run("mutation is persisted", func() {
		stored, ok := s.events.Event(100)
		s.Require().True(ok)
		s.Equal("D", stored.Custody.Status.Code)
		s.Equal("MDI", stored.Custody.Institution.NomisCode)
	})

	s.Run("location and status changes are both recorded", func() {
		entries, err := s.history.ByOffenderID(s.ctx, 11)
		s.Require().NoError(err)
		s.Require().Len(entries, 2)
		s.Equal("CPL", entries[0].Type.Code)
		s.Equal("Moorland (HMP & YOI)", entries[0].Detail)
		s.Equal("TSC", entries[1].Type.Code)
		s.Equal("DSS auto update in custody", entries[1].Detail)
	})

	s.Run("status change notification precedes the final custody update", func() {
		s.Equal([]string{
			notification.EventCustodyStatusChanged,
			notification.EventCustodyUpdated,
		}, s.notifier.Names())
		attrs := s.notifier.Events()[1].Attributes
		s.Equal("G9542VP", attrs["nomsNumber"])
		s.Equal("V74111", attrs["bookingNumber"])
	})

	s.Run("success marker is tracked", func() {
		s.Contains(s.telemetry.Names(), "P2PTransferPrisonUpdated")
	})
}

func (s *CustodyServiceSuite) TestTransferWhileInCustody() {
	s.seedCustody(reference.StatusInCustody, nil)

	event, err := s.service.Transfer(s.ctx, "G9542VP", "V74111", "WWI")
	s.Require().NoError(err)

	s.Run("status is untouched", func() {
		s.Equal("D", event.Custody.Status.Code)
		s.Nil(event.Custody.StatusChangeDate)
	})

	s.Run("only the location change is recorded", func() {
		entries, err := s.history.ByOffenderID(s.ctx, 11)
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal("CPL", entries[0].Type.Code)
		s.Equal("Wandsworth (HMP)", entries[0].Detail)
	})

	s.Run("only the custody update notification is emitted", func() {
		s.Equal([]string{notification.EventCustodyUpdated}, s.notifier.Names())
	})
}

func (s *CustodyServiceSuite) TestTransferOnReleasedCustody() {
	s.seedCustody(reference.StatusReleased, nil)

	_, err := s.service.Transfer(s.ctx, "G9542VP", "V74111", "MDI")

	s.Run("update is refused as not found", func() {
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Contains(err.Error(), "V74111")
	})

	s.Run("record is unchanged", func() {
		stored, ok := s.events.Event(100)
		s.Require().True(ok)
		s.Equal("B", stored.Custody.Status.Code)
		s.Nil(stored.Custody.Institution)
	})

	s.Run("no history, no notification, one ignored marker", func() {
		entries, err := s.history.ByOffenderID(s.ctx, 11)
		s.Require().NoError(err)
		s.Empty(entries)
		s.Empty(s.notifier.Names())
		s.Equal([]string{"P2PTransferPrisonUpdateIgnored"}, s.telemetry.Names())
	})
}

func (s *CustodyServiceSuite) TestTransferWithFeatureDisabled() {
	s.seedCustody(reference.StatusSentenced, nil)
	s.switches.custodyUpdate = false

	event, err := s.service.Transfer(s.ctx, "G9542VP", "V74111", "MDI")

	s.Run("call succeeds without mutating", func() {
		s.Require().NoError(err)
		s.Equal("A", event.Custody.Status.Code)
		s.Nil(event.Custody.Institution)

		stored, ok := s.events.Event(100)
		s.Require().True(ok)
		s.Equal("A", stored.Custody.Status.Code)
		s.Nil(stored.Custody.Institution)
	})

	s.Run("nothing is recorded or dispatched", func() {
		entries, err := s.history.ByOffenderID(s.ctx, 11)
		s.Require().NoError(err)
		s.Empty(entries)
		s.Empty(s.notifier.Names())
	})

	s.Run("ignored marker is tracked", func() {
		s.Equal([]string{"P2PTransferPrisonUpdateIgnored"}, s.telemetry.Names())
	})
}

func (s *CustodyServiceSuite) TestTransferResolutionFailures() {
	s.Run("unknown noms number", func() {
		s.SetupTest()
		_, err := s.service.Transfer(s.ctx, "A9999ZZ", "V74111", "MDI")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal([]string{"P2PTransferOffenderNotFound"}, s.telemetry.Names())
	})

	s.Run("two active offenders behind one noms number", func() {
		s.SetupTest()
		s.offenders.Seed(
			offmodels.Offender{ID: 11, CRN: "X320741", NomsNumber: "G9542VP", ActiveSentence: true},
			offmodels.Offender{ID: 12, CRN: "X320742", NomsNumber: "G9542VP", ActiveSentence: true},
		)
		_, err := s.service.Transfer(s.ctx, "G9542VP", "V74111", "MDI")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Contains(err.Error(), "2 offenders")
		s.Equal([]string{"P2PTransferOffenderHasDuplicates"}, s.telemetry.Names())
	})

	s.Run("booking number not on the offender", func() {
		s.SetupTest()
		s.seedCustody(reference.StatusSentenced, nil)
		_, err := s.service.Transfer(s.ctx, "G9542VP", "V99999", "MDI")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal([]string{"P2PTransferBookingNumberNotFound"}, s.telemetry.Names())
	})

	s.Run("duplicate booking numbers", func() {
		s.SetupTest()
		s.seedCustody(reference.StatusSentenced, nil)
		s.events.Seed(models.SentenceEvent{
			ID: 101, OffenderID: 11, BookingNumber: "V74111", Active: true,
			Custody: &models.Custody{Status: reference.StatusSentenced, KeyDates: map[string]time.Time{}},
		})
		_, err := s.service.Transfer(s.ctx, "G9542VP", "V74111", "MDI")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal([]string{"P2PTransferBookingNumberHasDuplicates"}, s.telemetry.Names())
	})

	s.Run("unknown institution", func() {
		s.SetupTest()
		s.seedCustody(reference.StatusSentenced, nil)
		_, err := s.service.Transfer(s.ctx, "G9542VP", "V74111", "XXX")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Contains(err.Error(), "XXX")
		s.Equal([]string{"P2PTransferPrisonNotFound"}, s.telemetry.Names())

		stored, ok := s.events.Event(100)
		s.Require().True(ok)
		s.Equal("A", stored.Custody.Status.Code)
	})
}

func (s *CustodyServiceSuite) TestTransferGuardedByAccessGate() {
	s.seedCustody(reference.StatusSentenced, nil)
	s.offenders.Seed(offmodels.Offender{
		ID: 11, CRN: "X320741", NomsNumber: "G9542VP", ActiveSentence: true,
		CurrentExclusion: true, ExclusionMessage: "You are excluded from this case",
	})
	s.directory.Exclude("probation.officer", 11)

	_, err := s.service.Transfer(s.ctx, "G9542VP", "V74111", "MDI")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.Contains(err.Error(), "You are excluded from this case")
	s.Empty(s.notifier.Names())
}

func (s *CustodyServiceSuite) TestUpsertKeyDate() {
	s.seedCustody(reference.StatusInCustody, nil)

	s.Run("unknown type name is a validation error", func() {
		_, err := s.service.UpsertKeyDate(s.ctx, models.Lookup{CRN: "X320741"}, "XYZ", day(2030, 1, 1))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "XYZ")
	})

	s.Run("sets a sentence date by crn", func() {
		kd, err := s.service.UpsertKeyDate(s.ctx, models.Lookup{CRN: "X320741"}, "CRD", day(2030, 1, 1))
		s.Require().NoError(err)
		s.Equal("Conditional Release Date", kd.Description)

		stored, _ := s.events.Event(100)
		s.Equal(day(2030, 1, 1), stored.Custody.KeyDates["CRD"])
	})

	s.Run("sets a handover date by booking number", func() {
		_, err := s.service.UpsertKeyDate(s.ctx, models.Lookup{BookingNumber: "V74111"}, "POM1", day(2024, 6, 1))
		s.Require().NoError(err)

		stored, _ := s.events.Event(100)
		s.Equal(day(2024, 6, 1), stored.Custody.KeyDates["POM1"])
	})

	s.Run("resolves by internal id and by noms number", func() {
		_, err := s.service.UpsertKeyDate(s.ctx, models.Lookup{OffenderID: 11}, "LED", day(2031, 2, 2))
		s.Require().NoError(err)
		_, err = s.service.UpsertKeyDate(s.ctx, models.Lookup{NomsNumber: "G9542VP"}, "SED", day(2032, 3, 3))
		s.Require().NoError(err)
	})
}

func (s *CustodyServiceSuite) TestDeleteKeyDate() {
	s.seedCustody(reference.StatusInCustody, map[string]time.Time{"CRD": day(2030, 1, 1)})

	s.Run("removes a set date", func() {
		err := s.service.DeleteKeyDate(s.ctx, models.Lookup{CRN: "X320741"}, "CRD")
		s.Require().NoError(err)
		stored, _ := s.events.Event(100)
		s.NotContains(stored.Custody.KeyDates, "CRD")
	})

	s.Run("deleting an unset date succeeds", func() {
		s.NoError(s.service.DeleteKeyDate(s.ctx, models.Lookup{CRN: "X320741"}, "PED"))
	})

	s.Run("unknown type name is a validation error", func() {
		err := s.service.DeleteKeyDate(s.ctx, models.Lookup{CRN: "X320741"}, "NOPE")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *CustodyServiceSuite) TestKeyDateReads() {
	s.seedCustody(reference.StatusInCustody, map[string]time.Time{
		"LED":  day(2031, 2, 2),
		"CRD":  day(2030, 1, 1),
		"POM1": day(2024, 6, 1),
	})

	s.Run("single read", func() {
		kd, err := s.service.KeyDate(s.ctx, models.Lookup{CRN: "X320741"}, "CRD")
		s.Require().NoError(err)
		s.Equal(day(2030, 1, 1), kd.Date)
	})

	s.Run("unset date is not found", func() {
		_, err := s.service.KeyDate(s.ctx, models.Lookup{CRN: "X320741"}, "SED")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("list follows catalogue order with handover last", func() {
		dates, err := s.service.KeyDates(s.ctx, models.Lookup{CRN: "X320741"})
		s.Require().NoError(err)
		codes := make([]string, len(dates))
		for i, d := range dates {
			codes[i] = d.TypeCode
		}
		s.Equal([]string{"CRD", "LED", "POM1"}, codes)
	})
}

func (s *CustodyServiceSuite) TestEventCountMismatch() {
	s.offenders.Seed(offmodels.Offender{ID: 11, CRN: "X320741", ActiveSentence: true})

	s.Run("no custodial event names the zero count", func() {
		_, err := s.service.KeyDates(s.ctx, models.Lookup{CRN: "X320741"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Contains(err.Error(), "found 0")
	})

	s.Run("two custodial events name the count", func() {
		s.events.Seed(
			models.SentenceEvent{ID: 100, OffenderID: 11, BookingNumber: "V74111", Active: true,
				Custody: &models.Custody{Status: reference.StatusInCustody, KeyDates: map[string]time.Time{}}},
			models.SentenceEvent{ID: 101, OffenderID: 11, BookingNumber: "V74112", Active: true,
				Custody: &models.Custody{Status: reference.StatusInCustody, KeyDates: map[string]time.Time{}}},
		)
		_, err := s.service.KeyDates(s.ctx, models.Lookup{CRN: "X320741"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Contains(err.Error(), "found 2")
	})
}

func (s *CustodyServiceSuite) TestDuplicateNomsNumberResolution() {
	s.Run("one active and one inactive record resolves to the active one", func() {
		s.SetupTest()
		s.offenders.Seed(
			offmodels.Offender{ID: 11, CRN: "X320741", NomsNumber: "G9542VP", ActiveSentence: true},
			offmodels.Offender{ID: 12, CRN: "X320742", NomsNumber: "G9542VP", ActiveSentence: false},
		)
		s.events.Seed(models.SentenceEvent{
			ID: 100, OffenderID: 11, BookingNumber: "V74111", Active: true,
			Custody: &models.Custody{Status: reference.StatusInCustody, KeyDates: map[string]time.Time{}},
		})

		_, err := s.service.UpsertKeyDate(s.ctx, models.Lookup{NomsNumber: "G9542VP"}, "CRD", day(2030, 1, 1))
		s.Require().NoError(err)
		stored, _ := s.events.Event(100)
		s.Equal(day(2030, 1, 1), stored.Custody.KeyDates["CRD"])
	})

	s.Run("two active records is a conflict", func() {
		s.SetupTest()
		s.offenders.Seed(
			offmodels.Offender{ID: 11, CRN: "X320741", NomsNumber: "G9542VP", ActiveSentence: true},
			offmodels.Offender{ID: 12, CRN: "X320742", NomsNumber: "G9542VP", ActiveSentence: true},
		)

		_, err := s.service.UpsertKeyDate(s.ctx, models.Lookup{NomsNumber: "G9542VP"}, "CRD", day(2030, 1, 1))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *CustodyServiceSuite) TestReplaceKeyDates() {
	s.seedCustody(reference.StatusInCustody, map[string]time.Time{
		"CRD":  day(2030, 1, 1),
		"LED":  day(2031, 2, 2),
		"POM1": day(2024, 6, 1),
	})

	crd := day(2033, 5, 5)
	custody, err := s.service.ReplaceKeyDates(s.ctx, models.Lookup{NomsNumber: "G9542VP"}, models.SentenceDates{
		ConditionalReleaseDate: &crd,
	})
	s.Require().NoError(err)

	s.Run("supplied dates replace, omitted dates clear, handover survives", func() {
		s.Equal(day(2033, 5, 5), custody.KeyDates["CRD"])
		s.NotContains(custody.KeyDates, "LED")
		s.Equal(day(2024, 6, 1), custody.KeyDates["POM1"])

		stored, _ := s.events.Event(100)
		s.Equal(day(2033, 5, 5), stored.Custody.KeyDates["CRD"])
		s.NotContains(stored.Custody.KeyDates, "LED")
		s.Equal(day(2024, 6, 1), stored.Custody.KeyDates["POM1"])
	})

	s.Run("one consolidated history entry lists each change", func() {
		entries, err := s.history.ByOffenderID(s.ctx, 11)
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal("EDSS", entries[0].Type.Code)
		s.Equal("Conditional Release Date: 05/05/2033\nRemoved Licence Expiry Date: 02/02/2031", entries[0].Detail)
	})

	s.Run("key dates notification follows the history write", func() {
		s.Equal([]string{notification.EventCustodyKeyDatesUpdated}, s.notifier.Names())
	})
}

func (s *CustodyServiceSuite) TestReplaceKeyDatesWithNoChanges() {
	s.seedCustody(reference.StatusInCustody, map[string]time.Time{"POM1": day(2024, 6, 1)})

	_, err := s.service.ReplaceKeyDates(s.ctx, models.Lookup{CRN: "X320741"}, models.SentenceDates{})
	s.Require().NoError(err)

	entries, err := s.history.ByOffenderID(s.ctx, 11)
	s.Require().NoError(err)
	s.Empty(entries)
	s.Empty(s.notifier.Names())
}
