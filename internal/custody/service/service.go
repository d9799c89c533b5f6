// Package service implements the custody lifecycle engine: institution
// transfers, single key date maintenance, and the sentence key date bulk
// replace. Every mutation appends history before its notification is
// dispatched, and all writes of one transition share a transaction boundary.
package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"casework/internal/access"
	custodymetrics "casework/internal/custody/metrics"
	"casework/internal/custody/models"
	"casework/internal/custody/store"
	"casework/internal/notification"
	offmodels "casework/internal/offender/models"
	"casework/internal/reference"
	dErrors "casework/pkg/domain-errors"
	"casework/pkg/platform/telemetry"
	"casework/pkg/platform/tx"
	"casework/pkg/requestcontext"
)

// Telemetry markers for the prison-to-probation transfer feed. Operators
// trace feed problems by these names, so they are stable.
const (
	markerPrisonUpdated          = "P2PTransferPrisonUpdated"
	markerPrisonNotFound         = "P2PTransferPrisonNotFound"
	markerUpdateIgnored          = "P2PTransferPrisonUpdateIgnored"
	markerBookingNotFound        = "P2PTransferBookingNumberNotFound"
	markerBookingHasDuplicates   = "P2PTransferBookingNumberHasDuplicates"
	markerOffenderNotFound       = "P2PTransferOffenderNotFound"
	markerOffenderHasDuplicates  = "P2PTransferOffenderHasDuplicates"
	statusChangeAutoUpdateDetail = "DSS auto update in custody"
)

const historyDateLayout = "02/01/2006"

// OffenderResolver resolves offender identity records. Satisfied by the
// offender service.
type OffenderResolver interface {
	ByID(ctx context.Context, offenderID int64) (*offmodels.Offender, error)
	ByCRN(ctx context.Context, crn string) (*offmodels.Offender, error)
	MostLikelyByNomsNumber(ctx context.Context, nomsNumber string) (*offmodels.Offender, error)
}

// FeatureSwitches gates custody mutations administratively.
type FeatureSwitches interface {
	CustodyUpdateEnabled(ctx context.Context) bool
}

// Service drives custody state transitions.
type Service struct {
	offenders OffenderResolver
	events    store.EventStore
	history   store.HistoryStore
	reference reference.Store
	gate      *access.Gate
	features  FeatureSwitches
	notifier  notification.Notifier
	telemetry telemetry.Client
	metrics   *custodymetrics.Metrics
	runner    tx.Runner
	tracer    trace.Tracer
	log       *slog.Logger
}

func New(
	offenders OffenderResolver,
	events store.EventStore,
	history store.HistoryStore,
	ref reference.Store,
	gate *access.Gate,
	features FeatureSwitches,
	notifier notification.Notifier,
	tel telemetry.Client,
	m *custodymetrics.Metrics,
	runner tx.Runner,
	log *slog.Logger,
) *Service {
	return &Service{
		offenders: offenders,
		events:    events,
		history:   history,
		reference: ref,
		gate:      gate,
		features:  features,
		notifier:  notifier,
		telemetry: tel,
		metrics:   m,
		runner:    runner,
		tracer:    otel.Tracer("casework/custody"),
		log:       log,
	}
}

// Transfer moves the offender's active custody to another institution,
// identified by its NOMIS code. Driven by the prison feed, so every failure
// mode emits a telemetry marker before the error is returned. When the
// custody update capability is disabled the transfer resolves and validates
// but mutates nothing.
func (s *Service) Transfer(ctx context.Context, nomsNumber, bookingNumber, institutionNomisCode string) (*models.SentenceEvent, error) {
	ctx, span := s.tracer.Start(ctx, "custody.Transfer", trace.WithAttributes(
		attribute.String("noms_number", nomsNumber),
		attribute.String("booking_number", bookingNumber),
		attribute.String("institution", institutionNomisCode),
	))
	defer span.End()

	props := map[string]string{
		"nomsNumber":    nomsNumber,
		"bookingNumber": bookingNumber,
		"institution":   institutionNomisCode,
	}

	offender, err := s.offenders.MostLikelyByNomsNumber(ctx, nomsNumber)
	if err != nil {
		switch {
		case dErrors.HasCode(err, dErrors.CodeNotFound):
			s.track(ctx, markerOffenderNotFound, props)
		case dErrors.HasCode(err, dErrors.CodeConflict):
			s.track(ctx, markerOffenderHasDuplicates, props)
		}
		return nil, err
	}
	if err := s.gate.Check(ctx, offender); err != nil {
		return nil, err
	}

	event, err := s.activeEventByBookingNumber(ctx, offender.ID, bookingNumber, props)
	if err != nil {
		return nil, err
	}

	custody := event.Custody
	if !custody.Status.IsAboutToEnterCustody() && !custody.Status.IsInCustody() {
		s.track(ctx, markerUpdateIgnored, props)
		s.incTransfer("rejected")
		return nil, dErrors.New(dErrors.CodeNotFound,
			"custody for booking number %s has status %q and cannot be transferred", bookingNumber, custody.Status.Description)
	}

	institution, err := s.reference.InstitutionByNomisCode(ctx, institutionNomisCode)
	if err != nil {
		s.track(ctx, markerPrisonNotFound, props)
		return nil, dErrors.New(dErrors.CodeNotFound, "institution with NOMIS code %s not found", institutionNomisCode)
	}

	if !s.features.CustodyUpdateEnabled(ctx) {
		s.log.WarnContext(ctx, "custody update is disabled, transfer ignored",
			"noms_number", nomsNumber,
			"booking_number", bookingNumber,
		)
		s.track(ctx, markerUpdateIgnored, props)
		s.incTransfer("ignored")
		return event, nil
	}

	today := requestcontext.Today(ctx)
	wasAboutToEnter := custody.Status.IsAboutToEnterCustody()

	custody.Institution = institution
	custody.LocationChangeDate = &today
	if wasAboutToEnter {
		status, err := s.reference.CustodyStatusByCode(ctx, reference.StatusInCustody.Code)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "looking up in-custody status")
		}
		custody.Status = *status
		custody.StatusChangeDate = &today
	}

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.events.UpdateCustody(ctx, event.ID, custody); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "updating custody")
		}
		if err := s.appendHistory(ctx, event, reference.EventTypeLocationChange, institution.Description, today); err != nil {
			return err
		}
		if wasAboutToEnter {
			if err := s.appendHistory(ctx, event, reference.EventTypeStatusChange, statusChangeAutoUpdateDetail, today); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// History is committed; notifications follow. The custody-updated event
	// is always the final side effect.
	attrs := s.notificationAttributes(offender, event)
	if wasAboutToEnter {
		s.notify(ctx, notification.EventCustodyStatusChanged, attrs)
	}
	s.notify(ctx, notification.EventCustodyUpdated, attrs)

	s.track(ctx, markerPrisonUpdated, props)
	s.incTransfer("applied")
	return event, nil
}

// UpsertKeyDate sets one named key date on the single active custodial event
// resolved from the lookup. Handover dates are maintained exclusively through
// this path.
func (s *Service) UpsertKeyDate(ctx context.Context, lookup models.Lookup, typeCode string, date time.Time) (*models.KeyDate, error) {
	ctx, span := s.tracer.Start(ctx, "custody.UpsertKeyDate", trace.WithAttributes(
		attribute.String("type", typeCode),
	))
	defer span.End()

	keyDateType, ok := reference.KeyDateTypeByCode(typeCode)
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown custody key date type %s", typeCode)
	}

	_, event, err := s.resolveSingleEvent(ctx, lookup)
	if err != nil {
		return nil, err
	}

	day := truncateToDay(date)
	event.Custody.KeyDates[typeCode] = day
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.events.UpdateCustody(ctx, event.ID, event.Custody); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "updating custody key date")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.incKeyDateWrite("upsert")
	return &models.KeyDate{TypeCode: typeCode, Description: keyDateType.Description, Date: day}, nil
}

// DeleteKeyDate removes one named key date. Deleting a date that is not set
// succeeds; the end state is the same.
func (s *Service) DeleteKeyDate(ctx context.Context, lookup models.Lookup, typeCode string) error {
	ctx, span := s.tracer.Start(ctx, "custody.DeleteKeyDate", trace.WithAttributes(
		attribute.String("type", typeCode),
	))
	defer span.End()

	if _, ok := reference.KeyDateTypeByCode(typeCode); !ok {
		return dErrors.New(dErrors.CodeValidation, "unknown custody key date type %s", typeCode)
	}

	_, event, err := s.resolveSingleEvent(ctx, lookup)
	if err != nil {
		return err
	}

	if _, set := event.Custody.KeyDates[typeCode]; !set {
		return nil
	}
	delete(event.Custody.KeyDates, typeCode)
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.events.UpdateCustody(ctx, event.ID, event.Custody); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "deleting custody key date")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.incKeyDateWrite("delete")
	return nil
}

// KeyDate returns one named key date on the resolved custody record.
func (s *Service) KeyDate(ctx context.Context, lookup models.Lookup, typeCode string) (*models.KeyDate, error) {
	keyDateType, ok := reference.KeyDateTypeByCode(typeCode)
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown custody key date type %s", typeCode)
	}

	_, event, err := s.resolveSingleEvent(ctx, lookup)
	if err != nil {
		return nil, err
	}

	date, set := event.Custody.KeyDates[typeCode]
	if !set {
		return nil, dErrors.New(dErrors.CodeNotFound, "custody key date %s is not set", typeCode)
	}
	return &models.KeyDate{TypeCode: typeCode, Description: keyDateType.Description, Date: date}, nil
}

// KeyDates lists every set key date on the resolved custody record, in
// catalogue order with handover dates last.
func (s *Service) KeyDates(ctx context.Context, lookup models.Lookup) ([]models.KeyDate, error) {
	_, event, err := s.resolveSingleEvent(ctx, lookup)
	if err != nil {
		return nil, err
	}

	var dates []models.KeyDate
	for _, t := range append(append([]reference.KeyDateType{}, reference.SentenceKeyDateTypes...), reference.HandoverKeyDateTypes...) {
		if date, set := event.Custody.KeyDates[t.Code]; set {
			dates = append(dates, models.KeyDate{TypeCode: t.Code, Description: t.Description, Date: date})
		}
	}
	return dates, nil
}

// ReplaceKeyDates replaces the sentence-level key dates wholesale: supplied
// dates are set, omitted dates are cleared. Handover dates are left alone. A
// single consolidated history entry enumerates every change.
func (s *Service) ReplaceKeyDates(ctx context.Context, lookup models.Lookup, dates models.SentenceDates) (*models.Custody, error) {
	ctx, span := s.tracer.Start(ctx, "custody.ReplaceKeyDates")
	defer span.End()

	offender, event, err := s.resolveSingleEvent(ctx, lookup)
	if err != nil {
		return nil, err
	}

	custody := event.Custody
	var lines []string
	for _, t := range reference.SentenceKeyDateTypes {
		supplied := dates.ByCode(t.Code)
		previous, had := custody.KeyDates[t.Code]
		switch {
		case supplied != nil:
			day := truncateToDay(*supplied)
			custody.KeyDates[t.Code] = day
			lines = append(lines, t.Description+": "+day.Format(historyDateLayout))
		case had:
			delete(custody.KeyDates, t.Code)
			lines = append(lines, "Removed "+t.Description+": "+previous.Format(historyDateLayout))
		}
	}

	today := requestcontext.Today(ctx)
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.events.UpdateCustody(ctx, event.ID, custody); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "replacing custody key dates")
		}
		if len(lines) > 0 {
			if err := s.appendHistory(ctx, event, reference.EventTypeKeyDates, strings.Join(lines, "\n"), today); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(lines) > 0 {
		s.notify(ctx, notification.EventCustodyKeyDatesUpdated, s.notificationAttributes(offender, event))
	}
	s.incKeyDateWrite("replace")
	return custody, nil
}

// History returns the offender's custody history trail, oldest first.
func (s *Service) History(ctx context.Context, lookup models.Lookup) ([]models.HistoryEntry, error) {
	offender, _, err := s.resolveSingleEvent(ctx, lookup)
	if err != nil {
		return nil, err
	}
	entries, err := s.history.ByOffenderID(ctx, offender.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading custody history")
	}
	return entries, nil
}

// resolveSingleEvent resolves the lookup to an offender, runs the access
// gate, and narrows to the single active custodial event. Zero or multiple
// events is a not-found naming the count; duplicate active offenders behind a
// NOMS number is a conflict.
func (s *Service) resolveSingleEvent(ctx context.Context, lookup models.Lookup) (*offmodels.Offender, *models.SentenceEvent, error) {
	offender, err := s.resolveOffender(ctx, lookup)
	if err != nil {
		return nil, nil, err
	}
	if err := s.gate.Check(ctx, offender); err != nil {
		return nil, nil, err
	}

	events, err := s.events.ActiveCustodialEventsByOffenderID(ctx, offender.ID)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading custodial events")
	}
	if len(events) != 1 {
		return nil, nil, dErrors.New(dErrors.CodeNotFound,
			"expected a single active custodial event for offender %d but found %d", offender.ID, len(events))
	}
	return offender, &events[0], nil
}

func (s *Service) resolveOffender(ctx context.Context, lookup models.Lookup) (*offmodels.Offender, error) {
	switch {
	case lookup.CRN != "":
		return s.offenders.ByCRN(ctx, lookup.CRN)
	case lookup.NomsNumber != "":
		return s.offenders.MostLikelyByNomsNumber(ctx, lookup.NomsNumber)
	case lookup.OffenderID != 0:
		return s.offenders.ByID(ctx, lookup.OffenderID)
	case lookup.BookingNumber != "":
		return s.offenderByBookingNumber(ctx, lookup.BookingNumber)
	}
	return nil, dErrors.New(dErrors.CodeBadRequest, "no offender identifier supplied")
}

func (s *Service) offenderByBookingNumber(ctx context.Context, bookingNumber string) (*offmodels.Offender, error) {
	events, err := s.events.ActiveCustodialEventsByBookingNumber(ctx, bookingNumber)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "looking up events by booking number")
	}

	ids := make(map[int64]struct{}, len(events))
	for _, e := range events {
		ids[e.OffenderID] = struct{}{}
	}
	switch len(ids) {
	case 0:
		return nil, dErrors.New(dErrors.CodeNotFound, "no offender with booking number %s", bookingNumber)
	case 1:
		return s.offenders.ByID(ctx, events[0].OffenderID)
	}
	return nil, dErrors.New(dErrors.CodeConflict,
		"expected a single offender but found %d offenders with booking number %s", len(ids), bookingNumber)
}

// activeEventByBookingNumber narrows the offender's active custodial events
// to the one matching the booking number, emitting the transfer telemetry
// markers for the miss and duplicate cases.
func (s *Service) activeEventByBookingNumber(ctx context.Context, offenderID int64, bookingNumber string, props map[string]string) (*models.SentenceEvent, error) {
	events, err := s.events.ActiveCustodialEventsByOffenderID(ctx, offenderID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading custodial events")
	}

	var matched []models.SentenceEvent
	for _, e := range events {
		if strings.EqualFold(e.BookingNumber, bookingNumber) {
			matched = append(matched, e)
		}
	}
	switch len(matched) {
	case 0:
		s.track(ctx, markerBookingNotFound, props)
		return nil, dErrors.New(dErrors.CodeNotFound,
			"no active custodial event with booking number %s for offender %d", bookingNumber, offenderID)
	case 1:
		return &matched[0], nil
	}
	s.track(ctx, markerBookingHasDuplicates, props)
	return nil, dErrors.New(dErrors.CodeConflict,
		"expected a single custodial event but found %d events with booking number %s", len(matched), bookingNumber)
}

func (s *Service) appendHistory(ctx context.Context, event *models.SentenceEvent, eventType reference.CustodyEventType, detail string, date time.Time) error {
	entry := &models.HistoryEntry{
		EventID:    event.ID,
		OffenderID: event.OffenderID,
		Type:       eventType,
		Detail:     detail,
		Date:       date,
	}
	if err := s.history.Append(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "appending custody history")
	}
	return nil
}

func (s *Service) notificationAttributes(offender *offmodels.Offender, event *models.SentenceEvent) map[string]string {
	attrs := map[string]string{
		"offenderId":    formatID(offender.ID),
		"crn":           offender.CRN,
		"bookingNumber": event.BookingNumber,
	}
	if offender.NomsNumber != "" {
		attrs["nomsNumber"] = offender.NomsNumber
	}
	return attrs
}

func (s *Service) notify(ctx context.Context, eventName string, attrs map[string]string) {
	if err := s.notifier.Notify(ctx, eventName, attrs); err != nil {
		s.log.ErrorContext(ctx, "notification dispatch failed",
			"event", eventName,
			"error", err.Error(),
		)
	}
}

func (s *Service) track(ctx context.Context, name string, props map[string]string) {
	if s.telemetry != nil {
		s.telemetry.TrackEvent(ctx, name, props)
	}
}

func (s *Service) incTransfer(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementTransfer(outcome)
	}
}

func (s *Service) incKeyDateWrite(operation string) {
	if s.metrics != nil {
		s.metrics.IncrementKeyDateWrite(operation)
	}
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
