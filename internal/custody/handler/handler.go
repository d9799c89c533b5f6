// Package handler exposes the custody lifecycle operations over HTTP. Routes
// accept any of the four offender identifiers; the path segment names which
// one is in use.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"casework/internal/custody/models"
	"casework/internal/transport/http/shared"
	dErrors "casework/pkg/domain-errors"
	"casework/pkg/requestcontext"
)

const dateLayout = "2006-01-02"

// Service defines the custody lifecycle operations the handler fronts.
type Service interface {
	Transfer(ctx context.Context, nomsNumber, bookingNumber, institutionNomisCode string) (*models.SentenceEvent, error)
	UpsertKeyDate(ctx context.Context, lookup models.Lookup, typeCode string, date time.Time) (*models.KeyDate, error)
	DeleteKeyDate(ctx context.Context, lookup models.Lookup, typeCode string) error
	KeyDate(ctx context.Context, lookup models.Lookup, typeCode string) (*models.KeyDate, error)
	KeyDates(ctx context.Context, lookup models.Lookup) ([]models.KeyDate, error)
	ReplaceKeyDates(ctx context.Context, lookup models.Lookup, dates models.SentenceDates) (*models.Custody, error)
	History(ctx context.Context, lookup models.Lookup) ([]models.HistoryEntry, error)
}

// Handler handles custody endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the custody routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Put("/offenders/nomsNumber/{nomsNumber}/bookingNumber/{bookingNumber}/custody", h.handleTransfer)
	r.Post("/offenders/nomsNumber/{nomsNumber}/bookingNumber/{bookingNumber}/custody/keyDates", h.handleReplaceKeyDates)

	for _, prefix := range []string{
		"/offenders/crn/{crn}",
		"/offenders/nomsNumber/{nomsNumber}",
		"/offenders/offenderId/{offenderId}",
		"/offenders/prisonBookingNumber/{prisonBookingNumber}",
	} {
		r.Get(prefix+"/custody/keyDates", h.handleListKeyDates)
		r.Get(prefix+"/custody/keyDates/{typeCode}", h.handleGetKeyDate)
		r.Put(prefix+"/custody/keyDates/{typeCode}", h.handleUpsertKeyDate)
		r.Delete(prefix+"/custody/keyDates/{typeCode}", h.handleDeleteKeyDate)
		r.Get(prefix+"/custody/history", h.handleHistory)
	}
}

type transferRequest struct {
	InstitutionCode string `json:"institutionCode"`
}

type custodyResponse struct {
	BookingNumber      string  `json:"bookingNumber"`
	Status             string  `json:"status"`
	StatusDescription  string  `json:"statusDescription"`
	Institution        string  `json:"institution,omitempty"`
	InstitutionCode    string  `json:"institutionCode,omitempty"`
	StatusChangeDate   *string `json:"statusChangeDate,omitempty"`
	LocationChangeDate *string `json:"locationChangeDate,omitempty"`
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nomsNumber := chi.URLParam(r, "nomsNumber")
	bookingNumber := chi.URLParam(r, "bookingNumber")

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InstitutionCode == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "institutionCode is required"))
		return
	}

	event, err := h.service.Transfer(ctx, nomsNumber, bookingNumber, req.InstitutionCode)
	if err != nil {
		h.logError(ctx, "institution transfer failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, custodyView(event))
}

type keyDateRequest struct {
	Date string `json:"date"`
}

type keyDateResponse struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

func (h *Handler) handleUpsertKeyDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lookup, err := h.lookup(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req keyDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "date must be formatted yyyy-MM-dd"))
		return
	}

	kd, err := h.service.UpsertKeyDate(ctx, lookup, chi.URLParam(r, "typeCode"), date)
	if err != nil {
		h.logError(ctx, "key date upsert failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, keyDateView(*kd))
}

func (h *Handler) handleDeleteKeyDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lookup, err := h.lookup(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.service.DeleteKeyDate(ctx, lookup, chi.URLParam(r, "typeCode")); err != nil {
		h.logError(ctx, "key date delete failed", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetKeyDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lookup, err := h.lookup(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	kd, err := h.service.KeyDate(ctx, lookup, chi.URLParam(r, "typeCode"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, keyDateView(*kd))
}

func (h *Handler) handleListKeyDates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lookup, err := h.lookup(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	dates, err := h.service.KeyDates(ctx, lookup)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	views := make([]keyDateResponse, len(dates))
	for i, d := range dates {
		views[i] = keyDateView(d)
	}
	shared.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) handleReplaceKeyDates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lookup := models.Lookup{NomsNumber: chi.URLParam(r, "nomsNumber")}
	bookingNumber := chi.URLParam(r, "bookingNumber")

	var dates models.SentenceDates
	if err := json.NewDecoder(r.Body).Decode(&dates); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	custody, err := h.service.ReplaceKeyDates(ctx, lookup, dates)
	if err != nil {
		h.logError(ctx, "key date replace failed", err)
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "sentence key dates replaced",
		"noms_number", lookup.NomsNumber,
		"booking_number", bookingNumber,
	)
	views := make([]keyDateResponse, 0, len(custody.KeyDates))
	for code, date := range custody.KeyDates {
		views = append(views, keyDateResponse{Type: code, Date: date.Format(dateLayout)})
	}
	shared.WriteJSON(w, http.StatusOK, views)
}

type historyEntryResponse struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Detail      string `json:"detail"`
	Date        string `json:"date"`
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lookup, err := h.lookup(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	entries, err := h.service.History(ctx, lookup)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	views := make([]historyEntryResponse, len(entries))
	for i, e := range entries {
		views[i] = historyEntryResponse{
			Type:        e.Type.Code,
			Description: e.Type.Description,
			Detail:      e.Detail,
			Date:        e.Date.Format(dateLayout),
		}
	}
	shared.WriteJSON(w, http.StatusOK, views)
}

// lookup builds the offender lookup from whichever identifier segment the
// matched route carries.
func (h *Handler) lookup(r *http.Request) (models.Lookup, error) {
	if crn := chi.URLParam(r, "crn"); crn != "" {
		return models.Lookup{CRN: crn}, nil
	}
	if noms := chi.URLParam(r, "nomsNumber"); noms != "" {
		return models.Lookup{NomsNumber: noms}, nil
	}
	if raw := chi.URLParam(r, "offenderId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return models.Lookup{}, dErrors.New(dErrors.CodeBadRequest, "offenderId must be numeric")
		}
		return models.Lookup{OffenderID: id}, nil
	}
	if bn := chi.URLParam(r, "prisonBookingNumber"); bn != "" {
		return models.Lookup{BookingNumber: bn}, nil
	}
	return models.Lookup{}, dErrors.New(dErrors.CodeBadRequest, "no offender identifier supplied")
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
}

func custodyView(event *models.SentenceEvent) custodyResponse {
	c := event.Custody
	view := custodyResponse{
		BookingNumber:     event.BookingNumber,
		Status:            c.Status.Code,
		StatusDescription: c.Status.Description,
	}
	if c.Institution != nil {
		view.Institution = c.Institution.Description
		view.InstitutionCode = c.Institution.NomisCode
	}
	if c.StatusChangeDate != nil {
		d := c.StatusChangeDate.Format(dateLayout)
		view.StatusChangeDate = &d
	}
	if c.LocationChangeDate != nil {
		d := c.LocationChangeDate.Format(dateLayout)
		view.LocationChangeDate = &d
	}
	return view
}

func keyDateView(d models.KeyDate) keyDateResponse {
	return keyDateResponse{
		Type:        d.TypeCode,
		Description: d.Description,
		Date:        d.Date.Format(dateLayout),
	}
}
