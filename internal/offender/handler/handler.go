// Package handler exposes offender identity reads over HTTP. Every read runs
// the access gate before anything about the offender is returned.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"casework/internal/access"
	"casework/internal/offender/models"
	"casework/internal/transport/http/shared"
	dErrors "casework/pkg/domain-errors"
	"casework/pkg/requestcontext"
)

// Service defines the offender lookups the handler fronts.
type Service interface {
	ByID(ctx context.Context, offenderID int64) (*models.Offender, error)
	ByCRN(ctx context.Context, crn string) (*models.Offender, error)
	MostLikelyByNomsNumber(ctx context.Context, nomsNumber string) (*models.Offender, error)
	Identifiers(ctx context.Context, offenderID int64) (*models.Identifiers, error)
}

// Handler handles offender endpoints.
type Handler struct {
	service Service
	gate    *access.Gate
	logger  *slog.Logger
}

func New(service Service, gate *access.Gate, logger *slog.Logger) *Handler {
	return &Handler{service: service, gate: gate, logger: logger}
}

// Register registers the offender routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/offenders/crn/{crn}", h.byCRN)
	r.Get("/offenders/nomsNumber/{nomsNumber}", h.byNomsNumber)
	r.Get("/offenders/offenderId/{offenderId}", h.byID)
	r.Get("/offenders/crn/{crn}/identifiers", h.identifiersByCRN)
	r.Get("/offenders/crn/{crn}/access", h.accessByCRN)
}

type offenderResponse struct {
	OffenderID int64  `json:"offenderId"`
	CRN        string `json:"crn"`
	NomsNumber string `json:"nomsNumber,omitempty"`
	PNCNumber  string `json:"pncNumber,omitempty"`
	Active     bool   `json:"activeSentence"`
}

type accessResponse struct {
	UserExcluded       bool   `json:"userExcluded"`
	ExclusionMessage   string `json:"exclusionMessage,omitempty"`
	UserRestricted     bool   `json:"userRestricted"`
	RestrictionMessage string `json:"restrictionMessage,omitempty"`
}

func (h *Handler) byCRN(w http.ResponseWriter, r *http.Request) {
	h.respondOffender(w, r, func(ctx context.Context) (*models.Offender, error) {
		return h.service.ByCRN(ctx, chi.URLParam(r, "crn"))
	})
}

func (h *Handler) byNomsNumber(w http.ResponseWriter, r *http.Request) {
	h.respondOffender(w, r, func(ctx context.Context) (*models.Offender, error) {
		return h.service.MostLikelyByNomsNumber(ctx, chi.URLParam(r, "nomsNumber"))
	})
}

func (h *Handler) byID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "offenderId"), 10, 64)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "offenderId must be numeric"))
		return
	}
	h.respondOffender(w, r, func(ctx context.Context) (*models.Offender, error) {
		return h.service.ByID(ctx, id)
	})
}

func (h *Handler) identifiersByCRN(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	offender, err := h.service.ByCRN(ctx, chi.URLParam(r, "crn"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.gate.Check(ctx, offender); err != nil {
		shared.WriteError(w, err)
		return
	}

	ids, err := h.service.Identifiers(ctx, offender.ID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, ids)
}

// accessByCRN reports the caller's own access limitation without enforcing
// it, so clients can explain a denial rather than just receive one.
func (h *Handler) accessByCRN(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	offender, err := h.service.ByCRN(ctx, chi.URLParam(r, "crn"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	username, _ := requestcontext.Username(ctx)
	limitation, err := h.gate.LimitationOf(ctx, username, offender)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, accessResponse{
		UserExcluded:       limitation.UserExcluded,
		ExclusionMessage:   limitation.ExclusionMessage,
		UserRestricted:     limitation.UserRestricted,
		RestrictionMessage: limitation.RestrictionMessage,
	})
}

func (h *Handler) respondOffender(w http.ResponseWriter, r *http.Request, find func(context.Context) (*models.Offender, error)) {
	ctx := r.Context()
	offender, err := find(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.gate.Check(ctx, offender); err != nil {
		h.logger.InfoContext(ctx, "offender read denied",
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, offenderResponse{
		OffenderID: offender.ID,
		CRN:        offender.CRN,
		NomsNumber: offender.NomsNumber,
		PNCNumber:  offender.PNCNumber,
		Active:     offender.ActiveSentence,
	})
}
