// Package handler exposes court reference data over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"casework/internal/court/models"
	courtservice "casework/internal/court/service"
	"casework/internal/transport/http/shared"
	dErrors "casework/pkg/domain-errors"
)

// Service defines the court operations the handler fronts.
type Service interface {
	ByCode(ctx context.Context, code string) (*models.Court, error)
	List(ctx context.Context) ([]models.Court, error)
	Create(ctx context.Context, input courtservice.CreateInput) (*models.Court, error)
	Update(ctx context.Context, code string, input courtservice.UpdateInput) (*models.Court, error)
}

// Handler handles court endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterReads registers the court read routes.
func (h *Handler) RegisterReads(r chi.Router) {
	r.Get("/courts", h.handleList)
	r.Get("/courts/code/{code}", h.handleGet)
}

// RegisterWrites registers the court maintenance routes. The router places
// these behind the maintain-reference-data authority.
func (h *Handler) RegisterWrites(r chi.Router) {
	r.Post("/courts", h.handleCreate)
	r.Put("/courts/code/{code}", h.handleUpdate)
}

type courtBody struct {
	Code       string `json:"code,omitempty"`
	Name       string `json:"name"`
	Selectable bool   `json:"selectable"`
	TypeCode   string `json:"courtTypeCode"`
}

type courtResponse struct {
	ID              int64  `json:"courtId"`
	Code            string `json:"code"`
	Name            string `json:"name"`
	Selectable      bool   `json:"selectable"`
	TypeCode        string `json:"courtTypeCode"`
	TypeDescription string `json:"courtTypeDescription"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	court, err := h.service.ByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, courtView(court))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	courts, err := h.service.List(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	views := make([]courtResponse, len(courts))
	for i := range courts {
		views[i] = courtView(&courts[i])
	}
	shared.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body courtBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	court, err := h.service.Create(r.Context(), courtservice.CreateInput{
		Code:       body.Code,
		Name:       body.Name,
		Selectable: body.Selectable,
		TypeCode:   body.TypeCode,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, courtView(court))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var body courtBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	court, err := h.service.Update(r.Context(), chi.URLParam(r, "code"), courtservice.UpdateInput{
		Name:       body.Name,
		Selectable: body.Selectable,
		TypeCode:   body.TypeCode,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, courtView(court))
}

func courtView(c *models.Court) courtResponse {
	return courtResponse{
		ID:              c.ID,
		Code:            c.Code,
		Name:            c.Name,
		Selectable:      c.Selectable,
		TypeCode:        c.Type.Code,
		TypeDescription: c.Type.Description,
	}
}
