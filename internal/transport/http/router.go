// Package httptransport assembles the HTTP surface: middleware chain, domain
// handlers, and the health endpoint.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	courthandler "casework/internal/court/handler"
	custodyhandler "casework/internal/custody/handler"
	offenderhandler "casework/internal/offender/handler"
	"casework/internal/platform/middleware"
	"casework/internal/transport/http/shared"
)

// MaintainRefDataAuthority guards court create and update.
const MaintainRefDataAuthority = "ROLE_MAINTAIN_REF_DATA"

// Handlers collects the domain handlers the router mounts.
type Handlers struct {
	Offender *offenderhandler.Handler
	Custody  *custodyhandler.Handler
	Court    *courthandler.Handler
}

// NewRouter wires the middleware chain and mounts every domain handler.
// Everything except /health sits behind bearer token auth.
func NewRouter(h Handlers, validator middleware.TokenValidator, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, log))

		h.Offender.Register(r)
		h.Custody.Register(r)

		h.Court.RegisterReads(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuthority(MaintainRefDataAuthority))
			h.Court.RegisterWrites(r)
		})
	})

	return r
}
