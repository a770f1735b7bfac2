// Package health serves the liveness endpoint.
package health

import (
	"context"
	"errors"
	"net/http"
	"time"

	"prismtrack/backend/internal/server/httpjson"
)

// Pinger checks a dependency; database/sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler answers /healthz with a DB ping.
type Handler struct {
	db Pinger
}

// New returns the health handler.
func New(db Pinger) *Handler {
	return &Handler{db: db}
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		httpjson.Error(w, http.StatusServiceUnavailable, errors.New("database unreachable"))
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "ok"})
}
