// Package handler exposes the agent-facing endpoints: registration,
// heartbeat, telemetry ingestion, and the platform fleet views.
package handler

import (
	"errors"
	"net/http"
	"time"

	"prismtrack/backend/internal/agent/domain"
	"prismtrack/backend/internal/agent/repository"
	agentservice "prismtrack/backend/internal/agent/service"
	"prismtrack/backend/internal/server/httpjson"
	"prismtrack/backend/internal/server/middleware"
	telemetrydomain "prismtrack/backend/internal/telemetry/domain"
	telemetryservice "prismtrack/backend/internal/telemetry/service"
)

// Handler serves the /agent routes.
type Handler struct {
	agents    *agentservice.Service
	telemetry *telemetryservice.Service
	pageLimit int
	pageMax   int
}

// New returns the agent handler. pageLimit/pageMax bound listing pagination.
func New(agents *agentservice.Service, telemetry *telemetryservice.Service, pageLimit, pageMax int) *Handler {
	return &Handler{agents: agents, telemetry: telemetry, pageLimit: pageLimit, pageMax: pageMax}
}

// registerRequest is the agent's registration payload. OrgType is an advisory
// hint the agent always sends; the server re-derives the real kind from the
// hierarchy lookup and ignores the hint.
type registerRequest struct {
	OrgID        string `json:"org_id"`
	OrgType      string `json:"org_type"`
	MachineName  string `json:"machine_name"`
	HardwareUUID string `json:"hardware_uuid"`
}

type registerResponse struct {
	AgentID    int64  `json:"agent_id"`
	AgentToken string `json:"agent_token"`
	Message    string `json:"message"`
}

// Register handles POST /agent/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	if req.OrgID == "" || req.MachineName == "" || req.HardwareUUID == "" {
		httpjson.Error(w, http.StatusBadRequest, errors.New("org_id, machine_name and hardware_uuid are required"))
		return
	}
	res, err := h.agents.Register(r.Context(), agentservice.RegisterInput{
		OrgID:        req.OrgID,
		MachineName:  req.MachineName,
		HardwareUUID: req.HardwareUUID,
	})
	if err != nil {
		if errors.Is(err, agentservice.ErrOrgNotFound) {
			httpjson.Error(w, http.StatusNotFound, err)
			return
		}
		httpjson.Error(w, http.StatusInternalServerError, err)
		return
	}
	status := http.StatusOK
	msg := "agent updated"
	if res.Created {
		status = http.StatusCreated
		msg = "agent registered"
	}
	httpjson.Write(w, status, registerResponse{
		AgentID:    res.Agent.ID,
		AgentToken: res.Agent.AgentToken,
		Message:    msg,
	})
}

// heartbeatRequest carries the optional advisory status. Agents also echo
// their token in the body; the X-Agent-Token header is authoritative and the
// echo is accepted without further checks.
type heartbeatRequest struct {
	AgentToken string `json:"agent_token"`
	Status     string `json:"status"`
}

// Heartbeat handles POST /agent/heartbeat. The agent is authenticated by the
// AgentAuth middleware; the optional body status is advisory.
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	agent := middleware.AgentFrom(r.Context())
	var req heartbeatRequest
	if r.ContentLength != 0 {
		if err := httpjson.Decode(w, r, &req); err != nil {
			httpjson.Error(w, http.StatusBadRequest, err)
			return
		}
	}
	a, err := h.agents.Heartbeat(r.Context(), agentservice.HeartbeatInput{
		Token:  agent.AgentToken,
		Status: req.Status,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUnknownStatus) {
			httpjson.Error(w, http.StatusBadRequest, err)
			return
		}
		httpjson.Error(w, http.StatusInternalServerError, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": a.LastSeen,
	})
}

type telemetryRecord struct {
	WindowTitle   *string   `json:"window_title"`
	ProcessName   *string   `json:"process_name"`
	Timestamp     time.Time `json:"timestamp"`
	IsIdle        bool      `json:"is_idle"`
	ScreenshotURL *string   `json:"screenshot_url"`
}

type telemetryRequest struct {
	AgentToken string            `json:"agent_token"`
	Status     string            `json:"status"`
	Telemetry  []telemetryRecord `json:"telemetry"`
}

// Telemetry handles POST /agent/telemetry: an atomic batch submission that
// doubles as a liveness signal.
func (h *Handler) Telemetry(w http.ResponseWriter, r *http.Request) {
	agent := middleware.AgentFrom(r.Context())
	var req telemetryRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	records := make([]*telemetrydomain.Record, len(req.Telemetry))
	for i, rec := range req.Telemetry {
		records[i] = &telemetrydomain.Record{
			WindowTitle:   rec.WindowTitle,
			ProcessName:   rec.ProcessName,
			Timestamp:     rec.Timestamp,
			IsIdle:        rec.IsIdle,
			ScreenshotURL: rec.ScreenshotURL,
		}
	}
	n, err := h.telemetry.Submit(r.Context(), agent, telemetryservice.SubmitInput{
		BodyToken: req.AgentToken,
		Status:    req.Status,
		Records:   records,
	})
	if err != nil {
		switch {
		case errors.Is(err, telemetryservice.ErrTokenMismatch):
			httpjson.Error(w, http.StatusForbidden, err)
		case errors.Is(err, telemetryservice.ErrInvalidRecord), errors.Is(err, domain.ErrUnknownStatus):
			httpjson.Error(w, http.StatusBadRequest, err)
		default:
			httpjson.Error(w, http.StatusInternalServerError, err)
		}
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"records_count": n,
		"timestamp":     time.Now().UTC(),
	})
}

// AgentView is the read shape for fleet listings. Stale is derived from
// last_seen at response time.
type AgentView struct {
	ID           int64     `json:"id"`
	OrgID        string    `json:"org_id"`
	OrgKind      string    `json:"org_kind"`
	MachineName  string    `json:"machine_name"`
	HardwareUUID string    `json:"hardware_uuid"`
	Status       string    `json:"status"`
	Stale        bool      `json:"stale"`
	LastSeen     time.Time `json:"last_seen"`
	RegisteredAt time.Time `json:"registered_at"`
}

// ViewAgent renders an agent for API responses, deriving staleness against
// the given window. Shared with the tenant handler.
func ViewAgent(a *domain.Agent, now time.Time, staleAfter time.Duration) AgentView {
	return AgentView{
		ID:           a.ID,
		OrgID:        a.OrgID,
		OrgKind:      string(a.OrgKind),
		MachineName:  a.MachineName,
		HardwareUUID: a.HardwareUUID,
		Status:       string(a.Status),
		Stale:        a.Stale(now, staleAfter),
		LastSeen:     a.LastSeen,
		RegisteredAt: a.RegisteredAt,
	}
}

// List handles GET /agent/agents for platform admins.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := httpjson.Pagination(r, h.pageLimit, h.pageMax)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	agents, total, err := h.agents.List(r.Context(), repository.ListFilter{
		OrgID: r.URL.Query().Get("org_id"),
		Skip:  skip,
		Limit: limit,
	})
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, err)
		return
	}
	now := time.Now().UTC()
	views := make([]AgentView, len(agents))
	for i, a := range agents {
		views[i] = ViewAgent(a, now, h.agents.StaleAfter())
	}
	httpjson.Write(w, http.StatusOK, httpjson.Page{Items: views, Total: total, Skip: skip, Limit: limit})
}

// Get handles GET /agent/agents/{id} for platform admins.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpjson.PathID(r, "id")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	a, err := h.agents.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, agentservice.ErrNotFound) {
			httpjson.Error(w, http.StatusNotFound, err)
			return
		}
		httpjson.Error(w, http.StatusInternalServerError, err)
		return
	}
	httpjson.Write(w, http.StatusOK, ViewAgent(a, time.Now().UTC(), h.agents.StaleAfter()))
}
