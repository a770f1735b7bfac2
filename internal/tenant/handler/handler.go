// Package handler exposes the tenant self-service endpoints: org structure
// management and scope-gated fleet reads.
package handler

import (
	"errors"
	"net/http"
	"time"

	agenthandler "prismtrack/backend/internal/agent/handler"
	branchdomain "prismtrack/backend/internal/branch/domain"
	companydomain "prismtrack/backend/internal/company/domain"
	"prismtrack/backend/internal/server/httpjson"
	"prismtrack/backend/internal/server/middleware"
	telemetrydomain "prismtrack/backend/internal/telemetry/domain"
	"prismtrack/backend/internal/tenant/domain"
	tenantservice "prismtrack/backend/internal/tenant/service"
)

// Handler serves the /tenant routes. Every route runs behind JWTAuth with
// the tenant principal kind.
type Handler struct {
	tenants   *tenantservice.Service
	pageLimit int
	pageMax   int
}

// New returns the tenant handler.
func New(tenants *tenantservice.Service, pageLimit, pageMax int) *Handler {
	return &Handler{tenants: tenants, pageLimit: pageLimit, pageMax: pageMax}
}

// current resolves the request principal to its tenant row, writing the
// error response itself when that fails.
func (h *Handler) current(w http.ResponseWriter, r *http.Request) *domain.Tenant {
	p := middleware.PrincipalFrom(r.Context())
	t, err := h.tenants.CurrentTenant(r.Context(), p.ID)
	if err != nil {
		if errors.Is(err, tenantservice.ErrTenantInactive) || errors.Is(err, tenantservice.ErrNotFound) {
			httpjson.Error(w, http.StatusUnauthorized, errors.New("tenant is not active"))
		} else {
			httpjson.Error(w, http.StatusInternalServerError, err)
		}
		return nil
	}
	return t
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tenantservice.ErrNotFound):
		httpjson.Error(w, http.StatusNotFound, err)
	case errors.Is(err, tenantservice.ErrForbidden):
		httpjson.Error(w, http.StatusForbidden, err)
	default:
		httpjson.Error(w, http.StatusInternalServerError, err)
	}
}

type orgIDView struct {
	OrgID string `json:"org_id"`
	Kind  string `json:"kind"`
	Name  string `json:"name"`
}

// OrgIDs handles GET /tenant/org-ids.
func (h *Handler) OrgIDs(w http.ResponseWriter, r *http.Request) {
	t := h.current(w, r)
	if t == nil {
		return
	}
	entries, err := h.tenants.OrgIDs(r.Context(), t)
	if err != nil {
		h.fail(w, err)
		return
	}
	views := make([]orgIDView, len(entries))
	for i, e := range entries {
		views[i] = orgIDView{OrgID: e.OrgID, Kind: string(e.Kind), Name: e.Name}
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"org_ids": views})
}

type companyView struct {
	ID        int64     `json:"id"`
	OrgID     string    `json:"org_id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func viewCompany(c *companydomain.Company) companyView {
	return companyView{ID: c.ID, OrgID: c.OrgID, Name: c.Name, IsActive: c.IsActive, CreatedAt: c.CreatedAt}
}

type companyCreateRequest struct {
	Name string `json:"name"`
}

// CreateCompany handles POST /tenant/companies.
func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	t := h.current(w, r)
	if t == nil {
		return
	}
	var req companyCreateRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" {
		httpjson.Error(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}
	c, err := h.tenants.CreateCompany(r.Context(), t, req.Name)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, viewCompany(c))
}

// ListCompanies handles GET /tenant/companies.
func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	t := h.current(w, r)
	if t == nil {
		return
	}
	skip, limit, err := httpjson.Pagination(r, h.pageLimit, h.pageMax)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	companies, total, err := h.tenants.ListCompanies(r.Context(), t, skip, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	views := make([]companyView, len(companies))
	for i, c := range companies {
		views[i] = viewCompany(c)
	}
	httpjson.Write(w, http.StatusOK, httpjson.Page{Items: views, Total: total, Skip: skip, Limit: limit})
}

// GetCompany handles GET /tenant/companies/{id}.
func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	t := h.current(w, r)
	if t == nil {
		return
	}
	id, err := httpjson.PathID(r, "id")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	c, err := h.tenants.GetCompany(r.Context(), t, id)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, viewCompany(c))
}

type companyUpdateRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

// UpdateCompany handles PUT /tenant/companies/{id}.
func (h *Handler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	t := h.current(w, r)
	if t == nil {
		return
	}
	id, err := httpjson.PathID(r, "id")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	var req companyUpdateRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	c, err := h.tenants.UpdateCompany(r.Context(), t, id, tenantservice.CompanyUpdate{Name: req.Name, IsActive: req.IsActive})
	if err != nil {
		h.fail(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, viewCompany(c))
}

// DeleteCompany handles DELETE /tenant/companies/{id} as a soft deactivate.
func (h *Handler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	t := h.current(w, r)
	if t == nil {
		return
	}
	id, err := httpjson.PathID(r, "id")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	if err := h.tenants.DeactivateCompany(r.Context(), t, id); err != nil {
		h.fail(w, err)
		return
	}
	httpjson.Write(w, http.StatusNoContent, nil)
}

type branchView struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	OrgID     string    `json:"org_id"`
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func viewBranch(b *branchdomain.Branch) branchView {
	return branchView{
		ID: b.ID, CompanyID: b.CompanyID, OrgID: b.OrgID,
		Name: b.Name, Location: b.Location, IsActive: b.IsActive, CreatedAt: b.CreatedAt,
	}
}

type branchCreateRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// CreateBranch handles POST /tenant/companies/{id}/branches.
func (h *Handler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	t := h.current(w, r)
	if t == nil {
		return
	}
	companyID, err := httpjson.PathID(r, "id")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	var req branchCreateRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" {
		httpjson.Error(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}
	b, err := h.tenants.CreateBranch(r.Context(), t, companyID, req.Name, req.Location)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, viewBranch(b))
}

// ListBranches handles GET /tenant/companies/{id}/branches.
func (h *Handler) ListBranches(w http.ResponseWriter, r *http.Request) {
	t := h.current(w, r)
	if t == nil {
		return
	}
	companyID, err := httpjson.PathID(r, "id")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	skip, limit, err := httpjson.Pagination(r, h.pageLimit, h.pageMax)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	branches, total, err := h.tenants.ListBranches(r.Context(), t, companyID, skip, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	views := make([]branchView, len(branches))
	for i, b := range branches {
		views[i] = viewBranch(b)
	}
	httpjson.Write(w, http.StatusOK, httpjson.Page{Items: views, Total: total, Skip: skip, Limit: limit})
}

// GetBranch handles GET /tenant/branches/{id}.
func (h *Handler) GetBranch(w http.ResponseWriter, r *http.Request) {
	t := h.current(w, r)
	if t == nil {
		return
	}
	id, err := httpjson.PathID(r, "id")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	b, err := h.tenants.GetBranch(r.Context(), t, id)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, viewBranch(b))
}

type branchUpdateRequest struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
	IsActive *bool   `json:"is_active"`
}

// UpdateBranch handles PUT /tenant/branches/{id}.
func (h *Handler) UpdateBranch(w http.ResponseWriter, r *http.Request) {
	t := h.current(w, r)
	if t == nil {
		return
	}
	id, err := httpjson.PathID(r, "id")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	var req branchUpdateRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	b, err := h.tenants.UpdateBranch(r.Context(), t, id, tenantservice.BranchUpdate{
		Name: req.Name, Location: req.Location, IsActive: req.IsActive,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, viewBranch(b))
}

// DeleteBranch handles DELETE /tenant/branches/{id} as a soft deactivate.
func (h *Handler) DeleteBranch(w http.ResponseWriter, r *http.Request) {
	t := h.current(w, r)
	if t == nil {
		return
	}
	id, err := httpjson.PathID(r, "id")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	if err := h.tenants.DeactivateBranch(r.Context(), t, id); err != nil {
		h.fail(w, err)
		return
	}
	httpjson.Write(w, http.StatusNoContent, nil)
}

// ListAgents handles GET /tenant/agents.
func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	t := h.current(w, r)
	if t == nil {
		return
	}
	skip, limit, err := httpjson.Pagination(r, h.pageLimit, h.pageMax)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	agents, total, err := h.tenants.ListAgents(r.Context(), t, skip, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	now := time.Now().UTC()
	views := make([]agenthandler.AgentView, len(agents))
	for i, a := range agents {
		views[i] = agenthandler.ViewAgent(a, now, h.tenants.StaleAfter())
	}
	httpjson.Write(w, http.StatusOK, httpjson.Page{Items: views, Total: total, Skip: skip, Limit: limit})
}

// GetAgent handles GET /tenant/agents/{id}.
func (h *Handler) GetAgent(w http.ResponseWriter, r *http.Request) {
	t := h.current(w, r)
	if t == nil {
		return
	}
	id, err := httpjson.PathID(r, "id")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	a, err := h.tenants.GetAgent(r.Context(), t, id)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, agenthandler.ViewAgent(a, time.Now().UTC(), h.tenants.StaleAfter()))
}

type telemetryView struct {
	ID            int64     `json:"id"`
	AgentID       int64     `json:"agent_id"`
	WindowTitle   *string   `json:"window_title"`
	ProcessName   *string   `json:"process_name"`
	Timestamp     time.Time `json:"timestamp"`
	IsIdle        bool      `json:"is_idle"`
	ScreenshotURL *string   `json:"screenshot_url"`
	CreatedAt     time.Time `json:"created_at"`
}

func viewTelemetry(rec *telemetrydomain.Record) telemetryView {
	return telemetryView{
		ID: rec.ID, AgentID: rec.AgentID,
		WindowTitle: rec.WindowTitle, ProcessName: rec.ProcessName,
		Timestamp: rec.Timestamp, IsIdle: rec.IsIdle,
		ScreenshotURL: rec.ScreenshotURL, CreatedAt: rec.CreatedAt,
	}
}

// AgentTelemetry handles GET /tenant/agents/{id}/telemetry.
func (h *Handler) AgentTelemetry(w http.ResponseWriter, r *http.Request) {
	t := h.current(w, r)
	if t == nil {
		return
	}
	id, err := httpjson.PathID(r, "id")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	skip, limit, err := httpjson.Pagination(r, h.pageLimit, h.pageMax)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	records, total, err := h.tenants.AgentTelemetry(r.Context(), t, id, skip, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	views := make([]telemetryView, len(records))
	for i, rec := range records {
		views[i] = viewTelemetry(rec)
	}
	httpjson.Write(w, http.StatusOK, httpjson.Page{Items: views, Total: total, Skip: skip, Limit: limit})
}
