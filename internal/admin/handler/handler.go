// Package handler exposes the platform-admin endpoints for tenant lifecycle.
package handler

import (
	"errors"
	"net/http"
	"net/mail"
	"time"

	adminservice "prismtrack/backend/internal/admin/service"
	"prismtrack/backend/internal/server/httpjson"
	"prismtrack/backend/internal/server/middleware"
	tenantdomain "prismtrack/backend/internal/tenant/domain"
)

// minPasswordLen guards against empty or trivially short admin passwords.
const minPasswordLen = 8

// Handler serves the /platform routes behind a platform-admin JWT.
type Handler struct {
	admin     *adminservice.Service
	pageLimit int
	pageMax   int
}

// New returns the platform-admin handler.
func New(admin *adminservice.Service, pageLimit, pageMax int) *Handler {
	return &Handler{admin: admin, pageLimit: pageLimit, pageMax: pageMax}
}

type tenantView struct {
	ID         int64     `json:"id"`
	OrgID      string    `json:"org_id"`
	Name       string    `json:"name"`
	AdminEmail string    `json:"admin_email"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

func viewTenant(t *tenantdomain.Tenant) tenantView {
	return tenantView{
		ID: t.ID, OrgID: t.OrgID, Name: t.Name,
		AdminEmail: t.AdminEmail, IsActive: t.IsActive, CreatedAt: t.CreatedAt,
	}
}

type tenantCreateRequest struct {
	Name          string `json:"name"`
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`
}

type tenantCreateResponse struct {
	tenantView
	// APIKey is returned once, at creation; no later read exposes it.
	APIKey string `json:"api_key"`
}

// CreateTenant handles POST /platform/tenants.
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req tenantCreateRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" {
		httpjson.Error(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}
	if _, err := mail.ParseAddress(req.AdminEmail); err != nil {
		httpjson.Error(w, http.StatusBadRequest, errors.New("admin_email is not a valid address"))
		return
	}
	if len(req.AdminPassword) < minPasswordLen {
		httpjson.Error(w, http.StatusBadRequest, errors.New("admin_password must be at least 8 characters"))
		return
	}
	p := middleware.PrincipalFrom(r.Context())
	res, err := h.admin.CreateTenant(r.Context(), p.ID, adminservice.CreateTenantInput{
		Name:          req.Name,
		AdminEmail:    req.AdminEmail,
		AdminPassword: req.AdminPassword,
	})
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, tenantCreateResponse{
		tenantView: viewTenant(res.Tenant),
		APIKey:     res.APIKey,
	})
}

// ListTenants handles GET /platform/tenants.
func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := httpjson.Pagination(r, h.pageLimit, h.pageMax)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	tenants, total, err := h.admin.ListTenants(r.Context(), skip, limit)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, err)
		return
	}
	views := make([]tenantView, len(tenants))
	for i, t := range tenants {
		views[i] = viewTenant(t)
	}
	httpjson.Write(w, http.StatusOK, httpjson.Page{Items: views, Total: total, Skip: skip, Limit: limit})
}

// GetTenant handles GET /platform/tenants/{id}.
func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) {
	id, err := httpjson.PathID(r, "id")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	t, err := h.admin.GetTenant(r.Context(), id)
	if err != nil {
		if errors.Is(err, adminservice.ErrNotFound) {
			httpjson.Error(w, http.StatusNotFound, err)
			return
		}
		httpjson.Error(w, http.StatusInternalServerError, err)
		return
	}
	httpjson.Write(w, http.StatusOK, viewTenant(t))
}

type tenantUpdateRequest struct {
	Name       *string `json:"name"`
	AdminEmail *string `json:"admin_email"`
	IsActive   *bool   `json:"is_active"`
}

// UpdateTenant handles PUT /platform/tenants/{id}.
func (h *Handler) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	id, err := httpjson.PathID(r, "id")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	var req tenantUpdateRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	if req.AdminEmail != nil {
		if _, err := mail.ParseAddress(*req.AdminEmail); err != nil {
			httpjson.Error(w, http.StatusBadRequest, errors.New("admin_email is not a valid address"))
			return
		}
	}
	p := middleware.PrincipalFrom(r.Context())
	t, err := h.admin.UpdateTenant(r.Context(), p.ID, id, adminservice.TenantUpdate{
		Name: req.Name, AdminEmail: req.AdminEmail, IsActive: req.IsActive,
	})
	if err != nil {
		if errors.Is(err, adminservice.ErrNotFound) {
			httpjson.Error(w, http.StatusNotFound, err)
			return
		}
		httpjson.Error(w, http.StatusInternalServerError, err)
		return
	}
	httpjson.Write(w, http.StatusOK, viewTenant(t))
}

// DeleteTenant handles DELETE /platform/tenants/{id} as a soft deactivate.
func (h *Handler) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	id, err := httpjson.PathID(r, "id")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err)
		return
	}
	p := middleware.PrincipalFrom(r.Context())
	if err := h.admin.DeactivateTenant(r.Context(), p.ID, id); err != nil {
		if errors.Is(err, adminservice.ErrNotFound) {
			httpjson.Error(w, http.StatusNotFound, err)
			return
		}
		httpjson.Error(w, http.StatusInternalServerError, err)
		return
	}
	httpjson.Write(w, http.StatusNoContent, nil)
}
