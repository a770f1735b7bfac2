// Package server wires the HTTP surface: routes, middleware chains, and the
// listener lifecycle.
package server

import (
	"context"
	"log"
	"net/http"
	"time"

	adminhandler "prismtrack/backend/internal/admin/handler"
	agenthandler "prismtrack/backend/internal/agent/handler"
	"prismtrack/backend/internal/auth"
	"prismtrack/backend/internal/health"
	"prismtrack/backend/internal/security"
	"prismtrack/backend/internal/server/middleware"
	tenanthandler "prismtrack/backend/internal/tenant/handler"
)

// Deps carries everything the router needs. All fields are required.
type Deps struct {
	Agent    *agenthandler.Handler
	Tenant   *tenanthandler.Handler
	Platform *adminhandler.Handler
	Auth     *auth.Handler
	Health   *health.Handler

	AgentAuth middleware.AgentAuthenticator
	Tokens    middleware.AccessValidator
}

// NewRouter builds the /api/v1 route table.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	agentAuth := middleware.AgentAuth(d.AgentAuth)
	adminJWT := middleware.JWTAuth(d.Tokens, security.PrincipalPlatformAdmin)
	tenantJWT := middleware.JWTAuth(d.Tokens, security.PrincipalTenant)

	mux.HandleFunc("GET /healthz", d.Health.Healthz)

	// Agent endpoints.
	mux.HandleFunc("POST /api/v1/agent/register", d.Agent.Register)
	mux.Handle("POST /api/v1/agent/heartbeat", agentAuth(http.HandlerFunc(d.Agent.Heartbeat)))
	mux.Handle("POST /api/v1/agent/telemetry", agentAuth(http.HandlerFunc(d.Agent.Telemetry)))
	mux.Handle("GET /api/v1/agent/agents", adminJWT(http.HandlerFunc(d.Agent.List)))
	mux.Handle("GET /api/v1/agent/agents/{id}", adminJWT(http.HandlerFunc(d.Agent.Get)))

	// Auth endpoints.
	mux.HandleFunc("POST /api/v1/auth/platform-admin/login", d.Auth.AdminLogin)
	mux.HandleFunc("POST /api/v1/auth/tenant/login", d.Auth.TenantLogin)
	mux.HandleFunc("POST /api/v1/auth/refresh", d.Auth.Refresh)

	// Tenant self-service endpoints.
	mux.Handle("GET /api/v1/tenant/org-ids", tenantJWT(http.HandlerFunc(d.Tenant.OrgIDs)))
	mux.Handle("GET /api/v1/tenant/agents", tenantJWT(http.HandlerFunc(d.Tenant.ListAgents)))
	mux.Handle("GET /api/v1/tenant/agents/{id}", tenantJWT(http.HandlerFunc(d.Tenant.GetAgent)))
	mux.Handle("GET /api/v1/tenant/agents/{id}/telemetry", tenantJWT(http.HandlerFunc(d.Tenant.AgentTelemetry)))
	mux.Handle("GET /api/v1/tenant/companies", tenantJWT(http.HandlerFunc(d.Tenant.ListCompanies)))
	mux.Handle("POST /api/v1/tenant/companies", tenantJWT(http.HandlerFunc(d.Tenant.CreateCompany)))
	mux.Handle("GET /api/v1/tenant/companies/{id}", tenantJWT(http.HandlerFunc(d.Tenant.GetCompany)))
	mux.Handle("PUT /api/v1/tenant/companies/{id}", tenantJWT(http.HandlerFunc(d.Tenant.UpdateCompany)))
	mux.Handle("DELETE /api/v1/tenant/companies/{id}", tenantJWT(http.HandlerFunc(d.Tenant.DeleteCompany)))
	mux.Handle("GET /api/v1/tenant/companies/{id}/branches", tenantJWT(http.HandlerFunc(d.Tenant.ListBranches)))
	mux.Handle("POST /api/v1/tenant/companies/{id}/branches", tenantJWT(http.HandlerFunc(d.Tenant.CreateBranch)))
	mux.Handle("GET /api/v1/tenant/branches/{id}", tenantJWT(http.HandlerFunc(d.Tenant.GetBranch)))
	mux.Handle("PUT /api/v1/tenant/branches/{id}", tenantJWT(http.HandlerFunc(d.Tenant.UpdateBranch)))
	mux.Handle("DELETE /api/v1/tenant/branches/{id}", tenantJWT(http.HandlerFunc(d.Tenant.DeleteBranch)))

	// Platform-admin endpoints.
	mux.Handle("GET /api/v1/platform/tenants", adminJWT(http.HandlerFunc(d.Platform.ListTenants)))
	mux.Handle("POST /api/v1/platform/tenants", adminJWT(http.HandlerFunc(d.Platform.CreateTenant)))
	mux.Handle("GET /api/v1/platform/tenants/{id}", adminJWT(http.HandlerFunc(d.Platform.GetTenant)))
	mux.Handle("PUT /api/v1/platform/tenants/{id}", adminJWT(http.HandlerFunc(d.Platform.UpdateTenant)))
	mux.Handle("DELETE /api/v1/platform/tenants/{id}", adminJWT(http.HandlerFunc(d.Platform.DeleteTenant)))

	return middleware.Chain(mux,
		middleware.Recover,
		middleware.RequestID,
		middleware.Logging,
		middleware.Tracing,
	)
}

// Server wraps http.Server with a graceful shutdown.
type Server struct {
	srv *http.Server
}

// New returns a server bound to addr serving handler.
func New(addr string, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}
}

// Run serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("http server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
