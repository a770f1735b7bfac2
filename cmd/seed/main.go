// seed inserts development sample data for local testing.
// Idempotent: skips inserts when the dev platform admin already exists.
package main

import (
	"context"
	"log"
	"time"

	admindomain "prismtrack/backend/internal/admin/domain"
	adminrepository "prismtrack/backend/internal/admin/repository"
	agentrepository "prismtrack/backend/internal/agent/repository"
	agentservice "prismtrack/backend/internal/agent/service"
	branchrepository "prismtrack/backend/internal/branch/repository"
	companyrepository "prismtrack/backend/internal/company/repository"
	"prismtrack/backend/internal/config"
	"prismtrack/backend/internal/db"
	"prismtrack/backend/internal/hierarchy"
	"prismtrack/backend/internal/security"
	tenantdomain "prismtrack/backend/internal/tenant/domain"
	tenantrepository "prismtrack/backend/internal/tenant/repository"
)

const (
	devAdminUsername = "admin"
	devAdminEmail    = "admin@prismtrack.local"
	devAdminPassword = "password123"

	devTenantName     = "Demo Tenant"
	devTenantEmail    = "tenant@prismtrack.local"
	devTenantPassword = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hasher := security.NewHasher(cfg.BcryptCost)
	admins := adminrepository.NewPostgresRepository(conn)
	tenants := tenantrepository.NewPostgresRepository(conn)

	existing, err := admins.GetByLogin(ctx, devAdminUsername)
	if err != nil {
		log.Fatalf("seed: lookup admin: %v", err)
	}
	if existing != nil {
		log.Printf("seed: %s already exists, nothing to do", devAdminUsername)
		return
	}

	adminHash, err := hasher.Hash([]byte(devAdminPassword))
	if err != nil {
		log.Fatalf("seed: hash admin password: %v", err)
	}
	admin := &admindomain.PlatformAdmin{
		Username:     devAdminUsername,
		Email:        devAdminEmail,
		PasswordHash: adminHash,
		IsActive:     true,
	}
	if err := admins.Create(ctx, admin); err != nil {
		log.Fatalf("seed: create admin: %v", err)
	}
	log.Printf("seed: created platform admin %s (password %s)", devAdminUsername, devAdminPassword)

	tenantHash, err := hasher.Hash([]byte(devTenantPassword))
	if err != nil {
		log.Fatalf("seed: hash tenant password: %v", err)
	}
	apiKey, err := security.NewAPIKey()
	if err != nil {
		log.Fatalf("seed: mint api key: %v", err)
	}
	tenant := &tenantdomain.Tenant{
		Name:              devTenantName,
		AdminEmail:        devTenantEmail,
		AdminPasswordHash: tenantHash,
		AdminAPIKey:       apiKey,
		CreatedBy:         admin.ID,
		IsActive:          true,
	}
	err = hierarchy.AllocateOrgID(ctx, func(orgID string) error {
		tenant.OrgID = orgID
		return tenants.Create(ctx, tenant)
	})
	if err != nil {
		log.Fatalf("seed: create tenant: %v", err)
	}
	log.Printf("seed: created tenant %s (org id %s, login %s / %s)",
		devTenantName, tenant.OrgID, devTenantEmail, devTenantPassword)

	// A demo agent so the fleet views have something to show.
	agents := agentrepository.NewPostgresRepository(conn)
	companies := companyrepository.NewPostgresRepository(conn)
	branches := branchrepository.NewPostgresRepository(conn)
	resolver := hierarchy.NewService(tenants, companies, branches)
	agentSvc := agentservice.NewService(agents, resolver, nil, cfg.AgentTokenBytes, cfg.StaleAfter())
	res, err := agentSvc.Register(ctx, agentservice.RegisterInput{
		OrgID:        tenant.OrgID,
		MachineName:  "DEMO-DESKTOP",
		HardwareUUID: "00000000-0000-0000-0000-00000000demo",
	})
	if err != nil {
		log.Fatalf("seed: register demo agent: %v", err)
	}
	log.Printf("seed: registered demo agent %d (token %s)", res.Agent.ID, res.Agent.AgentToken)
}
