package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	adminhandler "prismtrack/backend/internal/admin/handler"
	adminrepository "prismtrack/backend/internal/admin/repository"
	adminservice "prismtrack/backend/internal/admin/service"
	agenthandler "prismtrack/backend/internal/agent/handler"
	agentrepository "prismtrack/backend/internal/agent/repository"
	agentservice "prismtrack/backend/internal/agent/service"
	"prismtrack/backend/internal/audit"
	auditrepository "prismtrack/backend/internal/audit/repository"
	"prismtrack/backend/internal/auth"
	branchrepository "prismtrack/backend/internal/branch/repository"
	companyrepository "prismtrack/backend/internal/company/repository"
	"prismtrack/backend/internal/config"
	"prismtrack/backend/internal/db"
	"prismtrack/backend/internal/events"
	eventsotel "prismtrack/backend/internal/events/otel"
	"prismtrack/backend/internal/events/producer"
	"prismtrack/backend/internal/health"
	"prismtrack/backend/internal/hierarchy"
	"prismtrack/backend/internal/scope"
	"prismtrack/backend/internal/security"
	"prismtrack/backend/internal/server"
	telemetryrepository "prismtrack/backend/internal/telemetry/repository"
	telemetryservice "prismtrack/backend/internal/telemetry/service"
	tenanthandler "prismtrack/backend/internal/tenant/handler"
	tenantrepository "prismtrack/backend/internal/tenant/repository"
	tenantservice "prismtrack/backend/internal/tenant/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("config: DATABASE_URL must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer sqlDB.Close()

	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("parse JWT private key: %v", err)
	}
	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("parse JWT public key: %v", err)
	}
	tokens := security.NewTokenProvider(privateKey, publicKey,
		cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	providers, err := eventsotel.Setup(ctx, cfg.OTLPEndpoint, cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("otel setup: %v", err)
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	var sinks events.Multi
	if brokers := cfg.EventsKafkaBrokersList(); len(brokers) > 0 {
		kafkaSink := producer.NewKafka(brokers, cfg.EventsKafkaTopic)
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
		log.Printf("event emission to kafka enabled (topic %s)", cfg.EventsKafkaTopic)
	}
	if providers != nil {
		sinks = append(sinks, eventsotel.NewEmitter(providers.Logger))
		log.Printf("event emission to otel logs enabled")
	}
	var emitter events.Emitter
	if len(sinks) > 0 {
		emitter = sinks
	}

	tenantRepo := tenantrepository.NewPostgresRepository(sqlDB)
	companyRepo := companyrepository.NewPostgresRepository(sqlDB)
	branchRepo := branchrepository.NewPostgresRepository(sqlDB)
	agentRepo := agentrepository.NewPostgresRepository(sqlDB)
	telemetryRepo := telemetryrepository.NewPostgresRepository(sqlDB)
	adminRepo := adminrepository.NewPostgresRepository(sqlDB)
	auditRepo := auditrepository.NewPostgresRepository(sqlDB)

	auditor := audit.NewLogger(auditRepo, nil)

	resolver := hierarchy.NewService(tenantRepo, companyRepo, branchRepo)
	scopes := scope.NewService(companyRepo, branchRepo)
	agentSvc := agentservice.NewService(agentRepo, resolver, emitter, cfg.AgentTokenBytes, cfg.StaleAfter())
	telemetrySvc := telemetryservice.NewService(telemetryRepo, emitter)
	tenantSvc := tenantservice.NewService(tenantRepo, companyRepo, branchRepo, agentSvc, telemetrySvc, scopes, emitter)
	adminSvc := adminservice.NewService(tenantRepo, hasher, auditor, emitter)
	authSvc := auth.NewService(adminRepo, tenantRepo, hasher, tokens, emitter)

	router := server.NewRouter(server.Deps{
		Agent:     agenthandler.New(agentSvc, telemetrySvc, cfg.PageLimit, cfg.PageLimitMax),
		Tenant:    tenanthandler.New(tenantSvc, cfg.PageLimit, cfg.PageLimitMax),
		Platform:  adminhandler.New(adminSvc, cfg.PageLimit, cfg.PageLimitMax),
		Auth:      auth.NewHandler(authSvc),
		Health:    health.New(sqlDB),
		AgentAuth: agentSvc,
		Tokens:    tokens,
	})

	srv := server.New(cfg.HTTPAddr, router)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("http server: %v", err)
	}
	log.Println("http server stopped")
}
