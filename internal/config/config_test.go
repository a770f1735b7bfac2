package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8000")
	}
	if cfg.JWTIssuer != "prismtrack-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "prismtrack-auth")
	}
	if cfg.JWTAudience != "prismtrack-api" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "prismtrack-api")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.AgentTokenBytes != 32 {
		t.Errorf("AgentTokenBytes = %d, want 32", cfg.AgentTokenBytes)
	}
	if cfg.PageLimit != 100 {
		t.Errorf("PageLimit = %d, want 100", cfg.PageLimit)
	}
	if cfg.EventsKafkaTopic != "prismtrack-events" {
		t.Errorf("EventsKafkaTopic = %q, want default", cfg.EventsKafkaTopic)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9100")
	os.Setenv("PAGE_LIMIT", "25")
	os.Setenv("OFFLINE_AFTER", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9100" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9100")
	}
	if cfg.PageLimit != 25 {
		t.Errorf("PageLimit = %d, want 25", cfg.PageLimit)
	}
	if got := cfg.StaleAfter(); got != 90*time.Second {
		t.Errorf("StaleAfter() = %v, want 90s", got)
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8000")
	os.Setenv("BCRYPT_COST", "99")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail for BCRYPT_COST=99")
	}
}

func TestLoad_InvalidPageLimits(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8000")
	os.Setenv("PAGE_LIMIT", "500")
	os.Setenv("PAGE_LIMIT_MAX", "100")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail when PAGE_LIMIT > PAGE_LIMIT_MAX")
	}
}

func TestTTLHelpers(t *testing.T) {
	cfg := &Config{JWTAccessTTL: "30m", JWTRefreshTTL: "bogus", OfflineAfter: ""}
	if got := cfg.AccessTTL(); got != 30*time.Minute {
		t.Errorf("AccessTTL() = %v, want 30m", got)
	}
	if got := cfg.RefreshTTL(); got != 168*time.Hour {
		t.Errorf("RefreshTTL() = %v, want fallback 168h", got)
	}
	if got := cfg.StaleAfter(); got != 120*time.Second {
		t.Errorf("StaleAfter() = %v, want fallback 120s", got)
	}
}

func TestEventsKafkaBrokersList(t *testing.T) {
	cfg := &Config{EventsKafkaBrokers: " localhost:9092 ,, broker2:9092"}
	got := cfg.EventsKafkaBrokersList()
	if len(got) != 2 || got[0] != "localhost:9092" || got[1] != "broker2:9092" {
		t.Errorf("EventsKafkaBrokersList() = %v", got)
	}
	var nilCfg *Config
	if nilCfg.EventsKafkaBrokersList() != nil {
		t.Error("nil config should return nil broker list")
	}
}
