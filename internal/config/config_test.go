package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Server.Port != 8000 {
		t.Errorf("expected default port 8000, got %d", s.Server.Port)
	}
	if s.Limits.MaxCollectionsPerOwner != 5 {
		t.Errorf("expected default max collections 5, got %d", s.Limits.MaxCollectionsPerOwner)
	}
	if s.EventBus.Subject != "metadata.items" {
		t.Errorf("expected default subject metadata.items, got %q", s.EventBus.Subject)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CATALOG_SERVER_PORT", "9090")
	t.Setenv("CATALOG_LIMITS_MAX_TAGS", "20")
	s, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Server.Port != 9090 {
		t.Errorf("expected env-overridden port 9090, got %d", s.Server.Port)
	}
	if s.Limits.MaxTags != 20 {
		t.Errorf("expected env-overridden max tags 20, got %d", s.Limits.MaxTags)
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	s := &Settings{Limits: LimitSettings{MaxTags: 1, MaxSystemTags: 1, MaxCollectionsPerOwner: 1}}
	s.Server.Port = 0
	if err := s.Validate(); err == nil {
		t.Error("expected validation error for zero port")
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresSettings{Host: "db", Port: 5432, User: "u", Password: "p", Database: "catalog", SSLMode: "disable"}
	dsn := p.DSN()
	if dsn == "" {
		t.Fatal("expected non-empty DSN")
	}
}
