package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.BrowseRowLimit != 10000 {
		t.Errorf("expected default browse limit 10000, got %d", cfg.BrowseRowLimit)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("expected wildcard origins, got %v", cfg.AllowedOrigins)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BROWSE_ROW_LIMIT", "50")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, https://dash.example.com")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %q", cfg.Port)
	}
	if cfg.BrowseRowLimit != 50 {
		t.Errorf("expected browse limit 50, got %d", cfg.BrowseRowLimit)
	}
	want := []string{"http://localhost:3000", "https://dash.example.com"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("expected %d origins, got %v", len(want), cfg.AllowedOrigins)
	}
	for i, o := range want {
		if cfg.AllowedOrigins[i] != o {
			t.Errorf("origin %d: expected %q, got %q", i, o, cfg.AllowedOrigins[i])
		}
	}
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("BROWSE_ROW_LIMIT", "lots")

	cfg := Load()
	if cfg.BrowseRowLimit != 10000 {
		t.Errorf("expected fallback browse limit, got %d", cfg.BrowseRowLimit)
	}
}
