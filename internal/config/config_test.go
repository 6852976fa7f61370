package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("listenAddr = %q", cfg.ListenAddr)
	}
	if cfg.AuthMode != "dev" || cfg.WebhookMaxAttempts != 10 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "listenAddr: \":9090\"\nosrmUrl: \"http://osrm.local\"\nsolver:\n  seed: 42\n  beta: 3.0\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9090" || cfg.OSRMURL != "http://osrm.local" {
		t.Fatalf("yaml not applied: %+v", cfg)
	}
	if cfg.Solver.Seed != 42 || cfg.Solver.Beta != 3.0 {
		t.Fatalf("solver section: %+v", cfg.Solver)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listenAddr: \":9090\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("PORT", "7070")
	t.Setenv("SOLVER_SEED", "7")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":7070" {
		t.Fatalf("env override lost: %q", cfg.ListenAddr)
	}
	if cfg.Solver.Seed != 7 {
		t.Fatalf("solver seed = %d", cfg.Solver.Seed)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err != nil {
		t.Fatalf("missing file must fall back to defaults: %v", err)
	}
}
