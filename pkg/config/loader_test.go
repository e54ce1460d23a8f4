package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader(WithConfigPaths()).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "netsimplex" {
		t.Errorf("expected app name 'netsimplex', got %s", cfg.App.Name)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected HTTP port 8080, got %d", cfg.HTTP.Port)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Log.Level)
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("expected metrics port 9090, got %d", cfg.Metrics.Port)
	}
	if cfg.Solver.Rule != "block_search" {
		t.Errorf("expected rule 'block_search', got %s", cfg.Solver.Rule)
	}
	if cfg.Solver.MaxConcurrent != 4 {
		t.Errorf("expected max_concurrent 4, got %d", cfg.Solver.MaxConcurrent)
	}
	if !cfg.Solver.Verify {
		t.Error("expected verify to be enabled by default")
	}
	if cfg.Database.Enabled {
		t.Error("expected database to be disabled by default")
	}
	if len(cfg.HTTP.AllowedOrigins) != 1 || cfg.HTTP.AllowedOrigins[0] != "*" {
		t.Errorf("expected allowed origins [*], got %v", cfg.HTTP.AllowedOrigins)
	}
}

func TestLoader_LoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
app:
  name: custom-service
  version: 2.0.0
  environment: staging
http:
  port: 8181
log:
  level: debug
solver:
  rule: batched_dfs
  max_pivots: 5000
  acquire_wait: 2s
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := NewLoader(WithConfigPaths(configPath)).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "custom-service" {
		t.Errorf("expected app name 'custom-service', got %s", cfg.App.Name)
	}
	if cfg.App.Version != "2.0.0" {
		t.Errorf("expected version '2.0.0', got %s", cfg.App.Version)
	}
	if cfg.HTTP.Port != 8181 {
		t.Errorf("expected port 8181, got %d", cfg.HTTP.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Log.Level)
	}
	if cfg.Solver.Rule != "batched_dfs" {
		t.Errorf("expected rule 'batched_dfs', got %s", cfg.Solver.Rule)
	}
	if cfg.Solver.MaxPivots != 5000 {
		t.Errorf("expected max_pivots 5000, got %d", cfg.Solver.MaxPivots)
	}
	if cfg.Solver.AcquireWait != 2*time.Second {
		t.Errorf("expected acquire_wait 2s, got %v", cfg.Solver.AcquireWait)
	}
}

func TestLoader_LoadFromEnv(t *testing.T) {
	t.Setenv("NETSIMPLEX_APP_NAME", "env-service")
	t.Setenv("NETSIMPLEX_HTTP_PORT", "8282")
	t.Setenv("NETSIMPLEX_SOLVER_MAX_PIVOTS", "77")
	t.Setenv("NETSIMPLEX_HTTP_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := NewLoader(WithConfigPaths()).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "env-service" {
		t.Errorf("expected app name 'env-service', got %s", cfg.App.Name)
	}
	if cfg.HTTP.Port != 8282 {
		t.Errorf("expected port 8282, got %d", cfg.HTTP.Port)
	}
	if cfg.Solver.MaxPivots != 77 {
		t.Errorf("expected max_pivots 77, got %d", cfg.Solver.MaxPivots)
	}
	if len(cfg.HTTP.AllowedOrigins) != 2 || cfg.HTTP.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected allowed origins %v", cfg.HTTP.AllowedOrigins)
	}
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
app:
  name: file-service
http:
  port: 8383
`
	os.WriteFile(configPath, []byte(configContent), 0644)

	// Env should override file
	t.Setenv("NETSIMPLEX_APP_NAME", "env-override")

	cfg, err := NewLoader(WithConfigPaths(configPath)).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "env-override" {
		t.Errorf("expected env override, got %s", cfg.App.Name)
	}
	// Port should come from file
	if cfg.HTTP.Port != 8383 {
		t.Errorf("expected port from file 8383, got %d", cfg.HTTP.Port)
	}
}

func TestLoader_WithEnvPrefix(t *testing.T) {
	t.Setenv("CUSTOM_APP_NAME", "custom-prefix-service")

	cfg, err := NewLoader(WithConfigPaths(), WithEnvPrefix("CUSTOM_")).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "custom-prefix-service" {
		t.Errorf("expected 'custom-prefix-service', got %s", cfg.App.Name)
	}
}

func TestLoader_InvalidRuleFromEnv(t *testing.T) {
	t.Setenv("NETSIMPLEX_SOLVER_RULE", "steepest_edge")

	if _, err := NewLoader(WithConfigPaths()).Load(); err == nil {
		t.Fatal("expected validation error for unknown rule")
	}
}

func TestMustLoad_Success(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("MustLoad should not panic with valid config")
		}
	}()

	cfg := MustLoad(WithConfigPaths())
	if cfg == nil {
		t.Error("expected non-nil config")
	}
}

func TestLoad_Simple(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg == nil {
		t.Error("expected non-nil config")
	}
}

func TestLoadWithServiceDefaults(t *testing.T) {
	cfg, err := LoadWithServiceDefaults("solver-svc", 8090)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	if cfg.App.Name != "solver-svc" {
		t.Errorf("expected app name 'solver-svc', got %s", cfg.App.Name)
	}
	if cfg.Tracing.ServiceName != "solver-svc" {
		t.Errorf("expected tracing service 'solver-svc', got %s", cfg.Tracing.ServiceName)
	}
	if cfg.HTTP.Port != 8090 {
		t.Errorf("expected port 8090, got %d", cfg.HTTP.Port)
	}
}

func TestLoader_ConfigEnvVar(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom-config.yaml")

	configContent := `
app:
  name: config-env-var-service
`
	os.WriteFile(configPath, []byte(configContent), 0644)

	t.Setenv("CONFIG_PATH", configPath)

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "config-env-var-service" {
		t.Errorf("expected 'config-env-var-service', got %s", cfg.App.Name)
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(" a, ,b ,c")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("splitAndTrim() = %v", got)
	}
	if splitAndTrim("") != nil {
		t.Error("expected nil for empty input")
	}
}
