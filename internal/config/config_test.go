package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/newthinker/strata/internal/core"
)

func TestLoad_FromFile(t *testing.T) {
	content := []byte(`
server:
  host: "127.0.0.1"
  port: 9090

backtest:
  initial_cash: 50000

archive:
  enabled: true
  type: localfs
  path: "/tmp/strata/reports"
`)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Archive.Type != "localfs" || !cfg.Archive.Enabled {
		t.Errorf("expected enabled localfs archive, got %+v", cfg.Archive)
	}
	if cfg.Backtest.InitialCash != 50000 {
		t.Errorf("expected initial cash 50000, got %f", cfg.Backtest.InitialCash)
	}

	// Absent keys keep their defaults
	if cfg.Backtest.Commission != 0.001 {
		t.Errorf("expected default commission 0.001, got %f", cfg.Backtest.Commission)
	}
	if cfg.Analysis.Workers != 4 {
		t.Errorf("expected default workers 4, got %d", cfg.Analysis.Workers)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("STRATA_TEST_KEY", "secret-key")
	content := []byte(`
server:
  api_key: "${STRATA_TEST_KEY}"
`)

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.APIKey != "secret-key" {
		t.Errorf("expected expanded api key, got %q", cfg.Server.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Backtest.InitialCash != 10000 {
		t.Errorf("expected default initial cash 10000, got %f", cfg.Backtest.InitialCash)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "invalid port - zero",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: core.ErrConfigInvalid,
		},
		{
			name:    "invalid port - too high",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: core.ErrConfigInvalid,
		},
		{
			name:    "no workers",
			mutate:  func(c *Config) { c.Analysis.Workers = 0 },
			wantErr: core.ErrConfigInvalid,
		},
		{
			name:    "initial cash below minimum",
			mutate:  func(c *Config) { c.Backtest.InitialCash = 500 },
			wantErr: core.ErrConfigInvalid,
		},
		{
			name:    "commission too high",
			mutate:  func(c *Config) { c.Backtest.Commission = 0.5 },
			wantErr: core.ErrConfigInvalid,
		},
		{
			name:    "relative metrics path",
			mutate:  func(c *Config) { c.Metrics.Path = "metrics" },
			wantErr: core.ErrConfigInvalid,
		},
		{
			name: "s3 archive without bucket",
			mutate: func(c *Config) {
				c.Archive.Enabled = true
				c.Archive.Type = "s3"
			},
			wantErr: core.ErrConfigMissing,
		},
		{
			name: "unknown archive type",
			mutate: func(c *Config) {
				c.Archive.Enabled = true
				c.Archive.Type = "ftp"
			},
			wantErr: core.ErrConfigInvalid,
		},
		{
			name: "disabled archive is not checked",
			mutate: func(c *Config) {
				c.Archive.Type = "ftp"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
