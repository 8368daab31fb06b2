package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default("/var/lib/mew")
	if err := Validate(cfg); err != nil {
		t.Fatalf("Default() config should validate, got: %v", err)
	}
	if cfg.Journal.Mode != JournalModePlain {
		t.Errorf("Journal.Mode = %v, want %v", cfg.Journal.Mode, JournalModePlain)
	}
}

func TestValidate_MissingDataDir(t *testing.T) {
	cfg := Default("")
	if err := Validate(cfg); err == nil {
		t.Error("expected error for empty DataDir")
	}
}

func TestValidate_BadJournalMode(t *testing.T) {
	cfg := Default("/data")
	cfg.Journal.Mode = "turbo"
	if err := Validate(cfg); err == nil {
		t.Error("expected error for invalid journal mode")
	}
}

func TestValidate_S3PrefixRequired(t *testing.T) {
	cfg := Default("/data")
	cfg.Journal.S3Bucket = "mew-snapshots"
	if err := Validate(cfg); err == nil {
		t.Error("expected error when s3_bucket is set without s3_prefix")
	}

	cfg.Journal.S3Prefix = "prod/"
	if err := Validate(cfg); err != nil {
		t.Errorf("expected no error once s3_prefix is set, got: %v", err)
	}
}

func TestValidate_MetricsRequiresListenAddr(t *testing.T) {
	cfg := Default("/data")
	cfg.Metrics.Enabled = true
	if err := Validate(cfg); err == nil {
		t.Error("expected error when metrics enabled without listen_addr")
	}

	cfg.Metrics.ListenAddr = "0.0.0.0:9090"
	if err := Validate(cfg); err != nil {
		t.Errorf("expected no error once listen_addr is set, got: %v", err)
	}
}

func TestValidate_SubscribeRequiresMaxSubscribers(t *testing.T) {
	cfg := Default("/data")
	cfg.Subscribe.Enabled = true
	cfg.Subscribe.MaxSubscribers = 0
	if err := Validate(cfg); err == nil {
		t.Error("expected error when subscribe enabled with max_subscribers <= 0")
	}
}

func TestRuleConfig_Limits(t *testing.T) {
	c := RuleConfig{}
	limits := c.Limits()
	if limits.MaxActions <= 0 {
		t.Error("expected default MaxActions to be applied")
	}

	c = RuleConfig{MaxActions: 5, MaxChainDepth: 2, Budget: 10 * time.Second}
	limits = c.Limits()
	if limits.MaxActions != 5 || limits.MaxChainDepth != 2 || limits.Budget != 10*time.Second {
		t.Errorf("Limits() = %+v, want explicit overrides applied", limits)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mew.yaml")
	contents := `
data_dir: /var/lib/mew
query_timeout: 15s
journal:
  mode: compressed
  snapshot_dir: /var/lib/mew/snapshots
rules:
  max_actions: 2000
metrics:
  enabled: true
  listen_addr: 127.0.0.1:9090
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DataDir != "/var/lib/mew" {
		t.Errorf("DataDir = %q, want /var/lib/mew", cfg.DataDir)
	}
	if cfg.QueryTimeout != 15*time.Second {
		t.Errorf("QueryTimeout = %v, want 15s", cfg.QueryTimeout)
	}
	if cfg.Journal.Mode != JournalModeCompressed {
		t.Errorf("Journal.Mode = %v, want compressed", cfg.Journal.Mode)
	}
	if cfg.Rules.MaxActions != 2000 {
		t.Errorf("Rules.MaxActions = %d, want 2000", cfg.Rules.MaxActions)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/mew.yaml"); err == nil {
		t.Error("expected error loading a missing file")
	}
}

func TestConfigValidator_Fluent(t *testing.T) {
	cv := NewConfigValidator("Test")
	cv.Required("Name", "").Positive("Port", -1).OneOf("Mode", "bogus", []string{"a", "b"})

	if !cv.HasErrors() {
		t.Fatal("expected accumulated errors")
	}
	if err := cv.Validate(); err == nil {
		t.Error("expected Validate() to return a combined error")
	}
}
