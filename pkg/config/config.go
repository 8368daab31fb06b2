// Package config loads and validates the kernel's startup configuration:
// where the store/journal live on disk, how rules and queries are
// bounded, and which optional ambient subsystems (metrics, subscribe)
// are enabled.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mewdb/mew/pkg/rule"
)

// JournalMode selects the on-disk record format for pkg/journal.
type JournalMode string

const (
	JournalModePlain      JournalMode = "plain"
	JournalModeCompressed JournalMode = "compressed"
	JournalModeNone       JournalMode = "none"
)

// KernelConfig is the top-level configuration for a mewd instance. It is
// typically loaded from a YAML file and then checked with Validate
// before being handed to pkg/kernel.
type KernelConfig struct {
	// DataDir holds the journal file and any local snapshots.
	DataDir string `yaml:"data_dir" validate:"required"`

	// Journal controls WAL durability and format.
	Journal JournalConfig `yaml:"journal"`

	// Rules bounds rule-fixpoint evaluation on every commit.
	Rules RuleConfig `yaml:"rules"`

	// QueryTimeout bounds how long a single pattern match may run.
	QueryTimeout time.Duration `yaml:"query_timeout" validate:"required"`

	// Metrics toggles the Prometheus registry and its HTTP exposition.
	Metrics MetricsConfig `yaml:"metrics"`

	// Subscribe toggles the websocket change-feed front end.
	Subscribe SubscribeConfig `yaml:"subscribe"`
}

type JournalConfig struct {
	Mode JournalMode `yaml:"mode" validate:"omitempty,oneof=plain compressed none"`

	// SnapshotDir, if set, enables periodic local snapshots alongside
	// the journal. Empty disables local snapshotting.
	SnapshotDir string `yaml:"snapshot_dir"`

	// S3Bucket/S3Prefix, if both set, enable off-node snapshot archival
	// via pkg/journal's S3SnapshotStore. Optional.
	S3Bucket string `yaml:"s3_bucket"`
	S3Prefix string `yaml:"s3_prefix"`
}

type RuleConfig struct {
	MaxActions    int           `yaml:"max_actions" validate:"omitempty,min=1"`
	MaxChainDepth int           `yaml:"max_chain_depth" validate:"omitempty,min=1"`
	Budget        time.Duration `yaml:"budget"`
}

// Limits converts the loaded configuration into a rule.Limits, falling
// back to rule.DefaultLimits() for any field left at its zero value.
func (c RuleConfig) Limits() rule.Limits {
	d := rule.DefaultLimits()
	if c.MaxActions > 0 {
		d.MaxActions = c.MaxActions
	}
	if c.MaxChainDepth > 0 {
		d.MaxChainDepth = c.MaxChainDepth
	}
	if c.Budget > 0 {
		d.Budget = c.Budget
	}
	return d
}

type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr" validate:"omitempty,hostname_port"`
}

type SubscribeConfig struct {
	Enabled        bool `yaml:"enabled"`
	MaxSubscribers int  `yaml:"max_subscribers" validate:"omitempty,min=1"`
}

// Default returns a KernelConfig usable for local development: an
// uncompressed journal under the given data directory, default rule
// limits, metrics and subscribe both off.
func Default(dataDir string) KernelConfig {
	return KernelConfig{
		DataDir:      dataDir,
		Journal:      JournalConfig{Mode: JournalModePlain},
		Rules:        RuleConfig{},
		QueryTimeout: 30 * time.Second,
		Metrics:      MetricsConfig{Enabled: false},
		Subscribe:    SubscribeConfig{Enabled: false, MaxSubscribers: 256},
	}
}

// Load reads and parses a YAML configuration file, then validates it.
func Load(path string) (KernelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return KernelConfig{}, err
	}

	cfg := Default("")
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return KernelConfig{}, err
	}

	if err := Validate(cfg); err != nil {
		return KernelConfig{}, err
	}
	return cfg, nil
}
