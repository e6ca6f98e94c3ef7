// Package config provides configuration loading for the FSMS services.
//
// Configuration is loaded from a YAML file, then overridden by
// environment variables, then validated. Missing values fall back to
// hardcoded defaults so a bare deployment starts with no config file.
package config

import (
	"fmt"
	"time"

	"github.com/AmirShafiqueWR/rice-mill-fsms/internal/logging"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/control"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/vault"
)

// Config holds the complete FSMS service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       logging.Config  `koanf:"log"`
	Vault     vault.Config    `koanf:"vault"`
	Database  DatabaseConfig  `koanf:"database"`
	Audit     AuditConfig     `koanf:"audit"`
	Extractor ExtractorConfig `koanf:"extractor"`
	Tasks     TasksConfig     `koanf:"tasks"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds the document register backend settings. An empty
// URL selects the in-memory store.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// AuditConfig holds audit trail settings.
type AuditConfig struct {
	// LogPath is the JSON-lines audit log file. Empty disables the
	// file sink.
	LogPath string `koanf:"log_path"`
}

// ExtractorConfig holds compliance extraction settings.
type ExtractorConfig struct {
	// ConfigPath points at the extraction rules YAML. Empty uses the
	// built-in defaults.
	ConfigPath string `koanf:"config_path"`
}

// TasksConfig holds task lifecycle settings.
type TasksConfig struct {
	// DisposalPolicy decides what happens to tasks superseded by a
	// major revision: "obsolete" or "delete".
	DisposalPolicy string `koanf:"disposal_policy"`
}

// applyDefaults fills in zero values with production defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Vault.Incoming == "" {
		cfg.Vault.Incoming = "vault/incoming"
	}
	if cfg.Vault.Controlled == "" {
		cfg.Vault.Controlled = "vault/controlled"
	}
	if cfg.Vault.Archive == "" {
		cfg.Vault.Archive = "vault/archive"
	}
	if cfg.Audit.LogPath == "" {
		cfg.Audit.LogPath = "audit.log"
	}
	if cfg.Tasks.DisposalPolicy == "" {
		cfg.Tasks.DisposalPolicy = string(control.DisposalObsolete)
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must not be negative")
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	switch control.TaskDisposalPolicy(c.Tasks.DisposalPolicy) {
	case control.DisposalObsolete, control.DisposalDelete:
	default:
		return fmt.Errorf("tasks.disposal_policy must be %q or %q, got %q",
			control.DisposalObsolete, control.DisposalDelete, c.Tasks.DisposalPolicy)
	}
	return nil
}
