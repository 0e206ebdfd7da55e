package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/inbox-triage/internal/common"
)

// DefaultDatabasePath is where the settings database lives unless configured.
const DefaultDatabasePath = "$HOME/.local/share/triage/triage.db"

// DefaultCertDir holds the self-signed certificate of the settings server.
const DefaultCertDir = "$HOME/.local/share/triage/certs"

// Config holds the application configuration.
type Config struct {
	Database       DatabaseConfig       `mapstructure:"database"`
	User           UserConfig           `mapstructure:"user"`
	Server         ServerConfig         `mapstructure:"server"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Classification ClassificationConfig `mapstructure:"classification"`
	Sync           SyncConfig           `mapstructure:"sync"`
	Batch          BatchConfig          `mapstructure:"batch"`
}

// DatabaseConfig locates the settings database.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// UserConfig identifies the mailbox owner.
type UserConfig struct {
	Address string `mapstructure:"address"`
}

// ClassificationConfig tunes the classification pipeline.
type ClassificationConfig struct {
	JunkFolders []string `mapstructure:"junk_folders"`
}

// SyncConfig tunes settings synchronization.
type SyncConfig struct {
	DrainInterval time.Duration `mapstructure:"drain_interval"`
	NotifyDelay   time.Duration `mapstructure:"notify_delay"`
}

// BatchConfig tunes batch runs.
type BatchConfig struct {
	ChunkSize int `mapstructure:"chunk_size"`
	Workers   int `mapstructure:"workers"`
}

// ServerConfig configures the settings server started by serve.
type ServerConfig struct {
	Addr        string  `mapstructure:"addr"`
	CertDir     string  `mapstructure:"cert_dir"`
	ChangeRate  float64 `mapstructure:"change_rate"`  // Accepted changes per second, 0 for no limit
	ChangeBurst int     `mapstructure:"change_burst"`
	TLS         bool    `mapstructure:"tls"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("user.address", "")
	v.SetDefault("classification.junk_folders", []string{})
	v.SetDefault("sync.drain_interval", 2*time.Second)
	v.SetDefault("sync.notify_delay", 50*time.Millisecond)
	v.SetDefault("batch.chunk_size", 25)
	v.SetDefault("batch.workers", 0)
	v.SetDefault("server.addr", ":9464")
	v.SetDefault("server.tls", false)
	v.SetDefault("server.cert_dir", DefaultCertDir)
	v.SetDefault("server.change_rate", 5.0)
	v.SetDefault("server.change_burst", 10)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	cfg.Database.Path = ExpandPath(strings.TrimSpace(cfg.Database.Path))
	cfg.Server.CertDir = ExpandPath(strings.TrimSpace(cfg.Server.CertDir))
	cfg.User.Address = strings.TrimSpace(cfg.User.Address)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty", common.ErrMissingConfig)
	}
	if c.Server.TLS && c.Server.CertDir == "" {
		return fmt.Errorf("%w: server.cert_dir is required with server.tls", common.ErrMissingConfig)
	}
	if c.Server.ChangeRate < 0 || c.Server.ChangeBurst < 0 {
		return fmt.Errorf("%w: server change limits must not be negative", common.ErrInvalidConfig)
	}
	if c.Batch.ChunkSize < 0 {
		return fmt.Errorf("%w: batch.chunk_size must not be negative", common.ErrInvalidConfig)
	}
	if c.Batch.Workers < 0 {
		return fmt.Errorf("%w: batch.workers must not be negative", common.ErrInvalidConfig)
	}
	if c.Sync.DrainInterval < 0 || c.Sync.NotifyDelay < 0 {
		return fmt.Errorf("%w: sync intervals must not be negative", common.ErrInvalidConfig)
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}
