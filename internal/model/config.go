package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// SyncConfig holds tunables forwarded to the remote sync engine.
type SyncConfig struct {
	// PollIntervalSec is how often (in seconds) the selected account's
	// incremental sync runs in the background.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// ChunkSize is the batch size passed to incremental and full syncs.
	ChunkSize int `mapstructure:"chunk_size" yaml:"chunk_size"`

	// BlockFolder is the target folder for the apply-block-filter command.
	BlockFolder string `mapstructure:"block_folder" yaml:"block_folder"`

	// DefaultWindow raises the minimum cache window requested when an
	// account is first selected.
	DefaultWindow int `mapstructure:"default_fetch_window" yaml:"default_fetch_window"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration. Account profiles
// and credentials are not stored here; they live in the local store and
// the system keyring.
type AppConfig struct {
	Sync    SyncConfig    `mapstructure:"sync" yaml:"sync"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mailclient/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "mailclient", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Sync: SyncConfig{
			PollIntervalSec: 30,
			ChunkSize:       200,
			BlockFolder:     "Blocked",
			DefaultWindow:   2000,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("sync.poll_interval_sec", 30)
	v.SetDefault("sync.chunk_size", 200)
	v.SetDefault("sync.block_folder", "Blocked")
	v.SetDefault("sync.default_fetch_window", 2000)
	v.SetDefault("display.theme", "default")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Sync.PollIntervalSec <= 0 {
		cfg.Sync.PollIntervalSec = 30
	}
	if cfg.Sync.ChunkSize <= 0 {
		cfg.Sync.ChunkSize = 200
	}
	if cfg.Sync.DefaultWindow < 0 {
		cfg.Sync.DefaultWindow = 2000
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("sync", cfg.Sync)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
