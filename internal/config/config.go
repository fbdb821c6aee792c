package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const appName = "mangadl"

// EnvPrefix prefixes environment overrides: MANGADL_DOWNLOADS_DIRECTORY.
const EnvPrefix = "MANGADL"

// Log formats
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config is the application configuration
type Config struct {
	Downloads DownloadsConfig `mapstructure:"downloads" yaml:"downloads"`
	Network   NetworkConfig   `mapstructure:"network" yaml:"network"`
	Converter ConverterConfig `mapstructure:"converter" yaml:"converter"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Clipboard ClipboardConfig `mapstructure:"clipboard" yaml:"clipboard"`
}

// DownloadsConfig controls where chapters go and how they are packaged
type DownloadsConfig struct {
	// Source is the site searched online: inmanga or comix
	Source      string `mapstructure:"source" yaml:"source"`
	Directory   string `mapstructure:"directory" yaml:"directory"`
	Format      string `mapstructure:"format" yaml:"format"`
	Profile     string `mapstructure:"profile" yaml:"profile"`
	Single      bool   `mapstructure:"single" yaml:"single"`
	Rotate      bool   `mapstructure:"rotate" yaml:"rotate"`
	FullSize    bool   `mapstructure:"fullsize" yaml:"fullsize"`
	RemoveAlpha bool   `mapstructure:"remove_alpha" yaml:"remove_alpha"`
	Concurrency int    `mapstructure:"concurrency" yaml:"concurrency"`
	// MinFreeSpace in megabytes
	MinFreeSpace int64 `mapstructure:"min_free_space" yaml:"min_free_space"`
	AssumeYes    bool  `mapstructure:"assume_yes" yaml:"assume_yes"`
}

// NetworkConfig configures the HTTP client
type NetworkConfig struct {
	BaseURL    string        `mapstructure:"base_url" yaml:"base_url"`
	ComixURL   string        `mapstructure:"comix_url" yaml:"comix_url"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
	UserAgent  string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// ConverterConfig configures the external KCC tool
type ConverterConfig struct {
	KCCPath     string `mapstructure:"kcc_path" yaml:"kcc_path"`
	MangaStyle  bool   `mapstructure:"manga_style" yaml:"manga_style"`
	HighQuality bool   `mapstructure:"high_quality" yaml:"high_quality"`
}

// LoggingConfig configures slog output
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
	Color      bool   `mapstructure:"color" yaml:"color"`
}

// DatabaseConfig configures the download history database
type DatabaseConfig struct {
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
	Path           string `mapstructure:"path" yaml:"path"`
	MaxConnections int    `mapstructure:"max_connections" yaml:"max_connections"`
	WALMode        bool   `mapstructure:"wal_mode" yaml:"wal_mode"`
	AutoVacuum     bool   `mapstructure:"auto_vacuum" yaml:"auto_vacuum"`
}

// ClipboardConfig configures copying the produced path
type ClipboardConfig struct {
	// Command replaces the system clipboard, e.g. "wl-copy"
	Command string `mapstructure:"command" yaml:"command"`
}

// DefaultUserAgent is sent unless the config overrides it
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

// SetDefaults registers every default value on v
func SetDefaults(v *viper.Viper) {
	// Downloads
	v.SetDefault("downloads.source", "inmanga")
	v.SetDefault("downloads.directory", "./manga")
	v.SetDefault("downloads.format", "MOBI")
	v.SetDefault("downloads.profile", "KPW")
	v.SetDefault("downloads.single", false)
	v.SetDefault("downloads.rotate", false)
	v.SetDefault("downloads.fullsize", false)
	v.SetDefault("downloads.remove_alpha", false)
	v.SetDefault("downloads.concurrency", 4)
	v.SetDefault("downloads.min_free_space", 100)
	v.SetDefault("downloads.assume_yes", false)

	// Network
	v.SetDefault("network.base_url", "https://inmanga.com")
	v.SetDefault("network.comix_url", "https://comix.to")
	v.SetDefault("network.timeout", 30*time.Second)
	v.SetDefault("network.max_retries", 3)
	v.SetDefault("network.user_agent", DefaultUserAgent)

	// Converter
	v.SetDefault("converter.kcc_path", "")
	v.SetDefault("converter.manga_style", true)
	v.SetDefault("converter.high_quality", true)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", LogFormatText)
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)
	v.SetDefault("logging.color", true)

	// Clipboard
	v.SetDefault("clipboard.command", "")

	// Database
	v.SetDefault("database.enabled", true)
	v.SetDefault("database.path", filepath.Join(GetDataDir(), appName+".db"))
	v.SetDefault("database.max_connections", 4)
	v.SetDefault("database.wal_mode", true)
	v.SetDefault("database.auto_vacuum", true)
}

// Load reads the configuration file at path, or the default location when
// path is empty. A missing default file is not an error, a missing explicit
// one is. A .env file in the working directory is loaded first so that it
// can carry MANGADL_ overrides.
func Load(path string) (*Config, *viper.Viper, error) {
	if err := LoadDotEnv(""); err != nil {
		return nil, nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(GetConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, v, nil
}

// Default returns the configuration made of defaults only
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg := &Config{}
	// defaults always decode
	_ = v.Unmarshal(cfg)
	return cfg
}

// Validate checks values that would otherwise fail deep inside a run
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Downloads.Directory) == "" {
		return errors.New("downloads.directory must not be empty")
	}
	if c.Downloads.Concurrency < 1 {
		return fmt.Errorf("downloads.concurrency must be at least 1, got %d", c.Downloads.Concurrency)
	}
	if c.Downloads.MinFreeSpace < 0 {
		return fmt.Errorf("downloads.min_free_space must not be negative, got %d", c.Downloads.MinFreeSpace)
	}
	if strings.TrimSpace(c.Downloads.Source) == "" {
		return errors.New("downloads.source must not be empty")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("network.max_retries must not be negative, got %d", c.Network.MaxRetries)
	}
	if c.Network.Timeout <= 0 {
		return fmt.Errorf("network.timeout must be positive, got %s", c.Network.Timeout)
	}
	switch strings.ToLower(c.Logging.Format) {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("logging.format must be %q or %q, got %q", LogFormatText, LogFormatJSON, c.Logging.Format)
	}
	if c.Database.Enabled && c.Database.MaxConnections < 1 {
		return fmt.Errorf("database.max_connections must be at least 1, got %d", c.Database.MaxConnections)
	}
	return nil
}

// SaveDefaultConfig writes the default configuration as YAML to path
func SaveDefaultConfig(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// LoadDotEnv loads environment variables from a .env file.
// If path is empty, it loads from ".env" in the current directory.
// A missing file is not an error and existing variables are not overridden.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	return godotenv.Load(path)
}

// InitializeDirs creates the config, data and state directories
func InitializeDirs() error {
	for _, dir := range []string{
		GetConfigDir(),
		GetDataDir(),
		filepath.Join(getStateDir(), appName),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetConfigDir returns $XDG_CONFIG_HOME/mangadl
func GetConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	return filepath.Join(homeDir(), ".config", appName)
}

// GetDataDir returns $XDG_DATA_HOME/mangadl
func GetDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	return filepath.Join(homeDir(), ".local", "share", appName)
}

// getStateDir returns $XDG_STATE_HOME without the application suffix
func getStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(homeDir(), ".local", "state")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
