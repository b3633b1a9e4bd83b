package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bryanchriswhite/taskwatch/internal/desktop"
	"github.com/bryanchriswhite/taskwatch/internal/icon"
	"github.com/bryanchriswhite/taskwatch/internal/logger"
	"github.com/bryanchriswhite/taskwatch/internal/window"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. TASKWATCH_LOG_LEVEL or
// TASKWATCH_ICONS_SIZE.
const EnvPrefix = "TASKWATCH"

// IconsConfig controls icon resolution.
type IconsConfig struct {
	Size          int    `json:"size" yaml:"size" mapstructure:"size"`
	Scale         int    `json:"scale" yaml:"scale" mapstructure:"scale"`
	FallbackTheme string `json:"fallback_theme" yaml:"fallback_theme" mapstructure:"fallback_theme"`
	// Theme pins the icon theme instead of asking the desktop.
	Theme           string   `json:"theme,omitempty" yaml:"theme,omitempty" mapstructure:"theme"`
	SearchDirs      []string `json:"search_dirs" yaml:"search_dirs" mapstructure:"search_dirs"`
	ApplicationDirs []string `json:"application_dirs" yaml:"application_dirs" mapstructure:"application_dirs"`
}

// Config represents the application configuration
type Config struct {
	LogLevel        string        `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogPretty       bool          `json:"log_pretty" yaml:"log_pretty" mapstructure:"log_pretty"`
	Display         string        `json:"display" yaml:"display" mapstructure:"display"`
	EventBuffer     int           `json:"event_buffer" yaml:"event_buffer" mapstructure:"event_buffer"`
	InitialFullScan bool          `json:"initial_full_scan" yaml:"initial_full_scan" mapstructure:"initial_full_scan"`
	ServerPort      int           `json:"server_port" yaml:"server_port" mapstructure:"server_port"`
	Filter          window.Filter `json:"filter" yaml:"filter" mapstructure:"filter"`
	Icons           IconsConfig   `json:"icons" yaml:"icons" mapstructure:"icons"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		LogLevel:    "info",
		EventBuffer: window.DefaultBuffer,
		ServerPort:  8787,
		Filter:      window.DefaultFilter(),
		Icons: IconsConfig{
			Size:          48,
			Scale:         1,
			FallbackTheme: icon.FallbackTheme,
		},
	}
}

// SetDefaults registers every key with v so that environment overrides
// and Unmarshal see it even when no config file exists.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_pretty", d.LogPretty)
	v.SetDefault("display", d.Display)
	v.SetDefault("event_buffer", d.EventBuffer)
	v.SetDefault("initial_full_scan", d.InitialFullScan)
	v.SetDefault("server_port", d.ServerPort)
	v.SetDefault("filter.self_title", d.Filter.SelfTitle)
	v.SetDefault("filter.self_classes", d.Filter.SelfClasses)
	v.SetDefault("filter.deny_exact", d.Filter.DenyExact)
	v.SetDefault("filter.deny_contains", d.Filter.DenyContains)
	v.SetDefault("icons.size", d.Icons.Size)
	v.SetDefault("icons.scale", d.Icons.Scale)
	v.SetDefault("icons.fallback_theme", d.Icons.FallbackTheme)
	v.SetDefault("icons.theme", d.Icons.Theme)
	v.SetDefault("icons.search_dirs", []string{})
	v.SetDefault("icons.application_dirs", []string{})
}

// DefaultPath returns $HOME/.config/taskwatch/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "taskwatch", "config.yaml"), nil
}

// Manager handles configuration
type Manager struct {
	configPath string
	fromFile   bool
	v          *viper.Viper
	config     *Config
	mu         sync.RWMutex
}

// NewManager loads configuration from configFile (the default path when
// empty) layered over defaults and environment overrides. Flags bound to
// v take precedence over both. A missing file is not an error. A nil v
// gets a fresh viper instance.
func NewManager(configFile string, v *viper.Viper) (*Manager, error) {
	if v == nil {
		v = viper.New()
	}

	path := configFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	m := &Manager{configPath: path, v: v}

	log := logger.WithComponent("config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Debug().Str("path", path).Msg("Config file not found, using defaults")
	} else {
		m.fromFile = true
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m.config = &cfg

	log.Debug().
		Str("path", path).
		Bool("from_file", m.fromFile).
		Msg("Config loaded")
	return m, nil
}

// Validate rejects values the components cannot run with.
func (c *Config) Validate() error {
	if c.EventBuffer <= 0 {
		return fmt.Errorf("event_buffer must be positive, got %d", c.EventBuffer)
	}
	if c.ServerPort < 0 || c.ServerPort > 65535 {
		return fmt.Errorf("server_port out of range: %d", c.ServerPort)
	}
	if c.Icons.Size <= 0 {
		return fmt.Errorf("icons.size must be positive, got %d", c.Icons.Size)
	}
	if c.Icons.Scale <= 0 {
		return fmt.Errorf("icons.scale must be positive, got %d", c.Icons.Scale)
	}
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg := *m.config
	return &cfg
}

// GetViper exposes the underlying viper instance for key lookups.
func (m *Manager) GetViper() *viper.Viper {
	return m.v
}

// GetConfigPath returns the path to the config file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// FromFile reports whether a config file was read.
func (m *Manager) FromFile() bool {
	return m.fromFile
}

// Save writes the current configuration to the config file as YAML.
func (m *Manager) Save() error {
	cfg := m.Get()

	configDir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	logger.WithComponent("config").Info().
		Str("path", m.configPath).
		Msg("Config saved")
	return nil
}

// IconOptions turns the icons section into resolver options. Empty
// directory lists fall back to the XDG defaults under home.
func (c *Config) IconOptions(home string) icon.Options {
	appDirs := c.Icons.ApplicationDirs
	if len(appDirs) == 0 {
		appDirs = desktop.DefaultDirs(home)
	}

	baseDirs := c.Icons.SearchDirs
	if len(baseDirs) == 0 {
		baseDirs = icon.DefaultBaseDirs(home, os.Getenv("XDG_DATA_HOME"), filepath.SplitList(os.Getenv("XDG_DATA_DIRS")))
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}

	detector := icon.DefaultThemeDetector(configHome)
	if c.Icons.FallbackTheme != "" {
		detector.Fallback = c.Icons.FallbackTheme
	}

	return icon.Options{
		ApplicationDirs: appDirs,
		BaseDirs:        baseDirs,
		Size:            c.Icons.Size,
		Scale:           c.Icons.Scale,
		FallbackTheme:   c.Icons.FallbackTheme,
		Theme:           c.Icons.Theme,
		Detector:        detector,
	}
}
