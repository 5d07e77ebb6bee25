// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/smileynet/zoodesk/internal/logging"
	"github.com/smileynet/zoodesk/internal/store"
	"github.com/smileynet/zoodesk/internal/zoo"
)

// Config holds all zoodesk configuration.
type Config struct {
	API    API    `yaml:"api"`
	UI     UI     `yaml:"ui"`
	Log    Log    `yaml:"log"`
	Server Server `yaml:"server"`
}

// API holds settings for the services API client.
type API struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// UI holds dashboard and notice settings.
type UI struct {
	Role          string        `yaml:"role"` // "admin" | "employee"
	NoticeSuccess time.Duration `yaml:"notice_success"`
	NoticeError   time.Duration `yaml:"notice_error"`
}

// Log holds logger settings.
type Log struct {
	Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `yaml:"format"` // "text" | "json"
	File   string `yaml:"file"`   // Dashboard log destination
}

// Server holds settings for `zoodesk serve`.
type Server struct {
	Addr    string `yaml:"addr"`
	Store   string `yaml:"store"` // "memory" | "file" | "sqlite" | "postgres"
	DSN     string `yaml:"dsn"`
	Token   string `yaml:"token"`
	Metrics bool   `yaml:"metrics"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: API{
			BaseURL: "http://localhost:8080",
			Timeout: 10 * time.Second,
		},
		UI: UI{
			Role:          string(zoo.RoleAdmin),
			NoticeSuccess: 3 * time.Second,
			NoticeError:   5 * time.Second,
		},
		Log: Log{
			Level:  "warn",
			Format: "text",
			File:   ".zoodesk/zoodesk.log",
		},
		Server: Server{
			Addr:    ":8080",
			Store:   store.BackendMemory,
			Metrics: true,
		},
	}
}

// DefaultPaths returns the user and project config paths, lowest priority first.
func DefaultPaths() []string {
	return []string{
		os.ExpandEnv("$HOME/.config/zoodesk/config.yaml"),
		".zoodesk/config.yaml",
	}
}

// Load reads a single YAML config file at path and returns a Config.
// For merging multiple config sources, use LoadLayered instead.
// If the file does not exist, defaults are returned without error.
func Load(path string) (*Config, error) {
	return LoadLayered(path)
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("config: api.base_url cannot be empty")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: api.base_url must be an http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("config: api.timeout must be positive, got %v", c.API.Timeout)
	}
	if _, err := zoo.ParseRole(c.UI.Role); err != nil {
		return fmt.Errorf("config: ui.role: %w", err)
	}
	if c.UI.NoticeSuccess <= 0 {
		return fmt.Errorf("config: ui.notice_success must be positive, got %v", c.UI.NoticeSuccess)
	}
	if c.UI.NoticeError <= 0 {
		return fmt.Errorf("config: ui.notice_error must be positive, got %v", c.UI.NoticeError)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("config: log.format: %w", err)
	}
	switch c.Server.Store {
	case store.BackendMemory:
	case store.BackendFile, store.BackendSQLite, store.BackendPostgres:
		if c.Server.DSN == "" {
			return fmt.Errorf("config: server.dsn is required for store %q", c.Server.Store)
		}
	default:
		return fmt.Errorf("config: server.store must be one of memory, file, sqlite, postgres, got %q", c.Server.Store)
	}
	return nil
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: ZOODESK_API_URL, ZOODESK_API_TOKEN, ZOODESK_TIMEOUT,
// ZOODESK_ROLE, ZOODESK_LOG_LEVEL.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("ZOODESK_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("ZOODESK_API_TOKEN"); v != "" {
		c.API.Token = v
	}
	if v := os.Getenv("ZOODESK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid ZOODESK_TIMEOUT %q: %w", v, err)
		}
		c.API.Timeout = d
	}
	if v := os.Getenv("ZOODESK_ROLE"); v != "" {
		c.UI.Role = v
	}
	if v := os.Getenv("ZOODESK_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Role returns the parsed ui.role. Call Validate first.
func (c *Config) Role() zoo.Role {
	r, _ := zoo.ParseRole(c.UI.Role)
	return r
}

// LogOptions returns logger options for the log section. Call Validate first.
func (c *Config) LogOptions(w io.Writer) logging.Options {
	level, _ := logging.ParseLevel(c.Log.Level)
	format, _ := logging.ParseFormat(c.Log.Format)
	return logging.Options{Level: level, Format: format, Output: w}
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	API    *rawAPI    `yaml:"api"`
	UI     *rawUI     `yaml:"ui"`
	Log    *rawLog    `yaml:"log"`
	Server *rawServer `yaml:"server"`
}

type rawAPI struct {
	BaseURL *string        `yaml:"base_url"`
	Token   *string        `yaml:"token"`
	Timeout *time.Duration `yaml:"timeout"`
}

type rawUI struct {
	Role          *string        `yaml:"role"`
	NoticeSuccess *time.Duration `yaml:"notice_success"`
	NoticeError   *time.Duration `yaml:"notice_error"`
}

type rawLog struct {
	Level  *string `yaml:"level"`
	Format *string `yaml:"format"`
	File   *string `yaml:"file"`
}

type rawServer struct {
	Addr    *string `yaml:"addr"`
	Store   *string `yaml:"store"`
	DSN     *string `yaml:"dsn"`
	Token   *string `yaml:"token"`
	Metrics *bool   `yaml:"metrics"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		// Comment-only YAML files produce EOF with no decoded content.
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if a := layer.API; a != nil {
		set(&c.API.BaseURL, a.BaseURL)
		set(&c.API.Token, a.Token)
		set(&c.API.Timeout, a.Timeout)
	}
	if u := layer.UI; u != nil {
		set(&c.UI.Role, u.Role)
		set(&c.UI.NoticeSuccess, u.NoticeSuccess)
		set(&c.UI.NoticeError, u.NoticeError)
	}
	if l := layer.Log; l != nil {
		set(&c.Log.Level, l.Level)
		set(&c.Log.Format, l.Format)
		set(&c.Log.File, l.File)
	}
	if s := layer.Server; s != nil {
		set(&c.Server.Addr, s.Addr)
		set(&c.Server.Store, s.Store)
		set(&c.Server.DSN, s.DSN)
		set(&c.Server.Token, s.Token)
		set(&c.Server.Metrics, s.Metrics)
	}
}
