// ABOUTME: Application configuration stored at XDG paths with .env and environment overrides
// ABOUTME: Holds autosave, upload retry, remote backend, photo storage, and device identity settings
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/oklog/ulid/v2"
)

const (
	// AppName names the data directory and the charm KV database.
	AppName = "hazardos"

	ConfigFileName = "config.json"

	DefaultCharmHost = "cloud.charm.sh"
)

// Remote backend drivers.
const (
	DriverMemory   = "memory"
	DriverREST     = "rest"
	DriverPostgres = "postgres"
)

type UploadConfig struct {
	MaxAttempts     int           `json:"max_attempts"`
	InitialInterval time.Duration `json:"initial_interval"`
	MaxInterval     time.Duration `json:"max_interval"`
	Concurrency     int           `json:"concurrency"`
}

type RemoteConfig struct {
	Driver       string `json:"driver"`
	BaseURL      string `json:"base_url,omitempty"`
	TokenURL     string `json:"token_url,omitempty"`
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
	DatabaseURL  string `json:"database_url,omitempty"`
}

type StorageConfig struct {
	Bucket        string `json:"bucket,omitempty"`
	Region        string `json:"region,omitempty"`
	Endpoint      string `json:"endpoint,omitempty"`
	PathStyle     bool   `json:"path_style"`
	PublicBaseURL string `json:"public_base_url,omitempty"`
}

// CacheConfig selects the charm server backing the local draft cache.
type CacheConfig struct {
	Host     string `json:"host,omitempty"`
	AutoSync bool   `json:"auto_sync"`
}

type Config struct {
	DeviceID       string `json:"device_id"`
	OrganizationID string `json:"organization_id,omitempty"`

	AutosaveInterval time.Duration `json:"autosave_interval"`
	SubmitTimeout    time.Duration `json:"submit_timeout"`
	SwipeThreshold   float64       `json:"swipe_threshold"`
	HealthURL        string        `json:"health_url,omitempty"`
	ProbeInterval    time.Duration `json:"probe_interval"`

	Upload  UploadConfig  `json:"upload"`
	Remote  RemoteConfig  `json:"remote"`
	Storage StorageConfig `json:"storage"`
	Cache   CacheConfig   `json:"cache"`
}

// Default returns a config with every tunable at its standard value.
func Default() *Config {
	return &Config{
		AutosaveInterval: 30 * time.Second,
		SubmitTimeout:    120 * time.Second,
		SwipeThreshold:   50,
		ProbeInterval:    15 * time.Second,
		Upload: UploadConfig{
			MaxAttempts:     5,
			InitialInterval: 2 * time.Second,
			MaxInterval:     time.Minute,
			Concurrency:     3,
		},
		Remote: RemoteConfig{Driver: DriverMemory},
		Storage: StorageConfig{
			Region: "us-east-1",
		},
		Cache: CacheConfig{
			Host:     DefaultCharmHost,
			AutoSync: true,
		},
	}
}

// DataDir is the XDG data directory for all local state.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Path returns the default config file location.
func Path() string {
	return filepath.Join(DataDir(), ConfigFileName)
}

// DatabasePath returns the default SQLite path.
func DatabasePath() string {
	return filepath.Join(DataDir(), AppName+".db")
}

// LoadDotEnv reads KEY=VALUE pairs from the given files (default ".env").
// Missing files are ignored; variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the config from the default path.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config at path, falling back to defaults when the file is absent.
// Environment variables override file values:
// - HAZARDOS_DEVICE_ID
// - HAZARDOS_ORG_ID
// - HAZARDOS_AUTOSAVE_INTERVAL, HAZARDOS_SUBMIT_TIMEOUT (Go durations)
// - HAZARDOS_HEALTH_URL
// - HAZARDOS_UPLOAD_MAX_ATTEMPTS
// - HAZARDOS_REMOTE_DRIVER, HAZARDOS_REMOTE_URL, HAZARDOS_TOKEN_URL,
//   HAZARDOS_CLIENT_ID, HAZARDOS_CLIENT_SECRET, HAZARDOS_DATABASE_URL
// - HAZARDOS_S3_BUCKET, HAZARDOS_S3_REGION, HAZARDOS_S3_ENDPOINT,
//   HAZARDOS_S3_PATH_STYLE, HAZARDOS_S3_PUBLIC_URL
// - HAZARDOS_CHARM_HOST
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) fillDefaults() {
	d := Default()
	if c.AutosaveInterval <= 0 {
		c.AutosaveInterval = d.AutosaveInterval
	}
	if c.SubmitTimeout <= 0 {
		c.SubmitTimeout = d.SubmitTimeout
	}
	if c.SwipeThreshold <= 0 {
		c.SwipeThreshold = d.SwipeThreshold
	}
	if c.ProbeInterval <= 0 {
		c.ProbeInterval = d.ProbeInterval
	}
	if c.Upload.MaxAttempts <= 0 {
		c.Upload.MaxAttempts = d.Upload.MaxAttempts
	}
	if c.Upload.InitialInterval <= 0 {
		c.Upload.InitialInterval = d.Upload.InitialInterval
	}
	if c.Upload.MaxInterval <= 0 {
		c.Upload.MaxInterval = d.Upload.MaxInterval
	}
	if c.Upload.Concurrency <= 0 {
		c.Upload.Concurrency = d.Upload.Concurrency
	}
	if c.Remote.Driver == "" {
		c.Remote.Driver = d.Remote.Driver
	}
	if c.Storage.Region == "" {
		c.Storage.Region = d.Storage.Region
	}
	if c.Cache.Host == "" {
		c.Cache.Host = d.Cache.Host
	}
}

func applyEnvOverrides(cfg *Config) error {
	str := map[string]*string{
		"HAZARDOS_DEVICE_ID":     &cfg.DeviceID,
		"HAZARDOS_ORG_ID":        &cfg.OrganizationID,
		"HAZARDOS_HEALTH_URL":    &cfg.HealthURL,
		"HAZARDOS_REMOTE_DRIVER": &cfg.Remote.Driver,
		"HAZARDOS_REMOTE_URL":    &cfg.Remote.BaseURL,
		"HAZARDOS_TOKEN_URL":     &cfg.Remote.TokenURL,
		"HAZARDOS_CLIENT_ID":     &cfg.Remote.ClientID,
		"HAZARDOS_CLIENT_SECRET": &cfg.Remote.ClientSecret,
		"HAZARDOS_DATABASE_URL":  &cfg.Remote.DatabaseURL,
		"HAZARDOS_S3_BUCKET":     &cfg.Storage.Bucket,
		"HAZARDOS_S3_REGION":     &cfg.Storage.Region,
		"HAZARDOS_S3_ENDPOINT":   &cfg.Storage.Endpoint,
		"HAZARDOS_S3_PUBLIC_URL": &cfg.Storage.PublicBaseURL,
		"HAZARDOS_CHARM_HOST":    &cfg.Cache.Host,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"HAZARDOS_AUTOSAVE_INTERVAL": &cfg.AutosaveInterval,
		"HAZARDOS_SUBMIT_TIMEOUT":    &cfg.SubmitTimeout,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = d
		}
	}

	if v := os.Getenv("HAZARDOS_UPLOAD_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid HAZARDOS_UPLOAD_MAX_ATTEMPTS: %w", err)
		}
		cfg.Upload.MaxAttempts = n
	}
	if v := os.Getenv("HAZARDOS_S3_PATH_STYLE"); v != "" {
		cfg.Storage.PathStyle = v == "true" || v == "1"
	}
	return nil
}

// Save writes the config to the default path.
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo writes the config to path with owner-only permissions.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// EnsureDeviceID assigns a device id if none is set and reports whether it did.
func (c *Config) EnsureDeviceID() bool {
	if c.DeviceID != "" {
		return false
	}
	c.DeviceID = GenerateDeviceID()
	return true
}

// GenerateDeviceID generates a new ULID for device identification.
func GenerateDeviceID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// RemoteConfigured reports whether a non-memory backend has what it needs.
func (c *Config) RemoteConfigured() bool {
	switch c.Remote.Driver {
	case DriverREST:
		return c.Remote.BaseURL != ""
	case DriverPostgres:
		return c.Remote.DatabaseURL != ""
	}
	return c.Remote.Driver == DriverMemory
}
