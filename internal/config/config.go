package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the application configuration
type Config struct {
	Peloton PelotonConfig `json:"peloton"`
	Athlete AthleteConfig `json:"athlete"`
	Sync    SyncConfig    `json:"sync"`
}

// PelotonConfig holds Peloton API client settings
type PelotonConfig struct {
	ClientID string `json:"client_id"`
	// EncryptionKey protects stored credentials and tokens at rest.
	EncryptionKey string `json:"encryption_key"`
	CallbackPort  int    `json:"callback_port"`
}

// AthleteConfig holds athlete-specific settings used when the account
// has no recorded FTP or pace zones for a workout's date
type AthleteConfig struct {
	FallbackFTP int     `json:"fallback_ftp"`
	RestingHR   float64 `json:"resting_hr"`
	MaxHR       float64 `json:"max_hr"`
}

// SyncConfig holds sync tuning knobs
type SyncConfig struct {
	PageSize        int `json:"page_size"`
	MaxRetries      int `json:"max_retries"`
	SampleIntervalS int `json:"sample_interval_seconds"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Peloton: PelotonConfig{
			CallbackPort: 8193,
		},
		Athlete: AthleteConfig{
			FallbackFTP: 150,
			RestingHR:   50,
			MaxHR:       185,
		},
		Sync: SyncConfig{
			PageSize:        20,
			MaxRetries:      3,
			SampleIntervalS: 5,
		},
	}
}

// Load reads the configuration from ~/.pelosync/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults for missing values
	defaults := DefaultConfig()
	if cfg.Peloton.CallbackPort == 0 {
		cfg.Peloton.CallbackPort = defaults.Peloton.CallbackPort
	}
	if cfg.Athlete.FallbackFTP == 0 {
		cfg.Athlete.FallbackFTP = defaults.Athlete.FallbackFTP
	}
	if cfg.Athlete.RestingHR == 0 {
		cfg.Athlete.RestingHR = defaults.Athlete.RestingHR
	}
	if cfg.Athlete.MaxHR == 0 {
		cfg.Athlete.MaxHR = defaults.Athlete.MaxHR
	}
	if cfg.Sync.PageSize == 0 {
		cfg.Sync.PageSize = defaults.Sync.PageSize
	}
	if cfg.Sync.MaxRetries == 0 {
		cfg.Sync.MaxRetries = defaults.Sync.MaxRetries
	}
	if cfg.Sync.SampleIntervalS == 0 {
		cfg.Sync.SampleIntervalS = defaults.Sync.SampleIntervalS
	}

	return &cfg, nil
}

// Save writes the configuration to ~/.pelosync/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Peloton.ClientID = "YOUR_CLIENT_ID"
	example.Peloton.EncryptionKey = "CHANGE_ME"

	return Save(&example)
}

// Validate checks if the config has required fields
func (c *Config) Validate() error {
	if c.Peloton.ClientID == "" || c.Peloton.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("peloton.client_id is required")
	}
	if c.Peloton.EncryptionKey == "" || c.Peloton.EncryptionKey == "CHANGE_ME" {
		return errors.New("peloton.encryption_key is required to protect stored credentials")
	}
	if c.Peloton.CallbackPort < 1024 || c.Peloton.CallbackPort > 65535 {
		return fmt.Errorf("peloton.callback_port must be between 1024 and 65535, got %d", c.Peloton.CallbackPort)
	}
	if c.Athlete.FallbackFTP < 0 {
		return fmt.Errorf("athlete.fallback_ftp must not be negative, got %d", c.Athlete.FallbackFTP)
	}
	if c.Athlete.RestingHR > 0 && c.Athlete.MaxHR > 0 && c.Athlete.RestingHR >= c.Athlete.MaxHR {
		return fmt.Errorf("athlete.resting_hr (%v) must be less than athlete.max_hr (%v)", c.Athlete.RestingHR, c.Athlete.MaxHR)
	}
	if c.Sync.PageSize < 1 || c.Sync.PageSize > 100 {
		return fmt.Errorf("sync.page_size must be between 1 and 100, got %d", c.Sync.PageSize)
	}
	return nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".pelosync", "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".pelosync"), nil
}
