package config

import (
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Peloton.CallbackPort != 8193 {
		t.Errorf("Peloton.CallbackPort = %d, want 8193", cfg.Peloton.CallbackPort)
	}
	if cfg.Athlete.FallbackFTP != 150 {
		t.Errorf("Athlete.FallbackFTP = %d, want 150", cfg.Athlete.FallbackFTP)
	}
	if cfg.Sync.PageSize != 20 {
		t.Errorf("Sync.PageSize = %d, want 20", cfg.Sync.PageSize)
	}
	if cfg.Sync.SampleIntervalS != 5 {
		t.Errorf("Sync.SampleIntervalS = %d, want 5", cfg.Sync.SampleIntervalS)
	}

	// Credentials should be empty by default
	if cfg.Peloton.ClientID != "" {
		t.Errorf("Peloton.ClientID should be empty, got %q", cfg.Peloton.ClientID)
	}
	if cfg.Peloton.EncryptionKey != "" {
		t.Errorf("Peloton.EncryptionKey should be empty, got %q", cfg.Peloton.EncryptionKey)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		cfg := DefaultConfig()
		cfg.Peloton.ClientID = "abc123"
		cfg.Peloton.EncryptionKey = "supersecret"
		return cfg
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errContains string
	}{
		{
			name:        "valid config",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "empty client ID",
			mutate:      func(c *Config) { c.Peloton.ClientID = "" },
			expectError: true,
			errContains: "client_id",
		},
		{
			name:        "placeholder client ID",
			mutate:      func(c *Config) { c.Peloton.ClientID = "YOUR_CLIENT_ID" },
			expectError: true,
			errContains: "client_id",
		},
		{
			name:        "placeholder encryption key",
			mutate:      func(c *Config) { c.Peloton.EncryptionKey = "CHANGE_ME" },
			expectError: true,
			errContains: "encryption_key",
		},
		{
			name:        "privileged callback port",
			mutate:      func(c *Config) { c.Peloton.CallbackPort = 80 },
			expectError: true,
			errContains: "callback_port",
		},
		{
			name:        "resting HR above max HR",
			mutate:      func(c *Config) { c.Athlete.RestingHR = 190 },
			expectError: true,
			errContains: "resting_hr",
		},
		{
			name:        "page size too large",
			mutate:      func(c *Config) { c.Sync.PageSize = 500 },
			expectError: true,
			errContains: "page_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.expectError {
				if err == nil {
					t.Fatal("Validate() = nil, want error")
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("Validate() error = %q, want it to contain %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}
