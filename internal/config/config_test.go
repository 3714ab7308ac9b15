package config

import (
	"testing"
	"time"

	apperrors "github.com/vesting-console/internal/errors"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CONTACTS_API_URL", "https://contacts.example.com/api/workers/")
	t.Setenv("CONTACTS_API_TIMEOUT", "3s")
	t.Setenv("CONTACTS_RECONCILE", "true")
	t.Setenv("ENABLED_CHAINS", "sepolia, ethereum")
	t.Setenv("SEPOLIA_RPC_PRIMARY", "https://rpc.sepolia.example")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %v, want %v", cfg.Server.Port, "9090")
	}
	if cfg.ContactsAPI.BaseURL != "https://contacts.example.com/api/workers" {
		t.Errorf("ContactsAPI.BaseURL = %v, trailing slash should be trimmed", cfg.ContactsAPI.BaseURL)
	}
	if cfg.ContactsAPI.Timeout != 3*time.Second {
		t.Errorf("ContactsAPI.Timeout = %v, want %v", cfg.ContactsAPI.Timeout, 3*time.Second)
	}
	if cfg.Server.ComposeIdleTTL != 30*time.Minute {
		t.Errorf("Server.ComposeIdleTTL = %v, want %v", cfg.Server.ComposeIdleTTL, 30*time.Minute)
	}
	if !cfg.Store.ReconcileAfterMutation {
		t.Error("Store.ReconcileAfterMutation = false, want true")
	}
	if cfg.Chains.Default != "sepolia" {
		t.Errorf("Chains.Default = %v, want first enabled chain", cfg.Chains.Default)
	}
	chain, ok := cfg.DefaultChain()
	if !ok || chain.RPCPrimary != "https://rpc.sepolia.example" {
		t.Errorf("DefaultChain() = %+v, %v", chain, ok)
	}
}

func TestLoadConfig_ProductionNeedsContactsURL(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("WALLETCONNECT_PROJECT_ID", "abc123")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.ContactsAPI.BaseURL != "" {
		t.Errorf("ContactsAPI.BaseURL = %v, want no default in production", cfg.ContactsAPI.BaseURL)
	}

	catErr := apperrors.Categorize(cfg.Validate())
	if catErr == nil || catErr.Details["key"] != "CONTACTS_API_URL" {
		t.Fatalf("Validate() = %v, want CONTACTS_API_URL config error", catErr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantKey string
	}{
		{
			name:   "development without project id is fine",
			mutate: func(c *Config) {},
		},
		{
			name: "production requires wallet connect project id",
			mutate: func(c *Config) {
				c.AppEnv = EnvProduction
				c.Wallet.ConnectProjectID = ""
			},
			wantKey: "WALLETCONNECT_PROJECT_ID",
		},
		{
			name: "production with project id passes",
			mutate: func(c *Config) {
				c.AppEnv = "Production"
				c.Wallet.ConnectProjectID = "abc123"
			},
		},
		{
			name: "decimals out of range",
			mutate: func(c *Config) {
				c.Token.Decimals = 77
			},
			wantKey: "PAYROLL_TOKEN_DECIMALS",
		},
		{
			name: "default chain must be enabled",
			mutate: func(c *Config) {
				c.Chains.Default = "polygon"
			},
			wantKey: "DEFAULT_CHAIN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				AppEnv:      "development",
				ContactsAPI: ContactsAPIConfig{BaseURL: "http://localhost:5000"},
				Token:       TokenConfig{Decimals: 18},
				Chains: ChainsConfig{
					Default: "ethereum",
					Chains:  map[string]ChainConfig{"ethereum": {}},
				},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantKey == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			catErr := apperrors.Categorize(err)
			if catErr == nil || catErr.Category != apperrors.CategoryConfig {
				t.Fatalf("Validate() error = %v, want config error", err)
			}
			if catErr.Details["key"] != tt.wantKey {
				t.Errorf("config error key = %v, want %v", catErr.Details["key"], tt.wantKey)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_KEY", "custom")

	if got := getEnv("TEST_KEY", "default"); got != "custom" {
		t.Errorf("getEnv() = %v, want custom", got)
	}
	if got := getEnv("NONEXISTENT_KEY", "default"); got != "default" {
		t.Errorf("getEnv() = %v, want default", got)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		want         int
	}{
		{name: "returns integer when valid", key: "TEST_INT", defaultValue: 100, envValue: "200", want: 200},
		{name: "returns default when invalid", key: "TEST_INT_INVALID", defaultValue: 100, envValue: "invalid", want: 100},
		{name: "returns default when not set", key: "TEST_INT_NOTSET", defaultValue: 100, envValue: "", want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}
			if got := getEnvAsInt(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnvAsInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsBoolAndFloat(t *testing.T) {
	t.Setenv("TEST_BOOL", "yes-please")
	t.Setenv("TEST_FLOAT", "2.5")

	if got := getEnvAsBool("TEST_BOOL", true); !got {
		t.Error("getEnvAsBool() should fall back to default on unparsable input")
	}
	if got := getEnvAsFloat("TEST_FLOAT", 0); got != 2.5 {
		t.Errorf("getEnvAsFloat() = %v, want 2.5", got)
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue time.Duration
		envValue     string
		want         time.Duration
	}{
		{name: "returns duration when valid", key: "TEST_DURATION", defaultValue: 10 * time.Second, envValue: "30s", want: 30 * time.Second},
		{name: "returns default when invalid", key: "TEST_DURATION_INVALID", defaultValue: 10 * time.Second, envValue: "invalid", want: 10 * time.Second},
		{name: "returns default when not set", key: "TEST_DURATION_NOTSET", defaultValue: 10 * time.Second, envValue: "", want: 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}
			if got := getEnvAsDuration(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnvAsDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}
