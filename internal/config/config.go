// Package config provides configuration management for the vesting console.
// It loads configuration from environment variables and .env files.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "github.com/vesting-console/internal/errors"
)

// EnvProduction is the APP_ENV value that turns missing identifiers into startup failures
const EnvProduction = "production"

// Config holds all application configuration
type Config struct {
	AppEnv      string
	Server      ServerConfig
	ContactsAPI ContactsAPIConfig
	Wallet      WalletConfig
	Chains      ChainsConfig
	Store       StoreConfig
	Token       TokenConfig
	Logging     LoggingConfig
}

// ServerConfig holds console HTTP server configuration
type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	WalletRPS       int // Requests per second allowed per connected wallet
	ComposeIdleTTL  time.Duration
}

// ContactsAPIConfig holds the remote contacts API configuration
type ContactsAPIConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64 // 0 disables outbound pacing
	BreakerFailures   int     // 0 disables the circuit breaker
	BreakerCooldown   time.Duration
}

// WalletConfig holds wallet-connection configuration
type WalletConfig struct {
	ConnectProjectID string
	Address          string // Wallet the console session starts with, optional
}

// ChainsConfig holds chain configuration
type ChainsConfig struct {
	Enabled []string
	Default string
	Chains  map[string]ChainConfig
}

// ChainConfig holds configuration for a specific chain
type ChainConfig struct {
	RPCPrimary   string
	RPCSecondary string
}

// StoreConfig holds contact store behaviour switches
type StoreConfig struct {
	ReconcileAfterMutation bool
	NotificationBuffer     int
}

// TokenConfig describes the token used by payroll and vesting panels
type TokenConfig struct {
	Address  string
	Decimals int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env file is optional - environment variables can be set directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, apperrors.NewConfigError(".env", err.Error())
	}

	appEnv := getEnv("APP_ENV", "development")

	// Production must name its contacts API explicitly.
	contactsURL := "http://localhost:5000/api/workers"
	if strings.EqualFold(appEnv, EnvProduction) {
		contactsURL = ""
	}

	config := &Config{
		AppEnv: appEnv,
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Host:            getEnv("SERVER_HOST", "127.0.0.1"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			WalletRPS:       getEnvAsInt("SERVER_WALLET_RPS", 20),
			ComposeIdleTTL:  getEnvAsDuration("SERVER_COMPOSE_IDLE_TTL", 30*time.Minute),
		},
		ContactsAPI: ContactsAPIConfig{
			BaseURL:           strings.TrimRight(getEnv("CONTACTS_API_URL", contactsURL), "/"),
			Timeout:           getEnvAsDuration("CONTACTS_API_TIMEOUT", 10*time.Second),
			RequestsPerSecond: getEnvAsFloat("CONTACTS_API_RPS", 0),
			BreakerFailures:   getEnvAsInt("CONTACTS_API_BREAKER_FAILURES", 5),
			BreakerCooldown:   getEnvAsDuration("CONTACTS_API_BREAKER_COOLDOWN", 30*time.Second),
		},
		Wallet: WalletConfig{
			ConnectProjectID: getEnv("WALLETCONNECT_PROJECT_ID", ""),
			Address:          getEnv("WALLET_ADDRESS", ""),
		},
		Store: StoreConfig{
			ReconcileAfterMutation: getEnvAsBool("CONTACTS_RECONCILE", false),
			NotificationBuffer:     getEnvAsInt("NOTIFICATION_BUFFER", 50),
		},
		Token: TokenConfig{
			Address:  getEnv("PAYROLL_TOKEN_ADDRESS", ""),
			Decimals: getEnvAsInt("PAYROLL_TOKEN_DECIMALS", 18),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	config.Chains = loadChainConfigs()

	return config, nil
}

// IsProduction reports whether the console runs with production guarantees
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, EnvProduction)
}

// Validate checks the settings the console cannot start without
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.Wallet.ConnectProjectID == "" {
			return apperrors.NewConfigError("WALLETCONNECT_PROJECT_ID", "is required in production")
		}
		if c.ContactsAPI.BaseURL == "" {
			return apperrors.NewConfigError("CONTACTS_API_URL", "is required in production")
		}
	}
	if c.Token.Decimals < 0 || c.Token.Decimals > 36 {
		return apperrors.NewConfigError("PAYROLL_TOKEN_DECIMALS", "must be between 0 and 36")
	}
	if c.Chains.Default != "" {
		if _, ok := c.Chains.Chains[c.Chains.Default]; !ok {
			return apperrors.NewConfigError("DEFAULT_CHAIN", "must be one of ENABLED_CHAINS")
		}
	}
	return nil
}

// DefaultChain returns the configuration of the chain panels read from
func (c *Config) DefaultChain() (ChainConfig, bool) {
	chain, ok := c.Chains.Chains[c.Chains.Default]
	return chain, ok
}

// loadChainConfigs loads chain-specific configurations
func loadChainConfigs() ChainsConfig {
	var enabled []string
	chains := make(map[string]ChainConfig)
	for _, chain := range strings.Split(getEnv("ENABLED_CHAINS", "ethereum,sepolia"), ",") {
		chain = strings.TrimSpace(chain)
		if chain == "" {
			continue
		}

		prefix := strings.ToUpper(chain)
		chains[chain] = ChainConfig{
			RPCPrimary:   getEnv(prefix+"_RPC_PRIMARY", ""),
			RPCSecondary: getEnv(prefix+"_RPC_SECONDARY", ""),
		}
		enabled = append(enabled, chain)
	}

	def := getEnv("DEFAULT_CHAIN", "")
	if def == "" && len(enabled) > 0 {
		def = enabled[0]
	}

	return ChainsConfig{
		Enabled: enabled,
		Default: def,
		Chains:  chains,
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a bool with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}
