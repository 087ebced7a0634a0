package config

import (
	"os"
	"strconv"
	"time"

	"dockwatch/domain/core"
)

// Config represents the complete application configuration.
// Values are read once at startup.
type Config struct {
	Backend  BackendConfig
	Chain    ChainConfig
	Server   ServerConfig
	Database DatabaseConfig
	Data     DataConfig
}

// BackendConfig holds the docking backend endpoints and timeouts
type BackendConfig struct {
	BaseURL        string
	WebSocketURL   string
	RequestTimeout time.Duration
	MaxRetries     int
}

// ChainConfig holds the anchoring chain settings
type ChainConfig struct {
	Network          string // devnet, testnet or mainnet
	RPCURL           string
	BlockRefTimeout  time.Duration
	ConfirmTimeout   time.Duration
	BroadcastRetries int
	// SignerSeed is the base64 ed25519 seed for the local keypair signer.
	// Anchoring routes stay disabled when it is empty.
	SignerSeed string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds optional job persistence settings
type DatabaseConfig struct {
	URL string
}

// DataConfig selects the fallback data source used when the backend is
// unreachable. Sample data is injected explicitly, never a hidden global.
type DataConfig struct {
	UseSampleData bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	baseURL := os.Getenv("BACKEND_BASE_URL")
	if baseURL == "" {
		return nil, core.NewValidationError("BACKEND_BASE_URL", "is required")
	}

	cfg := &Config{
		Backend: BackendConfig{
			BaseURL:        baseURL,
			WebSocketURL:   getEnvOrDefault("BACKEND_WS_URL", ""),
			RequestTimeout: getEnvDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
			MaxRetries:     getEnvIntOrDefault("REQUEST_MAX_RETRIES", 3),
		},
		Chain: ChainConfig{
			Network:          getEnvOrDefault("SOLANA_NETWORK", "devnet"),
			RPCURL:           getEnvOrDefault("SOLANA_RPC_URL", "https://api.devnet.solana.com"),
			BlockRefTimeout:  getEnvDurationOrDefault("BLOCKREF_TIMEOUT", 10*time.Second),
			ConfirmTimeout:   getEnvDurationOrDefault("CONFIRM_TIMEOUT", 30*time.Second),
			BroadcastRetries: getEnvIntOrDefault("BROADCAST_RETRIES", 3),
			SignerSeed:       getEnvOrDefault("SOLANA_SIGNER_SEED", ""),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Data: DataConfig{
			UseSampleData: getEnvBoolOrDefault("USE_SAMPLE_DATA", false),
		},
	}

	switch cfg.Chain.Network {
	case "devnet", "testnet", "mainnet":
	default:
		return nil, core.NewValidationError("SOLANA_NETWORK", "must be devnet, testnet or mainnet")
	}

	return cfg, nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
