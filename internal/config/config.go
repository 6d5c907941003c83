package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Network holds the endpoints of a NEAR network.
type Network struct {
	ID          string
	NodeURL     string
	WalletURL   string
	HelperURL   string
	ExplorerURL string
}

var networks = map[string]Network{
	"mainnet": {
		ID:          "mainnet",
		NodeURL:     "https://rpc.mainnet.near.org",
		WalletURL:   "https://wallet.near.org",
		HelperURL:   "https://helper.mainnet.near.org",
		ExplorerURL: "https://explorer.mainnet.near.org",
	},
	"testnet": {
		ID:          "testnet",
		NodeURL:     "https://rpc.testnet.near.org",
		WalletURL:   "https://wallet.testnet.near.org",
		HelperURL:   "https://helper.testnet.near.org",
		ExplorerURL: "https://explorer.testnet.near.org",
	},
	"betanet": {
		ID:          "betanet",
		NodeURL:     "https://rpc.betanet.near.org",
		WalletURL:   "https://wallet.betanet.near.org",
		HelperURL:   "https://helper.betanet.near.org",
		ExplorerURL: "https://explorer.betanet.near.org",
	},
	"local": {
		ID:          "local",
		NodeURL:     "http://localhost:3030",
		WalletURL:   "http://localhost:4000/wallet",
		HelperURL:   "http://localhost:3000",
		ExplorerURL: "http://localhost:9001",
	},
}

// Config holds all configuration for the application.
type Config struct {
	Port    string
	Env     string
	Version string

	// Completion service
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	// Content-addressed storage
	StorageAPIKey   string
	StorageURL      string
	GatewayURL      string
	BackgroundImage string

	// Ledger
	Network        Network
	ContractName   string
	SignerID       string
	PrivateKey     string
	SetHaikuMethod string

	// Persistence
	DatabaseURL string
	SQLitePath  string
	RedisURL    string

	// Rate limiting
	RateLimitWhitelist []string // IPs or CIDRs exempt from rate limiting
	AutoBlockEnabled   bool     // Enable auto-blocking after repeated violations

	// Logging
	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

// Load reads configuration from environment variables.
// It loads a .env file first when one is present.
// In production, missing required variables are an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	networkID := getEnv("NEAR_NETWORK_ID", "testnet")
	network, ok := networks[networkID]
	if !ok {
		return nil, fmt.Errorf("unknown NEAR_NETWORK_ID %q", networkID)
	}
	network.NodeURL = getEnv("NEAR_NODE_URL", network.NodeURL)
	network.WalletURL = getEnv("NEAR_WALLET_URL", network.WalletURL)
	network.HelperURL = getEnv("NEAR_HELPER_URL", network.HelperURL)
	network.ExplorerURL = getEnv("NEAR_EXPLORER_URL", network.ExplorerURL)

	cfg := &Config{
		Port:    getEnv("PORT", "3000"),
		Env:     getEnv("ENV", "development"),
		Version: getEnv("VERSION", "0.1.0"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),

		StorageAPIKey:   os.Getenv("NFT_STORAGE_API_KEY"),
		StorageURL:      getEnv("NFT_STORAGE_URL", "https://api.nft.storage"),
		GatewayURL:      getEnv("IPFS_GATEWAY_URL", "https://nftstorage.link/ipfs/"),
		BackgroundImage: os.Getenv("HAIKU_BACKGROUND"),

		Network:        network,
		ContractName:   os.Getenv("CONTRACT_NAME"),
		PrivateKey:     os.Getenv("NEAR_PRIVATE_KEY"),
		SetHaikuMethod: getEnv("SET_HAIKU_METHOD", "set_haiku"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		SQLitePath:       os.Getenv("SQLITE_PATH"),
		RedisURL:         os.Getenv("REDIS_URL"),
		AutoBlockEnabled: getEnv("AUTO_BLOCK_ENABLED", "false") == "true",

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       os.Getenv("LOG_FILE"),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 50),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 14),
	}
	cfg.SignerID = getEnv("NEAR_SIGNER_ACCOUNT_ID", cfg.ContractName)

	// Parse whitelist (comma-separated IPs or CIDRs)
	if whitelist := os.Getenv("RATE_LIMIT_WHITELIST"); whitelist != "" {
		for _, entry := range strings.Split(whitelist, ",") {
			entry = strings.TrimSpace(entry)
			if entry != "" {
				cfg.RateLimitWhitelist = append(cfg.RateLimitWhitelist, entry)
			}
		}
	}

	if cfg.Env == "production" {
		for _, req := range []struct{ name, value string }{
			{"OPENAI_API_KEY", cfg.OpenAIAPIKey},
			{"CONTRACT_NAME", cfg.ContractName},
			{"NEAR_PRIVATE_KEY", cfg.PrivateKey},
		} {
			if req.value == "" {
				return nil, fmt.Errorf("%s is required in production", req.name)
			}
		}
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}
