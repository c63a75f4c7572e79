package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr  string
	Env         string
	DatabaseURL string
	Bridge      BridgeConfig
	Backend     BackendConfig
	Dexscreener DexscreenerConfig
	Pricing     PricingConfig
	Tx          TxConfig
}

// BridgeConfig tunes the websocket wallet bridge.
type BridgeConfig struct {
	URL            string
	DetectFast     time.Duration
	DetectProbe    time.Duration
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
}

type BackendConfig struct {
	BaseURL string
	Token   string
}

type DexscreenerConfig struct {
	BaseURL string
}

type PricingConfig struct {
	SourceTimeout  time.Duration
	RefreshSpec    string // cron spec for the platform token price refresh
	PlatformToken  string // token address whose price is kept warm
	PlatformChain  uint64
	PlaceholderUSD string // display fallback, never reported as live data
}

type TxConfig struct {
	PollInterval    time.Duration
	PollAttempts    int
	DeployGasLimit  uint64
	ApproveGasLimit uint64
	StakeGasMargin  int // percent added on top of the live estimate
}

// LoadFromEnv reads configuration from environment variables with fallback
// defaults. It also loads `.env` if present (for local development).
func LoadFromEnv() *Config {
	// Load .env if exists, ignore error if no file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded, relying on environment variables")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("[FATAL] DATABASE_URL is required")
	}

	return &Config{
		ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
		Env:         getEnv("ENV", "dev"),
		DatabaseURL: databaseURL,
		Bridge: BridgeConfig{
			URL:            getEnv("WALLET_BRIDGE_URL", "ws://127.0.0.1:8546/wallet"),
			DetectFast:     getDuration("BRIDGE_DETECT_FAST", 300*time.Millisecond),
			DetectProbe:    getDuration("BRIDGE_DETECT_PROBE", 3*time.Second),
			RequestTimeout: getDuration("BRIDGE_REQUEST_TIMEOUT", 15*time.Second),
			ConnectTimeout: getDuration("BRIDGE_CONNECT_TIMEOUT", 60*time.Second),
		},
		Backend: BackendConfig{
			BaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:8000"),
			Token:   getEnv("BACKEND_TOKEN", ""),
		},
		Dexscreener: DexscreenerConfig{
			BaseURL: getEnv("DEXSCREENER_BASE_URL", "https://api.dexscreener.com"),
		},
		Pricing: PricingConfig{
			SourceTimeout:  getDuration("PRICE_SOURCE_TIMEOUT", 5*time.Second),
			RefreshSpec:    getEnv("PRICE_REFRESH_SPEC", "0 * * * * *"),
			PlatformToken:  getEnv("PLATFORM_TOKEN_ADDRESS", "0x264387ad73d19408e34b5d5e13a93174a35cea33"),
			PlatformChain:  getUint("PLATFORM_CHAIN_ID", 56),
			PlaceholderUSD: getEnv("PRICE_PLACEHOLDER_USD", "0.01"),
		},
		Tx: TxConfig{
			PollInterval:    getDuration("TX_POLL_INTERVAL", 2*time.Second),
			PollAttempts:    getInt("TX_POLL_ATTEMPTS", 45),
			DeployGasLimit:  getUint("DEPLOY_GAS_LIMIT", 3_000_000),
			ApproveGasLimit: getUint("APPROVE_GAS_LIMIT", 60_000),
			StakeGasMargin:  getInt("STAKE_GAS_MARGIN_PERCENT", 20),
		},
	}
}

// helper to get env with default fallback
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Fatalf("[FATAL] Invalid %s duration: %v", key, err)
	}
	return d
}

func getInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("[FATAL] Invalid %s: %v", key, err)
	}
	return n
}

func getUint(key string, fallback uint64) uint64 {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		log.Fatalf("[FATAL] Invalid %s: %v", key, err)
	}
	return n
}
