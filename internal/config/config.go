package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by REDRESS_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("REDRESS_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// DatabaseURL returns the Postgres connection string. Empty means run on
// the in-memory stores.
func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

// ExtractProvider returns the configured fact-extraction provider.
// Defaults to "openai" if not set.
// Valid values: openai, gemini, mock
func ExtractProvider() string {
	p := os.Getenv("EXTRACT_PROVIDER")
	if p == "" {
		return "openai"
	}
	return p
}

// ExtractAPIKey returns the API key for the configured extraction provider.
func ExtractAPIKey() string {
	switch ExtractProvider() {
	case "gemini":
		return GeminiAPIKey()
	case "mock":
		return ""
	default:
		return OpenAIAPIKey()
	}
}

// PolicyPath points at the JSON policy table. Empty means use the
// built-in defaults.
func PolicyPath() string {
	return os.Getenv("POLICY_PATH")
}

func PAAPIAccessKey() string {
	return os.Getenv("PAAPI_ACCESS_KEY")
}

func PAAPISecretKey() string {
	return os.Getenv("PAAPI_SECRET_KEY")
}

func PAAPIPartnerTag() string {
	return os.Getenv("PAAPI_PARTNER_TAG")
}

func PAAPIHost() string {
	return os.Getenv("PAAPI_HOST")
}

func PAAPIRegion() string {
	return os.Getenv("PAAPI_REGION")
}

// PriceCacheTTL returns how long looked-up prices stay cached.
// Defaults to 15 minutes if not set.
func PriceCacheTTL() time.Duration {
	ttl, err := time.ParseDuration(os.Getenv("PRICE_CACHE_TTL"))
	if err != nil || ttl <= 0 {
		return 15 * time.Minute
	}
	return ttl
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
