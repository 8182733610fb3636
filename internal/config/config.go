package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	// Server
	HTTPAddr  string
	LogLevel  string
	AuthToken string // static bearer token for the API; empty disables auth

	// Generation API
	APIKey      string // explicit key; per-provider env vars are the fallback
	APIBaseURL  string // override for the chat-completions base URL (OpenRouter provider)
	ModelText   string // prompt expansion, e.g. gemini-2.5-flash
	ModelImage  string // image generation, e.g. gemini-2.5-flash-image
	ModelVision string // scenario recommendation, e.g. gemini-2.5-flash

	// Providers used by the pipeline (fixed per call-site, not per preset)
	ExpansionProvider string
	ImageProvider     string

	// Background removal collaborator
	RemovalEndpoint string
	RemovalTimeout  time.Duration

	// Pipeline
	CompletedResetDelay time.Duration // how long COMPLETED is shown before reverting to IDLE
	MaxPresetsPerBatch  int

	// Credential persistence
	CredentialPath string // override for the on-disk credential file
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		HTTPAddr:  getEnv("HTTP_ADDR", ":8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		AuthToken: getEnv("AUTH_TOKEN", ""),

		APIKey:      getEnv("SCENESTUDIO_API_KEY", ""),
		APIBaseURL:  getEnv("API_BASE_URL", ""),
		ModelText:   getEnv("MODEL_TEXT", "gemini-2.5-flash"),
		ModelImage:  getEnv("MODEL_IMAGE", "gemini-2.5-flash-image"),
		ModelVision: getEnv("MODEL_VISION", "gemini-2.5-flash"),

		ExpansionProvider: getEnv("EXPANSION_PROVIDER", "gemini"),
		ImageProvider:     getEnv("IMAGE_PROVIDER", "gemini"),

		RemovalEndpoint: getEnv("REMOVAL_ENDPOINT", ""),
		RemovalTimeout:  getEnvDuration("REMOVAL_TIMEOUT", 60*time.Second),

		CompletedResetDelay: getEnvDuration("COMPLETED_RESET_DELAY", 3*time.Second),
		MaxPresetsPerBatch:  getEnvInt("MAX_PRESETS_PER_BATCH", 10),

		CredentialPath: getEnv("CREDENTIAL_PATH", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
