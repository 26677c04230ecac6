package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	HTTPPort          string
	DatabaseURL       string
	LogLevel          string
	JWTSecret         string
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	DefaultModel      string
	TitleModel        string
	ModelCacheTTL     time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		DatabaseURL:       getEnv("DATABASE_URL", "chatforge.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		DefaultModel:      getEnv("DEFAULT_MODEL", "google/gemini-2.0-flash-exp:free"),
		TitleModel:        getEnv("TITLE_MODEL", "google/gemini-2.0-flash-exp:free"),
		ModelCacheTTL:     time.Duration(getEnvAsInt("MODEL_CACHE_TTL_SECONDS", 3600)) * time.Second,
	}

	if cfg.OpenRouterAPIKey == "" {
		logrus.Fatal("OPENROUTER_API_KEY environment variable is required")
	}
	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET environment variable is required")
	}

	return cfg
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
