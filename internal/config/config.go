package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port          int
	DatabaseURL   string
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	NatsURL       string
	NatsToken     string
	JWTSecret     string
	PrefsDBPath   string
	LogLevel      string
	HistoryLimit  int
}

func Load() Config {
	return Config{
		Port:          envInt("ASTRA_PORT", 8460),
		DatabaseURL:   envStr("DATABASE_URL", ""),
		GeminiAPIKey:  envStr("GEMINI_API_KEY", ""),
		GeminiModel:   envStr("ASTRA_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL: envStr("GEMINI_BASE_URL", ""),
		NatsURL:       envStr("NATS_URL", ""),
		NatsToken:     envStr("NATS_TOKEN", ""),
		JWTSecret:     envStr("JWT_SECRET", ""),
		PrefsDBPath:   envStr("PREFS_DB_PATH", "data/prefs.db"),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		HistoryLimit:  envInt("ASTRA_HISTORY_LIMIT", 50),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
