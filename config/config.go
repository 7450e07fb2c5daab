// Package config loads server configuration from the environment, with a
// .env file as an optional local override.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the server binary needs to start.
type Config struct {
	Port        string
	DBPath      string
	LogFilePath string
	CORSOrigins []string
}

// Load reads .env when present, then the environment. Flags in main
// take precedence over both.
func Load() Config {
	// Missing .env is fine: containerized deployments set real env vars.
	_ = godotenv.Load()

	return Config{
		Port:        getEnvString("PORT", "8080"),
		DBPath:      getEnvString("DB_PATH", "./data/shiftpay.db"),
		LogFilePath: getEnvString("LOG_FILE_PATH", ""),
		CORSOrigins: splitList(getEnvString("CORS_ORIGINS", "*")),
	}
}

func getEnvString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
