package initializers

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// LoadEnv reads a .env file when one exists. Real environment variables win.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		zap.S().Debugw("no .env file loaded", "error", err)
	}
}

func GetEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func GetEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		zap.S().Warnw("ignoring invalid integer setting", "key", key, "value", v)
		return def
	}
	return n
}

func GetEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		zap.S().Warnw("ignoring invalid duration setting", "key", key, "value", v)
		return def
	}
	return d
}
