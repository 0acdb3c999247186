package util

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/celine-eu/rec-registry/pkg/logger"
)

// LoadEnv pulls a local .env file into the process environment, if one
// exists. Call once before the first lookup.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using system environment variables")
	}
}

// GetEnv returns the raw value of key, or "" when unset.
func GetEnv(key string) string {
	return os.Getenv(key)
}

// GetEnvString returns the value of key, or fallback when unset. An empty
// value set explicitly counts as set.
func GetEnvString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetEnvInt returns the value of key parsed as an integer, or fallback when
// unset or unparsable.
func GetEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

// GetEnvBool returns true or false for the literal values "true" and
// "false", and fallback for anything else (including unset).
func GetEnvBool(key string, fallback bool) bool {
	switch os.Getenv(key) {
	case "true":
		return true
	case "false":
		return false
	default:
		return fallback
	}
}
