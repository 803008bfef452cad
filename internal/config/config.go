// Package config provides configuration helpers for navsense commands.
package config

import (
	"os"
	"strconv"
	"time"
)

// Defaults for the status server and speech engine.
const (
	DefaultStatusPort = "8090"
	DefaultLogLevel   = "info"
)

// LogLevel returns the log level from NAVSENSE_LOG_LEVEL or the default.
func LogLevel() string {
	if lvl := os.Getenv("NAVSENSE_LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return DefaultLogLevel
}

// StatusPort returns the status server port from NAVSENSE_STATUS_PORT
// or the default.
func StatusPort() string {
	if port := os.Getenv("NAVSENSE_STATUS_PORT"); port != "" {
		return port
	}
	return DefaultStatusPort
}

// GoogleAPIKey returns the Google Cloud API key from GOOGLE_API_KEY.
// Empty means Application Default Credentials (or the mock provider)
// should be used instead.
func GoogleAPIKey() string {
	return os.Getenv("GOOGLE_API_KEY")
}

// Duration reads a duration from the named env var, falling back to def
// when unset or unparseable.
func Duration(name string, def time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// Int reads an integer from the named env var, falling back to def
// when unset or unparseable.
func Int(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
