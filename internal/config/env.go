package config

import (
	"os"
	"strings"
)

// EnvironmentType represents the application environment
type EnvironmentType string

const (
	EnvironmentDevelopment EnvironmentType = "development"
	EnvironmentProduction  EnvironmentType = "production"
)

// String returns the string representation of the environment type
func (e EnvironmentType) String() string {
	return string(e)
}

// IsValid checks if the environment type is valid
func (e EnvironmentType) IsValid() bool {
	switch e {
	case EnvironmentDevelopment, EnvironmentProduction:
		return true
	default:
		return false
	}
}

// Environment holds the environment variables
type Environment struct {
	Environment   EnvironmentType `env:"ENVIRONMENT"`
	ConfigPath    string          `env:"CONFIG_PATH"`
	SessionSecret string          `env:"SESSION_SECRET"`
	LaunchSecret  string          `env:"LAUNCH_SECRET"`
}

// LoadEnv loads the environment variables
func LoadEnv() *Environment {
	envStr := getEnv("ENVIRONMENT", string(EnvironmentDevelopment))
	envStr = strings.TrimSpace(envStr)
	envStr = strings.ToLower(envStr)
	envType := EnvironmentType(envStr)

	if !envType.IsValid() {
		envType = EnvironmentDevelopment
	}

	return &Environment{
		Environment:   envType,
		ConfigPath:    getEnv("CONFIG_PATH", "config.yaml"),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		LaunchSecret:  getEnv("LAUNCH_SECRET", ""),
	}
}

// getEnv gets the environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}
