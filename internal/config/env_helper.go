package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

func getEnvAsString(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// Helper to get float64 env with default
func getEnvAsFloat64(key string, fallback float64) float64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	val, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float64 for config %s, using default %f", valueStr, fallback)
		return fallback
	}
	return val
}

func getEnvAsInt(key string, fallback int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	val, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid int for config %s, using default %d", valueStr, fallback)
		return fallback
	}
	return val
}

// getEnvAsDuration reads an integer number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	secs, err := strconv.Atoi(valueStr)
	if err != nil || secs <= 0 {
		log.Printf("Warning: Invalid duration for config %s, using default %s", valueStr, fallback)
		return fallback
	}
	return time.Duration(secs) * time.Second
}
