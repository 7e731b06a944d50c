package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AccountID     string
	APIToken      string
	QdrantAddr    string
	QdrantAPIKey  string
	Collection    string
	Port          string
	IngestWorkers int
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AccountID:     getEnv("CF_ACCOUNT_ID", ""),
		APIToken:      getEnv("CF_API_TOKEN", ""),
		QdrantAddr:    getEnv("QDRANT_ADDR", "localhost:6334"),
		QdrantAPIKey:  getEnv("QDRANT_API_KEY", ""),
		Collection:    getEnv("VECTOR_COLLECTION", "notes"),
		Port:          getEnv("PORT", "8787"),
		IngestWorkers: getEnvInt("INGEST_WORKERS", 1),
	}

	return cfg
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
