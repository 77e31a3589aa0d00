package config

import (
	"os"
	"strconv"
)

type Config struct {
	// HTTP
	HTTPPort string

	// Postgres
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int32

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Analytics
	CacheTTLSeconds int
	QueryTimeoutMS  int
}

func Load() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "3000"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "fleet_user"),
		DBPassword:      getEnv("DB_PASSWORD", "fleet_password"),
		DBName:          getEnv("DB_NAME", "fleet_telemetry"),
		DBMaxConns:      int32(getEnvInt("DB_MAX_CONNS", 15)),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		CacheTTLSeconds: getEnvInt("ANALYTICS_CACHE_TTL_SECONDS", 300),
		QueryTimeoutMS:  getEnvInt("QUERY_TIMEOUT_MS", 10000),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
