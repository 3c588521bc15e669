package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL     string
	APITimeout     time.Duration
	TokenStorePath string
	LogMode        string

	// dev backend
	Port      string
	DBDriver  string
	DBHost    string
	DBUser    string
	DBPass    string
	DBName    string
	DBPort    string
	SQLite    string
	JWTSecret string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, bool) {
	envFileFound := godotenv.Load() == nil

	return &Config{
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8080/api"),
		APITimeout:     getDuration("API_TIMEOUT", 15*time.Second),
		TokenStorePath: getEnv("TOKEN_STORE_PATH", "onlearn-client.db"),
		LogMode:        getEnv("LOG_MODE", "dev"),

		Port:      getEnv("PORT", "8080"),
		DBDriver:  getEnv("DB_DRIVER", "sqlite"),
		DBHost:    os.Getenv("DB_HOST"),
		DBUser:    os.Getenv("DB_USER"),
		DBPass:    os.Getenv("DB_PASSWORD"),
		DBName:    os.Getenv("DB_NAME"),
		DBPort:    getEnv("DB_PORT", "5432"),
		SQLite:    getEnv("SQLITE_PATH", "onlearn-dev.db"),
		JWTSecret: os.Getenv("JWT_SECRET"),
	}, envFileFound
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getDuration accepts Go durations ("15s") or a plain number of seconds.
func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
