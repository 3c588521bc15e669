package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("API_TIMEOUT", "")
	t.Setenv("DB_DRIVER", "")

	cfg, _ := Load()
	assert.Equal(t, "http://localhost:8080/api", cfg.APIBaseURL)
	assert.Equal(t, 15*time.Second, cfg.APITimeout)
	assert.Equal(t, "sqlite", cfg.DBDriver)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://learn.example.com/api")
	t.Setenv("API_TIMEOUT", "30")
	t.Setenv("PORT", "9999")

	cfg, _ := Load()
	assert.Equal(t, "https://learn.example.com/api", cfg.APIBaseURL)
	assert.Equal(t, 30*time.Second, cfg.APITimeout)
	assert.Equal(t, "9999", cfg.Port)

	t.Setenv("API_TIMEOUT", "2m")
	cfg, _ = Load()
	assert.Equal(t, 2*time.Minute, cfg.APITimeout)
}

func TestConnectDBRejectsUnknownDriver(t *testing.T) {
	_, err := ConnectDB(&Config{DBDriver: "oracle"})
	assert.Error(t, err)
}
