package testutils

import (
	"time"

	"github.com/verifykit/verifykit/config"
)

func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name: "Test App",
			URL:  "http://localhost:8080",
		},
		Log: config.LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		OTP: config.OTPConfig{
			CodeDigits:     6,
			SaltLength:     32,
			Expiry:         10 * time.Minute,
			MaxAttempts:    3,
			RetentionGrace: 24 * time.Hour,
			Store:          "memory",
		},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			DSN:    ":memory:",
		},
		Redis: config.RedisConfig{
			URL: "redis://localhost:6379/0",
		},
		Mail: config.MailConfig{
			Host:        "localhost",
			Port:        587,
			Encryption:  "none",
			FromAddress: "noreply@example.com",
		},
	}
}

var TestIdentities = struct {
	Valid     string
	Uppercase string
	Padded    string
	Handle    string
}{
	Valid:     "test@example.com",
	Uppercase: "Test@Example.COM",
	Padded:    "  test@example.com  ",
	Handle:    "testuser",
}
