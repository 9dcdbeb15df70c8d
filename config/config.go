package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

type Config struct {
	App      AppConfig      `envPrefix:"VK_APP_"`
	Log      LogConfig      `envPrefix:"VK_LOG_"`
	OTP      OTPConfig      `envPrefix:"VK_OTP_"`
	Database DatabaseConfig `envPrefix:"VK_DATABASE_"`
	Redis    RedisConfig    `envPrefix:"VK_REDIS_"`
	Mail     MailConfig     `envPrefix:"VK_MAIL_"`
}

type AppConfig struct {
	Name string `env:"NAME" envDefault:"verifykit Application"`
	URL  string `env:"URL" envDefault:"http://localhost:8080"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type OTPConfig struct {
	// CodeDigits is the width of generated codes; codes are zero-padded.
	CodeDigits int `env:"CODE_DIGITS" envDefault:"6"`
	// SaltLength is the number of random salt bytes generated per record.
	SaltLength int `env:"SALT_LENGTH" envDefault:"32"`
	// Expiry is how long a code remains verifiable after generation.
	Expiry time.Duration `env:"EXPIRY" envDefault:"10m"`
	// MaxAttempts is the verification attempt ceiling per code.
	MaxAttempts int `env:"MAX_ATTEMPTS" envDefault:"3"`
	// RetentionGrace is how long a record is kept past expiry before
	// PurgeExpired removes it.
	RetentionGrace time.Duration `env:"RETENTION_GRACE" envDefault:"24h"`
	// Store selects the storage backend: "gorm", "redis" or "memory".
	Store string `env:"STORE" envDefault:"gorm"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"verifykit.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

type RedisConfig struct {
	URL      string `env:"URL" envDefault:"redis://localhost:6379/0"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB" envDefault:"0"`
	PoolSize int    `env:"POOL_SIZE" envDefault:"10"`
}

type MailConfig struct {
	Host         string `env:"HOST" envDefault:"localhost"`
	Port         int    `env:"PORT" envDefault:"587"`
	Username     string `env:"USERNAME" envDefault:""`
	Password     string `env:"PASSWORD" envDefault:""`
	Encryption   string `env:"ENCRYPTION" envDefault:"starttls"`
	FromAddress  string `env:"FROM_ADDRESS" envDefault:""`
	FromName     string `env:"FROM_NAME" envDefault:""`
	TemplatesDir string `env:"TEMPLATES_DIR" envDefault:""`
}

func LoadConfig(cfg any) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	return env.Parse(cfg)
}

// NewProvider returns an fx option supplying the configuration: the given
// one when non-nil, otherwise one loaded from the environment.
func NewProvider(customConfig *Config) fx.Option {
	if customConfig != nil {
		return fx.Provide(func() *Config {
			return customConfig
		})
	}

	return fx.Provide(func() *Config {
		cfg := &Config{}
		if err := LoadConfig(cfg); err != nil {
			panic(err)
		}
		return cfg
	})
}
