package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort   string `mapstructure:"SERVER_PORT"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	RedisAddr    string `mapstructure:"REDIS_ADDR"`
	AMQPURL      string `mapstructure:"AMQP_URL"`
	JWTSecret    string `mapstructure:"JWT_SECRET"`
	ClientOrigin string `mapstructure:"CLIENT_ORIGIN"`

	// Facility timezone used to interpret operating hours, e.g. "America/Phoenix".
	Timezone string `mapstructure:"FACILITY_TIMEZONE"`

	// Scheduling policy.
	SlotDurationMinutes  int `mapstructure:"SLOT_DURATION_MINUTES"`
	MinLeadTimeMinutes   int `mapstructure:"MIN_LEAD_TIME_MINUTES"`
	MaxAdvanceDays       int `mapstructure:"MAX_ADVANCE_DAYS"`
	CommitRetries        int `mapstructure:"COMMIT_RETRIES"`
	CommitTimeoutSeconds int `mapstructure:"COMMIT_TIMEOUT_SECONDS"`

	// Idempotency record retention and the advisory availability cache TTL.
	IdempotencyRetentionHours   int `mapstructure:"IDEMPOTENCY_RETENTION_HOURS"`
	AvailabilityCacheTTLSeconds int `mapstructure:"AVAILABILITY_CACHE_TTL_SECONDS"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env") // Name of config file (without extension)
	viper.SetConfigType("env")

	viper.AutomaticEnv() // Read in environment variables that match

	err := viper.ReadInConfig()
	if err != nil {
		// Handle errors reading the config file, but allow it if it's just "not found"
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No .env file found.")
		} else {
			return nil, err
		}
	}

	var cfg Config
	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.SlotDurationMinutes <= 0 {
		c.SlotDurationMinutes = 120
	}
	if c.MinLeadTimeMinutes <= 0 {
		c.MinLeadTimeMinutes = 60
	}
	if c.MaxAdvanceDays <= 0 {
		c.MaxAdvanceDays = 60
	}
	if c.CommitRetries <= 0 {
		c.CommitRetries = 3
	}
	if c.CommitTimeoutSeconds <= 0 {
		c.CommitTimeoutSeconds = 10
	}
	if c.IdempotencyRetentionHours <= 0 {
		c.IdempotencyRetentionHours = 24
	}
	if c.AvailabilityCacheTTLSeconds <= 0 {
		c.AvailabilityCacheTTLSeconds = 15
	}
}

func (c *Config) SlotDuration() time.Duration {
	return time.Duration(c.SlotDurationMinutes) * time.Minute
}

func (c *Config) MinLeadTime() time.Duration {
	return time.Duration(c.MinLeadTimeMinutes) * time.Minute
}

func (c *Config) CommitTimeout() time.Duration {
	return time.Duration(c.CommitTimeoutSeconds) * time.Second
}

func (c *Config) IdempotencyRetention() time.Duration {
	return time.Duration(c.IdempotencyRetentionHours) * time.Hour
}

func (c *Config) AvailabilityCacheTTL() time.Duration {
	return time.Duration(c.AvailabilityCacheTTLSeconds) * time.Second
}
