package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Mailjet  MailjetConfig
	Pricing  PricingConfig
	Recovery RecoveryConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
	StoreURL    string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type MailjetConfig struct {
	MailjetBaseUrl           string
	MailjetBasicAuthUsername string
	MailjetBasicAuthPassword string
	MailjetSenderEmail       string
	MailjetSenderName        string
}

// PricingConfig tunes the discount resolver surface.
type PricingConfig struct {
	// TTL for the redis coupon/rule metadata cache. Usage counters are
	// never served from cache regardless of this value.
	CouponCacheTTL time.Duration
}

// RecoveryConfig carries the abandonment thresholds and reminder
// checkpoint offsets, all measured per spec from last activity /
// abandonment time.
type RecoveryConfig struct {
	IdleThreshold       time.Duration
	FirstReminderAfter  time.Duration
	SecondReminderAfter time.Duration
	FinalReminderAfter  time.Duration
	SweepInterval       time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("invalid redis database")
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "MyTrendyMart Pricing Engine"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
			StoreURL:    getEnv("STORE_URL", "http://localhost:3000"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "mytrendymart"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
		Mailjet: MailjetConfig{
			MailjetBaseUrl:           getEnv("MAILJET_BASE_URL", ""),
			MailjetBasicAuthUsername: getEnv("MAILJET_BASIC_AUTH_USERNAME", ""),
			MailjetBasicAuthPassword: getEnv("MAILJET_BASIC_AUTH_PASSWORD", ""),
			MailjetSenderEmail:       getEnv("MAILJET_SENDER_EMAIL", ""),
			MailjetSenderName:        getEnv("MAILJET_SENDER_NAME", ""),
		},
	}

	if cfg.Pricing.CouponCacheTTL, err = getDuration("COUPON_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}

	rec := &cfg.Recovery
	if rec.IdleThreshold, err = getDuration("CART_IDLE_THRESHOLD", time.Hour); err != nil {
		return nil, err
	}
	if rec.FirstReminderAfter, err = getDuration("REMINDER_FIRST_AFTER", time.Hour); err != nil {
		return nil, err
	}
	if rec.SecondReminderAfter, err = getDuration("REMINDER_SECOND_AFTER", 24*time.Hour); err != nil {
		return nil, err
	}
	if rec.FinalReminderAfter, err = getDuration("REMINDER_FINAL_AFTER", 72*time.Hour); err != nil {
		return nil, err
	}
	if rec.SweepInterval, err = getDuration("RECOVERY_SWEEP_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	if err := cfg.Recovery.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects offset combinations the escalator cannot honor.
func (c RecoveryConfig) Validate() error {
	if c.IdleThreshold <= 0 {
		return errors.New("cart idle threshold must be positive")
	}
	if c.FirstReminderAfter <= 0 {
		return errors.New("first reminder offset must be positive")
	}
	if c.SecondReminderAfter <= c.FirstReminderAfter {
		return errors.New("second reminder offset must be after the first")
	}
	if c.FinalReminderAfter <= c.SecondReminderAfter {
		return errors.New("final reminder offset must be after the second")
	}
	if c.SweepInterval <= 0 {
		return errors.New("sweep interval must be positive")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}

	return d, nil
}
