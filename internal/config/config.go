package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the service settings read from the environment and an optional .env file
type Config struct {
	Port          string `mapstructure:"TEFF_PORT"`
	GinMode       string `mapstructure:"GIN_MODE"`
	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	CORSOrigins   string `mapstructure:"CORS_ORIGINS"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBSecretARN string `mapstructure:"DB_SECRET_ARN"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      int    `mapstructure:"DB_PORT"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`
	DBSSLMode   string `mapstructure:"DB_SSLMODE"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	AWSRegion          string `mapstructure:"AWS_REGION"`
	SESFromEmail       string `mapstructure:"SES_FROM_EMAIL"`
	SMSAlertsEnabled   bool   `mapstructure:"SMS_ALERTS_ENABLED"`
	PaymentProofBucket string `mapstructure:"PAYMENT_PROOF_BUCKET"`
	AssetsCDNBaseURL   string `mapstructure:"ASSETS_CDN_BASE_URL"`

	RedisAddr          string  `mapstructure:"REDIS_ADDR"`
	RedisPassword      string  `mapstructure:"REDIS_PASSWORD"`
	CheckoutBurst      int     `mapstructure:"CHECKOUT_RATE_BURST"`
	CheckoutRatePerSec float64 `mapstructure:"CHECKOUT_RATE_PER_SEC"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`
}

var defaults = map[string]interface{}{
	"TEFF_PORT":             "8082",
	"GIN_MODE":              "",
	"STORAGE_DRIVER":        "postgres",
	"CORS_ORIGINS":          "*",
	"DATABASE_URL":          "",
	"DB_SECRET_ARN":         "",
	"DB_HOST":               "localhost",
	"DB_PORT":               5432,
	"DB_USER":               "teff_admin",
	"DB_PASSWORD":           "",
	"DB_NAME":               "teffexpo",
	"DB_SSLMODE":            "prefer",
	"JWT_SECRET":            "",
	"AWS_REGION":            "eu-central-1",
	"SES_FROM_EMAIL":        "",
	"SMS_ALERTS_ENABLED":    false,
	"PAYMENT_PROOF_BUCKET":  "",
	"ASSETS_CDN_BASE_URL":   "",
	"REDIS_ADDR":            "",
	"REDIS_PASSWORD":        "",
	"CHECKOUT_RATE_BURST":   10,
	"CHECKOUT_RATE_PER_SEC": 0.2,
	"KAFKA_BROKERS":         "",
	"KAFKA_TOPIC":           "teff.orders",
}

// Load reads .env (if present) then binds environment variables over the defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.StorageDriver != "postgres" && cfg.StorageDriver != "memory" {
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	return cfg, nil
}

// KafkaBrokerList splits KAFKA_BROKERS on commas.
func (c *Config) KafkaBrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// CORSOriginList splits CORS_ORIGINS on commas.
func (c *Config) CORSOriginList() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// DSN builds a libpq connection string from the discrete DB_* settings.
func (c *Config) DSN() string {
	if c.DBPassword == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
			c.DBHost, c.DBPort, c.DBUser, c.DBName, c.DBSSLMode)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}
