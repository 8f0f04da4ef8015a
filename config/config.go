package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Orders   OrdersConfig   `yaml:"orders"`
	Worker   WorkerConfig   `yaml:"worker"`
	Payments PaymentsConfig `yaml:"payments"`
	Email    EmailConfig    `yaml:"email"`
	Storage  StorageConfig  `yaml:"storage"`

	// Secrets come from the environment, not the yaml file.
	Secrets Secrets `yaml:"-"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type OrdersConfig struct {
	// Pending orders older than this are purged by the cleanup sweep.
	RetentionHours int `yaml:"retention_hours"`
	// Upper bound on deletes per sweep run.
	CleanupBatchSize int `yaml:"cleanup_batch_size"`
}

type WorkerConfig struct {
	CleanupSweepMinutes int `yaml:"cleanup_sweep_minutes"`
}

type PaymentsConfig struct {
	// Base API URLs are configurable so tests can point the adapters at a
	// local server. Empty values fall back to the real endpoints.
	StripeBaseURL      string `yaml:"stripe_base_url"`
	FlutterwaveBaseURL string `yaml:"flutterwave_base_url"`
}

type EmailConfig struct {
	BaseURL   string `yaml:"base_url"`
	FromEmail string `yaml:"from_email"`
	AdminTo   string `yaml:"admin_to"`
}

type StorageConfig struct {
	BaseURL string `yaml:"base_url"`
	Bucket  string `yaml:"bucket"`
}

type Secrets struct {
	StripeSecretKey      string
	StripeWebhookSecret  string
	FlutterwaveSecretKey string
	ResendAPIKey         string
	StorageServiceKey    string
	AppBaseURL           string
	CronSecret           string
	JWTSecret            string
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Orders.RetentionHours == 0 {
		cfg.Orders.RetentionHours = 48
	}
	if cfg.Orders.CleanupBatchSize == 0 {
		cfg.Orders.CleanupBatchSize = 100
	}
	if cfg.Email.FromEmail == "" {
		cfg.Email.FromEmail = "tickets@dummair.com"
	}
	if cfg.Email.AdminTo == "" {
		cfg.Email.AdminTo = "admin@dummair.com"
	}

	cfg.Secrets = Secrets{
		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
		FlutterwaveSecretKey: os.Getenv("FLUTTERWAVE_SECRET_KEY"),
		ResendAPIKey:         os.Getenv("RESEND_API_KEY"),
		StorageServiceKey:    os.Getenv("BLOB_STORE_KEY"),
		AppBaseURL:           os.Getenv("APP_BASE_URL"),
		CronSecret:           os.Getenv("CRON_SECRET"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
	}

	return &cfg, nil
}
