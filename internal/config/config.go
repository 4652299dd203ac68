package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Config holds all application configuration
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Database DatabaseConfig `envconfig:"DB"`
	Server   ServerConfig   `envconfig:"SERVER"`
	Broker   BrokerConfig   `envconfig:"BROKER"`
	Redis    RedisConfig    `envconfig:"REDIS"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver     string `default:"postgres"`
	Host       string `default:"localhost"`
	Port       string `default:"5432"`
	User       string `default:"postgres"`
	Password   string
	Name       string `default:"sports_meetup"`
	SSLMode    string `split_words:"true" default:"disable"`
	SqlitePath string `split_words:"true" default:"sports_meetup.db"`

	MaxOpenConns int `split_words:"true" default:"20"`
	MaxIdleConns int `split_words:"true" default:"5"`
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port            string        `default:"8080"`
	FrontendURL     string        `split_words:"true"`
	ShutdownTimeout time.Duration `split_words:"true" default:"5s"`
}

// BrokerConfig holds chat ingestion settings
type BrokerConfig struct {
	Kind      string `default:"mqtt"`
	URL       string `default:"tcp://localhost:1883"`
	Namespace string `default:"TownPass"`
	ClientID  string `split_words:"true" default:"sports-meetup-ingest"`
	Username  string
	Password  string

	// AMQP only
	Exchange string `default:"amq.topic"`
	Queue    string `default:"sports-meetup.chat"`

	ReconnectDelay time.Duration `split_words:"true" default:"5s"`
	Workers        int           `default:"8"`
	QueueSize      int           `split_words:"true" default:"64"`
	Disabled       bool          `default:"false"`
}

// RedisConfig holds catalog cache settings
type RedisConfig struct {
	Enabled  bool          `default:"false"`
	Host     string        `default:"localhost"`
	Port     int           `default:"6379"`
	Password string
	DB       int           `default:"0"`
	TTL      time.Duration `default:"10m"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process environment")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return errors.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	switch c.Broker.Kind {
	case "mqtt", "redis", "amqp":
	default:
		return errors.Errorf("unsupported BROKER_KIND %q", c.Broker.Kind)
	}

	if c.Broker.Namespace == "" {
		return errors.New("BROKER_NAMESPACE is required")
	}
	if c.Broker.Workers < 1 {
		return errors.New("BROKER_WORKERS must be positive")
	}

	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
