package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v7"
	"go.uber.org/zap"
)

// ServerConf holds server configuration
type ServerConf struct {
	Port            string        `env:"SERVER_PORT" envDefault:"8080"`
	Env             string        `env:"APP_ENV" envDefault:"development"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// DatabaseConf holds database configuration
type DatabaseConf struct {
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            string        `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"postgres"`
	Password        string        `env:"DB_PASSWORD" envDefault:""`
	Name            string        `env:"DB_NAME" envDefault:"users"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"100"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE" envDefault:"true"`
}

// LogConf holds logger configuration
type LogConf struct {
	Level    string `env:"LOG_LEVEL" envDefault:"info"`
	Encoding string `env:"LOG_ENCODING" envDefault:"json"`
}

// AppConfig holds all application configuration
type AppConfig struct {
	Server   ServerConf
	Database DatabaseConf
	RabbitMQ RabbitMQConf
	Log      LogConf
}

// Config is the global configuration instance
var Config AppConfig

// InitConfig initializes application configuration from environment variables
func InitConfig() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	Config = *cfg
	return nil
}

// Load parses and validates the configuration without touching the global.
func Load() (*AppConfig, error) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	// DB_PASSWORD may be empty for trust-authenticated local databases.
	requiredDBFields := []struct{ name, value string }{
		{"DB_HOST", c.Database.Host},
		{"DB_PORT", c.Database.Port},
		{"DB_USER", c.Database.User},
		{"DB_NAME", c.Database.Name},
	}
	for _, f := range requiredDBFields {
		if f.value == "" {
			return fmt.Errorf("%s is required", f.name)
		}
	}

	return c.RabbitMQ.ValidateRabbitMQConfig()
}

// GetDatabaseDSN returns the database connection string
func (d *DatabaseConf) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host,
		d.User,
		d.Password,
		d.Name,
		d.Port,
		d.SSLMode,
	)
}

// IsProduction returns true if running in production environment
func (s *ServerConf) IsProduction() bool {
	return s.Env == "production" || s.Env == "prod"
}

// IsDevelopment returns true if running in development environment
func (s *ServerConf) IsDevelopment() bool {
	return s.Env == "development" || s.Env == "dev"
}

// IsTest returns true if running in test environment
func (s *ServerConf) IsTest() bool {
	return s.Env == "test"
}

// PrintConfig logs the current configuration (excluding sensitive data)
func PrintConfig(log *zap.Logger) {
	log.Info("current configuration",
		zap.String("env", Config.Server.Env),
		zap.String("server_port", Config.Server.Port),
		zap.String("db_host", Config.Database.Host+":"+Config.Database.Port),
		zap.String("db_name", Config.Database.Name),
		zap.String("rabbitmq_host", Config.RabbitMQ.Host+":"+Config.RabbitMQ.Port),
		zap.String("rabbitmq_exchange", Config.RabbitMQ.Exchange),
		zap.Int("prefetch_count", Config.RabbitMQ.PrefetchCount),
		zap.Int("pool_size", Config.RabbitMQ.PoolSize),
	)
}
