package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration for both marketplace processes.
type Config struct {
	App struct {
		Name string `koanf:"name"`
		Env  string `koanf:"env"`
	} `koanf:"app"`

	HTTP struct {
		CustomerAddr   string        `koanf:"customer_addr"`
		RestaurantAddr string        `koanf:"restaurant_addr"`
		ReadTimeout    time.Duration `koanf:"read_timeout"`
		WriteTimeout   time.Duration `koanf:"write_timeout"`
	} `koanf:"http"`

	Postgres struct {
		Host     string `koanf:"host"`
		Port     int    `koanf:"port"`
		User     string `koanf:"user"`
		Password string `koanf:"password"`
		Database string `koanf:"database"`
	} `koanf:"postgres"`

	RabbitMQ struct {
		Host     string `koanf:"host"`
		Port     int    `koanf:"port"`
		User     string `koanf:"user"`
		Password string `koanf:"password"`
	} `koanf:"rabbitmq"`

	Redis struct {
		Addr     string        `koanf:"addr"`
		Password string        `koanf:"password"`
		IdemTTL  time.Duration `koanf:"idem_ttl"`
	} `koanf:"redis"`
}

// Load reads base.yaml from pathDir and overlays environment variables.
// Env vars use the PLATEFUL_ prefix with __ separating nested keys,
// e.g. PLATEFUL_POSTGRES__PASSWORD.
func Load(pathDir string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load base config: %w", err)
	}

	if err := k.Load(env.Provider("PLATEFUL_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "PLATEFUL_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, fmt.Errorf("env overlay: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required connection settings are present.
func (c *Config) Validate() error {
	if c.Postgres.Host == "" || c.Postgres.Database == "" {
		return fmt.Errorf("postgres.host and postgres.database are required")
	}
	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq.host is required")
	}
	if c.HTTP.CustomerAddr == "" || c.HTTP.RestaurantAddr == "" {
		return fmt.Errorf("http.customer_addr and http.restaurant_addr are required")
	}
	return nil
}

// DatabaseURL returns a PostgreSQL connection URL.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Postgres.User, c.Postgres.Password, c.Postgres.Host, c.Postgres.Port, c.Postgres.Database)
}

// RabbitMQURL returns an AMQP connection URL.
func (c *Config) RabbitMQURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/",
		c.RabbitMQ.User, c.RabbitMQ.Password, c.RabbitMQ.Host, c.RabbitMQ.Port)
}
