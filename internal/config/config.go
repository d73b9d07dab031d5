package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"news_sync/internal/domain"
)

const DefaultFeedURL = "https://www.nhk.or.jp/rss/news/cat0.xml"

type Config struct {
	Database  DatabaseConfig `yaml:"database"`
	Feed      FeedConfig     `yaml:"feed"`
	Sync      SyncConfig     `yaml:"sync"`
	RabbitMQ  RabbitMQConfig `yaml:"rabbitmq"`
	Display   DisplayConfig  `yaml:"display"`
	LogLevel  string         `yaml:"log_level"`
	LogFormat string         `yaml:"log_format"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN renders a lib/pq connection string. The client encoding is always UTF8.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s client_encoding=UTF8",
		quote(d.Host), d.Port, quote(d.User), quote(d.Password), quote(d.DBName), quote(d.SSLMode),
	)
}

// quote wraps a key/value DSN value in single quotes, escaping quotes and backslashes.
func quote(v string) string {
	return "'" + dsnEscaper.Replace(v) + "'"
}

var dsnEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

type FeedConfig struct {
	URL       string        `yaml:"url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type SyncConfig struct {
	Mode domain.SyncMode `yaml:"mode"`
}

// RabbitMQConfig configures the optional change-event publisher.
// An empty URL disables publishing.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

func (r RabbitMQConfig) Enabled() bool {
	return r.URL != ""
}

type DisplayConfig struct {
	NewsCount int `yaml:"news_count"`
}

// Path returns the config file location, taken from CONFIG_PATH.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

// Load builds the configuration from defaults, an optional YAML file at path
// and environment variables, in that order of precedence (last wins).
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() Config {
	return Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "password",
			DBName:   "news_db",
			SSLMode:  "disable",
		},
		Feed: FeedConfig{
			URL:       DefaultFeedURL,
			Timeout:   30 * time.Second,
			UserAgent: "NewsSync/1.0",
		},
		Sync:      SyncConfig{Mode: domain.SyncModeMerge},
		Display:   DisplayConfig{NewsCount: 5},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

func (c *Config) applyEnv() error {
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.DBName, "DB_NAME")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.SSLMode, "DB_SSLMODE")
	setString(&c.Feed.URL, "FEED_URL")
	setString(&c.RabbitMQ.URL, "RABBITMQ_URL")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")

	if v := os.Getenv("SYNC_MODE"); v != "" {
		c.Sync.Mode = domain.SyncMode(v)
	}

	if err := setInt(&c.Database.Port, "DB_PORT"); err != nil {
		return err
	}
	if err := setInt(&c.Display.NewsCount, "NEWS_COUNT"); err != nil {
		return err
	}

	if v := os.Getenv("FEED_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse FEED_TIMEOUT: %w", err)
		}
		c.Feed.Timeout = d
	}

	return nil
}

// setDefaults fills values a config file may have blanked out.
func (c *Config) setDefaults() {
	if c.Feed.URL == "" {
		c.Feed.URL = DefaultFeedURL
	}
	if c.Feed.Timeout == 0 {
		c.Feed.Timeout = 30 * time.Second
	}
	if c.Sync.Mode == "" {
		c.Sync.Mode = domain.SyncModeMerge
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "news_sync"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "news_items"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "news_items"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
}

func (c *Config) validate() error {
	if _, err := domain.ParseSyncMode(string(c.Sync.Mode)); err != nil {
		return fmt.Errorf("invalid sync mode: %w", err)
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port %d", c.Database.Port)
	}
	if c.Display.NewsCount <= 0 {
		return fmt.Errorf("invalid news count %d", c.Display.NewsCount)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = n
	return nil
}
