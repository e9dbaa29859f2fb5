package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string `yaml:"env" env:"APP_ENV" env-default:"local"`
	HTTPServer  `yaml:"http_server"`
	Database    `yaml:"database"`
	LogConfig   `yaml:"log_config"`
	Auth        `yaml:"auth"`
	Redis       `yaml:"redis"`
	Kafka       `yaml:"kafka"`
	Splits      `yaml:"splits"`
	Webhook     `yaml:"webhook"`
	CORS        `yaml:"cors"`
	Attachments `yaml:"attachments"`
}

type HTTPServer struct {
	Host            string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:"3001"`
	BaseURL         string        `yaml:"base_url" env:"API_BASE_URL" env-default:"http://localhost:3001"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type Database struct {
	Host           string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port           uint   `yaml:"port" env:"DB_PORT" env-default:"5432"`
	Name           string `yaml:"name" env:"DB_NAME" env-default:"dealdesk"`
	Username       string `yaml:"username" env:"DB_USERNAME"`
	Password       string `yaml:"password" env:"DB_PASSWORD"`
	SecretID       string `yaml:"secret_id" env:"DB_SECRET_ID"`
	SSLModeDisable bool   `yaml:"ssl_mode_disable" env:"DB_SSL_MODE_DISABLE" env-default:"false"`
	AutoMigrate    bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
}

type LogConfig struct {
	LogLevel   string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat  string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
	LogOutput  string `yaml:"log_output" env:"LOG_OUTPUT" env-default:"stdout"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"LOG_MAX_SIZE_MB" env-default:"100"`
	MaxBackups int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS" env-default:"5"`
	MaxAgeDays int    `yaml:"max_age_days" env:"LOG_MAX_AGE_DAYS" env-default:"30"`
	Compress   bool   `yaml:"compress" env:"LOG_COMPRESS" env-default:"true"`
}

type Auth struct {
	PrivateKeyPath string `yaml:"private_key_path" env:"AUTH_RSA_PRIVATE_PATH"`
	KID            string `yaml:"kid" env:"AUTH_KID"`
	Issuer         string `yaml:"issuer" env:"AUTH_ISSUER"`
	Audience       string `yaml:"audience" env:"AUTH_AUDIENCE"`
	CookieSecure   bool   `yaml:"cookie_secure" env:"COOKIE_SECURE" env-default:"false"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Kafka struct {
	Brokers       []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	ActivityTopic string   `yaml:"activity_topic" env:"KAFKA_ACTIVITY_TOPIC" env-default:"deal-activities"`
	PoolSize      int      `yaml:"pool_size" env:"KAFKA_POOL_SIZE" env-default:"16"`
}

type Splits struct {
	OverAllocationPolicy string        `yaml:"over_allocation_policy" env:"SPLIT_OVER_ALLOCATION_POLICY" env-default:"reject"`
	DraftTTL             time.Duration `yaml:"draft_ttl" env:"SPLIT_DRAFT_TTL" env-default:"8h"`
}

type Webhook struct {
	AlertURL string        `yaml:"alert_url" env:"WEBHOOK_ALERT_URL"`
	Timeout  time.Duration `yaml:"timeout" env:"WEBHOOK_TIMEOUT" env-default:"5s"`
	Workers  int           `yaml:"workers" env:"WEBHOOK_WORKERS" env-default:"4"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
}

type Attachments struct {
	MaxBytes int `yaml:"max_bytes" env:"ATTACHMENT_MAX_BYTES" env-default:"10485760"`
}

// Load reads CONFIG_PATH when set, otherwise the environment alone.
// Environment variables always override the file.
func Load() (*Config, error) {
	var cfg Config
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env config: %w", err)
		}
		return &cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.HTTPServer.Host + ":" + c.HTTPServer.Port
}
