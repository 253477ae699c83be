package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/moonrisegoods/nps/pkg/logger"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Nano        NanoConfig        `yaml:"nano"`
	PriceOracle PriceOracleConfig `yaml:"price_oracle"`
	Payment     PaymentConfig     `yaml:"payment"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	Logger      logger.Config     `yaml:"logger"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           string   `yaml:"port"`
	Environment    string   `yaml:"environment"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Host            string `yaml:"host"`
	Port            string `yaml:"port"`
	User            string `yaml:"user"`
	DBName          string `yaml:"name"`
	Password        string `yaml:"password"`
	SSLMode         string `yaml:"ssl_mode"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
}

// NanoConfig holds everything needed to talk to a Nano node and receive
// payments. ReceivingAddress is the merchant's fixed account; leaving it
// empty disables crypto checkout instead of crashing the service.
type NanoConfig struct {
	NodeURL                string        `yaml:"node_url"`
	ReceivingAddress       string        `yaml:"receiving_address"`
	Timeout                time.Duration `yaml:"timeout"`
	ReceivableCount        int           `yaml:"receivable_count"`
	HistoryCount           int           `yaml:"history_count"`
	ReceivableThresholdRaw string        `yaml:"receivable_threshold_raw"`
}

type PriceOracleConfig struct {
	BaseURL          string `yaml:"base_url"`
	AssetID          string `yaml:"asset_id"`
	Timeout          int    `yaml:"timeout"`
	MaxRetries       int    `yaml:"max_retries"`
	RetryBackoffBase int    `yaml:"retry_backoff_base"`
	APIKey           string `yaml:"api_key"`
}

type PaymentConfig struct {
	SessionTTLMinutes int `yaml:"session_ttl_minutes"`
}

type WebSocketConfig struct {
	ReadBufferSize  int  `yaml:"read_buffer_size"`
	WriteBufferSize int  `yaml:"write_buffer_size"`
	CheckOrigin     bool `yaml:"check_origin"`
}

func Load() (*Config, error) {
	// .env is optional outside local development.
	_ = godotenv.Load()

	path := os.Getenv("NPS_CONFIG")
	if path == "" {
		path = "./config.yaml"
	}

	configData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(configData))), &config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Nano.Timeout == 0 {
		c.Nano.Timeout = 10 * time.Second
	}
	if c.Nano.ReceivableCount == 0 {
		c.Nano.ReceivableCount = 100
	}
	if c.Nano.HistoryCount == 0 {
		c.Nano.HistoryCount = 50
	}
	if c.PriceOracle.Timeout == 0 {
		c.PriceOracle.Timeout = 10
	}
	if c.PriceOracle.AssetID == "" {
		c.PriceOracle.AssetID = "nano"
	}
	if c.Payment.SessionTTLMinutes == 0 {
		c.Payment.SessionTTLMinutes = 30
	}
	if c.WebSocket.ReadBufferSize == 0 {
		c.WebSocket.ReadBufferSize = 1024
	}
	if c.WebSocket.WriteBufferSize == 0 {
		c.WebSocket.WriteBufferSize = 1024
	}
}

func (c *PaymentConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}
