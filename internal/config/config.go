package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr        string   `yaml:"addr"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	DB struct {
		DSN string `yaml:"dsn"`
	} `yaml:"db"`
	Redis struct {
		Addr              string `yaml:"addr"`
		RequestsPerMinute int    `yaml:"requests_per_minute"`
	} `yaml:"redis"`
	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`
	Simulator struct {
		TestMode        bool    `yaml:"test_mode"`
		FixedDelayMs    int     `yaml:"fixed_delay_ms"`
		ForcedSuccess   bool    `yaml:"forced_success"`
		MinDelayMs      int     `yaml:"min_delay_ms"`
		MaxDelayMs      int     `yaml:"max_delay_ms"`
		CardSuccessRate float64 `yaml:"card_success_rate"`
		UPISuccessRate  float64 `yaml:"upi_success_rate"`
	} `yaml:"simulator"`
	Seed struct {
		MerchantName  string `yaml:"merchant_name"`
		MerchantEmail string `yaml:"merchant_email"`
		APIKey        string `yaml:"api_key"`
		APISecret     string `yaml:"api_secret"`
	} `yaml:"seed"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)

	if cfg.Server.Addr == "" {
		return nil, errors.New("server.addr is required")
	}
	if cfg.DB.DSN == "" {
		return nil, errors.New("db.dsn is required")
	}
	if cfg.Simulator.MinDelayMs <= 0 {
		cfg.Simulator.MinDelayMs = 5000
	}
	if cfg.Simulator.MaxDelayMs < cfg.Simulator.MinDelayMs {
		cfg.Simulator.MaxDelayMs = 10000
	}
	if cfg.Simulator.CardSuccessRate <= 0 {
		cfg.Simulator.CardSuccessRate = 0.95
	}
	if cfg.Simulator.UPISuccessRate <= 0 {
		cfg.Simulator.UPISuccessRate = 0.90
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitCommaList(v)
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.DB.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("TEST_MODE"); v != "" {
		cfg.Simulator.TestMode = boolOr(cfg.Simulator.TestMode, v)
	}
	if v := os.Getenv("TEST_PROCESSING_DELAY"); v != "" {
		cfg.Simulator.FixedDelayMs = atoiOr(cfg.Simulator.FixedDelayMs, v)
	}
	if v := os.Getenv("TEST_PAYMENT_SUCCESS"); v != "" {
		cfg.Simulator.ForcedSuccess = boolOr(cfg.Simulator.ForcedSuccess, v)
	}
	if v := os.Getenv("SEED_API_KEY"); v != "" {
		cfg.Seed.APIKey = v
	}
	if v := os.Getenv("SEED_API_SECRET"); v != "" {
		cfg.Seed.APISecret = v
	}
}

func (c *Config) FixedDelay() time.Duration {
	return time.Duration(c.Simulator.FixedDelayMs) * time.Millisecond
}

func (c *Config) MinDelay() time.Duration {
	return time.Duration(c.Simulator.MinDelayMs) * time.Millisecond
}

func (c *Config) MaxDelay() time.Duration {
	return time.Duration(c.Simulator.MaxDelayMs) * time.Millisecond
}

func splitCommaList(v string) []string {
	parts := strings.Split(v, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoiOr(cur int, v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return cur
	}
	return n
}

func boolOr(cur bool, v string) bool {
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return cur
	}
	return b
}
