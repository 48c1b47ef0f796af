package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// GatewayConfig selects the judo environment and credentials.
type GatewayConfig struct {
	Sandboxed    bool          `yaml:"sandboxed"`
	Token        string        `yaml:"token"`
	Secret       string        `yaml:"secret"`
	APIVersion   string        `yaml:"api_version"`
	UIClientMode string        `yaml:"ui_client_mode"`
	Timeout      time.Duration `yaml:"timeout"`
	LiveURL      string        `yaml:"live_url"`
	SandboxURL   string        `yaml:"sandbox_url"`
}

// ReferenceConfig controls reference validation and generation.
type ReferenceConfig struct {
	MaxLength  int    `yaml:"max_length"`
	TrimSuffix int    `yaml:"trim_suffix"`
	Strategy   string `yaml:"strategy"`
	DeviceID   string `yaml:"device_id"`
}

type Config struct {
	App struct {
		Env string `yaml:"env"`
	} `yaml:"app"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Gateway      GatewayConfig   `yaml:"gateway"`
	Reference    ReferenceConfig `yaml:"reference"`
	RegisterCard struct {
		Amount   string `yaml:"amount"`
		Currency string `yaml:"currency"`
	} `yaml:"register_card"`
	DeviceSignal struct {
		URL      string        `yaml:"url"`
		Timeout  time.Duration `yaml:"timeout"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"device_signal"`
	Postgres struct {
		DSN string `yaml:"dsn"`
	} `yaml:"postgres"`
	Redis struct {
		Addr string `yaml:"addr"`
	} `yaml:"redis"`
	ReferenceGuard struct {
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"reference_guard"`
	Kafka struct {
		BootstrapServers string `yaml:"bootstrap_servers"`
		Topic            string `yaml:"topic"`
	} `yaml:"kafka"`
	Jaeger struct {
		Port string `yaml:"port"`
	} `yaml:"jaeger"`
	JWT struct {
		Secret string `yaml:"jwt_secret"`
	} `yaml:"jwt"`
	RateLimit struct {
		Limit  int           `yaml:"limit"`
		Window time.Duration `yaml:"window"`
	} `yaml:"rate_limit"`
}

func Load(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// First, we substitute environment variables into the raw YAML file.
	expandedFile := os.ExpandEnv(string(file))

	if err := yaml.Unmarshal([]byte(expandedFile), config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "production"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Gateway.APIVersion == "" {
		c.Gateway.APIVersion = "5.0.0"
	}
	if c.Gateway.UIClientMode == "" {
		c.Gateway.UIClientMode = "Custom-UI"
	}
	if c.Gateway.Timeout <= 0 {
		c.Gateway.Timeout = 30 * time.Second
	}
	if c.Reference.MaxLength == 0 {
		c.Reference.MaxLength = 50
	}
	if c.Reference.TrimSuffix == 0 {
		c.Reference.TrimSuffix = 4
	}
	if c.Reference.Strategy == "" {
		c.Reference.Strategy = "device"
	}
	if c.RegisterCard.Amount == "" {
		c.RegisterCard.Amount = "0.01"
	}
	if c.RegisterCard.Currency == "" {
		c.RegisterCard.Currency = "GBP"
	}
	if c.DeviceSignal.Timeout <= 0 {
		c.DeviceSignal.Timeout = 2 * time.Second
	}
	if c.DeviceSignal.CacheTTL <= 0 {
		c.DeviceSignal.CacheTTL = 10 * time.Minute
	}
	if c.ReferenceGuard.TTL <= 0 {
		c.ReferenceGuard.TTL = 24 * time.Hour
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "transaction-outcomes"
	}
	if c.RateLimit.Limit == 0 {
		c.RateLimit.Limit = 100
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = time.Minute
	}
}

func (c *Config) validate() error {
	switch c.Reference.Strategy {
	case "device", "uuid":
	default:
		return fmt.Errorf("config: reference.strategy must be device or uuid, got %q", c.Reference.Strategy)
	}
	switch c.Gateway.UIClientMode {
	case "Judo-SDK", "Custom-UI":
	default:
		return fmt.Errorf("config: gateway.ui_client_mode must be Judo-SDK or Custom-UI, got %q", c.Gateway.UIClientMode)
	}
	if c.Reference.MaxLength < 0 {
		return fmt.Errorf("config: reference.max_length must not be negative")
	}
	return nil
}

// KafkaBrokers splits the comma separated bootstrap list.
func (c *Config) KafkaBrokers() []string {
	var out []string
	for _, b := range strings.Split(c.Kafka.BootstrapServers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
