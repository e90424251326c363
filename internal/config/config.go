package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string         `yaml:"env" env:"RELAY_ENV" env-default:"prod"`
	NewRelic NewRelicConfig `yaml:"newrelic"`
	Sync     SyncConfig     `yaml:"sync"`
	Device   DeviceConfig   `yaml:"device"`
	Store    StoreConfig    `yaml:"store"`
	Settings SettingsConfig `yaml:"settings"`
	Health   HealthConfig   `yaml:"health"`
	Log      LogConfig      `yaml:"log"`
}

type NewRelicConfig struct {
	BaseURL string        `yaml:"base_url" env:"NEWRELIC_API_URL" env-default:"https://api.newrelic.com/v2"`
	Timeout time.Duration `yaml:"timeout" env-default:"30s"`
}

// SyncConfig controls interval delivery to the watch. Retries are unbounded,
// so only the delay between attempts is configurable.
type SyncConfig struct {
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"10s"`
}

type SettingsConfig struct {
	PageURL string `yaml:"page_url" env:"SETTINGS_PAGE_URL" env-default:"http://chrisregado.github.io/newrelic-watch/config/v1.0.2/config.html"`
}

type HealthConfig struct {
	Address string `yaml:"address" env:"HEALTH_ADDRESS" env-default:":8080"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env-default:"json"`
}

func MustLoad(configPath string) *Config {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file not found: " + configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		panic("failed to read config: " + err.Error())
	}

	return cfg
}

func Load(configPath string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
