// Package config loads application configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0,lte=65535"`
}

// FeedConfig controls GTFS-RT endpoints and fetch budgets.
type FeedConfig struct {
	FeedURLs           map[string]string `yaml:"feedURLs"`
	AlertsURL          string            `yaml:"alertsURL" validate:"omitempty,url"`
	TimeoutSeconds     int               `yaml:"timeoutSeconds" validate:"gte=0"`
	ScanTimeoutSeconds int               `yaml:"scanTimeoutSeconds" validate:"gte=0"`
}

// ResolverConfig carries the resolver score cutoffs.
type ResolverConfig struct {
	KeywordCutoff float64 `yaml:"keywordCutoff" validate:"gte=0,lte=100"`
	FuzzyCutoff   float64 `yaml:"fuzzyCutoff" validate:"gte=0,lte=100"`
	PartialCutoff float64 `yaml:"partialCutoff" validate:"gte=0,lte=100"`
}

// EquipmentConfig controls the equipment status snapshot.
type EquipmentConfig struct {
	TTLSeconds int `yaml:"ttlSeconds" validate:"gte=0"`
}

// Config is the full application configuration.
type Config struct {
	Server       ServerConfig    `yaml:"server"`
	StationsFile string          `yaml:"stationsFile" validate:"required"`
	Feed         FeedConfig      `yaml:"feed"`
	Resolver     ResolverConfig  `yaml:"resolver"`
	Equipment    EquipmentConfig `yaml:"equipment"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server:       ServerConfig{Port: 8080},
		StationsFile: "data/stations.json",
		Feed: FeedConfig{
			TimeoutSeconds:     10,
			ScanTimeoutSeconds: 5,
		},
		Resolver: ResolverConfig{
			KeywordCutoff: 60,
			FuzzyCutoff:   70,
			PartialCutoff: 80,
		},
		Equipment: EquipmentConfig{TTLSeconds: 300},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is empty or the file is missing, defaults stand), then environment
// overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("STATIONS_FILE"); v != "" {
		cfg.StationsFile = v
	}
	if v := os.Getenv("ALERTS_URL"); v != "" {
		cfg.Feed.AlertsURL = v
	}
	if v := os.Getenv("FEED_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Feed.TimeoutSeconds = n
		}
	}
}
