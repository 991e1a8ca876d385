// Package config loads the pipeline configuration from a YAML file. The
// time zone lives here on purpose: weekday and hour features depend on it,
// and making it explicit keeps the dataset reproducible across machines.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete pipeline configuration.
type Config struct {
	// Timezone is the IANA zone all weekday/hour features are derived in.
	Timezone string `yaml:"timezone"`

	Riot RiotConfig `yaml:"riot"`
}

// RiotConfig configures the Riot API client.
type RiotConfig struct {
	Routing string  `yaml:"routing"` // regional routing host: europe, americas, asia, sea
	RPS     float64 `yaml:"rps"`     // sustained requests per second
	Burst   int     `yaml:"burst"`   // token bucket burst
}

// Default returns the configuration used when no file is present. The rate
// budget matches a development key (100 requests per 2 minutes).
func Default() Config {
	return Config{
		Timezone: "Europe/Paris",
		Riot: RiotConfig{
			Routing: "europe",
			RPS:     0.8,
			Burst:   20,
		},
	}
}

// Load reads the config file at path, filling unset fields from Default.
// A missing file is not an error; it yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Timezone == "" {
		cfg.Timezone = Default().Timezone
	}
	if cfg.Riot.Routing == "" {
		cfg.Riot.Routing = Default().Riot.Routing
	}
	if cfg.Riot.RPS <= 0 {
		cfg.Riot.RPS = Default().Riot.RPS
	}
	if cfg.Riot.Burst <= 0 {
		cfg.Riot.Burst = Default().Riot.Burst
	}
	return cfg, nil
}

// Location resolves the configured time zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
