// Package config loads the process configuration: a YAML file with
// environment-variable overrides. Everything here has a working default so
// the binary runs with no config file at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/medassist/triage/internal/consult"
)

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type Config struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	MaxRounds   int     `yaml:"max_rounds"`
	Temperature float64 `yaml:"temperature"`
	Scheduler   string  `yaml:"scheduler"`

	// RulesDir optionally points at extra red-flag rule packs.
	RulesDir string `yaml:"rules_dir"`

	Server ServerConfig `yaml:"server"`
}

func Default() Config {
	return Config{
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		MaxRounds:   5,
		Temperature: 0.2,
		Scheduler:   consult.PolicyRoundRobin,
		Server:      ServerConfig{Addr: "127.0.0.1:8480"},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file entirely.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("MEDASSIST_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("MEDASSIST_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("MEDASSIST_MAX_ROUNDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MEDASSIST_MAX_ROUNDS: %w", err)
		}
		c.MaxRounds = n
	}
	if v := os.Getenv("MEDASSIST_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MEDASSIST_TEMPERATURE: %w", err)
		}
		c.Temperature = f
	}
	if v := os.Getenv("MEDASSIST_SCHEDULER"); v != "" {
		c.Scheduler = v
	}
	if v := os.Getenv("MEDASSIST_RULES_DIR"); v != "" {
		c.RulesDir = v
	}
	if v := os.Getenv("MEDASSIST_ADDR"); v != "" {
		c.Server.Addr = v
	}
	return nil
}

// Consult maps the loaded configuration onto the orchestrator's config.
func (c Config) Consult() consult.Config {
	return consult.Config{
		Provider:    c.Provider,
		Model:       c.Model,
		MaxRounds:   c.MaxRounds,
		Temperature: c.Temperature,
		Scheduler:   c.Scheduler,
	}
}
