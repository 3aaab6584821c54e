package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default automation timeouts and retry policy.
const (
	defaultAutomationTimeoutShort = 30 * time.Second
	defaultAutomationTimeoutLong  = 240 * time.Second
	defaultAutomationMaxRetries   = 3
)

// AutomationConfig holds the workflow-automation service endpoints and
// the shared static auth header.
type AutomationConfig struct {
	GeneratePromptsURL string `yaml:"generate-prompts-url"`
	RunAnalysisURL     string `yaml:"run-analysis-url"`
	RecommendationsURL string `yaml:"recommendations-url"`
	ChatURL            string `yaml:"chat-url"`

	AuthHeader string `yaml:"auth-header"`
	AuthToken  string `yaml:"auth-token"`

	TimeoutShort time.Duration `yaml:"timeout-short"`
	TimeoutLong  time.Duration `yaml:"timeout-long"`
	MaxRetries   int           `yaml:"max-retries"`
}

// LoadAutomationConfig loads automation settings from the YAML config
// file, applying env overrides and defaults.
func LoadAutomationConfig(configPath string) (AutomationConfig, error) {
	// fileConfig maps the YAML fields needed for automation settings.
	type fileConfig struct {
		Automation AutomationConfig `yaml:"automation"`
	}

	var result AutomationConfig

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return AutomationConfig{}, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
		result = cfg.Automation
	}

	if token := strings.TrimSpace(os.Getenv(EnvAutomationToken)); token != "" {
		result.AuthToken = token
	}
	if result.AuthHeader == "" {
		result.AuthHeader = "x-automation-auth"
	}
	if result.TimeoutShort <= 0 {
		result.TimeoutShort = defaultAutomationTimeoutShort
	}
	if result.TimeoutLong <= 0 {
		result.TimeoutLong = defaultAutomationTimeoutLong
	}
	if result.MaxRetries <= 0 {
		result.MaxRetries = defaultAutomationMaxRetries
	}
	return result, nil
}

// RedisConfig holds the optional Redis rate-limit backend settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	Prefix   string `yaml:"prefix"`
	DB       int    `yaml:"db"`
}

// LoadRedisConfig loads Redis settings from the YAML config file with
// an env override for the address. An empty address disables the Redis
// backend entirely.
func LoadRedisConfig(configPath string) (RedisConfig, error) {
	// fileConfig maps the YAML fields needed for Redis settings.
	type fileConfig struct {
		Redis RedisConfig `yaml:"redis"`
	}

	var result RedisConfig

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.Redis
		}
	}

	if addr := strings.TrimSpace(os.Getenv(EnvRedisAddr)); addr != "" {
		result.Addr = addr
	}
	return result, nil
}
