// Package config loads pipeline configuration from an optional YAML file
// with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration.
type Config struct {
	Gemini   GeminiConfig   `yaml:"gemini"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Workflow WorkflowConfig `yaml:"workflow"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type GeminiConfig struct {
	APIKey      string `yaml:"api_key"`
	Model       string `yaml:"model"`
	SearchModel string `yaml:"search_model"`
	BaseURL     string `yaml:"base_url"`
}

type PipelineConfig struct {
	BatchSize      int      `yaml:"batch_size"`
	MaxRetries     int      `yaml:"max_retries"`
	RequestTimeout Duration `yaml:"request_timeout"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
}

type WorkflowConfig struct {
	Persona          string `yaml:"persona"`
	MaxCycles        int    `yaml:"max_cycles"`
	ResearchAttempts int    `yaml:"research_attempts"`
}

type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "90s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Gemini: GeminiConfig{
			Model: "gemini-2.0-flash",
		},
		Pipeline: PipelineConfig{
			BatchSize:      10,
			MaxRetries:     0,
			RequestTimeout: Duration(2 * time.Minute),
			RateLimitRPS:   1,
		},
		Workflow: WorkflowConfig{
			Persona:          "student",
			MaxCycles:        5,
			ResearchAttempts: 3,
		},
		HTTP: HTTPConfig{
			Host: "localhost",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads defaults, then the YAML file at path (if non-empty), then
// environment overrides, in that precedence order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Gemini.APIKey = envStr("GEMINI_API_KEY", c.Gemini.APIKey)
	c.Gemini.Model = envStr("GEMINI_MODEL", c.Gemini.Model)
	c.Gemini.SearchModel = envStr("GEMINI_SEARCH_MODEL", c.Gemini.SearchModel)
	c.Gemini.BaseURL = envStr("GEMINI_BASE_URL", c.Gemini.BaseURL)
	c.Workflow.Persona = envStr("OUTREACH_PERSONA", c.Workflow.Persona)

	var err error
	if c.Pipeline.BatchSize, err = envInt("OUTREACH_BATCH_SIZE", c.Pipeline.BatchSize); err != nil {
		return err
	}
	if c.Pipeline.MaxRetries, err = envInt("OUTREACH_MAX_RETRIES", c.Pipeline.MaxRetries); err != nil {
		return err
	}
	if c.Pipeline.RateLimitRPS, err = envFloat("OUTREACH_RATE_LIMIT_RPS", c.Pipeline.RateLimitRPS); err != nil {
		return err
	}
	if c.Workflow.MaxCycles, err = envInt("OUTREACH_MAX_CYCLES", c.Workflow.MaxCycles); err != nil {
		return err
	}

	timeout, err := envDuration("OUTREACH_REQUEST_TIMEOUT", c.Pipeline.RequestTimeout.Std())
	if err != nil {
		return err
	}
	c.Pipeline.RequestTimeout = Duration(timeout)
	return nil
}

func envStr(varName, fallback string) string {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(varName string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envFloat(varName string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envDuration(varName string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}
