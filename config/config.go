// Package config loads the annotator configuration.
//
// Settings are read from a YAML file; unset values get defaults and the
// service endpoints can be overridden from the environment:
//
//	ANNOTATOR_STORAGE_URI         storage.url
//	ANNOTATOR_STORAGE_AUTH_TOKEN  storage.token
//	ANNOTATOR_COMPUTE_URI         compute.url
//	ANNOTATOR_COMPUTE_AUTH_TOKEN  compute.token
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/annotator/annotation"
	"github.com/tsawler/annotator/markup"
)

// Config holds all annotator configuration.
type Config struct {
	Storage ServiceConfig `yaml:"storage"`
	Compute ServiceConfig `yaml:"compute"`
	OCR     OCRConfig     `yaml:"ocr"`
	NER     NERConfig     `yaml:"ner"`

	// Types lists the box types offered to the operator, with their labels.
	Types annotation.Vocabulary `yaml:"types"`
	// Tags lists the entity tags and their highlight colors.
	Tags markup.Palette `yaml:"tags"`

	LogLevel string `yaml:"log_level"`
}

// ServiceConfig locates one remote service.
type ServiceConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`

	// RateLimit is the number of requests per second; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
}

// OCRConfig controls the local recognizer.
type OCRConfig struct {
	Language    string `yaml:"language"`
	PageSegMode int    `yaml:"page_seg_mode"`
}

// NERConfig controls the entity tagger of the compute service.
type NERConfig struct {
	Model string `yaml:"model"`
}

// Environment variables overriding the service settings
const (
	EnvStorageURI   = "ANNOTATOR_STORAGE_URI"
	EnvStorageToken = "ANNOTATOR_STORAGE_AUTH_TOKEN"
	EnvComputeURI   = "ANNOTATOR_COMPUTE_URI"
	EnvComputeToken = "ANNOTATOR_COMPUTE_AUTH_TOKEN"
)

func (c *Config) defaults() {
	if c.Storage.URL == "" {
		c.Storage.URL = "http://127.0.0.1:3000"
	}
	if c.Compute.URL == "" {
		c.Compute.URL = "http://127.0.0.1:5000"
	}
	if c.Storage.Timeout <= 0 {
		c.Storage.Timeout = 30 * time.Second
	}
	// recognition of a full page can take minutes
	if c.Compute.Timeout <= 0 {
		c.Compute.Timeout = 5 * time.Minute
	}
	if c.Compute.RateLimit > 0 && c.Compute.Burst <= 0 {
		c.Compute.Burst = 1
	}
	if c.Storage.RateLimit > 0 && c.Storage.Burst <= 0 {
		c.Storage.Burst = 1
	}
	if c.OCR.Language == "" {
		c.OCR.Language = "fra"
	}
	if c.OCR.PageSegMode <= 0 {
		c.OCR.PageSegMode = 7
	}
	if c.NER.Model == "" {
		c.NER.Model = "bert"
	}
	if len(c.Types) == 0 {
		c.Types = annotation.DefaultVocabulary
	}
	if len(c.Tags) == 0 {
		c.Tags = markup.DefaultPalette
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// applyEnv overrides the service settings from the environment
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvStorageURI); v != "" {
		c.Storage.URL = v
	}
	if v := getenv(EnvStorageToken); v != "" {
		c.Storage.Token = v
	}
	if v := getenv(EnvComputeURI); v != "" {
		c.Compute.URL = v
	}
	if v := getenv(EnvComputeToken); v != "" {
		c.Compute.Token = v
	}
}

// Default returns the configuration used without a file, after environment
// overrides.
func Default() *Config {
	cfg := &Config{}
	cfg.applyEnv(os.Getenv)
	cfg.defaults()
	return cfg
}

// Load reads a YAML config file. An empty path yields Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

// Parse decodes a YAML document and fills in defaults. The environment is
// not consulted.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.defaults()
	return cfg, nil
}

// Level returns the configured log level, info when unknown.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
