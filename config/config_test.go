package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tsawler/annotator/annotation"
	"github.com/tsawler/annotator/markup"
)

func TestDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Storage.URL != "http://127.0.0.1:3000" || cfg.Compute.URL != "http://127.0.0.1:5000" {
		t.Errorf("service URLs = %q, %q", cfg.Storage.URL, cfg.Compute.URL)
	}
	if cfg.Compute.Timeout != 5*time.Minute || cfg.Storage.Timeout != 30*time.Second {
		t.Errorf("timeouts = %v, %v", cfg.Storage.Timeout, cfg.Compute.Timeout)
	}
	if cfg.NER.Model != "bert" || cfg.OCR.Language != "fra" {
		t.Errorf("NER model = %q, OCR language = %q", cfg.NER.Model, cfg.OCR.Language)
	}
	if len(cfg.Types) != len(annotation.DefaultVocabulary) || len(cfg.Tags) != len(markup.DefaultPalette) {
		t.Error("vocabulary or palette not defaulted")
	}
	if cfg.Level() != slog.LevelInfo {
		t.Errorf("Level() = %v", cfg.Level())
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
storage:
  url: https://example.org/storage
  token: s3cret
compute:
  url: https://example.org/compute
  rate_limit: 2.5
  timeout: 90s
ner:
  model: camembert
types:
  - type: ENTRY
    label: Entrée
tags:
  - tag: PER
    color: "#ff0000"
  - tag: ORG
    color: "#00ff00"
log_level: debug
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Storage.URL != "https://example.org/storage" || cfg.Storage.Token != "s3cret" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Compute.RateLimit != 2.5 || cfg.Compute.Burst != 1 || cfg.Compute.Timeout != 90*time.Second {
		t.Errorf("compute = %+v", cfg.Compute)
	}
	if cfg.NER.Model != "camembert" {
		t.Errorf("NER model = %q", cfg.NER.Model)
	}
	if cfg.Types.Label("ENTRY") != "Entrée" || len(cfg.Types) != 1 {
		t.Errorf("types = %+v", cfg.Types)
	}
	if cfg.Tags.Default() != "PER" || cfg.Tags.Color("ORG") != "#00ff00" {
		t.Errorf("tags = %+v", cfg.Tags)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("Level() = %v", cfg.Level())
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse([]byte("storage: [")); err == nil {
		t.Error("expected a YAML error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvStorageURI:   "https://storage",
		EnvComputeURI:   "https://compute",
		EnvComputeToken: "tok",
	}

	cfg := &Config{Storage: ServiceConfig{Token: "from-file"}}
	cfg.applyEnv(func(k string) string { return env[k] })
	cfg.defaults()

	if cfg.Storage.URL != "https://storage" || cfg.Compute.URL != "https://compute" {
		t.Errorf("URLs = %q, %q", cfg.Storage.URL, cfg.Compute.URL)
	}
	if cfg.Storage.Token != "from-file" || cfg.Compute.Token != "tok" {
		t.Errorf("tokens = %q, %q", cfg.Storage.Token, cfg.Compute.Token)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annotator.yaml")
	if err := os.WriteFile(path, []byte("compute:\n  url: https://file\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvComputeURI, "")
	t.Setenv(EnvStorageURI, "https://env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Compute.URL != "https://file" || cfg.Storage.URL != "https://env" {
		t.Errorf("URLs = %q, %q", cfg.Storage.URL, cfg.Compute.URL)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := (&Config{LogLevel: tt.in}).Level(); got != tt.want {
				t.Errorf("Level() = %v, want %v", got, tt.want)
			}
		})
	}
}
