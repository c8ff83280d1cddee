package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestInitDefaults(t *testing.T) {
	cfg := Config{}
	if err := Init(&cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DatasetPath != "base.csv" {
		t.Errorf("expected DatasetPath=base.csv, got %s", cfg.DatasetPath)
	}
	if cfg.Collection != "opiniones" {
		t.Errorf("expected Collection=opiniones, got %s", cfg.Collection)
	}
	if cfg.MaxTokens != 8191 {
		t.Errorf("expected MaxTokens=8191, got %d", cfg.MaxTokens)
	}
	if cfg.TopK != 10 {
		t.Errorf("expected TopK=10, got %d", cfg.TopK)
	}
	if cfg.EmbedModel != "text-embedding-3-small" {
		t.Errorf("expected EmbedModel=text-embedding-3-small, got %s", cfg.EmbedModel)
	}
	if cfg.RequestTimeout != 60*time.Second {
		t.Errorf("expected RequestTimeout=60s, got %v", cfg.RequestTimeout)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("expected CORSOrigins=[*], got %v", cfg.CORSOrigins)
	}
}

func TestInitFromEnv(t *testing.T) {
	t.Setenv("MAX_TOKENS", "512")
	t.Setenv("TOP_K", "3")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("FORCE_REINDEX", "true")

	cfg := Config{}
	if err := Init(&cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.MaxTokens != 512 {
		t.Errorf("expected MaxTokens=512, got %d", cfg.MaxTokens)
	}
	if cfg.TopK != 3 {
		t.Errorf("expected TopK=3, got %d", cfg.TopK)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("expected 2 CORS origins, got %v", cfg.CORSOrigins)
	}
	if !cfg.ForceReindex {
		t.Error("expected ForceReindex=true")
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	tmpDir := t.TempDir()
	envPath := filepath.Join(tmpDir, ".env")
	content := "DATASET_PATH=encuesta.xlsx\nCHAT_MODEL=gpt-4o-mini\n"
	if err := os.WriteFile(envPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("DATASET_PATH")
		os.Unsetenv("CHAT_MODEL")
	})

	cfg, err := Load(envPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DatasetPath != "encuesta.xlsx" {
		t.Errorf("expected DatasetPath=encuesta.xlsx, got %s", cfg.DatasetPath)
	}
	if cfg.ChatModel != "gpt-4o-mini" {
		t.Errorf("expected ChatModel=gpt-4o-mini, got %s", cfg.ChatModel)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }, true},
		{"negative top k", func(c *Config) { c.TopK = -1 }, true},
		{"approx tokenizer", func(c *Config) { c.Tokenizer = "approx" }, false},
		{"unknown tokenizer", func(c *Config) { c.Tokenizer = "bpe" }, true},
		{"zero burst with limit", func(c *Config) { c.RateLimitBurst = 0 }, true},
		{"zero burst without limit", func(c *Config) { c.RateLimitRPS, c.RateLimitBurst = 0, 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{}
			if err := Init(&cfg); err != nil {
				t.Fatal(err)
			}
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
