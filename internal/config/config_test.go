// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, duration parsing, and defaults

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"

database:
  path: "./test.db"

genai:
  base_url: "https://inference.example.com/openai/v1"
  api_key: "test-key"
  conversation_store_id: "store-abc"
  chat_model: "openai.gpt-4.1"
  title_model: "openai.gpt-4.1-mini"
  request_timeout: "30s"

poller:
  interval: "500ms"
  max_attempts: 3
  refresh_delays: ["1s", "2s"]

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:8080")
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.GenAI.BaseURL != "https://inference.example.com/openai/v1" {
		t.Errorf("GenAI.BaseURL = %q", cfg.GenAI.BaseURL)
	}
	if cfg.GenAI.RequestTimeout != 30*time.Second {
		t.Errorf("GenAI.RequestTimeout = %v, want %v", cfg.GenAI.RequestTimeout, 30*time.Second)
	}
	if cfg.GenAI.TitleModel != "openai.gpt-4.1-mini" {
		t.Errorf("GenAI.TitleModel = %q", cfg.GenAI.TitleModel)
	}

	// Poller policy with duration parsing
	if cfg.Poller.Interval != 500*time.Millisecond {
		t.Errorf("Poller.Interval = %v, want %v", cfg.Poller.Interval, 500*time.Millisecond)
	}
	if cfg.Poller.MaxAttempts != 3 {
		t.Errorf("Poller.MaxAttempts = %d, want 3", cfg.Poller.MaxAttempts)
	}
	if len(cfg.Poller.RefreshDelays) != 2 || cfg.Poller.RefreshDelays[1] != 2*time.Second {
		t.Errorf("Poller.RefreshDelays = %v, want [1s 2s]", cfg.Poller.RefreshDelays)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_Defaults(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: "./test.db"
genai:
  base_url: "https://inference.example.com/openai/v1"
  api_key: "test-key"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Poller.Interval != DefaultPollInterval {
		t.Errorf("Poller.Interval = %v, want default %v", cfg.Poller.Interval, DefaultPollInterval)
	}
	if cfg.Poller.MaxAttempts != DefaultPollMaxAttempts {
		t.Errorf("Poller.MaxAttempts = %d, want default %d", cfg.Poller.MaxAttempts, DefaultPollMaxAttempts)
	}
	want := DefaultRefreshDelays()
	if len(cfg.Poller.RefreshDelays) != len(want) {
		t.Fatalf("Poller.RefreshDelays = %v, want %v", cfg.Poller.RefreshDelays, want)
	}
	for i := range want {
		if cfg.Poller.RefreshDelays[i] != want[i] {
			t.Errorf("Poller.RefreshDelays[%d] = %v, want %v", i, cfg.Poller.RefreshDelays[i], want[i])
		}
	}
	if cfg.GenAI.ChatModel != DefaultChatModel {
		t.Errorf("GenAI.ChatModel = %q, want default %q", cfg.GenAI.ChatModel, DefaultChatModel)
	}
	if cfg.GenAI.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("GenAI.RequestTimeout = %v, want default %v", cfg.GenAI.RequestTimeout, DefaultRequestTimeout)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("PARLEY_TEST_API_KEY", "secret-from-env")

	configPath := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: "./test.db"
genai:
  base_url: "https://inference.example.com/openai/v1"
  api_key: "${PARLEY_TEST_API_KEY}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.GenAI.APIKey != "secret-from-env" {
		t.Errorf("GenAI.APIKey = %q, want %q", cfg.GenAI.APIKey, "secret-from-env")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing http_addr",
			content: `
database:
  path: "./test.db"
genai:
  base_url: "https://example.com"
  api_key: "k"
`,
			wantErr: "server.http_addr",
		},
		{
			name: "missing database path",
			content: `
server:
  http_addr: ":8080"
genai:
  base_url: "https://example.com"
  api_key: "k"
`,
			wantErr: "database.path",
		},
		{
			name: "missing api key",
			content: `
server:
  http_addr: ":8080"
database:
  path: "./test.db"
genai:
  base_url: "https://example.com"
`,
			wantErr: "genai.api_key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, tt.content)
			_, err := Load(configPath)
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_BadDuration(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: "./test.db"
genai:
  base_url: "https://example.com"
  api_key: "k"
poller:
  interval: "not-a-duration"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for bad duration, got nil")
	}
	if !strings.Contains(err.Error(), "poller.interval") {
		t.Errorf("Load() error = %v, want mention of poller.interval", err)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
}
