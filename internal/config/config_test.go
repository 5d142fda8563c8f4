package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"excel-relay/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearDifyEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DIFY_API_URL", "DIFY_API_KEY", "DIFY_USER", "RELAY_DIFY_API_KEY"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearDifyEnv(t)
	path := writeConfig(t, "dify:\n  api_key: app-from-file\n")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Addr() != "0.0.0.0:8010" {
		t.Errorf("Addr = %q", cfg.Addr())
	}
	if cfg.Dify.BaseURL != "http://10.2.90.20/v1" {
		t.Errorf("BaseURL = %q", cfg.Dify.BaseURL)
	}
	if cfg.Dify.User != "abc-123" || cfg.Dify.Query != config.DefaultQuery || cfg.Dify.FileMIME != "document/xls|xlsx" {
		t.Errorf("dify defaults = %+v", cfg.Dify)
	}
	if cfg.Dify.Timeout != 5*time.Minute {
		t.Errorf("Timeout = %s", cfg.Dify.Timeout)
	}
	if cfg.Upload.FormField != "file" {
		t.Errorf("FormField = %q", cfg.Upload.FormField)
	}
	if cfg.Dify.APIKey != "app-from-file" {
		t.Errorf("APIKey = %q", cfg.Dify.APIKey)
	}
}

func TestLoadFileValues(t *testing.T) {
	clearDifyEnv(t)
	path := writeConfig(t, `
server:
  port: 9000
  write_timeout: 15m
dify:
  base_url: "https://dify.example.com/v1/"
  api_key: " app-x "
  timeout: 90s
log:
  level: debug
  format: json
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 || cfg.Server.WriteTimeout != 15*time.Minute {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Dify.BaseURL != "https://dify.example.com/v1" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.Dify.BaseURL)
	}
	if cfg.Dify.APIKey != "app-x" {
		t.Errorf("APIKey = %q, want trimmed", cfg.Dify.APIKey)
	}
	if cfg.Dify.Timeout != 90*time.Second {
		t.Errorf("Timeout = %s", cfg.Dify.Timeout)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearDifyEnv(t)
	t.Setenv("DIFY_API_URL", "http://10.2.80.119/v1")
	t.Setenv("DIFY_API_KEY", "app-env")
	t.Setenv("DIFY_USER", "revit-user")
	t.Setenv("RELAY_SERVER_PORT", "8099")
	path := writeConfig(t, "dify:\n  api_key: app-file\n  base_url: http://file/v1\n")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dify.BaseURL != "http://10.2.80.119/v1" || cfg.Dify.APIKey != "app-env" || cfg.Dify.User != "revit-user" {
		t.Errorf("dify = %+v", cfg.Dify)
	}
	if cfg.Server.Port != 8099 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	clearDifyEnv(t)
	t.Setenv("DIFY_API_KEY", "app-env")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dify.APIKey != "app-env" {
		t.Errorf("APIKey = %q", cfg.Dify.APIKey)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "missing api key", content: "server:\n  port: 8010\n", want: "dify.api_key is required"},
		{name: "bad timeout", content: "dify:\n  api_key: k\n  timeout: 0s\n", want: "dify.timeout must be positive"},
		{name: "bad port", content: "server:\n  port: 70000\ndify:\n  api_key: k\n", want: "server.port out of range"},
		{name: "empty base url", content: "dify:\n  api_key: k\n  base_url: \"/\"\n", want: "dify.base_url is required"},
		{name: "empty query", content: "dify:\n  api_key: k\n  query: \"\"\n", want: "dify.query is required"},
		{name: "empty file mime", content: "dify:\n  api_key: k\n  file_mime: \"\"\n", want: "dify.file_mime is required"},
		{name: "empty cors origins", content: "dify:\n  api_key: k\ncors:\n  allowed_origins: []\n", want: "cors.allowed_origins must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearDifyEnv(t)
			_, err := config.Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearDifyEnv(t)
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
