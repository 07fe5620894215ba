package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig(dir string) *Config {
	cfg := DefaultConfig()
	cfg.DocumentDirectory = dir
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "stdio" {
		t.Errorf("Expected default mode to be 'stdio', got '%s'", cfg.Mode)
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}
	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}
	if cfg.ServerName != "mcp-doc-viewer" {
		t.Errorf("Expected default server name to be 'mcp-doc-viewer', got '%s'", cfg.ServerName)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}
	if cfg.Zoom != "75%" {
		t.Errorf("Expected default zoom to be '75%%', got '%s'", cfg.Zoom)
	}
	if cfg.LazyLoadingWindow != 2 {
		t.Errorf("Expected default lazy loading window to be 2, got %d", cfg.LazyLoadingWindow)
	}
	if cfg.CacheSize != 100 {
		t.Errorf("Expected default cache size to be 100, got %d", cfg.CacheSize)
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Errorf("Expected default fetch timeout to be 30s, got %s", cfg.FetchTimeout)
	}

	currentDir, _ := os.Getwd()
	if cfg.DocumentDirectory != currentDir {
		t.Errorf("Expected default document directory to be '%s', got '%s'", currentDir, cfg.DocumentDirectory)
	}
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid stdio config", modify: func(*Config) {}},
		{name: "valid server config", modify: func(c *Config) { c.Mode = ModeServer }},
		{name: "whole page zoom", modify: func(c *Config) { c.Zoom = "whole-page-zoom" }},
		{name: "zero lazy window", modify: func(c *Config) { c.LazyLoadingWindow = 0 }},
		{name: "invalid port ignored in stdio mode", modify: func(c *Config) { c.Port = 0 }},
		{
			name:    "invalid mode",
			modify:  func(c *Config) { c.Mode = "invalid" },
			wantErr: "mode must be either 'stdio' or 'server'",
		},
		{
			name:    "port too low",
			modify:  func(c *Config) { c.Mode = ModeServer; c.Port = 0 },
			wantErr: "port must be between 1 and 65535",
		},
		{
			name:    "port too high",
			modify:  func(c *Config) { c.Mode = ModeServer; c.Port = 70000 },
			wantErr: "port must be between 1 and 65535",
		},
		{
			name:    "empty document directory",
			modify:  func(c *Config) { c.DocumentDirectory = "" },
			wantErr: "document directory cannot be empty",
		},
		{
			name:    "non-positive max file size",
			modify:  func(c *Config) { c.MaxFileSize = 0 },
			wantErr: "maximum file size must be positive",
		},
		{
			name:    "bad zoom",
			modify:  func(c *Config) { c.Zoom = "huge" },
			wantErr: "invalid zoom",
		},
		{
			name:    "negative lazy window",
			modify:  func(c *Config) { c.LazyLoadingWindow = -1 },
			wantErr: "lazy loading window cannot be negative",
		},
		{
			name:    "zero viewport",
			modify:  func(c *Config) { c.ViewportHeight = 0 },
			wantErr: "viewport size must be positive",
		},
		{
			name:    "zero cache",
			modify:  func(c *Config) { c.CacheSize = 0 },
			wantErr: "token cache size must be positive",
		},
		{
			name:    "zero timeout",
			modify:  func(c *Config) { c.FetchTimeout = 0 },
			wantErr: "fetch timeout must be positive",
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.LogLevel = "invalid" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(dir)
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Config.Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Config.Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Config.Validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateDirectoryCreation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "scans")
	cfg := validConfig(dir)

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Config.Validate() unexpected error: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("Expected directory %s to be created", dir)
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{Host: "localhost", Port: 9090}
	if got := cfg.Address(); got != "localhost:9090" {
		t.Errorf("Config.Address() = %v, want %v", got, "localhost:9090")
	}
}

func TestConfigModes(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.IsStdioMode() || cfg.IsServerMode() {
		t.Error("Expected default config to be in stdio mode")
	}

	cfg.Mode = ModeServer
	if cfg.IsStdioMode() || !cfg.IsServerMode() {
		t.Error("Expected server mode")
	}

	cfg.LogLevel = "debug"
	if !cfg.IsDebug() {
		t.Error("Expected IsDebug() with log level debug")
	}
}

func TestConfigString(t *testing.T) {
	cfg := DefaultConfig()
	s := cfg.String()

	for _, want := range []string{"Mode: stdio", "Port: 8080", "Zoom: 75%", "LazyLoadingWindow: 2", "FetchTimeout: 30s"} {
		if !strings.Contains(s, want) {
			t.Errorf("Config.String() = %s, missing %q", s, want)
		}
	}
}
