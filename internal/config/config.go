package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-doc-viewer/internal/viewer"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort         = 8080
	DefaultHost         = "127.0.0.1"
	DefaultLogLevel     = "info"
	DefaultMaxFileSize  = 100 * 1024 * 1024 // 100MB
	DefaultCacheSize    = 100
	DefaultFetchTimeout = 30 * time.Second

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "MCP_DOCVIEW"
)

// Config holds all configuration for the document viewer MCP server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Document configuration
	DocumentDirectory string
	MaxFileSize       int64 // Maximum document file size in bytes

	// Viewer configuration
	Zoom              string
	LazyLoadingWindow int
	ViewportWidth     float64
	ViewportHeight    float64

	// Token loading
	CacheSize    int
	FetchTimeout time.Duration

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Mode:              ModeStdio, // Default to stdio mode for MCP compatibility
		Host:              DefaultHost,
		Port:              DefaultPort,
		DocumentDirectory: currentDir,
		MaxFileSize:       DefaultMaxFileSize,
		Zoom:              viewer.DefaultZoom,
		LazyLoadingWindow: viewer.DefaultLazyLoadingWindow,
		ViewportWidth:     viewer.DefaultWidth,
		ViewportHeight:    viewer.DefaultHeight,
		CacheSize:         DefaultCacheSize,
		FetchTimeout:      DefaultFetchTimeout,
		Version:           "1.0.0",
		ServerName:        "mcp-doc-viewer",
		LogLevel:          DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.DocumentDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.DocumentDirectory); err == nil {
			cfg.DocumentDirectory = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.DocumentDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("zoom", cfg.Zoom)
	viper.SetDefault("lazywindow", cfg.LazyLoadingWindow)
	viper.SetDefault("width", cfg.ViewportWidth)
	viper.SetDefault("height", cfg.ViewportHeight)
	viper.SetDefault("cachesize", cfg.CacheSize)
	viper.SetDefault("fetchtimeout", cfg.FetchTimeout)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.DocumentDirectory, "Directory containing documents, manifests and OCR output")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum document file size in bytes")
	pflag.String("zoom", cfg.Zoom, "Initial zoom: a percentage such as '75%' or 'whole-page-zoom'")
	pflag.Int("lazywindow", cfg.LazyLoadingWindow, "Pages on either side of the current page that load tokens")
	pflag.Float64("width", cfg.ViewportWidth, "Viewport width in pixels")
	pflag.Float64("height", cfg.ViewportHeight, "Viewport height in pixels")
	pflag.Int("cachesize", cfg.CacheSize, "Number of token URLs kept in the token cache")
	pflag.Duration("fetchtimeout", cfg.FetchTimeout, "Timeout for fetching token URLs")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "host", "port", "dir", "loglevel", "maxfilesize",
		"zoom", "lazywindow", "width", "height", "cachesize", "fetchtimeout",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP Document Viewer - A Model Context Protocol server for annotating OCR'd documents\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/scans                    "+
			"# stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --dir=/path/to/scans      # server mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --zoom=whole-page-zoom --lazywindow=4   # viewer settings\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  MCP_DOCVIEW_MODE         Server mode\n")
		fmt.Fprintf(os.Stderr, "  MCP_DOCVIEW_HOST         Server host\n")
		fmt.Fprintf(os.Stderr, "  MCP_DOCVIEW_PORT         Server port\n")
		fmt.Fprintf(os.Stderr, "  MCP_DOCVIEW_DIR          Document directory\n")
		fmt.Fprintf(os.Stderr, "  MCP_DOCVIEW_LOGLEVEL     Log level\n")
		fmt.Fprintf(os.Stderr, "  MCP_DOCVIEW_MAXFILESIZE  Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  MCP_DOCVIEW_ZOOM         Initial zoom\n")
		fmt.Fprintf(os.Stderr, "  MCP_DOCVIEW_LAZYWINDOW   Lazy loading window\n")
		fmt.Fprintf(os.Stderr, "  MCP_DOCVIEW_CACHESIZE    Token cache size\n")
		fmt.Fprintf(os.Stderr, "  MCP_DOCVIEW_FETCHTIMEOUT Token fetch timeout\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.DocumentDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.Zoom = viper.GetString("zoom")
	cfg.LazyLoadingWindow = viper.GetInt("lazywindow")
	cfg.ViewportWidth = viper.GetFloat64("width")
	cfg.ViewportHeight = viper.GetFloat64("height")
	cfg.CacheSize = viper.GetInt("cachesize")
	cfg.FetchTimeout = viper.GetDuration("fetchtimeout")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// Validate document directory
	if c.DocumentDirectory == "" {
		return errors.New("document directory cannot be empty")
	}

	// Check if document directory exists, create if it doesn't
	if _, err := os.Stat(c.DocumentDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.DocumentDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create document directory %s: %w", c.DocumentDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access document directory %s: %w", c.DocumentDirectory, err)
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate viewer settings
	if err := viewer.ValidateZoom(c.Zoom); err != nil {
		return err
	}
	if c.LazyLoadingWindow < 0 {
		return errors.New("lazy loading window cannot be negative")
	}
	if c.ViewportWidth <= 0 || c.ViewportHeight <= 0 {
		return errors.New("viewport size must be positive")
	}
	if c.CacheSize <= 0 {
		return errors.New("token cache size must be positive")
	}
	if c.FetchTimeout <= 0 {
		return errors.New("fetch timeout must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, DocumentDirectory: %s, LogLevel: %s, "+
		"MaxFileSize: %d, Zoom: %s, LazyLoadingWindow: %d, CacheSize: %d, FetchTimeout: %s}",
		c.Mode, c.Host, c.Port, c.DocumentDirectory, c.LogLevel,
		c.MaxFileSize, c.Zoom, c.LazyLoadingWindow, c.CacheSize, c.FetchTimeout)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
