package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/mcp-doc-viewer/internal/config"
	"github.com/a3tai/mcp-doc-viewer/internal/mcp"
	"github.com/a3tai/mcp-doc-viewer/internal/session"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging configures logging based on the server mode
func setupLogging(cfg *config.Config) {
	if cfg.IsStdioMode() {
		// stdout carries the MCP protocol in stdio mode
		log.SetOutput(os.Stderr)
		if !cfg.IsDebug() {
			log.SetOutput(io.Discard)
		}
	} else {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}

// hasVersionFlag reports whether args ask for the version
func hasVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// newServer wires the session service into an MCP server
func newServer(cfg *config.Config) (*mcp.Server, *session.Service, error) {
	service, err := session.NewService(session.OptionsFromConfig(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session service: %w", err)
	}

	server, err := mcp.NewServer(cfg, service)
	if err != nil {
		service.CloseAll()
		return nil, nil, fmt.Errorf("failed to create MCP server: %w", err)
	}
	return server, service, nil
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server) error {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signalCh)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		log.Printf("Received signal: %s", sig)
		log.Println("Initiating graceful shutdown...")
		cancel()

		if err := <-serverErrCh; err != nil {
			return fmt.Errorf("server shutdown with error: %w", err)
		}

	case err := <-serverErrCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	log.Println("Server stopped successfully")
	return nil
}

// runStdioMode handles stdio mode execution. The parent process controls
// the lifecycle and closes stdin to stop the server.
func runStdioMode(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx)
}

func main() {
	if hasVersionFlag(os.Args[1:]) {
		printVersion()
		return
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg)

	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() && cfg.IsServerMode() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	server, service, err := newServer(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	if cfg.IsServerMode() {
		err = runServerMode(ctx, cancel, server)
	} else {
		err = runStdioMode(ctx, server)
	}

	cancel()
	service.CloseAll()

	if err != nil {
		// stdio clients only see stderr in debug mode
		if cfg.IsServerMode() || os.Getenv("DEBUG") != "" {
			log.Printf("%v", err)
		}
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("MCP Document Viewer\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
