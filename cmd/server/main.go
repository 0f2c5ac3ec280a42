package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/infrastructure/config"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/server"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to a TOML config file")
	host := flag.String("host", "", "Listen host (overrides HOST)")
	port := flag.String("port", "", "Listen port (overrides PORT)")
	upstream := flag.String("upstream", "", "Upstream chat-completions URL (overrides UPSTREAM_URL)")
	dev := flag.Bool("dev", false, "Development logging")
	noAgent := flag.Bool("no-agent", false, "Do not launch the agent process")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *upstream != "" {
		cfg.Upstream.URL = *upstream
	}
	if *dev {
		cfg.Logging.Development = true
	}
	if *noAgent {
		cfg.Agent.Enabled = false
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-sigChan:
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		if cerr := srv.Close(); cerr != nil {
			log.Printf("Error during shutdown: %v", cerr)
		}
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}
}
