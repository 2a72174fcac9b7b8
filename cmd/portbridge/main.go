package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/AgentOS/portbridge/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/infrastructure/server"
)

func main() {
	// Parse flags
	configPath := flag.String("config", os.Getenv(config.FileEnv), "YAML config file")
	port := flag.String("port", "", "Server port (overrides config)")
	logLevel := flag.String("log-level", "", "Log level (overrides config)")
	dev := flag.Bool("dev", false, "Development mode")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *port != "" {
		cfg.Server.Port = *port
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
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
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		srv.Close()
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}
}
