package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/hdpredict/internal/app"
	"github.com/shrimpsizemoose/hdpredict/internal/handlers"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to start: %v", err)
	}

	server := &http.Server{
		Addr:              service.Config.Server.Port,
		Handler:           handlers.NewRouter(service),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info.Printf("Starting hdpredict server on %s", service.Config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error.Fatalf("hdpredict server failed: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info.Println("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error.Printf("Graceful shutdown failed: %v", err)
	}

	if err := service.Close(); err != nil {
		logger.Error.Printf("Failed to close service: %v", err)
	}
	logger.Info.Println("Database connection closed")
}
