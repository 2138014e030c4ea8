// Command dispatch runs one dispatch pass and exits. It is the CLI
// counterpart of the HTTP trigger, intended for periodic invokers such
// as cron; the invoker is responsible for non-overlapping schedules
// when no run lease is configured.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/acme/outbound-campaign-dispatch/internal/app"
	"github.com/acme/outbound-campaign-dispatch/internal/telemetry"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configPath := flag.String("config", getEnv("CONFIG_FILE", "configs/config.yaml"), "path to configuration file")
	flag.Parse()

	container, err := app.Build(ctx, *configPath)
	if err != nil {
		log.Fatalf("failed to bootstrap application: %v", err)
	}
	defer container.Close(context.Background())

	shutdown, err := telemetry.Setup(ctx, container.Config.Telemetry, container.Config.App.Name+"-dispatch")
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	result, err := container.Runner().Run(ctx)
	if err != nil {
		container.Logger.Error("dispatch run failed", zap.Error(err))
		container.Close(context.Background())
		os.Exit(1)
	}

	container.Logger.Info("dispatch run completed",
		zap.Int("processed", result.Processed),
		zap.String("message", result.Message))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
