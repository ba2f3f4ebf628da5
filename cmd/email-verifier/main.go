package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/email-verifier/internal/adapters/report"
	"github.com/mikey/email-verifier/internal/config"
	"github.com/mikey/email-verifier/internal/core"
	"github.com/mikey/email-verifier/internal/di"
	"github.com/mikey/email-verifier/internal/input"
	"github.com/mikey/email-verifier/internal/metrics"
	"github.com/mikey/email-verifier/internal/ports"
)

func main() {
	// Environment overrides may live in a local .env file
	_ = godotenv.Load()

	flags, err := di.ParseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	// Build the dependency injection container
	container, err := di.BuildContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", dig.RootCause(err))
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	cfg *config.Config,
	loader *input.Loader,
	defaults core.RequestDefaults,
	service *core.VerificationService,
	backend core.BackendClient,
	store ports.ResultStore,
	results *report.JSONLinesWriter,
	recorder *metrics.Recorder,
) error {
	defer logger.Sync()

	// Close any resources that need closing
	defer func() {
		if err := results.Close(); err != nil {
			logger.Error("Failed to close results file", zap.Error(err))
		}
		if err := store.Close(); err != nil {
			logger.Error("Failed to close result store", zap.Error(err))
		}
		if closer, ok := backend.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close backend client", zap.Error(err))
			}
		}
	}()

	// Stop admitting new emails on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inputCfg := cfg.GetInput()
	raw, err := loader.Collect(inputCfg.Emails, inputCfg.File, os.Stdin)
	if err != nil {
		return err
	}
	items, err := loader.BuildItems(raw, defaults)
	if err != nil {
		return err
	}

	_, runErr := service.Run(ctx, items)

	if metricsCfg := cfg.GetMetrics(); metricsCfg.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := recorder.Push(pushCtx, metricsCfg.PushgatewayURL, metricsCfg.Job); err != nil {
			logger.Error("Failed to push metrics", zap.Error(err))
		} else {
			logger.Debug("Pushed metrics", zap.String("url", metricsCfg.PushgatewayURL))
		}
	}

	return runErr
}
