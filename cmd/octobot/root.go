package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/septivank/octobot/internal/config"
	"github.com/septivank/octobot/internal/report"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const lifecycleTimeout = 30 * time.Second

var errReportFailed = errors.New("status report could not be built")

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "octobot",
		Short:        "Telegram bot reporting Octopus Energy usage, cost and tariff",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newReportCmd(),
	)

	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print one status report and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var builder *report.Builder
			app := fx.New(
				fx.NopLogger,
				reportModule,
				fx.Populate(&builder),
			)

			startCtx, startCancel := context.WithTimeout(context.Background(), lifecycleTimeout)
			defer startCancel()
			if err := app.Start(startCtx); err != nil {
				return err
			}
			defer func() {
				stopCtx, stopCancel := context.WithTimeout(context.Background(), lifecycleTimeout)
				defer stopCancel()
				_ = app.Stop(stopCtx)
			}()

			text := builder.BuildStatusReport(cmd.Context())
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), text)
			if text == report.ErrorMessage {
				return errReportFailed
			}
			return nil
		},
	}
}

func runServe(parent context.Context) error {
	app := fx.New(
		reportModule,
		botModule,
	)

	// Setup signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Create a temporary logger for startup error messages
	tempLogger, _ := newLogger(&config.Config{ServiceName: "octobot", LogLevel: "info"})
	tempLogger.Info("starting application...", zap.Duration("timeout", lifecycleTimeout))

	startCtx, startCancel := context.WithTimeout(context.Background(), lifecycleTimeout)
	defer startCancel()

	if err := app.Start(startCtx); err != nil {
		if errors.Is(startCtx.Err(), context.DeadlineExceeded) {
			tempLogger.Error("APPLICATION START TIMEOUT: Failed to start within 30 seconds. This usually means Telegram, the database or RabbitMQ is not accessible. Check the error messages above for specific connection failures.")
		}
		return err
	}

	// Wait for interrupt signal
	<-ctx.Done()

	// Stop application gracefully
	stopCtx, stopCancel := context.WithTimeout(context.Background(), lifecycleTimeout)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		tempLogger.Error("error stopping app", zap.Error(err))
		return err
	}
	return nil
}
