package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PrayerWall/initializers"
	"github.com/PrayerWall/services"
)

func main() {
	root := &cobra.Command{
		Use:           "prayerwall",
		Short:         "Prayer wall API with email verification and admin review",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initializers.LoadEnv()
			initializers.InitLogger()
			initializers.ConnectDB()
			services.InitEmailService()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and the scan scheduler",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve()
			},
		},
		&cobra.Command{
			Use:   "scan",
			Short: "Run the reminder and auto-transition scans once",
			RunE: func(cmd *cobra.Command, args []string) error {
				return scanOnce(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "cleanup-codes",
			Short: "Delete expired verification codes",
			RunE: func(cmd *cobra.Command, args []string) error {
				return cleanupCodes(cmd.Context())
			},
		},
	)

	if err := root.Execute(); err != nil {
		zap.S().Errorw("command failed", "error", err)
		_ = zap.L().Sync()
		os.Exit(1)
	}
	_ = zap.L().Sync()
}

func serve() error {
	services.InitPushNotificationService(initializers.DB)
	a := newApp()

	scheduler := services.NewScheduler(a.configs, a.scanner, a.codes, initializers.GetEnv("SCAN_SCHEDULE", services.DefaultScanSchedule))
	if err := scheduler.Start(); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + initializers.GetEnv("PORT", "8080"),
		Handler:           setupRouter(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		zap.S().Infow("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		scheduler.Stop()
		return err
	case <-ctx.Done():
	}

	zap.S().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	scheduler.Stop()
	a.approvals.Wait()
	a.requests.Wait()
	return err
}

func scanOnce(ctx context.Context) error {
	a := newApp()
	cfg, err := a.configs.Get(ctx)
	if err != nil {
		return err
	}
	summary, err := a.scanner.RunScheduled(ctx, cfg)
	zap.S().Infow("scan complete",
		"reminded", len(summary.Reminded),
		"transitioned", len(summary.Transitioned),
	)
	return err
}

func cleanupCodes(ctx context.Context) error {
	a := newApp()
	deleted, err := a.codes.CleanupExpired(ctx)
	if err != nil {
		return err
	}
	zap.S().Infow("expired verification codes removed", "count", deleted)
	return nil
}
