package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"birthday_notification_bot/internal/infra/httpapi"
	"birthday_notification_bot/internal/infra/logger"
	"birthday_notification_bot/internal/infra/scheduler"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the birthday check on its schedule and serve the ops API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap(os.Stdout)
	if err != nil {
		return err
	}
	defer rt.Close()

	log := logger.Component(rt.log, "main")

	birthdayScheduler := scheduler.NewBirthdayScheduler(
		rt.service,
		logger.Component(rt.log, "scheduler"),
		rt.cfg.CronSpecBirthdayCheck,
		rt.cfg.CycleTimeout,
		rt.cfg.SkipOverlappingCycles,
	)
	if err := birthdayScheduler.Start(); err != nil {
		return err
	}

	var httpServer *http.Server
	serveErr := make(chan error, 1)
	if rt.cfg.HTTPAddr != "" {
		httpServer = &http.Server{
			Addr:              rt.cfg.HTTPAddr,
			Handler:           httpapi.New(rt.service, rt.db, logger.Component(rt.log, "httpapi")),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.WithField("addr", rt.cfg.HTTPAddr).Info("Ops API listening")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()
	}

	log.Info("Application setup complete. Scheduler is running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Shutting down application...")
	case err := <-serveErr:
		runErr = fmt.Errorf("ops API: %w", err)
		log.WithError(err).Error("Ops API failed, shutting down")
	}

	if httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("Ops API did not shut down cleanly")
		}
	}
	// Waits for an in-flight cycle to finish.
	birthdayScheduler.Stop()

	log.Info("Application shut down gracefully")
	return runErr
}
