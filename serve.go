package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gtm9/remi-ai-v1/internal/database"
	apihttp "github.com/gtm9/remi-ai-v1/internal/http"
	"github.com/gtm9/remi-ai-v1/internal/notify"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reminder API and notification scheduler",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	s, err := loadServices()
	if err != nil {
		return err
	}
	defer s.close()
	logger := s.log

	if err := s.audio.Refresh(ctx); err != nil {
		logger.Warn("initial audio refresh failed", slog.String("error", err.Error()))
	}

	s.scheduler.Start()
	if s.cfg.Notifications.Enabled {
		if _, err := s.flow.RestoreSchedules(ctx); err != nil {
			logger.Warn("restore notifications", slog.String("error", err.Error()))
		}
	}

	router := apihttp.NewRouter(apihttp.Deps{
		Config:    s.cfg,
		Log:       logger,
		DB:        database.Pinger{DB: s.db},
		Flow:      s.flow,
		Reminders: s.reminders,
		Audio:     s.audio,
		Scheduler: s.scheduler,
		Settings:  s.settings,
		JWT:       s.jwt,
		Version:   Version,
	})

	server := &http.Server{
		Addr:         ":" + s.cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", server.Addr), slog.String("version", Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	return waitForShutdown(server, s.scheduler, serverErr, s.cfg.Server.ShutdownTimeout, logger)
}

func waitForShutdown(server *http.Server, scheduler *notify.Scheduler, serverErr <-chan error, timeout time.Duration, logger *slog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case <-stop:
	case runErr = <-serverErr:
		logger.Error("server error", slog.String("error", runErr.Error()))
	}
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	scheduler.Stop()
	return runErr
}
