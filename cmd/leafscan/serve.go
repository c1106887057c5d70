package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leafscan/api/internal/config"
	"leafscan/api/internal/httpapi"
	"leafscan/api/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
	cmd.Flags().Bool("migrate", true, "prepare the store schema before serving")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, warnings := config.Load()

	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	for _, w := range warnings {
		logger.Warn(w)
	}

	migrate, err := cmd.Flags().GetBool("migrate")
	if err != nil {
		return err
	}

	st, err := openStore(cmd.Context(), cfg, migrate)
	if err != nil {
		logger.Error("failed to init store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(ctx); err != nil {
			logger.Warn("store close failed", zap.Error(err))
		}
	}()
	logger.Info("using store", zap.String("driver", cfg.Store.Driver))

	srv := httpapi.NewServer(cfg, st, logger)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("leafscan listening", zap.String("addr", cfg.ListenAddr()))
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case <-stop:
		logger.Info("shutdown requested")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			serveErr = err
		}
	}

	timeout := time.Duration(cfg.HTTP.ShutdownTimeoutSeconds) * time.Second
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), timeout)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)

	return serveErr
}
