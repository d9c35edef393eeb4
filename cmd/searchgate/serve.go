package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	chiTransport "github.com/kailas-cloud/searchgate/internal/transport/chi"
	"github.com/kailas-cloud/searchgate/internal/transport/stream"
	"github.com/kailas-cloud/searchgate/internal/version"
)

func newServeCmd(env *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the optional stream consumer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *env)
		},
	}
}

func runServe(parent context.Context, env string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, env)
	if err != nil {
		return err
	}
	defer a.close()
	logger := a.logger

	logger.Info("Starting searchgate server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", a.cfg.HTTP.Port),
		zap.String("engine", a.cfg.Engine.Endpoint),
		zap.String("index_prefix", a.cfg.Engine.IndexPrefix),
		zap.Bool("journal", a.journal != nil),
		zap.Bool("stream", a.cfg.Stream.Enabled),
	)

	if err := a.waitForReady(ctx); err != nil {
		return err
	}

	server := chiTransport.NewServer(a.search, a.ingest, a.health, logger.Named("http"))

	addr := fmt.Sprintf(":%d", a.cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Router(a.cfg.Auth.APIKeys),
		ReadTimeout:       time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(a.cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 2)

	var consumerDone <-chan struct{}
	if a.cfg.Stream.Enabled {
		consumer := stream.New(a.store, a.ingest, stream.Config{
			Stream:    a.cfg.Stream.StreamKey,
			Group:     a.cfg.Stream.Group,
			Consumer:  a.cfg.Stream.Consumer,
			BatchSize: int64(a.cfg.Engine.BatchSize),
			Block:     time.Duration(a.cfg.Stream.BlockMS) * time.Millisecond,
			ClaimIdle: time.Duration(a.cfg.Stream.ClaimIdleMS) * time.Millisecond,
		}, logger)
		consumerDone = runBackground(ctx, "stream consumer", consumer.Run, errCh)
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case runErr = <-errCh:
		logger.Error("Server failed", zap.Error(runErr))
	}

	// The consumer only stops on cancellation, which a server failure alone
	// does not trigger.
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	if !waitDone(shutdownCtx, consumerDone) {
		logger.Warn("Stream consumer did not stop before the shutdown deadline")
	}

	logger.Info("Server stopped gracefully")
	return runErr
}

// runBackground runs fn in a goroutine and forwards its error to errCh. The
// returned channel is closed once fn has returned.
func runBackground(
	ctx context.Context, name string, fn func(context.Context) error, errCh chan<- error,
) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := fn(ctx); err != nil {
			errCh <- fmt.Errorf("%s: %w", name, err)
		}
	}()
	return done
}

// waitDone blocks until done is closed or ctx expires. A nil done counts as
// already closed.
func waitDone(ctx context.Context, done <-chan struct{}) bool {
	if done == nil {
		return true
	}
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
