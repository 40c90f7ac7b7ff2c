package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/appleboy/graceful"
	"github.com/getsentry/sentry-go"

	"github.com/guarzo/recruitapi/common"
	"github.com/guarzo/recruitapi/common/logger"
	"github.com/guarzo/recruitapi/modules/mockserver"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run serves the mock API until a shutdown signal arrives. Deferred cleanup,
// including the Sentry flush, runs before it returns.
func run(args []string) error {
	fs := flag.NewFlagSet("mockapi", flag.ContinueOnError)
	envFile := fs.String("env", ".env", "optional dotenv file")
	addr := fs.String("addr", "", "address to listen on (default $MOCKAPI_ADDR or :8080)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := common.LoadConfig(*envFile)
	log := logger.New(cfg.Environment)

	if *addr == "" {
		*addr = common.EnvOrDefault("MOCKAPI_ADDR", ":8080")
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			AttachStacktrace: true,
		}); err != nil {
			log.Warn("sentry init failed", "error", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	srv, err := mockserver.New(mockserver.ConfigFromEnv(), log)
	if err != nil {
		if cfg.SentryDSN != "" {
			sentry.CaptureException(err)
		}
		return fmt.Errorf("failed to build mock api: %w", err)
	}

	httpServer := &http.Server{
		Addr:         *addr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	m := graceful.NewManager()
	m.AddRunningJob(func(ctx context.Context) error {
		log.Info("mock api listening", "addr", *addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			return err
		}
		return nil
	})
	m.AddShutdownJob(func() error {
		log.Info("shutdown signal received, shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctx)
	})

	<-m.Done()
	log.Info("server shutdown gracefully")
	return nil
}
