package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/guarzo/recruitapi/common"
	"github.com/guarzo/recruitapi/common/logger"
	"github.com/guarzo/recruitapi/modules/auth"
	"github.com/guarzo/recruitapi/modules/credential"
	"github.com/guarzo/recruitapi/modules/gateway"
	"github.com/guarzo/recruitapi/modules/recruit"
)

const usage = `usage: recruitctl [-env file] <command> [args]

commands:
  login -email <email> -password <password>
  logout
  list <resource> [-page n] [-size n] [-filter text]
  create <resource> <name> [description]
  delete <resource> <uid>

resources: organization, department, position, task, template`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app bundles the wired client stack for one invocation.
type app struct {
	cfg     common.Config
	logger  *slog.Logger
	api     *gateway.Client
	auth    *auth.Service
	recruit recruit.Service
	closers []func()
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("recruitctl", flag.ContinueOnError)
	envFile := fs.String("env", ".env", "optional dotenv file")
	fs.Usage = func() { fmt.Fprintln(fs.Output(), usage) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	cfg := common.LoadConfig(*envFile)
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	err = a.dispatch(ctx, fs.Arg(0), fs.Args()[1:], out)
	if err != nil && cfg.SentryDSN != "" {
		sentry.CaptureException(err)
	}
	return err
}

func newApp(cfg common.Config) (*app, error) {
	log := logger.New(cfg.Environment)
	a := &app{cfg: cfg, logger: log}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			log.Warn("sentry init failed", "error", err)
		} else {
			a.closers = append(a.closers, func() { sentry.Flush(2 * time.Second) })
		}
	}

	backend, err := credential.NewBackend(credential.Config{
		Type:    credential.ParseBackendType(cfg.Store),
		Profile: cfg.Profile,
		Redis: credential.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create credential backend: %w", err)
	}
	if rb, ok := backend.(*credential.RedisBackend); ok {
		a.closers = append(a.closers, rb.Close)
		log.Debug("using redis credential store", "addr", cfg.RedisAddr, "profile", cfg.Profile)
	}
	store := credential.NewStore(backend, credential.WithLogger(log))

	a.api, err = gateway.New(cfg, store,
		gateway.WithLogger(log),
		gateway.WithSessionExpiredHook(func() {
			log.Warn("session expired, run `recruitctl login` again")
		}))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.api.Close)
	a.auth = auth.NewService(a.api, store, log)
	a.recruit = recruit.NewService(a.api)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
