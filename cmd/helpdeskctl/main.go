// Command helpdeskctl runs operator tasks against the help desk database:
// account management, ticket removal, migrations and group bootstrap.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pg *persistence.Postgres
	env := &commandEnv{
		out:    os.Stdout,
		logger: logger,
		dsn:    cfg.Postgres.DSN,
		store: func(ctx context.Context) (repository.Store, error) {
			if cfg.Postgres.DSN == "" {
				return nil, errors.New("POSTGRES_DSN is required")
			}
			var err error
			pg, err = persistence.NewPostgres(ctx, cfg.Postgres, logger)
			if err != nil {
				return nil, err
			}
			return repository.NewStore(pg.PoolHandle()), nil
		},
		objects: func(ctx context.Context) (storage.ObjectStore, error) {
			return storage.New(ctx, cfg.Storage)
		},
	}

	err = run(ctx, env, os.Args[1:])
	pg.Close()
	if err != nil {
		if !errors.Is(err, errUsage) {
			logger.Error("command failed", zap.Error(err))
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
