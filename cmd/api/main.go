package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/emilythestrangee/recipe-votes/backend/internal/auth"
	"github.com/emilythestrangee/recipe-votes/backend/internal/config"
	"github.com/emilythestrangee/recipe-votes/backend/internal/database"
	"github.com/emilythestrangee/recipe-votes/backend/internal/handlers"
	"github.com/emilythestrangee/recipe-votes/backend/internal/leaderboard"
	"github.com/emilythestrangee/recipe-votes/backend/internal/logging"
	"github.com/emilythestrangee/recipe-votes/backend/internal/server"
	"github.com/emilythestrangee/recipe-votes/backend/internal/votes"
)

// ShutdownTimeout bounds graceful shutdown of the HTTP server.
const ShutdownTimeout = 30 * time.Second

func main() {
	app := &cli.Command{
		Name:   "api",
		Usage:  "Recipe vote and leaderboard service",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "Create or update the database schema",
				Action: func(ctx context.Context, _ *cli.Command) error {
					env, err := setup(ctx)
					if err != nil {
						return err
					}
					defer env.close()

					return env.db.Migrate(ctx)
				},
			},
			{
				Name:  "recompute",
				Usage: "Rewrite every cached vote count from the ledger",
				Action: func(ctx context.Context, _ *cli.Command) error {
					env, err := setup(ctx)
					if err != nil {
						return err
					}
					defer env.close()

					recalc := votes.NewRecalculator(env.db.GetDB(), env.logger)
					_, err = recalc.RecomputeAll(ctx)
					return err
				},
			},
			seedCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

// environment holds what every command needs.
type environment struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *database.Database
}

func setup(ctx context.Context) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.New(ctx, cfg.DB, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	return &environment{cfg: cfg, logger: logger, db: db}, nil
}

func (e *environment) close() {
	if err := e.db.Close(); err != nil {
		e.logger.Error("Failed to close database", zap.Error(err))
	}
	_ = e.logger.Sync()
}

func serve(ctx context.Context, _ *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := setup(ctx)
	if err != nil {
		return err
	}
	defer env.close()

	if err := env.db.Migrate(ctx); err != nil {
		return err
	}

	gormDB := env.db.GetDB()
	svc := votes.NewService(gormDB, votes.NewRecipeCatalog(gormDB), votes.NewRecalculator(gormDB, env.logger), env.logger)
	engine := leaderboard.NewEngine(gormDB, env.cfg.Ranking, env.logger)
	handler := handlers.NewHandler(svc, engine, env.logger)

	srv := server.NewServer(env.cfg, env.db, handler, auth.NewHMACVerifier(env.cfg.JWT.Secret), env.logger)

	errCh := make(chan error, 1)
	go func() {
		env.logger.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	env.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		env.logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	env.logger.Info("Server gracefully stopped")
	return nil
}
