// Package main provides the Tetris Battle server: it authenticates
// players, pairs them through the matchmaking queue, and relays game
// events between the two sides of a match.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/jennifer4569/Tetris-Battle/internal/config"
	"github.com/jennifer4569/Tetris-Battle/internal/frontend/handlers"
	"github.com/jennifer4569/Tetris-Battle/internal/frontend/tcp"
	"github.com/jennifer4569/Tetris-Battle/internal/game/match"
	"github.com/jennifer4569/Tetris-Battle/internal/game/session"
	"github.com/jennifer4569/Tetris-Battle/internal/observability"
	"github.com/jennifer4569/Tetris-Battle/internal/server"
	"github.com/jennifer4569/Tetris-Battle/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting Tetris Battle server",
		zap.String("listen_addr", cfg.Listen.Addr()),
	)

	// Connect to PostgreSQL
	ctx := context.Background()
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.Name),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	// Build services
	users := postgres.NewUserRepository(pool.DB())
	handler := handlers.NewGameHandler(
		users,
		session.NewRegistry(),
		session.NewQueue(),
		match.NewCryptoSource(),
		logger,
	)
	acceptor := tcp.NewAcceptor(cfg.Listen, handler, logger)

	// Wire lifecycle
	lifecycle := server.NewLifecycle(logger)

	lifecycle.Add("postgres", &server.FuncService{
		StartFn: func() error {
			for {
				time.Sleep(30 * time.Second)
				if err := pool.Health(ctx, 5*time.Second); err != nil {
					logger.Warn("database health check failed", zap.Error(err))
				}
			}
		},
		StopFn: func() {
			pool.Close()
		},
	})

	lifecycle.Add("acceptor", &server.FuncService{
		StartFn: func() error {
			return acceptor.ListenAndServe()
		},
		StopFn: func() {
			acceptor.Stop()
		},
	})

	logger.Info("server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("listen_addr", cfg.Listen.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
