package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/quotepit/quotepit/internal/adapter/cache"
	"github.com/quotepit/quotepit/internal/adapter/memory"
	"github.com/quotepit/quotepit/internal/adapter/pg"
	"github.com/quotepit/quotepit/internal/api/http"
	"github.com/quotepit/quotepit/internal/api/ws"
	"github.com/quotepit/quotepit/internal/config"
	"github.com/quotepit/quotepit/internal/core"
	"github.com/quotepit/quotepit/internal/logging"
	"github.com/quotepit/quotepit/internal/port"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(cfg.Logging.Dir, cfg.Logging.Level)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo port.Repository
	if cfg.Postgres.URL != "" {
		pgRepo, err := pg.NewRepo(ctx, cfg.Postgres.URL)
		if err != nil {
			log.Fatalf("connect to Postgres: %v", err)
		}
		defer pgRepo.Close()
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			log.Fatalf("ensure schema: %v", err)
		}
		repo = pgRepo
	} else {
		logger.Warn("no postgres url configured, using in-memory storage")
		repo = memory.NewRepo()
	}

	var bookCache port.Cache
	if cfg.Redis.Addr != "" {
		bookCache = cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.RedisTTL())
	} else {
		bookCache = memory.NewCache()
	}

	feed := ws.NewFeed(logger)
	engine := core.NewEngine(repo, bookCache, feed, logger)

	server := http.NewServer(engine, feed, cfg.Server.Symbol)
	server.RateLimit = cfg.RateLimit()

	logger.Info("starting server", "addr", cfg.Server.Addr, "symbol", cfg.Server.Symbol)
	if err := server.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("HTTP server failed: %v", err)
	}
}
