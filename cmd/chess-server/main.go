package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/walter-sobchak-ai/hytopia-chess/internal/config"
	"github.com/walter-sobchak-ai/hytopia-chess/internal/engine"
	"github.com/walter-sobchak-ai/hytopia-chess/internal/gateway"
	"github.com/walter-sobchak-ai/hytopia-chess/internal/health"
	"github.com/walter-sobchak-ai/hytopia-chess/internal/match"
	"github.com/walter-sobchak-ai/hytopia-chess/internal/msgcat"
	"github.com/walter-sobchak-ai/hytopia-chess/internal/obslog"
	"github.com/walter-sobchak-ai/hytopia-chess/internal/room"
	"github.com/walter-sobchak-ai/hytopia-chess/internal/roomstore"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()

	cat, err := msgcat.New(cfg.MsgTemplateDir)
	if err != nil {
		logger.Fatal("message catalog init failed", zap.Error(err))
	}

	// The Redis mirror is optional; without it the server still runs, the
	// ops room listing is just empty.
	var store *roomstore.Store
	if cfg.RedisURL != "" {
		rdb, err := roomstore.NewClientFromURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis url invalid", zap.Error(err))
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, mirror disabled", zap.Error(err))
		} else {
			store = roomstore.NewStore(rdb, cfg.RoomTTL)
		}
		cancel()
	}

	defaults := match.Selection{
		Mode:       match.ParseMode(cfg.DefaultMode),
		Difficulty: engine.ParseDifficulty(cfg.DefaultDifficulty),
	}
	rooms := room.NewManager(cat, store, defaults)

	ws := gateway.NewServer(rooms, cfg.AllowedOrigins)
	httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: ws.Handler()}
	go func() {
		logger.Info("gateway listening", zap.String("addr", cfg.ListenAddr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("gateway server failed", zap.Error(err))
		}
	}()

	ops := health.NewServer(rooms, store)
	go func() {
		if err := ops.ListenAndServe(cfg.HealthAddr); err != nil {
			logger.Error("ops server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	_ = ops.Shutdown()
}
