package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/park285/hotseat-chess/internal/config"
	"github.com/park285/hotseat-chess/internal/hotseat"
	"github.com/park285/hotseat-chess/internal/httpapi"
	"github.com/park285/hotseat-chess/internal/msgcat"
	"github.com/park285/hotseat-chess/internal/obslog"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()

	msgs, err := msgcat.New(cfg.MsgOverrideDir)
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store, err := hotseat.OpenStore(ctx, cfg.RedisURL, cfg.GameTTL())
	if err != nil {
		log.Fatalf("game store init error: %v", err)
	}
	archive, err := hotseat.OpenArchive(cfg.DatabaseURL, cfg.ArchiveDir)
	if err != nil {
		_ = store.Close()
		log.Fatalf("archive init error: %v", err)
	}

	mgr := hotseat.NewManager(store, archive, msgs, hotseat.Options{
		ClockEnabled: cfg.ClockEnabled,
		ClockBudget:  cfg.ClockBudget(),
		WhiteName:    cfg.WhiteName,
		BlackName:    cfg.BlackName,
		Event:        cfg.PGNEvent,
		Site:         cfg.PGNSite,
	})
	obslog.L().Info("hotseat_start",
		zap.String("addr", cfg.HTTPAddr),
		zap.Bool("redis", cfg.RedisURL != ""),
		zap.Bool("postgres", cfg.DatabaseURL != ""),
		zap.String("archive_dir", cfg.ArchiveDir),
		zap.Bool("clock", cfg.ClockEnabled),
	)

	go mgr.RunSweeper(ctx, time.Second)

	srv := httpapi.NewServer(mgr)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(cfg.HTTPAddr) }()

	// Wait for termination signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		obslog.L().Info("hotseat_shutdown", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			obslog.L().Error("http_listen_error", zap.Error(err))
		}
	}

	stop()
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Close(sctx); err != nil {
		obslog.L().Warn("http_close_error", zap.Error(err))
	}
	if err := mgr.Close(); err != nil {
		obslog.L().Warn("manager_close_error", zap.Error(err))
	}
}
