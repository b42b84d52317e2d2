package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nike4192/laundry-bot/core/bootstrap"
	"github.com/nike4192/laundry-bot/core/buildinfo"
	coreconfig "github.com/nike4192/laundry-bot/core/config"
	"github.com/nike4192/laundry-bot/core/logger"
	"github.com/nike4192/laundry-bot/core/telegram"
	"github.com/nike4192/laundry-bot/internal/booking"
	"github.com/nike4192/laundry-bot/internal/bot"
	"github.com/nike4192/laundry-bot/internal/store"
	"github.com/nike4192/laundry-bot/internal/sweep"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("laundry-bot: %v", err)
	}
}

func run() error {
	// Missing .env is fine; real deployments set the environment.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yml"
	}
	cfg, err := coreconfig.Load(cfgPath)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	boot, err := bootstrap.Run(ctx, bootstrap.Options{Config: cfg})
	if err != nil {
		return err
	}
	defer boot.DB.Close()

	logger.Info(ctx, "app", "starting",
		slog.String("version", buildinfo.Version),
		slog.String("commit", buildinfo.Commit),
	)

	settings, err := booking.SettingsFromConfig(cfg.Laundry)
	if err != nil {
		return err
	}

	st := store.NewPostgres(boot.DB)
	service := bot.New(st, settings, cfg)
	sweeper := sweep.New(st, settings, service)

	reg := telegram.NewRegistry()
	service.Register(reg)

	startedAt := time.Now()
	return telegram.Run(ctx, telegram.RunOptions{
		Config:      cfg,
		Registry:    reg,
		Middlewares: telegram.DefaultMiddlewares(),
		OnStart: func(ctx context.Context, rt telegram.Runtime) error {
			service.Attach(rt)
			go runSweep(ctx, sweeper, time.Duration(cfg.Laundry.SweepIntervalSeconds)*time.Second)
			logger.Info(ctx, "app", "ready",
				slog.Duration("startup_duration", logger.Took(startedAt)),
			)
			return nil
		},
		OnStop: func(ctx context.Context, rt telegram.Runtime) error {
			logger.Info(ctx, "app", "shutting down")
			return nil
		},
	})
}

// runSweep drives the reminder/expiry pass on a fixed cadence until the
// context is cancelled. A failing tick is logged and the cadence keeps
// going.
func runSweep(ctx context.Context, sweeper *sweep.Sweeper, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := sweeper.Tick(ctx, now); err != nil {
				logger.Error(ctx, "sweep", "tick failed", slog.String("err", err.Error()))
			}
		}
	}
}
