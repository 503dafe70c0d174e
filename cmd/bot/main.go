package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"ratebot/internal/app"
	"ratebot/internal/transport/telegram"
)

func main() {
	deps, err := app.BuildBot()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Store.Close()
	defer deps.Cache.Close()
	if deps.Queue != nil {
		defer deps.Queue.Close()
	}

	engine := app.NewEngine(deps)
	bot, err := telegram.New(deps.Config.TelegramToken, engine, deps.Log)
	if err != nil {
		deps.Log.Error("failed to connect to Telegram", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bot.Run(ctx) })
	g.Go(func() error { return deps.Stats.RunInvalidator(ctx) })

	deps.Log.Info("bot running")
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		deps.Log.Error("bot stopped", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("bot shut down")
}
