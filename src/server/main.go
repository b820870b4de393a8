package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/emilsandberg/sl-board/src/common/cache"
	"github.com/emilsandberg/sl-board/src/common/config"
	"github.com/emilsandberg/sl-board/src/common/source"
	"github.com/emilsandberg/sl-board/src/common/utils"
	"github.com/emilsandberg/sl-board/src/server/api"
	"github.com/emilsandberg/sl-board/src/server/hub"
	"github.com/emilsandberg/sl-board/src/server/refresh"
)

func main() {
	utils.InitLogger()
	defer utils.SyncLogger()
	log := utils.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := cache.NewStore()
	h := hub.New(store, log)
	chain := source.NewChain(cfg, log)
	refresher := refresh.New(ctx, chain, store, h, cfg.RefreshInterval, log)

	app := fiber.New(fiber.Config{
		AppName:     "sl-board",
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})

	app.Use(func(c *fiber.Ctx) error {
		path := c.Path()
		method := c.Method()
		start := time.Now()

		err := c.Next()

		if path != "/health" && path != "/metrics" {
			log.Infow("request", "method", method, "path", path,
				"status", c.Response().StatusCode(), "duration", time.Since(start))
		}

		return err
	})

	app.Use(cors.New())

	server := api.NewServer(cfg, log, store, h, refresher)
	api.RegisterHandlers(app, server)

	// prime the cache so the first clients see departures, not the sentinel
	if snap, err := refresher.Refresh(ctx); err == nil {
		log.Infow("initial fetch complete", "departures", len(snap.Departures), "source", snap.Source)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		refresher.Run(ctx)
	}()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalw("fiber listen failed", "error", err)
		}
	}()

	<-ctx.Done()
	stop()

	h.Close()
	if err := app.Shutdown(); err != nil {
		log.Warnw("error during server shutdown", "error", err)
	}
	wg.Wait()
}
