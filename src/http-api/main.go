package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/jack-barr3tt/commute-board/src/common/utils"
	"github.com/jack-barr3tt/commute-board/src/http-api/api"
)

func main() {
	utils.InitLogger()
	defer utils.SyncLogger()
	log := utils.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Use(func(c *fiber.Ctx) error {
		err := c.Next()

		if path := c.Path(); path != "/health" {
			log.Infow("request", "method", c.Method(), "path", path, "status", c.Response().StatusCode())
		}

		return err
	})

	app.Use(cors.New())

	server, err := api.NewServer(ctx)
	if err != nil {
		log.Fatalw("failed to start http api server", "error", err)
		return
	}
	defer func() {
		if err := server.Close(); err != nil {
			log.Warnw("error closing http api server", "error", err)
		}
	}()

	api.RegisterHandlers(app, server)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Warnw("fiber shutdown failed", "error", err)
		}
	}()

	addr := utils.GetEnv("LISTEN_ADDR", ":3000")
	log.Infow("listening", "addr", addr)
	if err := app.Listen(addr); err != nil {
		log.Errorw("fiber listen failed", "error", err)
	}
}
