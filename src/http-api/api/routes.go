package api

import "github.com/gofiber/fiber/v2"

func RegisterHandlers(app *fiber.App, s *APIServer) {
	app.Get("/health", s.GetHealth)
	app.Get("/", s.GetBoardPage)
	app.Get("/board", s.GetBoard)
	app.Get("/rspc/:query", s.GetQuery)
	app.Post("/rspc/:query/invalidate", s.InvalidateQuery)
	app.Get("/history/:query", s.GetHistory)
}
