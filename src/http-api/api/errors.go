package api

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/jack-barr3tt/commute-board/src/common/query"
	"github.com/jack-barr3tt/commute-board/src/common/sources"
)

func notFound(c *fiber.Ctx, name string) error {
	return c.Status(http.StatusNotFound).JSON(NotFoundResponse{
		Error:   "Not Found",
		Message: "unknown query: " + name,
	})
}

func isUnknown(err error) bool {
	return errors.Is(err, sources.ErrUnknownSource) || errors.Is(err, query.ErrUnknownQuery)
}

func upstreamError(c *fiber.Ctx, message string, err error) error {
	errStr := err.Error()
	return c.Status(http.StatusBadGateway).JSON(ErrorResponse{
		Error:   "Upstream error",
		Message: message,
		Stack:   &errStr,
	})
}
