package api

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jack-barr3tt/commute-board/src/common/sources"
)

func (s *APIServer) GetHistory(c *fiber.Ctx) error {
	name := strings.Clone(c.Params("query"))

	if _, err := sources.Find(s.Sources, name); err != nil {
		return notFound(c, name)
	}

	if s.History == nil {
		return c.Status(http.StatusServiceUnavailable).JSON(ErrorResponse{
			Error:   "History disabled",
			Message: "journey history is not enabled on this server",
		})
	}

	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 500 {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "Bad Request",
			Message: "limit must be between 1 and 500",
		})
	}

	snapshots, err := s.History.Recent(c.UserContext(), name, limit)
	if err != nil {
		errStr := err.Error()
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "Database error",
			Message: "Failed to retrieve journey history",
			Stack:   &errStr,
		})
	}

	return c.JSON(snapshots)
}
