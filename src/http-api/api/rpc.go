package api

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GetQuery answers one named read, e.g. GET /rspc/db.
func (s *APIServer) GetQuery(c *fiber.Ctx) error {
	name := strings.Clone(c.Params("query"))

	journey, err := s.Data.FetchJourney(c.UserContext(), name)
	if err != nil {
		if isUnknown(err) {
			return notFound(c, name)
		}
		s.Logger.Warnw("query failed", "query", name, "error", err)
		return upstreamError(c, "Failed to fetch journey", err)
	}

	return c.JSON(journey)
}

// InvalidateQuery drops every cached answer to the named query.
func (s *APIServer) InvalidateQuery(c *fiber.Ctx) error {
	name := strings.Clone(c.Params("query"))

	if err := s.Queries.Invalidate(name); err != nil {
		if isUnknown(err) {
			return notFound(c, name)
		}
		errStr := err.Error()
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "Invalidate failed",
			Message: "Failed to invalidate query",
			Stack:   &errStr,
		})
	}

	if err := s.Data.Invalidate(c.UserContext(), name); err != nil {
		s.Logger.Warnw("failed to drop cached journey", "query", name, "error", err)
		errStr := err.Error()
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "Cache error",
			Message: "Failed to drop cached journey",
			Stack:   &errStr,
		})
	}

	return c.SendStatus(http.StatusNoContent)
}
