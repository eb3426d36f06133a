package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jack-barr3tt/commute-board/src/common/view"
)

// DefaultBoardWait is how long a board request waits for pending queries
// before answering with whatever the snapshot holds.
const DefaultBoardWait = 2 * time.Second

// board starts every query that is not fresh and lays out the current
// snapshot. With a positive wait it first blocks until the queries settle or
// the wait runs out, so a slow query leaves the board loading. Failed
// queries become failed segments rather than request errors.
func (s *APIServer) board(c *fiber.Ctx, wait time.Duration) view.Board {
	if wait > 0 {
		ctx, cancel := context.WithTimeout(c.UserContext(), wait)
		defer cancel()
		if _, err := s.Queries.FetchAll(ctx); err != nil {
			s.Logger.Debugw("board has unsettled queries", "error", err)
		}
	} else if err := s.Queries.Prefetch(); err != nil {
		s.Logger.Warnw("failed to start board queries", "error", err)
	}
	return view.Build(s.Queries.Snapshot(), s.Sources, s.Formatter)
}

// boardWait reads the optional wait query parameter. wait=0 answers from the
// snapshot without blocking.
func (s *APIServer) boardWait(c *fiber.Ctx) (time.Duration, error) {
	raw := c.Query("wait")
	if raw == "" {
		return s.BoardWait, nil
	}
	return time.ParseDuration(raw)
}

func (s *APIServer) GetBoard(c *fiber.Ctx) error {
	wait, err := s.boardWait(c)
	if err != nil || wait < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "Bad Request",
			Message: "wait must be a non-negative duration",
		})
	}
	return c.JSON(s.board(c, wait))
}

// GetBoardPage serves the HTML board. While any query is still loading the
// page refreshes itself until the journeys arrive.
func (s *APIServer) GetBoardPage(c *fiber.Ctx) error {
	board := s.board(c, s.BoardWait)
	if board.Loading {
		c.Set(fiber.HeaderCacheControl, "no-store")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return view.RenderHTML(c, board)
}
