package api

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// PostRefresh triggers a fetch, or joins the one already in flight, and
// replies with the snapshot it produced.
func (s *APIServer) PostRefresh(c *fiber.Ctx) error {
	snap, err := s.Refresher.Refresh(c.Context())
	if err != nil {
		s.Logger.Warnw("manual refresh abandoned", "error", err)
		return c.Status(http.StatusServiceUnavailable).JSON(ErrorResponse{
			Error:   "Refresh aborted",
			Message: "request cancelled before the fetch completed",
		})
	}
	return c.JSON(snap)
}
