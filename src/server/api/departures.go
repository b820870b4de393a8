package api

import (
	"github.com/gofiber/fiber/v2"
)

// GetDepartures serves the cached snapshot as-is. It never waits on a fetch;
// before the first one completes it returns the empty sentinel.
func (s *APIServer) GetDepartures(c *fiber.Ctx) error {
	snap, _ := s.Store.Get()
	return c.JSON(snap)
}
