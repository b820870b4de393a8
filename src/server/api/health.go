package api

import (
	"github.com/gofiber/fiber/v2"
)

// GetHealth implements the health check endpoint
func (s *APIServer) GetHealth(c *fiber.Ctx) error {
	snap, ok := s.Store.Get()

	response := HealthResponse{
		Status:      "healthy",
		Version:     "1.0.0",
		Connections: s.Hub.Count(),
		Departures:  len(snap.Departures),
		Source:      snap.Source,
		Stale:       snap.Stale,
	}
	if ok {
		fetchedAt := snap.FetchedAt
		response.FetchedAt = &fetchedAt
	}

	return c.JSON(response)
}
