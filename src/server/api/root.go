package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

func (s *APIServer) GetRoot(c *fiber.Ctx) error {
	response := RootResponse{
		Service: "sl-board",
		Status:  "running",
		Endpoints: map[string]string{
			"departures": "/api/departures",
			"refresh":    "/api/refresh",
			"websocket":  "/ws",
			"health":     "/health",
			"metrics":    "/metrics",
		},
		Timestamp: time.Now(),
	}
	return c.JSON(response)
}
