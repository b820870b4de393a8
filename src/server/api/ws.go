package api

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// UpgradeWebsocket gates /ws to genuine upgrade requests.
func (s *APIServer) UpgradeWebsocket(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// HandleWebsocket hands the upgraded connection to the hub for its lifetime.
// The handler must not return before the connection is done with.
func (s *APIServer) HandleWebsocket(conn *websocket.Conn) {
	s.Hub.Serve(conn)
}
