package server

import (
	"errors"
	"log"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"roulette/internal/database"
	"roulette/internal/game"
)

func (s *FiberServer) healthHandler(c *fiber.Ctx) error {
	disabled := map[string]string{"status": "disabled"}

	dbHealth := disabled
	if s.db != nil {
		dbHealth = s.db.Health()
	}
	cacheHealth := disabled
	if s.cache != nil {
		cacheHealth = s.cache.Health()
	}

	return c.JSON(fiber.Map{
		"database": dbHealth,
		"cache":    cacheHealth,
		"game": fiber.Map{
			"status":            s.table.State(),
			"connected_clients": s.hub.GetClientCount(),
		},
	})
}

func (s *FiberServer) stateHandler(c *fiber.Ctx) error {
	return c.JSON(s.table.Snapshot())
}

func (s *FiberServer) segmentsHandler(c *fiber.Ctx) error {
	return c.JSON(game.Segments[:])
}

func (s *FiberServer) resultsHandler(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", game.DEFAULT_RESULTS_LIMIT)

	results, err := s.results.RecentResults(c.Context(), limit)
	if err != nil {
		log.Printf("[SERVER] Failed to load recent results: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load results",
		})
	}
	return c.JSON(results)
}

func (s *FiberServer) roundsHandler(c *fiber.Ctx) error {
	if s.db == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Round archive is disabled",
		})
	}

	limit := c.QueryInt("limit", database.DEFAULT_ROUNDS_LIMIT)

	rounds, err := s.db.RecentRounds(c.Context(), limit)
	if err != nil {
		log.Printf("[SERVER] Failed to load rounds: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load rounds",
		})
	}
	return c.JSON(rounds)
}

// tableWebSocketHandler serves one player connection until it closes
func (s *FiberServer) tableWebSocketHandler(conn *websocket.Conn) {
	handle := uuid.NewString()

	log.Printf("[WS] New connection %s from %s", handle, conn.RemoteAddr())

	client := s.hub.RegisterClient(conn, handle)
	client.Send(fiber.Map{
		"type": game.MSG_INITIAL_STATE,
		"data": s.table.Snapshot(),
	})

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("[WS] Read error for %s: %v", handle, err)
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		reply, err := s.table.HandleCommand(handle, message)
		if err != nil {
			if errors.Is(err, game.ErrUnknownCommand) {
				log.Printf("[WS] %s sent %v", handle, err)
			} else {
				log.Printf("[WS] Ignoring message from %s: %v", handle, err)
			}
			continue
		}
		client.Send(reply)
	}

	s.table.Disconnect(handle)
	s.hub.UnregisterClient(handle)

	// the conn must not be written to after this handler returns
	<-client.Done()
	log.Printf("[WS] Connection %s closed", handle)
}
