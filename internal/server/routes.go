package server

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/shopspring/decimal"
)

func (s *FiberServer) RegisterFiberRoutes() {
	s.App.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Accept,Authorization,Content-Type",
		AllowCredentials: false, // credentials require explicit origins
		MaxAge:           300,
	}))

	s.App.Get("/health", s.healthHandler)

	api := s.App.Group("/api/v1")
	api.Get("/user/:userId/balance", s.getUserBalanceHandler)
	api.Post("/user/:userId/balance", s.setUserBalanceHandler)
	api.Get("/user/:userId/bets", s.listUserBetsHandler)

	s.RegisterGameRoutes()

	s.App.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.App.Get("/ws", websocket.New(s.feedWebSocketHandler))
}

func (s *FiberServer) healthHandler(c *fiber.Ctx) error {
	health := fiber.Map{
		"feed": fiber.Map{
			"status":            "running",
			"connected_clients": s.hub.GetClientCount(),
		},
	}
	if s.db != nil {
		health["database"] = s.db.Health()
	}
	if s.cache != nil {
		health["cache"] = s.cache.Health()
	}
	return c.JSON(health)
}

func (s *FiberServer) getUserBalanceHandler(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return badRequest(c, "User ID is required")
	}

	balance, err := s.wallet.Balance(c.UserContext(), userID)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"user_id": userID,
		"balance": balance,
	})
}

// setUserBalanceHandler sets a user's balance (for testing/admin)
func (s *FiberServer) setUserBalanceHandler(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return badRequest(c, "User ID is required")
	}

	var body struct {
		Balance decimal.Decimal `json:"balance"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := s.wallet.SetBalance(c.UserContext(), userID, body.Balance); err != nil {
		return s.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"user_id": userID,
		"balance": body.Balance,
		"message": "Balance updated successfully",
	})
}

func (s *FiberServer) listUserBetsHandler(c *fiber.Ctx) error {
	if s.bets == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Bet history unavailable"})
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	recs, err := s.bets.ListByUser(c.UserContext(), c.Params("userId"), limit)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"bets": recs})
}

// feedWebSocketHandler streams settled bets to the client until it leaves.
func (s *FiberServer) feedWebSocketHandler(conn *websocket.Conn) {
	userID := conn.Query("user_id", "anonymous")
	client := s.hub.RegisterClient(conn, userID)
	defer s.hub.UnregisterClient(client)

	client.sendJSON(Message{
		Type: "welcome",
		Data: fiber.Map{"games": s.coordinator.Registry().Types()},
	}, s.logger)

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			s.logger.Debug("ws read ended", "user", userID, "err", err)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var clientMsg Message
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			continue
		}

		switch clientMsg.Type {
		case "ping":
			client.sendJSON(Message{Type: "pong"}, s.logger)
		case "games":
			client.sendJSON(Message{
				Type: "games",
				Data: fiber.Map{"games": s.coordinator.Registry().Types(), "tiers": s.policy.Tiers()},
			}, s.logger)
		}
	}
}
