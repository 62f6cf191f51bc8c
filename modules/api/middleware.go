package api

import (
	"context"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// UserContextKey is the Fiber locals key holding the authenticated
// user's id.
const UserContextKey = "user_id"

// SessionValidator resolves an opaque session token to a user id.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (string, error)
}

// AuthMiddleware validates the session token on each request and
// stores the authenticated user id in the request locals.
func AuthMiddleware(sessions SessionValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Session token is required",
			})
		}

		userID, err := sessions.Validate(c.UserContext(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid or expired session token",
			})
		}

		c.Locals(UserContextKey, userID)
		return c.Next()
	}
}

// bearerToken extracts the session token from the Authorization header
// or the X-Session-Token fallback.
func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return c.Get("X-Session-Token")
}

// actorID returns the authenticated user id set by AuthMiddleware.
func actorID(c *fiber.Ctx) string {
	userID, _ := c.Locals(UserContextKey).(string)
	return userID
}

// loggerMiddleware returns a Fiber middleware for request logging.
func loggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Skip logging for WebSocket upgrade requests
		if c.Get("Upgrade") == "websocket" {
			return c.Next()
		}
		err := c.Next()
		log.Printf("[api] %s %s %d", c.Method(), c.Path(), c.Response().StatusCode())
		return err
	}
}
