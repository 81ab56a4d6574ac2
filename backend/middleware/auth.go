package middleware

import (
	"coursestream/backend/config"
	"coursestream/backend/utils"

	"github.com/gofiber/fiber/v2"
)

const UserIDKey = "user_id"

// AuthMiddleware resolves the caller's user id from the bearer token and
// stores it in request locals. Every downstream handler reads the id from
// locals; there is no implicit default user.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

// UserID returns the id resolved by AuthMiddleware.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDKey).(string)
	return id
}
