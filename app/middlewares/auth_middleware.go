package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"voicematch/app/utils"
)

// JWTMiddleware protects operator HTTP endpoints with the same tokens the
// socket layer accepts
func JWTMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{
				"status":  "error",
				"message": "Authorization header is required",
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(401).JSON(fiber.Map{
				"status":  "error",
				"message": "Invalid authorization header format",
			})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ValidateUserToken(tokenString)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{
				"status":  "error",
				"message": err.Error(),
			})
		}

		c.Locals("user_id", claims.UserID)
		return c.Next()
	}
}
