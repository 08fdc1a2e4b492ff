package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Auth verifies the bearer token and stores the user_id claim as the actor
// of every write made by the request.
func Auth(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if authHeader == "" {
			return unauthorized(ctx, "Missing Authorization header")
		}
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			return unauthorized(ctx, "Invalid Authorization header format")
		}

		token, err := jwt.Parse(tokenParts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized: Invalid signing method")
			}
			return []byte(secret), nil
		}, jwt.WithExpirationRequired())
		if err != nil {
			return unauthorized(ctx, "Unauthorized: Invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			return unauthorized(ctx, "Unauthorized: Invalid token")
		}
		userID, ok := claims["user_id"].(float64)
		if !ok || userID <= 0 {
			return unauthorized(ctx, "Unauthorized: Invalid user ID")
		}

		ctx.Locals("userID", userID)
		ctx.Locals("userData", claims)
		return ctx.Next()
	}
}

func unauthorized(ctx *fiber.Ctx, message string) error {
	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
