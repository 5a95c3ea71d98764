package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"wellness/internal/services"

	"github.com/gofiber/fiber/v2"
)

// identityKey is the fiber.Locals key holding the verified Identity.
const identityKey = "identity"

// TokenVerifier verifies session tokens.
type TokenVerifier interface {
	Verify(token string) (services.Identity, error)
}

// Authorize resolves the identity behind a raw Authorization header value.
// A missing header or bearer token fails with services.ErrMissingToken; a
// token that does not verify fails with services.ErrForbidden.
func Authorize(verifier TokenVerifier, rawHeader string) (services.Identity, error) {
	// Expected format: "Bearer <token>"
	scheme, token, found := strings.Cut(strings.TrimSpace(rawHeader), " ")
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return services.Identity{}, services.ErrMissingToken
	}

	identity, err := verifier.Verify(token)
	if err != nil {
		return services.Identity{}, fmt.Errorf("%w: %w", services.ErrForbidden, err)
	}
	return identity, nil
}

// AuthRequired is a Fiber middleware that admits only requests carrying a
// valid bearer token and stores the identity for the rest of the request.
func AuthRequired(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := Authorize(verifier, c.Get(fiber.HeaderAuthorization))
		if errors.Is(err, services.ErrMissingToken) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "missing_token",
				"message": "Authorization header with a bearer token is required",
			})
		}
		if err != nil {
			slog.Info("JWT validation failed", "path", c.Path(), "error", err)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "forbidden",
				"message": "Invalid or expired token",
			})
		}

		// Store the identity in Fiber context for subsequent handlers
		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// CurrentIdentity returns the identity stored by AuthRequired.
func CurrentIdentity(c *fiber.Ctx) (services.Identity, bool) {
	identity, ok := c.Locals(identityKey).(services.Identity)
	return identity, ok
}
