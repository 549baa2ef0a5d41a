// Package middleware holds the fiber middleware shared by all routes.
package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/solventhq/walletcore/pkg/config"
)

// Claim names carried by every caller token.
const (
	ClaimUserID   = "user_id"
	ClaimTenantID = "tenant_id"
)

// ErrMissingClaim is returned when a verified token lacks an identity claim.
var ErrMissingClaim = errors.New("token is missing a required claim")

// JwtProtected verifies the Bearer token and stores it in the request
// context under "user". Tokens must be HMAC-signed with the configured
// secret and carry user_id and tenant_id claims.
func JwtProtected(cfg *config.Jwt) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get(fiber.HeaderAuthorization)
		tokenString, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || tokenString == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.Secret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals("user", token)
		return c.Next()
	}
}

// CurrentUserID extracts the authenticated user id from the verified token.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	return claimUUID(c, ClaimUserID)
}

// CurrentTenantID extracts the tenant id from the verified token.
func CurrentTenantID(c *fiber.Ctx) (uuid.UUID, error) {
	return claimUUID(c, ClaimTenantID)
}

func claimUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, errors.New("missing user context")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("unexpected claims type")
	}
	raw, ok := claims[name].(string)
	if !ok {
		return uuid.Nil, ErrMissingClaim
	}
	return uuid.Parse(raw)
}
