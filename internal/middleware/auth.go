package middleware

import (
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/venuebook/internal/autherr"
	"github.com/example/venuebook/internal/models"
	"github.com/example/venuebook/internal/services"
	"github.com/example/venuebook/internal/utils"
)

const (
	accountContextKey = "currentAccount"
	claimsContextKey  = "currentClaims"
)

// Protect requires a valid bearer access token and loads the account it
// belongs to into the request context.
func Protect(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return err
		}

		account, claims, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			return err
		}

		c.Locals(accountContextKey, account)
		c.Locals(claimsContextKey, claims)
		return c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", autherr.ErrUnauthorized
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", autherr.ErrUnauthorized
	}

	return strings.TrimSpace(parts[1]), nil
}

// Authorize rejects authenticated requests whose role is not listed. It must
// run after Protect.
func Authorize(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		account, ok := GetCurrentAccount(c)
		if !ok {
			return autherr.ErrUnauthorized
		}
		if !slices.Contains(roles, account.Role) {
			return autherr.ErrForbidden
		}
		return c.Next()
	}
}

// GetCurrentAccount returns the account loaded by Protect.
func GetCurrentAccount(c *fiber.Ctx) (*models.Account, bool) {
	account, ok := c.Locals(accountContextKey).(*models.Account)
	return account, ok && account != nil
}

// GetCurrentClaims returns the access token claims loaded by Protect.
func GetCurrentClaims(c *fiber.Ctx) (*utils.Claims, bool) {
	claims, ok := c.Locals(claimsContextKey).(*utils.Claims)
	return claims, ok && claims != nil
}
