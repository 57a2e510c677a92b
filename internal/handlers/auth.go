package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/venuebook/internal/autherr"
	"github.com/example/venuebook/internal/config"
	"github.com/example/venuebook/internal/middleware"
	"github.com/example/venuebook/internal/models"
	"github.com/example/venuebook/internal/services"
	"github.com/example/venuebook/internal/store"
	"github.com/example/venuebook/internal/validation"
)

const refreshCookieName = "refreshToken"

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	auth *services.AuthService
	cfg  *config.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{auth: auth, cfg: cfg}
}

// parseBody decodes the JSON body into out and validates it.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return validation.Struct(out)
}

type signupRequest struct {
	Email           string         `json:"email" validate:"required,email,max=254"`
	Password        string         `json:"password" validate:"required,strongpassword"`
	BusinessName    string         `json:"businessName" validate:"required,max=100"`
	Address         models.Address `json:"address"`
	SeatingCapacity int            `json:"seatingCapacity" validate:"required,min=1,max=10000"`
	BusinessType    string         `json:"businessType" validate:"required,businesstype"`
	Amenities       []string       `json:"amenities" validate:"unique,dive,amenity"`
	PhoneNumber     string         `json:"phoneNumber" validate:"required,mobile"`
}

// Signup creates an unverified account and emails a verification link.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Email = validation.NormalizeEmail(req.Email)
	if err := validation.Struct(&req); err != nil {
		return err
	}

	account, err := h.auth.Signup(c.UserContext(), store.NewAccount{
		Email:           req.Email,
		Password:        req.Password,
		BusinessName:    req.BusinessName,
		Address:         req.Address,
		SeatingCapacity: req.SeatingCapacity,
		BusinessType:    req.BusinessType,
		Amenities:       req.Amenities,
		PhoneNumber:     req.PhoneNumber,
	})
	if err != nil {
		return err
	}

	return success(c, fiber.StatusCreated,
		"account created, please check your email to verify your account",
		fiber.Map{"user": store.Serialize(account)},
	)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates an account, returns an access token and sets the
// refresh token cookie.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Email = validation.NormalizeEmail(req.Email)
	if err := validation.Struct(&req); err != nil {
		return err
	}

	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, session.RefreshToken, time.Now().Add(h.cfg.RefreshTokenTTL))

	return success(c, fiber.StatusOK, "logged in successfully", fiber.Map{
		"token": session.AccessToken,
		"user":  store.Serialize(session.Account),
	})
}

// Logout revokes the current access token and clears the refresh cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, ok := middleware.GetCurrentClaims(c)
	if !ok {
		return autherr.ErrUnauthorized
	}

	if err := h.auth.Logout(c.UserContext(), claims); err != nil {
		return err
	}

	h.setRefreshCookie(c, "", time.Unix(0, 0))
	return success(c, fiber.StatusOK, "logged out successfully", nil)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken issues a new access token from the refresh token cookie, or
// from the request body when no cookie is present.
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	token := c.Cookies(refreshCookieName)
	if token == "" && len(c.Body()) > 0 {
		var req refreshRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		token = req.RefreshToken
	}

	access, err := h.auth.Refresh(c.UserContext(), token)
	if err != nil {
		return err
	}

	return success(c, fiber.StatusOK, "token refreshed", fiber.Map{"token": access})
}

func (h *AuthHandler) setRefreshCookie(c *fiber.Ctx, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
