package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/venuebook/internal/store"
	"github.com/example/venuebook/internal/validation"
)

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func parseEmail(c *fiber.Ctx) (string, error) {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Email = validation.NormalizeEmail(req.Email)
	if err := validation.Struct(&req); err != nil {
		return "", err
	}
	return req.Email, nil
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

// VerifyEmail consumes a verification token given as ?token= or in the body.
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" && len(c.Body()) > 0 {
		var req verifyEmailRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		token = req.Token
	}
	if token == "" {
		return fiber.NewError(fiber.StatusBadRequest, "verification token is required")
	}

	account, err := h.auth.VerifyEmail(c.UserContext(), token)
	if err != nil {
		return err
	}

	return success(c, fiber.StatusOK, "email verified successfully", fiber.Map{
		"user": store.Serialize(account),
	})
}

// ResendVerification emails a fresh verification link.
func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	email, err := parseEmail(c)
	if err != nil {
		return err
	}

	if err := h.auth.ResendVerification(c.UserContext(), email); err != nil {
		return err
	}

	return success(c, fiber.StatusOK, "verification email sent", nil)
}

// ForgotPassword emails a password reset link.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	email, err := parseEmail(c)
	if err != nil {
		return err
	}

	if err := h.auth.ForgotPassword(c.UserContext(), email); err != nil {
		return err
	}

	return success(c, fiber.StatusOK, "password reset link sent to email", nil)
}

type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,strongpassword"`
}

// ResetPassword sets a new password from a reset token and logs the account in.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	session, err := h.auth.ResetPassword(c.UserContext(), req.Token, req.Password)
	if err != nil {
		return err
	}

	return success(c, fiber.StatusOK, "password reset successfully", fiber.Map{
		"token": session.AccessToken,
		"user":  store.Serialize(session.Account),
	})
}
