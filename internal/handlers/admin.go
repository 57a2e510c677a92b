package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/venuebook/internal/services"
	"github.com/example/venuebook/internal/store"
	"github.com/example/venuebook/internal/utils"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	auth *services.AuthService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(auth *services.AuthService) *AdminHandler {
	return &AdminHandler{auth: auth}
}

// ListAccounts returns a page of sanitized accounts, newest first.
func (h *AdminHandler) ListAccounts(c *fiber.Ctx) error {
	pagination := utils.ParsePagination(c)

	accounts, total, err := h.auth.ListAccounts(c.UserContext(), pagination.Offset, pagination.Limit)
	if err != nil {
		return err
	}

	return success(c, fiber.StatusOK, "", fiber.Map{
		"accounts":   store.SerializeAll(accounts),
		"pagination": pagination.Meta(total),
	})
}

// Stats returns account counts for the admin dashboard.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.auth.Stats(c.UserContext())
	if err != nil {
		return err
	}

	return success(c, fiber.StatusOK, "", fiber.Map{"stats": stats})
}
