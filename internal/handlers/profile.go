package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/venuebook/internal/autherr"
	"github.com/example/venuebook/internal/middleware"
	"github.com/example/venuebook/internal/models"
	"github.com/example/venuebook/internal/services"
	"github.com/example/venuebook/internal/store"
)

// ProfileHandler manages the authenticated account's own profile.
type ProfileHandler struct {
	auth *services.AuthService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(auth *services.AuthService) *ProfileHandler {
	return &ProfileHandler{auth: auth}
}

func currentAccount(c *fiber.Ctx) (*models.Account, error) {
	account, ok := middleware.GetCurrentAccount(c)
	if !ok {
		return nil, autherr.ErrUnauthorized
	}
	return account, nil
}

// Me returns the authenticated account.
func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}

	return success(c, fiber.StatusOK, "", fiber.Map{"user": store.Serialize(account)})
}

// updateProfileRequest lists the only fields a profile update may touch.
// Anything else in the payload, such as email, password or role, is dropped.
type updateProfileRequest struct {
	BusinessName    *string         `json:"businessName"`
	Address         *models.Address `json:"address"`
	SeatingCapacity *int            `json:"seatingCapacity"`
	BusinessType    *string         `json:"businessType"`
	Amenities       *[]string       `json:"amenities"`
	PhoneNumber     *string         `json:"phoneNumber"`
}

// UpdateProfile merges whitelisted fields into the account.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updated, err := h.auth.UpdateProfile(c.UserContext(), account.ID, store.ProfileUpdate{
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

	return success(c, fiber.StatusOK, "profile updated successfully", fiber.Map{
		"user": store.Serialize(updated),
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,strongpassword"`
}

// ChangePassword replaces the password after checking the current one.
func (h *ProfileHandler) ChangePassword(c *fiber.Ctx) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	session, err := h.auth.ChangePassword(c.UserContext(), account.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return err
	}

	return success(c, fiber.StatusOK, "password changed successfully", fiber.Map{
		"token": session.AccessToken,
		"user":  store.Serialize(session.Account),
	})
}

// DeleteAccount deactivates the authenticated account.
func (h *ProfileHandler) DeleteAccount(c *fiber.Ctx) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}

	if err := h.auth.DeleteAccount(c.UserContext(), account.ID); err != nil {
		return err
	}

	return success(c, fiber.StatusOK, "account deactivated successfully", nil)
}
