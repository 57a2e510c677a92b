package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/example/venuebook/internal/autherr"
)

// Envelope is the shape of every JSON response.
type Envelope struct {
	Status  string               `json:"status"`
	Message string               `json:"message,omitempty"`
	Data    interface{}          `json:"data,omitempty"`
	Errors  []autherr.FieldError `json:"errors,omitempty"`
}

func success(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(Envelope{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// ErrorHandler renders every error returned by a handler or middleware as an
// error envelope. Unknown errors are logged and reported as 500 without
// detail.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var (
			authErr  *autherr.Error
			fiberErr *fiber.Error
		)

		switch {
		case errors.As(err, &authErr):
			return c.Status(authErr.Status).JSON(Envelope{
				Status:  "error",
				Message: authErr.Message,
				Errors:  authErr.Fields,
			})
		case errors.As(err, &fiberErr):
			return c.Status(fiberErr.Code).JSON(Envelope{
				Status:  "error",
				Message: fiberErr.Message,
			})
		}

		log.Error("unhandled error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(Envelope{
			Status:  "error",
			Message: "internal server error",
		})
	}
}
