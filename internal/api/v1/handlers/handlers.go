// Package handlers provides HTTP request handling
package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/handyhub/quotehub/internal/logger"
	"github.com/handyhub/quotehub/internal/types"
)

// statusFor maps a domain error kind to its HTTP status code.
func statusFor(kind types.ErrorKind) int {
	switch kind {
	case types.KindBadRequest:
		return fiber.StatusBadRequest
	case types.KindForbidden:
		return fiber.StatusForbidden
	case types.KindNotFound:
		return fiber.StatusNotFound
	case types.KindConflict, types.KindInvalidState:
		return fiber.StatusConflict
	case types.KindServiceUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the SlugResponse for a service error. Unclassified
// errors are logged with full detail and surfaced as a generic 500.
func respondError(c *fiber.Ctx, err error) error {
	kind := types.KindOf(err)
	if kind == types.KindInternal {
		logger.ErrorWithFields("Unhandled service error", map[string]interface{}{
			"path":  c.Path(),
			"error": err.Error(),
		})
	}
	return c.Status(statusFor(kind)).JSON(types.SlugResponse{
		Slug:  types.SlugFor(kind),
		Error: types.MessageOf(err),
	})
}
