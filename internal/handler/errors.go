package handler

import (
	"errors"

	"go-stockledger-ws/internal/apperr"
	"go-stockledger-ws/internal/ledger"

	"github.com/gofiber/fiber/v2"
)

// fail maps a service error onto the API's status codes.
func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusBadRequest
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, apperr.ErrInsufficientStock):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrConflict):
		status = fiber.StatusConflict
	case errors.Is(err, apperr.ErrTransport):
		status = fiber.StatusServiceUnavailable
	case errors.Is(err, ledger.ErrInvalidAmount):
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// getActor reads the acting user's name for audit columns. Authentication is
// handled upstream of this service; the proxy forwards the identity.
func getActor(c *fiber.Ctx) string {
	actor := c.Get("X-Actor")
	if actor == "" {
		return "system"
	}
	return actor
}
