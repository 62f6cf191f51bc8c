package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Deekshith9238/testingfhm/domain/market"
	"github.com/Deekshith9238/testingfhm/modules/session"
)

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// UpdateTaskRequest is the body of PUT /tasks/:id. Complete and cancel
// are folded into the generic status update.
type UpdateTaskRequest struct {
	Status market.TaskStatus `json:"status"`
}

// RespondRequestRequest is the body of PUT /requests/:id.
type RespondRequestRequest struct {
	Action string `json:"action"` // "accept" or "reject"
}

// statusFromError maps the domain error taxonomy to HTTP codes.
// ErrAlreadyAccepted is an expected outcome of contention and maps to a
// client-recoverable 400.
func statusFromError(err error) (int, string) {
	switch {
	case errors.Is(err, market.ErrTaskNotFound),
		errors.Is(err, market.ErrProviderNotFound),
		errors.Is(err, market.ErrUserNotFound),
		errors.Is(err, market.ErrRequestNotFound),
		errors.Is(err, market.ErrNotificationNotFound):
		return fiber.StatusNotFound, "not_found"
	case errors.Is(err, session.ErrInvalidToken):
		return fiber.StatusUnauthorized, "unauthorized"
	case errors.Is(err, market.ErrForbidden):
		return fiber.StatusForbidden, "forbidden"
	case errors.Is(err, market.ErrCategoryMismatch):
		return fiber.StatusForbidden, "category_mismatch"
	case errors.Is(err, market.ErrAlreadyAccepted):
		return fiber.StatusBadRequest, "already_accepted"
	case errors.Is(err, market.ErrInvalidTransition):
		return fiber.StatusBadRequest, "invalid_transition"
	case errors.Is(err, market.ErrValidation):
		return fiber.StatusBadRequest, "validation_error"
	default:
		return fiber.StatusInternalServerError, "internal_error"
	}
}

// errorJSON writes the standard error payload for a domain error.
func errorJSON(c *fiber.Ctx, err error) error {
	code, tag := statusFromError(err)
	return c.Status(code).JSON(ErrorResponse{
		Error:   tag,
		Message: err.Error(),
	})
}
