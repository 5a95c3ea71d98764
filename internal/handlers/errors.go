package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"wellness/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// ErrorHandler is the fiber error handler; it also catches framework errors
// such as unknown routes and oversized bodies.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return respondError(c, err)
}

func respondError(c *fiber.Ctx, err error) error {
	status, reason, message := classify(err)
	if status >= fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(ErrorResponse{Error: reason, Message: message})
}

func classify(err error) (int, string, string) {
	var fiberErr *fiber.Error
	switch {
	case errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest, "validation_failed", err.Error()
	case errors.Is(err, services.ErrMissingToken):
		return fiber.StatusUnauthorized, "missing_token", "Authorization header with a bearer token is required"
	case errors.Is(err, services.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, "invalid_credentials", "Invalid credentials."
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden, "forbidden", "Invalid or expired token"
	case errors.Is(err, services.ErrUserNotFound):
		return fiber.StatusNotFound, "not_found", "User does not exist."
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound, "not_found", strings.TrimPrefix(err.Error(), services.ErrNotFound.Error()+": ")
	case errors.Is(err, services.ErrDuplicateEmail):
		return fiber.StatusConflict, "duplicate_email", "Email already registered."
	case errors.Is(err, services.ErrConflict):
		return fiber.StatusConflict, "conflict", err.Error()
	case errors.Is(err, services.ErrStorage):
		return fiber.StatusInternalServerError, "storage_error", "Internal server error."
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberReason(fiberErr.Code), fiberErr.Message
	}
	return fiber.StatusInternalServerError, "internal_error", "Internal server error."
}

func fiberReason(code int) string {
	switch code {
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return "validation_failed"
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	case fiber.StatusRequestEntityTooLarge:
		return "payload_too_large"
	}
	if code >= fiber.StatusInternalServerError {
		return "internal_error"
	}
	return "request_failed"
}

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateRequest runs struct validation and writes the 400 response itself.
// It returns handled=true when the request must not proceed.
func validateRequest(c *fiber.Ctx, v *validator.Validate, req any) (bool, error) {
	err := v.Struct(req)
	if err == nil {
		return false, nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return true, respondError(c, fmt.Errorf("%w: %v", services.ErrValidation, err))
	}
	errorMessages := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return true, c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "validation_failed",
		Message: "Missing or invalid fields.",
		Errors:  errorMessages,
	})
}

// parseBody decodes the request body and reports malformed input as a 400.
func parseBody(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		slog.Debug("failed to parse request body", "path", c.Path(), "error", err)
		return true, respondError(c, fmt.Errorf("%w: invalid request body", services.ErrValidation))
	}
	return false, nil
}
