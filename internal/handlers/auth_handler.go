package handlers

import (
	"wellness/internal/middleware"
	"wellness/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles registration, login and the current-user lookup.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    newValidator(),
	}
}

// RegisterRoutes registers the public authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/register", h.HandleRegister)
	router.Post("/login", h.HandleLogin)
}

// RegisterProtectedRoutes registers routes that need an authenticated user.
func (h *AuthHandler) RegisterProtectedRoutes(router fiber.Router) {
	router.Get("/user", h.HandleCurrentUser)
}

// HandleRegister handles user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if done, err := parseBody(c, &req); done {
		return err
	}
	if done, err := validateRequest(c, h.validate, &req); done {
		return err
	}

	user, err := h.authService.RegisterUser(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(newUserResponse(user))
}

// HandleLogin handles user login and returns a session token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if done, err := parseBody(c, &req); done {
		return err
	}
	if done, err := validateRequest(c, h.validate, &req); done {
		return err
	}

	token, user, err := h.authService.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(LoginResponse{Token: token, User: newUserResponse(user)})
}

// HandleCurrentUser returns the authenticated user.
func (h *AuthHandler) HandleCurrentUser(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return respondError(c, services.ErrMissingToken)
	}
	user, err := h.authService.CurrentUser(c.UserContext(), identity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(newUserResponse(user))
}
