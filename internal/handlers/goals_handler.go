package handlers

import (
	"wellness/internal/middleware"
	"wellness/internal/models"
	"wellness/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// GoalsHandler handles the one-time baseline assessment.
type GoalsHandler struct {
	goals    *services.GoalsService
	validate *validator.Validate
}

// NewGoalsHandler creates a new GoalsHandler.
func NewGoalsHandler(goals *services.GoalsService) *GoalsHandler {
	return &GoalsHandler{goals: goals, validate: newValidator()}
}

// RegisterRoutes registers the goals routes behind authentication.
func (h *GoalsHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/goals", h.HandleSaveGoals)
	router.Get("/goals", h.HandleGetGoals)
}

// HandleSaveGoals stores the authenticated user's goals.
func (h *GoalsHandler) HandleSaveGoals(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return respondError(c, services.ErrMissingToken)
	}

	var req GoalsRequest
	if done, err := parseBody(c, &req); done {
		return err
	}
	if done, err := validateRequest(c, h.validate, &req); done {
		return err
	}

	goals, err := h.goals.Save(c.UserContext(), identity, services.GoalsInput{
		Awareness:        req.Awareness,
		Achieve:          req.Achieve,
		ReminderType:     req.ReminderType,
		WeeklyScreenTime: int(*req.WeeklyScreenTime),
		PriorityArea:     req.PriorityArea,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(GoalsSavedResponse{ID: goals.ID, UserID: goals.UserID})
}

// HandleGetGoals reports whether the user completed the assessment.
func (h *GoalsHandler) HandleGetGoals(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return respondError(c, services.ErrMissingToken)
	}

	goals, err := h.goals.Get(c.UserContext(), identity)
	if err != nil {
		return respondError(c, err)
	}
	if goals == nil {
		return c.JSON(GoalsResponse{Completed: false})
	}
	return c.JSON(newGoalsResponse(goals))
}

func newGoalsResponse(g *models.UserGoals) GoalsResponse {
	return GoalsResponse{
		Completed:        true,
		Awareness:        g.Awareness,
		WeeklyScreenTime: g.WeeklyScreenTime,
		Achieve:          g.Achieve,
		ReminderType:     g.ReminderType,
		PriorityArea:     g.PriorityArea,
	}
}
