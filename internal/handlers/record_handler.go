package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"time"

	"wellness/internal/middleware"
	"wellness/internal/models"
	"wellness/internal/repositories"
	"wellness/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// RecordHandler handles daily record submissions and their read views.
type RecordHandler struct {
	records  *services.RecordService
	validate *validator.Validate
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(records *services.RecordService) *RecordHandler {
	return &RecordHandler{
		records:  records,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the record routes. router must already require
// authentication.
func (h *RecordHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/checkin", h.HandleCheckin)
	router.Post("/reflection", h.HandleReflection)
	router.Get("/reflections", h.HandleReflections)
	router.Get("/today", h.HandleToday)
	router.Get("/overview-7days", h.HandleOverview)
	router.Get("/history-log", h.HandleHistory)
}

// HandleCheckin stores the mood and screen-time check-in for a date.
func (h *RecordHandler) HandleCheckin(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return respondError(c, services.ErrMissingToken)
	}

	var req CheckinRequest
	if done, err := parseBody(c, &req); done {
		return err
	}
	if done, err := validateRequest(c, h.validate, &req); done {
		return err
	}

	result, err := h.records.SubmitCheckin(c.UserContext(), identity, services.CheckinInput{
		Mood:              req.Mood,
		ScreenTimeMinutes: *req.ScreenTimeInMinutes,
		EntryDate:         req.EntryDate,
		Overwrite:         req.Overwrite,
	})
	if err != nil {
		return respondError(c, err)
	}
	if result.Outcome == repositories.OutcomeConflict {
		return respondConflict(c, result.Record, newCheckinResponse(result.Record, ""))
	}
	return c.JSON(newCheckinResponse(result.Record, result.Outcome.String()))
}

// HandleDailyEntry stores today's reflection with an optional photo from a
// multipart form and redirects to the mood page.
func (h *RecordHandler) HandleDailyEntry(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return respondError(c, services.ErrMissingToken)
	}

	var photo *services.PhotoUpload
	if form, err := c.MultipartForm(); err == nil {
		if files := form.File["photo"]; len(files) > 0 {
			photo, err = readPhoto(files[0])
			if err != nil {
				return respondError(c, err)
			}
		}
	}

	result, err := h.records.SubmitPhotoReflection(c.UserContext(), identity,
		c.FormValue("reflection_text"), photo, formBool(c.FormValue("overwrite")))
	if err != nil {
		return respondError(c, err)
	}
	if result.Outcome == repositories.OutcomeConflict {
		return respondConflict(c, result.Record, DailyEntryResponse{
			ID:             result.Record.ID,
			ReflectionText: result.Record.ReflectionText,
			PhotoRef:       result.Record.PhotoRef,
			EntryDate:      result.Record.EntryDate.Format(time.DateOnly),
		})
	}
	return c.Redirect("/mood")
}

// HandleReflection stores today's free-form reflection.
func (h *RecordHandler) HandleReflection(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return respondError(c, services.ErrMissingToken)
	}

	var req ReflectionRequest
	if done, err := parseBody(c, &req); done {
		return err
	}

	result, err := h.records.SubmitFreeReflection(c.UserContext(), identity, req.ReflectionText, req.Overwrite)
	if err != nil {
		return respondError(c, err)
	}
	resp := ReflectionResponse{
		ID:             result.Record.ID,
		UserID:         result.Record.UserID,
		ReflectionText: result.Record.ReflectionText,
	}
	if result.Outcome == repositories.OutcomeConflict {
		return respondConflict(c, result.Record, resp)
	}
	resp.Outcome = result.Outcome.String()
	return c.JSON(resp)
}

// HandleReflections lists the user's free-form reflections, newest first.
func (h *RecordHandler) HandleReflections(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return respondError(c, services.ErrMissingToken)
	}

	records, err := h.records.Reflections(c.UserContext(), identity)
	if err != nil {
		return respondError(c, err)
	}
	items := make([]ReflectionItem, 0, len(records))
	for _, r := range records {
		items = append(items, ReflectionItem{
			ID:             r.ID,
			UserID:         r.UserID,
			ReflectionText: r.ReflectionText,
			Timestamp:      r.RecordedAt,
			EntryDate:      r.EntryDate.Format(time.DateOnly),
		})
	}
	return c.JSON(items)
}

// HandleToday returns today's check-in and reflection.
func (h *RecordHandler) HandleToday(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return respondError(c, services.ErrMissingToken)
	}

	summary, err := h.records.Today(c.UserContext(), identity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(TodayResponse{
		Mood:       summary.Mood,
		ScreenTime: summary.ScreenTime,
		Reflection: summary.Reflection,
	})
}

// HandleOverview returns the trend of the latest check-ins, oldest first.
func (h *RecordHandler) HandleOverview(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return respondError(c, services.ErrMissingToken)
	}

	records, err := h.records.Overview(c.UserContext(), identity)
	if err != nil {
		return respondError(c, err)
	}
	points := make([]OverviewPoint, 0, len(records))
	for _, r := range records {
		point := OverviewPoint{Date: r.EntryDate.Format(time.DateOnly), Mood: r.Mood}
		if r.ScreenTimeMinutes != nil {
			point.ScreenTime = *r.ScreenTimeMinutes
		}
		points = append(points, point)
	}
	return c.JSON(points)
}

// HandleHistory returns free-form reflections within optional
// startDate/endDate bounds.
func (h *RecordHandler) HandleHistory(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return respondError(c, services.ErrMissingToken)
	}

	records, err := h.records.History(c.UserContext(), identity, c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		return respondError(c, err)
	}
	items := make([]HistoryItem, 0, len(records))
	for _, r := range records {
		items = append(items, HistoryItem{Timestamp: r.RecordedAt, ReflectionText: r.ReflectionText})
	}
	return c.JSON(items)
}

func respondConflict(c *fiber.Ctx, existing *models.DailyRecord, view any) error {
	return c.Status(fiber.StatusConflict).JSON(ConflictResponse{
		Error: "conflict",
		Message: fmt.Sprintf("A %s entry already exists for %s. Resubmit with overwrite to replace it.",
			existing.Kind, existing.EntryDate.Format(time.DateOnly)),
		Existing: view,
	})
}

func readPhoto(fh *multipart.FileHeader) (*services.PhotoUpload, error) {
	if fh.Size > services.MaxPhotoBytes {
		return nil, fmt.Errorf("%w: photo exceeds %d bytes", services.ErrValidation, services.MaxPhotoBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable photo upload", services.ErrValidation)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, services.MaxPhotoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable photo upload", services.ErrValidation)
	}
	return &services.PhotoUpload{Filename: fh.Filename, Data: data}, nil
}

func formBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
