package handlers

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"wellness/internal/models"
)

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Name     string `json:"name" form:"name" validate:"required,max=100"`
	Email    string `json:"email" form:"email" validate:"required,email,max=255"`
	Password string `json:"password" form:"password" validate:"required,min=6,max=72"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func newUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

// LoginResponse carries the session token.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// CheckinRequest represents a mood and screen-time submission.
type CheckinRequest struct {
	Mood                string `json:"mood" form:"mood" validate:"required,max=64"`
	ScreenTimeInMinutes *int   `json:"screen_time_in_minutes" form:"screen_time_in_minutes" validate:"required,gte=0,lte=1440"`
	EntryDate           string `json:"entry_date" form:"entry_date" validate:"required,datetime=2006-01-02"`
	Overwrite           bool   `json:"overwrite" form:"overwrite"`
}

// CheckinResponse is a stored check-in.
type CheckinResponse struct {
	ID                  uint       `json:"id"`
	UserID              uint       `json:"user_id"`
	Mood                string     `json:"mood"`
	ScreenTimeInMinutes int        `json:"screen_time_in_minutes"`
	EntryDate           string     `json:"entry_date"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           *time.Time `json:"updated_at"`
	Outcome             string     `json:"outcome,omitempty"`
}

func newCheckinResponse(r *models.DailyRecord, outcome string) CheckinResponse {
	resp := CheckinResponse{
		ID:        r.ID,
		UserID:    r.UserID,
		Mood:      r.Mood,
		EntryDate: r.EntryDate.Format(time.DateOnly),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Outcome:   outcome,
	}
	if r.ScreenTimeMinutes != nil {
		resp.ScreenTimeInMinutes = *r.ScreenTimeMinutes
	}
	return resp
}

// ReflectionRequest represents a free-form reflection submission.
type ReflectionRequest struct {
	ReflectionText string `json:"reflectionText" form:"reflectionText"`
	Overwrite      bool   `json:"overwrite" form:"overwrite"`
}

// ReflectionResponse is a stored free-form reflection.
type ReflectionResponse struct {
	ID             uint   `json:"id"`
	UserID         uint   `json:"userId"`
	ReflectionText string `json:"reflectionText"`
	Outcome        string `json:"outcome,omitempty"`
}

// DailyEntryResponse is a stored reflection with photo.
type DailyEntryResponse struct {
	ID             uint    `json:"id"`
	ReflectionText string  `json:"reflection_text"`
	PhotoRef       *string `json:"photo_ref"`
	EntryDate      string  `json:"entry_date"`
}

// ReflectionItem is one entry of the reflections listing.
type ReflectionItem struct {
	ID             uint       `json:"id"`
	UserID         uint       `json:"user_id"`
	ReflectionText string     `json:"reflection_text"`
	Timestamp      *time.Time `json:"timestamp"`
	EntryDate      string     `json:"entry_date"`
}

// HistoryItem is one entry of the history log.
type HistoryItem struct {
	Timestamp      *time.Time `json:"timestamp"`
	ReflectionText string     `json:"reflection_text"`
}

// TodayResponse is today's rollup.
type TodayResponse struct {
	Mood       string  `json:"mood"`
	ScreenTime int     `json:"screenTime"`
	Reflection *string `json:"reflection"`
}

// OverviewPoint is one day of the 7-day trend.
type OverviewPoint struct {
	Date       string `json:"date"`
	Mood       string `json:"mood"`
	ScreenTime int    `json:"screenTime"`
}

// ConflictResponse is returned when a record already exists for the day.
type ConflictResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Existing any    `json:"existing"`
}

// GoalsRequest represents the baseline assessment. Any user_id in the body is
// ignored; the owner is always the authenticated user.
type GoalsRequest struct {
	Awareness        string   `json:"awareness" validate:"required"`
	Achieve          []string `json:"achieve" validate:"required,min=1,dive,required"`
	ReminderType     []string `json:"reminder_type" validate:"required,min=1,dive,required"`
	WeeklyScreenTime *FlexInt `json:"weekly_screen_time" validate:"required"`
	PriorityArea     []string `json:"priority_area" validate:"required,min=1,dive,required"`
}

// GoalsSavedResponse identifies newly stored goals.
type GoalsSavedResponse struct {
	ID     uint `json:"id"`
	UserID uint `json:"user_id"`
}

// GoalsResponse is the stored assessment.
type GoalsResponse struct {
	Completed        bool     `json:"completed"`
	Awareness        string   `json:"awareness,omitempty"`
	WeeklyScreenTime int      `json:"weekly_screen_time,omitempty"`
	Achieve          []string `json:"achieve,omitempty"`
	ReminderType     []string `json:"reminder_type,omitempty"`
	PriorityArea     []string `json:"priority_area,omitempty"`
}

// FlexInt accepts a JSON number or a numeric string.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(bytes.Trim(b, `"`)))
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("expected a whole number, got %s", b)
	}
	*f = FlexInt(n)
	return nil
}
