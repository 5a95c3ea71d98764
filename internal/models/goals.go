package models

import "time"

// UserGoals holds the baseline assessment a user fills in once after signing up.
type UserGoals struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	UserID           uint      `json:"user_id" gorm:"not null;uniqueIndex"`
	Awareness        string    `json:"awareness" gorm:"type:text;not null"`
	Achieve          []string  `json:"achieve" gorm:"serializer:json"`
	ReminderType     []string  `json:"reminder_type" gorm:"serializer:json"`
	WeeklyScreenTime int       `json:"weekly_screen_time"`
	PriorityArea     []string  `json:"priority_area" gorm:"serializer:json"`
	CreatedAt        time.Time `json:"created_at"`
}
