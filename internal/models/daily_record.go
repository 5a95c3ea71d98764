package models

import (
	"errors"
	"strings"
	"time"
)

// RecordKind tags which per-day record a row holds.
type RecordKind string

const (
	KindCheckin         RecordKind = "checkin"
	KindPhotoReflection RecordKind = "reflection-with-photo"
	KindFreeReflection  RecordKind = "free-reflection"
)

// MaxScreenTimeMinutes is the number of minutes in a day.
const MaxScreenTimeMinutes = 24 * 60

// Valid reports whether k is one of the known kinds.
func (k RecordKind) Valid() bool {
	switch k {
	case KindCheckin, KindPhotoReflection, KindFreeReflection:
		return true
	}
	return false
}

// DailyRecord is one user submission for one calendar date.
// At most one row exists per (UserID, EntryDate, Kind).
type DailyRecord struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	UserID            uint       `json:"user_id" gorm:"not null;uniqueIndex:uidx_daily_record_key,priority:1"`
	EntryDate         time.Time  `json:"entry_date" gorm:"type:date;not null;uniqueIndex:uidx_daily_record_key,priority:2"`
	Kind              RecordKind `json:"kind" gorm:"type:varchar(32);not null;uniqueIndex:uidx_daily_record_key,priority:3"`
	Mood              string     `json:"mood,omitempty" gorm:"type:varchar(64)"`
	ScreenTimeMinutes *int       `json:"screen_time_in_minutes,omitempty"`
	ReflectionText    string     `json:"reflection_text,omitempty" gorm:"type:text"`
	PhotoRef          *string    `json:"photo_ref,omitempty" gorm:"type:varchar(512)"`
	RecordedAt        *time.Time `json:"timestamp,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at" gorm:"autoUpdateTime:false"`
}

// Key returns the idempotency key of the record.
func (r *DailyRecord) Key() RecordKey {
	return RecordKey{UserID: r.UserID, EntryDate: r.EntryDate, Kind: r.Kind}
}

// MutableColumns lists the payload columns an overwrite replaces for the record's kind.
func (r *DailyRecord) MutableColumns() map[string]any {
	switch r.Kind {
	case KindCheckin:
		return map[string]any{"mood": r.Mood, "screen_time_minutes": r.ScreenTimeMinutes}
	case KindPhotoReflection:
		return map[string]any{"reflection_text": r.ReflectionText, "photo_ref": r.PhotoRef}
	case KindFreeReflection:
		return map[string]any{"reflection_text": r.ReflectionText, "recorded_at": r.RecordedAt}
	}
	return map[string]any{}
}

// ApplyPayload copies the payload-owned fields of src into r.
func (r *DailyRecord) ApplyPayload(src *DailyRecord) {
	r.Mood = src.Mood
	r.ScreenTimeMinutes = src.ScreenTimeMinutes
	r.ReflectionText = src.ReflectionText
	r.PhotoRef = src.PhotoRef
	r.RecordedAt = src.RecordedAt
}

// RecordKey identifies the single slot a DailyRecord may occupy.
type RecordKey struct {
	UserID    uint
	EntryDate time.Time
	Kind      RecordKind
}

// Payload is the kind-specific content of a daily record.
type Payload interface {
	Kind() RecordKind
	Validate() error
	apply(r *DailyRecord)
}

// NewDailyRecord builds an unsaved record for the given owner, date and payload.
func NewDailyRecord(userID uint, date time.Time, p Payload) *DailyRecord {
	r := &DailyRecord{UserID: userID, EntryDate: date, Kind: p.Kind()}
	p.apply(r)
	return r
}

// CheckinPayload is the mood and screen-time check-in.
type CheckinPayload struct {
	Mood              string
	ScreenTimeMinutes int
}

func (p CheckinPayload) Kind() RecordKind { return KindCheckin }

func (p CheckinPayload) Validate() error {
	if strings.TrimSpace(p.Mood) == "" {
		return errors.New("mood is required")
	}
	if p.ScreenTimeMinutes < 0 || p.ScreenTimeMinutes > MaxScreenTimeMinutes {
		return errors.New("screen time must be between 0 and 1440 minutes")
	}
	return nil
}

func (p CheckinPayload) apply(r *DailyRecord) {
	minutes := p.ScreenTimeMinutes
	r.Mood = strings.TrimSpace(p.Mood)
	r.ScreenTimeMinutes = &minutes
}

// PhotoReflectionPayload is the daily reflection with an optional photo.
type PhotoReflectionPayload struct {
	Text     string
	PhotoRef *string
}

func (p PhotoReflectionPayload) Kind() RecordKind { return KindPhotoReflection }

func (p PhotoReflectionPayload) Validate() error {
	if strings.TrimSpace(p.Text) == "" {
		return errors.New("reflection text is required")
	}
	return nil
}

func (p PhotoReflectionPayload) apply(r *DailyRecord) {
	r.ReflectionText = strings.TrimSpace(p.Text)
	r.PhotoRef = p.PhotoRef
}

// FreeReflectionPayload is a free-form reflection stamped with its submission time.
type FreeReflectionPayload struct {
	Text       string
	RecordedAt time.Time
}

func (p FreeReflectionPayload) Kind() RecordKind { return KindFreeReflection }

func (p FreeReflectionPayload) Validate() error {
	if strings.TrimSpace(p.Text) == "" {
		return errors.New("reflection text is required")
	}
	return nil
}

func (p FreeReflectionPayload) apply(r *DailyRecord) {
	at := p.RecordedAt
	r.ReflectionText = strings.TrimSpace(p.Text)
	r.RecordedAt = &at
}
