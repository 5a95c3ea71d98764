package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"wellness/internal/models"
	"wellness/internal/repositories"
	"wellness/pkg/blobstore"

	"github.com/gabriel-vasile/mimetype"
)

// MaxPhotoBytes is the largest accepted reflection photo.
const MaxPhotoBytes = 3 << 20

// OverviewDays is the number of check-ins in the trend overview.
const OverviewDays = 7

var allowedPhotoTypes = []string{"image/jpeg", "image/png"}

// CheckinInput is a mood and screen-time submission.
type CheckinInput struct {
	Mood              string
	ScreenTimeMinutes int
	EntryDate         string
	Overwrite         bool
}

// PhotoUpload is an uploaded reflection photo held in memory.
type PhotoUpload struct {
	Filename string
	Data     []byte
}

// TodaySummary is the rollup served for the current calendar day.
type TodaySummary struct {
	Mood       string
	ScreenTime int
	Reflection *string
}

// RecordService applies the one-record-per-day rule and serves read projections.
type RecordService struct {
	records  repositories.DailyRecordRepository
	photos   blobstore.Store
	events   EventPublisher
	calendar *Calendar
}

// NewRecordService creates a new RecordService. photos and events may be nil.
func NewRecordService(records repositories.DailyRecordRepository, photos blobstore.Store, events EventPublisher, calendar *Calendar) *RecordService {
	if calendar == nil {
		calendar = NewCalendar(time.UTC, nil)
	}
	return &RecordService{
		records:  records,
		photos:   photos,
		events:   events,
		calendar: calendar,
	}
}

// SubmitCheckin stores the check-in for the client-supplied entry date.
func (s *RecordService) SubmitCheckin(ctx context.Context, id Identity, in CheckinInput) (*repositories.UpsertResult, error) {
	date, err := s.calendar.ParseEntryDate(in.EntryDate)
	if err != nil {
		return nil, err
	}
	payload := models.CheckinPayload{Mood: in.Mood, ScreenTimeMinutes: in.ScreenTimeMinutes}
	return s.submit(ctx, id.UserID, date, payload, in.Overwrite, s.calendar.Now())
}

// SubmitFreeReflection stores a free-form reflection for today.
func (s *RecordService) SubmitFreeReflection(ctx context.Context, id Identity, text string, overwrite bool) (*repositories.UpsertResult, error) {
	now := s.calendar.Now()
	payload := models.FreeReflectionPayload{Text: text, RecordedAt: now}
	return s.submit(ctx, id.UserID, s.calendar.DateOf(now), payload, overwrite, now)
}

// SubmitPhotoReflection stores today's reflection with an optional photo.
// The photo is written before the upsert and removed again when the record
// is not stored; an overwrite removes the photo it replaced.
func (s *RecordService) SubmitPhotoReflection(ctx context.Context, id Identity, text string, photo *PhotoUpload, overwrite bool) (*repositories.UpsertResult, error) {
	now := s.calendar.Now()
	payload := models.PhotoReflectionPayload{Text: text}
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if photo != nil {
		ref, err := s.storePhoto(ctx, photo, now)
		if err != nil {
			return nil, err
		}
		payload.PhotoRef = &ref
	}

	result, err := s.submit(ctx, id.UserID, s.calendar.DateOf(now), payload, overwrite, now)
	if err != nil || result.Outcome == repositories.OutcomeConflict {
		if payload.PhotoRef != nil {
			s.deletePhoto(ctx, *payload.PhotoRef)
		}
		return result, err
	}

	if result.Outcome == repositories.OutcomeUpdated && result.Previous != nil && result.Previous.PhotoRef != nil {
		if payload.PhotoRef == nil || *payload.PhotoRef != *result.Previous.PhotoRef {
			s.deletePhoto(ctx, *result.Previous.PhotoRef)
		}
	}
	return result, nil
}

func (s *RecordService) submit(ctx context.Context, userID uint, date time.Time, payload models.Payload, overwrite bool, now time.Time) (*repositories.UpsertResult, error) {
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	record := models.NewDailyRecord(userID, date, payload)
	record.CreatedAt = now

	result, err := s.records.Upsert(ctx, record, overwrite)
	if err != nil {
		return nil, storageError("upsert daily record", err)
	}

	slog.InfoContext(ctx, "daily record submitted",
		"user_id", userID,
		"kind", string(record.Kind),
		"entry_date", date.Format(time.DateOnly),
		"outcome", result.Outcome.String(),
	)
	if result.Outcome != repositories.OutcomeConflict {
		publishRecordEvent(s.events, result, now)
	}
	return result, nil
}

func (s *RecordService) storePhoto(ctx context.Context, photo *PhotoUpload, now time.Time) (string, error) {
	if len(photo.Data) == 0 {
		return "", validationError("photo is empty")
	}
	if len(photo.Data) > MaxPhotoBytes {
		return "", validationError("photo must be at most %d bytes", MaxPhotoBytes)
	}
	mtype := mimetype.Detect(photo.Data)
	if !mimetype.EqualsAny(mtype.String(), allowedPhotoTypes...) {
		return "", validationError("invalid file type %s, only JPEG and PNG are allowed", mtype.String())
	}
	if s.photos == nil {
		return "", storageError("store photo", errors.New("photo store is not configured"))
	}

	key := blobstore.NewKey("photos", now, mtype.Extension())
	ref, err := s.photos.Put(ctx, key, mtype.String(), bytes.NewReader(photo.Data), int64(len(photo.Data)))
	if err != nil {
		return "", storageError("store photo", err)
	}
	return ref, nil
}

func (s *RecordService) deletePhoto(ctx context.Context, ref string) {
	if s.photos == nil {
		return
	}
	if err := s.photos.Delete(ctx, ref); err != nil {
		slog.WarnContext(ctx, "failed to delete photo", "ref", ref, "error", err)
	}
}

// Today returns today's check-in together with today's reflection text, if any.
func (s *RecordService) Today(ctx context.Context, id Identity) (*TodaySummary, error) {
	today := s.calendar.Today()
	checkin, err := s.records.FindByKey(ctx, models.RecordKey{UserID: id.UserID, EntryDate: today, Kind: models.KindCheckin})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: no entry found for today", ErrNotFound)
		}
		return nil, storageError("find checkin", err)
	}

	summary := &TodaySummary{Mood: checkin.Mood}
	if checkin.ScreenTimeMinutes != nil {
		summary.ScreenTime = *checkin.ScreenTimeMinutes
	}
	for _, kind := range []models.RecordKind{models.KindFreeReflection, models.KindPhotoReflection} {
		rec, err := s.records.FindByKey(ctx, models.RecordKey{UserID: id.UserID, EntryDate: today, Kind: kind})
		if errors.Is(err, repositories.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, storageError("find reflection", err)
		}
		text := rec.ReflectionText
		summary.Reflection = &text
		break
	}
	return summary, nil
}

// Overview returns the latest check-ins, oldest first.
func (s *RecordService) Overview(ctx context.Context, id Identity) ([]models.DailyRecord, error) {
	records, err := s.records.List(ctx, id.UserID, repositories.RecordQuery{Kind: models.KindCheckin, Limit: OverviewDays})
	if err != nil {
		return nil, storageError("list checkins", err)
	}
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// History returns free reflections newest first, optionally bounded by
// inclusive YYYY-MM-DD dates. An empty result is ErrNotFound.
func (s *RecordService) History(ctx context.Context, id Identity, startDate, endDate string) ([]models.DailyRecord, error) {
	q := repositories.RecordQuery{Kind: models.KindFreeReflection}
	if startDate != "" {
		from, err := ParseDate(startDate)
		if err != nil {
			return nil, err
		}
		q.From = &from
	}
	if endDate != "" {
		to, err := ParseDate(endDate)
		if err != nil {
			return nil, err
		}
		q.To = &to
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return nil, validationError("startDate must not be after endDate")
	}

	records, err := s.records.List(ctx, id.UserID, q)
	if err != nil {
		return nil, storageError("list reflections", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no history found", ErrNotFound)
	}
	return records, nil
}

// Reflections returns every free reflection of the user, newest first.
func (s *RecordService) Reflections(ctx context.Context, id Identity) ([]models.DailyRecord, error) {
	records, err := s.records.List(ctx, id.UserID, repositories.RecordQuery{Kind: models.KindFreeReflection})
	if err != nil {
		return nil, storageError("list reflections", err)
	}
	return records, nil
}
