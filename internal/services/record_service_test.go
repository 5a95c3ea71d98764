package services_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"wellness/internal/models"
	"wellness/internal/repositories"
	"wellness/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

// fakeBlobStore keeps objects in memory.
type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return key, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, ref)
	return nil
}

func (f *fakeBlobStore) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	return keys
}

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(routingKey string, body []byte) error {
	args := m.Called(routingKey, body)
	return args.Error(0)
}

type recordFixture struct {
	service *services.RecordService
	records *repositories.MemoryDailyRecordRepository
	photos  *fakeBlobStore
	clock   *fakeClock
}

func newRecordFixture(t *testing.T, events services.EventPublisher) *recordFixture {
	t.Helper()
	f := &recordFixture{
		records: repositories.NewMemoryDailyRecordRepository(),
		photos:  newFakeBlobStore(),
		clock:   &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
	}
	calendar := services.NewCalendar(time.UTC, f.clock.Now)
	f.service = services.NewRecordService(f.records, f.photos, events, calendar)
	return f
}

var alice = services.Identity{UserID: 1, Email: "a@x.com"}

func TestRecordService_SubmitCheckin_Lifecycle(t *testing.T) {
	f := newRecordFixture(t, nil)
	ctx := context.Background()
	in := services.CheckinInput{Mood: "good", ScreenTimeMinutes: 30, EntryDate: "2024-01-01"}

	created, err := f.service.SubmitCheckin(ctx, alice, in)
	require.NoError(t, err)
	assert.Equal(t, repositories.OutcomeCreated, created.Outcome)
	assert.Nil(t, created.Record.UpdatedAt)
	createdAt := created.Record.CreatedAt

	in.Mood = "bad"
	conflict, err := f.service.SubmitCheckin(ctx, alice, in)
	require.NoError(t, err)
	assert.Equal(t, repositories.OutcomeConflict, conflict.Outcome)
	assert.Equal(t, "good", conflict.Record.Mood, "conflict reports the stored record untouched")

	f.clock.now = f.clock.now.Add(time.Hour)
	in.Overwrite = true
	updated, err := f.service.SubmitCheckin(ctx, alice, in)
	require.NoError(t, err)
	assert.Equal(t, repositories.OutcomeUpdated, updated.Outcome)
	assert.Equal(t, created.Record.ID, updated.Record.ID)
	assert.Equal(t, "bad", updated.Record.Mood)
	assert.True(t, updated.Record.CreatedAt.Equal(createdAt))
	require.NotNil(t, updated.Record.UpdatedAt)
	assert.True(t, updated.Record.UpdatedAt.Equal(f.clock.now))

	rows, err := f.records.List(ctx, alice.UserID, repositories.RecordQuery{Kind: models.KindCheckin})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRecordService_SubmitCheckin_Validation(t *testing.T) {
	f := newRecordFixture(t, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		in   services.CheckinInput
	}{
		{"blank mood", services.CheckinInput{Mood: "  ", ScreenTimeMinutes: 10, EntryDate: "2024-01-01"}},
		{"negative minutes", services.CheckinInput{Mood: "ok", ScreenTimeMinutes: -1, EntryDate: "2024-01-01"}},
		{"more than a day", services.CheckinInput{Mood: "ok", ScreenTimeMinutes: 1441, EntryDate: "2024-01-01"}},
		{"future date", services.CheckinInput{Mood: "ok", ScreenTimeMinutes: 10, EntryDate: "2024-01-05"}},
		{"bad date", services.CheckinInput{Mood: "ok", ScreenTimeMinutes: 10, EntryDate: "01-01-2024"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.SubmitCheckin(ctx, alice, tt.in)
			assert.ErrorIs(t, err, services.ErrValidation)
		})
	}

	rows, err := f.records.List(ctx, alice.UserID, repositories.RecordQuery{Kind: models.KindCheckin})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRecordService_SubmitCheckin_BoundaryMinutes(t *testing.T) {
	f := newRecordFixture(t, nil)
	ctx := context.Background()

	_, err := f.service.SubmitCheckin(ctx, alice, services.CheckinInput{Mood: "ok", ScreenTimeMinutes: 0, EntryDate: "2023-12-30"})
	assert.NoError(t, err)
	_, err = f.service.SubmitCheckin(ctx, alice, services.CheckinInput{Mood: "ok", ScreenTimeMinutes: 1440, EntryDate: "2023-12-31"})
	assert.NoError(t, err)
}

func TestRecordService_PublishesEvents(t *testing.T) {
	publisher := new(MockPublisher)
	f := newRecordFixture(t, publisher)
	ctx := context.Background()
	in := services.CheckinInput{Mood: "good", ScreenTimeMinutes: 30, EntryDate: "2024-01-01"}

	publisher.On("Publish", "record.checkin.created", mock.MatchedBy(func(body []byte) bool {
		return strings.Contains(string(body), `"entry_date":"2024-01-01"`)
	})).Return(nil).Once()
	publisher.On("Publish", "record.checkin.updated", mock.Anything).Return(errors.New("broker down")).Once()

	_, err := f.service.SubmitCheckin(ctx, alice, in)
	require.NoError(t, err)

	// Conflicts are not announced.
	_, err = f.service.SubmitCheckin(ctx, alice, in)
	require.NoError(t, err)

	in.Overwrite = true
	result, err := f.service.SubmitCheckin(ctx, alice, in)
	require.NoError(t, err, "a publish failure does not fail the submission")
	assert.Equal(t, repositories.OutcomeUpdated, result.Outcome)

	publisher.AssertExpectations(t)
}

func TestRecordService_SubmitFreeReflection(t *testing.T) {
	f := newRecordFixture(t, nil)
	ctx := context.Background()

	first, err := f.service.SubmitFreeReflection(ctx, alice, " calm day ", false)
	require.NoError(t, err)
	assert.Equal(t, repositories.OutcomeCreated, first.Outcome)
	assert.Equal(t, "calm day", first.Record.ReflectionText)
	require.NotNil(t, first.Record.RecordedAt)
	assert.True(t, first.Record.RecordedAt.Equal(f.clock.now))
	assert.Equal(t, "2024-01-01", first.Record.EntryDate.Format(time.DateOnly))

	second, err := f.service.SubmitFreeReflection(ctx, alice, "another", false)
	require.NoError(t, err)
	assert.Equal(t, repositories.OutcomeConflict, second.Outcome)

	third, err := f.service.SubmitFreeReflection(ctx, alice, "another", true)
	require.NoError(t, err)
	assert.Equal(t, repositories.OutcomeUpdated, third.Outcome)
	assert.Equal(t, "another", third.Record.ReflectionText)

	_, err = f.service.SubmitFreeReflection(ctx, alice, "   ", false)
	assert.ErrorIs(t, err, services.ErrInvalidPayload)
}

func TestRecordService_SubmitPhotoReflection(t *testing.T) {
	f := newRecordFixture(t, nil)
	ctx := context.Background()

	result, err := f.service.SubmitPhotoReflection(ctx, alice, "sunny", &services.PhotoUpload{Filename: "a.png", Data: pngBytes}, false)
	require.NoError(t, err)
	assert.Equal(t, repositories.OutcomeCreated, result.Outcome)
	require.NotNil(t, result.Record.PhotoRef)
	assert.True(t, strings.HasPrefix(*result.Record.PhotoRef, "photos/2024/01/"))
	assert.True(t, strings.HasSuffix(*result.Record.PhotoRef, ".png"))
	assert.Equal(t, []string{*result.Record.PhotoRef}, f.photos.Keys())
	firstRef := *result.Record.PhotoRef

	t.Run("conflict removes the new photo", func(t *testing.T) {
		conflict, err := f.service.SubmitPhotoReflection(ctx, alice, "again", &services.PhotoUpload{Data: pngBytes}, false)
		require.NoError(t, err)
		assert.Equal(t, repositories.OutcomeConflict, conflict.Outcome)
		assert.Equal(t, []string{firstRef}, f.photos.Keys())
	})

	t.Run("overwrite replaces the old photo", func(t *testing.T) {
		jpeg := append([]byte("\xFF\xD8\xFF\xE0"), make([]byte, 64)...)
		updated, err := f.service.SubmitPhotoReflection(ctx, alice, "again", &services.PhotoUpload{Data: jpeg}, true)
		require.NoError(t, err)
		assert.Equal(t, repositories.OutcomeUpdated, updated.Outcome)
		require.NotNil(t, updated.Record.PhotoRef)
		assert.NotEqual(t, firstRef, *updated.Record.PhotoRef)
		assert.Equal(t, []string{*updated.Record.PhotoRef}, f.photos.Keys())
	})
}

func TestRecordService_SubmitPhotoReflection_Rejected(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		text  string
		photo *services.PhotoUpload
	}{
		{"empty text", "", &services.PhotoUpload{Data: pngBytes}},
		{"not an image", "hi", &services.PhotoUpload{Data: []byte("just some text")}},
		{"empty photo", "hi", &services.PhotoUpload{Data: nil}},
		{"too large", "hi", &services.PhotoUpload{Data: append(append([]byte{}, pngBytes...), make([]byte, services.MaxPhotoBytes)...)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRecordFixture(t, nil)
			_, err := f.service.SubmitPhotoReflection(ctx, alice, tt.text, tt.photo, false)
			assert.ErrorIs(t, err, services.ErrValidation)
			assert.Empty(t, f.photos.Keys())

			rows, err := f.records.List(ctx, alice.UserID, repositories.RecordQuery{Kind: models.KindPhotoReflection})
			require.NoError(t, err)
			assert.Empty(t, rows)
		})
	}
}

func TestRecordService_SubmitPhotoReflection_WithoutPhoto(t *testing.T) {
	f := newRecordFixture(t, nil)

	result, err := f.service.SubmitPhotoReflection(context.Background(), alice, "no photo today", nil, false)
	require.NoError(t, err)
	assert.Nil(t, result.Record.PhotoRef)
}

func TestRecordService_SubmitPhotoReflection_StoreFailure(t *testing.T) {
	f := newRecordFixture(t, nil)
	f.photos.putErr = errors.New("bucket unavailable")

	_, err := f.service.SubmitPhotoReflection(context.Background(), alice, "hi", &services.PhotoUpload{Data: pngBytes}, false)
	assert.ErrorIs(t, err, services.ErrStorage)
}

func TestRecordService_Today(t *testing.T) {
	f := newRecordFixture(t, nil)
	ctx := context.Background()

	_, err := f.service.Today(ctx, alice)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = f.service.SubmitCheckin(ctx, alice, services.CheckinInput{Mood: "good", ScreenTimeMinutes: 45, EntryDate: "2024-01-01"})
	require.NoError(t, err)

	summary, err := f.service.Today(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "good", summary.Mood)
	assert.Equal(t, 45, summary.ScreenTime)
	assert.Nil(t, summary.Reflection)

	_, err = f.service.SubmitPhotoReflection(ctx, alice, "with photo", nil, false)
	require.NoError(t, err)
	summary, err = f.service.Today(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, summary.Reflection)
	assert.Equal(t, "with photo", *summary.Reflection)

	_, err = f.service.SubmitFreeReflection(ctx, alice, "free text", false)
	require.NoError(t, err)
	summary, err = f.service.Today(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, summary.Reflection)
	assert.Equal(t, "free text", *summary.Reflection)
}

func TestRecordService_Overview(t *testing.T) {
	f := newRecordFixture(t, nil)
	ctx := context.Background()

	for day := 1; day <= 9; day++ {
		f.clock.now = time.Date(2024, 1, day, 12, 0, 0, 0, time.UTC)
		_, err := f.service.SubmitCheckin(ctx, alice, services.CheckinInput{
			Mood:              "ok",
			ScreenTimeMinutes: day,
			EntryDate:         fmt.Sprintf("2024-01-%02d", day),
		})
		require.NoError(t, err)
	}
	_, err := f.service.SubmitCheckin(ctx, services.Identity{UserID: 2}, services.CheckinInput{Mood: "x", ScreenTimeMinutes: 1, EntryDate: "2024-01-09"})
	require.NoError(t, err)

	records, err := f.service.Overview(ctx, alice)
	require.NoError(t, err)
	require.Len(t, records, services.OverviewDays)
	assert.Equal(t, "2024-01-03", records[0].EntryDate.Format(time.DateOnly))
	assert.Equal(t, "2024-01-09", records[6].EntryDate.Format(time.DateOnly))
	for _, r := range records {
		assert.Equal(t, alice.UserID, r.UserID)
	}
}

func TestRecordService_History(t *testing.T) {
	f := newRecordFixture(t, nil)
	ctx := context.Background()

	_, err := f.service.History(ctx, alice, "", "")
	assert.ErrorIs(t, err, services.ErrNotFound)

	for day := 1; day <= 3; day++ {
		f.clock.now = time.Date(2024, 2, day, 9, 0, 0, 0, time.UTC)
		_, err := f.service.SubmitFreeReflection(ctx, alice, fmt.Sprintf("day %d", day), false)
		require.NoError(t, err)
	}

	all, err := f.service.History(ctx, alice, "", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "day 3", all[0].ReflectionText)

	bounded, err := f.service.History(ctx, alice, "2024-02-02", "2024-02-02")
	require.NoError(t, err)
	require.Len(t, bounded, 1)
	assert.Equal(t, "day 2", bounded[0].ReflectionText)

	_, err = f.service.History(ctx, alice, "2024-02-10", "")
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = f.service.History(ctx, alice, "2024-02-03", "2024-02-01")
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = f.service.History(ctx, alice, "feb", "")
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestRecordService_Reflections(t *testing.T) {
	f := newRecordFixture(t, nil)
	ctx := context.Background()

	records, err := f.service.Reflections(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = f.service.SubmitFreeReflection(ctx, alice, "one", false)
	require.NoError(t, err)
	records, err = f.service.Reflections(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
