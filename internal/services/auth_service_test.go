package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"wellness/internal/models"
	"wellness/internal/repositories"
	"wellness/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newAuthService(t *testing.T, repo repositories.UserRepository) (*services.AuthService, *services.TokenService) {
	t.Helper()
	hasher, err := services.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := services.NewTokenService(testSecret, time.Now)
	require.NoError(t, err)
	return services.NewAuthService(repo, hasher, tokens), tokens
}

func TestAuthService_RegisterUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, _ := newAuthService(t, mockRepo)
	ctx := context.Background()

	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = 7
	}).Return(nil).Once()

	user, err := authService.RegisterUser(ctx, "  A  ", "a@x.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, uint(7), user.ID)
	assert.Equal(t, "A", user.Name)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterUser_DuplicateEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, _ := newAuthService(t, mockRepo)
	ctx := context.Background()

	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(repositories.ErrDuplicate).Once()

	_, err := authService.RegisterUser(ctx, "A", "a@x.com", "password123")
	assert.ErrorIs(t, err, services.ErrDuplicateEmail)
	assert.ErrorIs(t, err, services.ErrConflict)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterUser_Validation(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, _ := newAuthService(t, mockRepo)

	_, err := authService.RegisterUser(context.Background(), "   ", "a@x.com", "password123")
	assert.ErrorIs(t, err, services.ErrValidation)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_RegisterUser_StorageFailure(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, _ := newAuthService(t, mockRepo)
	ctx := context.Background()

	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(errors.New("disk full")).Once()

	_, err := authService.RegisterUser(ctx, "A", "a@x.com", "password123")
	assert.ErrorIs(t, err, services.ErrStorage)
}

func TestAuthService_LoginUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, tokens := newAuthService(t, mockRepo)
	ctx := context.Background()

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &models.User{ID: 3, Name: "A", Email: "a@x.com", PasswordHash: string(hashed)}

	t.Run("success", func(t *testing.T) {
		mockRepo.On("FindByEmail", ctx, "a@x.com").Return(stored, nil).Once()

		token, user, err := authService.LoginUser(ctx, "a@x.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, stored, user)

		identity, err := tokens.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, uint(3), identity.UserID)
	})

	t.Run("wrong password", func(t *testing.T) {
		mockRepo.On("FindByEmail", ctx, "a@x.com").Return(stored, nil).Once()

		token, _, err := authService.LoginUser(ctx, "a@x.com", "nope")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
		assert.Empty(t, token)
	})

	t.Run("unknown email", func(t *testing.T) {
		mockRepo.On("FindByEmail", ctx, "b@x.com").Return(nil, repositories.ErrNotFound).Once()

		_, _, err := authService.LoginUser(ctx, "b@x.com", "password123")
		assert.ErrorIs(t, err, services.ErrUserNotFound)
		assert.ErrorIs(t, err, services.ErrNotFound)
	})

	mockRepo.AssertExpectations(t)
}

func TestAuthService_CurrentUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, _ := newAuthService(t, mockRepo)
	ctx := context.Background()

	mockRepo.On("FindByID", ctx, uint(3)).Return(&models.User{ID: 3, Name: "A"}, nil).Once()
	mockRepo.On("FindByID", ctx, uint(4)).Return(nil, repositories.ErrNotFound).Once()

	user, err := authService.CurrentUser(ctx, services.Identity{UserID: 3})
	require.NoError(t, err)
	assert.Equal(t, "A", user.Name)

	_, err = authService.CurrentUser(ctx, services.Identity{UserID: 4})
	assert.ErrorIs(t, err, services.ErrUserNotFound)
	mockRepo.AssertExpectations(t)
}
