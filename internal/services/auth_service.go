package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"wellness/internal/models"
	"wellness/internal/repositories"
)

// AuthService handles registration, login and identity lookup.
type AuthService struct {
	userRepo repositories.UserRepository
	hasher   *PasswordHasher
	tokens   *TokenService
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, hasher *PasswordHasher, tokens *TokenService) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
	}
}

// RegisterUser hashes the password and stores a new user. A taken email
// fails with ErrDuplicateEmail; the store's unique index is the only check.
func (s *AuthService) RegisterUser(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" || email == "" || password == "" {
		return nil, validationError("name, email and password are required")
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Name: name, Email: email, PasswordHash: hashed}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, storageError("create user", err)
	}
	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// LoginUser checks the credentials and returns a session token with the user.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (string, *models.User, error) {
	if email == "" || password == "" {
		return "", nil, validationError("email and password are required")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", nil, ErrUserNotFound
		}
		return "", nil, storageError("find user", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		slog.InfoContext(ctx, "login rejected", "user_id", user.ID)
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return "", nil, err
	}
	slog.InfoContext(ctx, "login succeeded", "user_id", user.ID)
	return token, user, nil
}

// CurrentUser returns the user behind an authenticated identity.
func (s *AuthService) CurrentUser(ctx context.Context, id Identity) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageError("find user", err)
	}
	return user, nil
}
