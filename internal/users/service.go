package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"dorm-listing-portal/internal/database"
	"dorm-listing-portal/internal/models"

	"github.com/go-playground/validator/v10"
)

var ErrUserNotFound = errors.New("user not found")

// ValidationError reports an invalid role or registration field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Store is the part of the record store backing user profiles
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUserRole(ctx context.Context, id string, role models.UserRole) error
}

type Service struct {
	store    Store
	logger   *slog.Logger
	validate *validator.Validate
}

func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, validate: validator.New()}
}

// Register creates the profile row for an account the auth provider already created.
// The role stays unset until AssignRole is called.
func (s *Service) Register(ctx context.Context, userID, email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if strings.TrimSpace(userID) == "" {
		return nil, &ValidationError{Field: "id", Message: "is required"}
	}
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, &ValidationError{Field: "email", Message: "must be a valid email address"}
	}

	u := &models.User{ID: userID, Email: email}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.InfoContext(ctx, "user registered", "user_id", userID)
	return u, nil
}

func (s *Service) Get(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// AssignRole sets the user's role and marks it initialized in a single update.
// Assigning again overwrites the previous role.
func (s *Service) AssignRole(ctx context.Context, userID string, role models.UserRole) error {
	if !role.Valid() {
		return &ValidationError{Field: "role", Message: "must be Student or Owner"}
	}

	err := s.store.UpdateUserRole(ctx, userID, role)
	if errors.Is(err, database.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}

	s.logger.InfoContext(ctx, "role assigned", "user_id", userID, "role", string(role))
	return nil
}
