// Package users holds the user domain service and its MongoDB data access layer.
package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Jansmig/magmamath/pkg/logger"
	"github.com/Jansmig/magmamath/pkg/models"
)

const (
	// DefaultPageLimit is used when a listing does not name a limit.
	DefaultPageLimit = 3
	// MaxPageLimit caps the page size of a listing.
	MaxPageLimit = 100
)

// Publisher publishes an event payload under a routing key.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Service enforces the user invariants and publishes lifecycle events.
type Service struct {
	repo      Repository
	publisher Publisher
	pageLimit int
	now       func() time.Time
}

// NewService creates a Service. A pageLimit below 1 falls back to DefaultPageLimit.
func NewService(repo Repository, publisher Publisher, pageLimit int) *Service {
	if pageLimit < 1 {
		pageLimit = DefaultPageLimit
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		pageLimit: min(pageLimit, MaxPageLimit),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateUser stores a new user and publishes user.created.
func (s *Service) CreateUser(ctx context.Context, name, email string) (models.User, error) {
	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return models.User{}, newError(ErrDuplicateEmail, "User with this email already exists", nil)
	case !errors.Is(err, ErrNotFound):
		return models.User{}, s.internal(ctx, "Failed to create user", err)
	}

	now := s.now()
	user, err := s.repo.Create(ctx, models.User{
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return models.User{}, s.internal(ctx, "Failed to create user", err)
	}

	// The user is already stored when publishing fails; the caller still
	// receives an internal error.
	err = s.publisher.Publish(ctx, string(models.EventUserCreated), models.UserCreatedPayload{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	if err != nil {
		return models.User{}, s.internal(ctx, "Failed to create user", err)
	}

	logger.Ctx(ctx).Info().Str("component", "Users").Str("user_id", user.ID).Msg("User created")
	return user, nil
}

// FindOne returns the user with id.
func (s *Service) FindOne(ctx context.Context, id string) (models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return models.User{}, newError(ErrNotFound, "User not found", nil)
	}
	if err != nil {
		return models.User{}, s.internal(ctx, "Failed to find user", err)
	}
	return user, nil
}

// FindMany returns a page of users, newest first. A limit of 0 selects the
// configured default; larger limits are capped at MaxPageLimit.
func (s *Service) FindMany(ctx context.Context, page, limit int) (models.PaginatedUsers, error) {
	if page < 1 {
		return models.PaginatedUsers{}, newError(ErrBadRequest, "Page number must be greater than 0", nil)
	}
	switch {
	case limit == 0:
		limit = s.pageLimit
	case limit < 0:
		return models.PaginatedUsers{}, newError(ErrBadRequest, "Limit must be greater than 0", nil)
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}

	result, err := s.repo.FindMany(ctx, page, limit)
	if err != nil {
		return models.PaginatedUsers{}, s.internal(ctx, "Failed to retrieve users", err)
	}
	return result, nil
}

// UpdateOne applies the supplied fields of req to the user with id. The email
// is lower-cased and must not belong to another user.
func (s *Service) UpdateOne(ctx context.Context, id string, req models.UpdateUserRequest) (models.User, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.User{}, newError(ErrNotFound, "User not found", nil)
		}
		return models.User{}, s.internal(ctx, "Failed to update user", err)
	}

	patch := Patch{Name: req.Name, UpdatedAt: s.now()}
	if req.Email != nil {
		email := strings.ToLower(*req.Email)
		other, err := s.repo.FindByEmail(ctx, email)
		switch {
		case err == nil && other.ID != id:
			return models.User{}, newError(ErrConflict, "This email is already used", nil)
		case err != nil && !errors.Is(err, ErrNotFound):
			return models.User{}, s.internal(ctx, "Failed to update user", err)
		}
		patch.Email = &email
	}

	user, err := s.repo.UpdateByID(ctx, id, patch)
	if errors.Is(err, ErrNotFound) {
		return models.User{}, newError(ErrNotFound, "User not found", nil)
	}
	if err != nil {
		return models.User{}, s.internal(ctx, "Failed to update user", err)
	}
	return user, nil
}

// RemoveOne deletes the user with id, publishes user.deleted and returns the
// deleted record.
func (s *Service) RemoveOne(ctx context.Context, id string) (models.User, error) {
	user, err := s.repo.DeleteByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return models.User{}, newError(ErrNotFound, "User not found", nil)
	}
	if err != nil {
		return models.User{}, s.internal(ctx, "Failed to delete user", err)
	}

	err = s.publisher.Publish(ctx, string(models.EventUserDeleted), models.UserDeletedPayload{UserID: user.ID})
	if err != nil {
		return models.User{}, s.internal(ctx, "Failed to delete user", err)
	}

	logger.Ctx(ctx).Info().Str("component", "Users").Str("user_id", user.ID).Msg("User deleted")
	return user, nil
}

func (s *Service) internal(ctx context.Context, message string, cause error) *Error {
	logger.Ctx(ctx).Error().Err(cause).Str("component", "Users").Msg(message)
	return newError(ErrInternal, message, cause)
}
