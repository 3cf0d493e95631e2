package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linemk/e-store/internal/domain/models"
	"github.com/linemk/e-store/internal/storage"
)

// UserService отдаёт профили пользователей.
type UserService interface {
	GetUser(ctx context.Context, userID int64) (*UserProfile, error)
	ListUsers(ctx context.Context) ([]*UserProfile, error)
}

// UserProfile — представление пользователя без хэша пароля.
type UserProfile struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

type userService struct {
	log      *slog.Logger
	userRepo storage.UserStorage
}

func NewUserService(log *slog.Logger, userRepo storage.UserStorage) UserService {
	return &userService{log: log, userRepo: userRepo}
}

func profileOf(user *models.User) *UserProfile {
	return &UserProfile{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		IsVerified: user.IsVerified,
		CreatedAt:  user.CreatedAt,
	}
}

func (s *userService) GetUser(ctx context.Context, userID int64) (*UserProfile, error) {
	const op = "service.UserService.GetUser"

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, storage.ErrUserNotFound
		}
		s.log.Error("failed to get user", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}
	return profileOf(user), nil
}

func (s *userService) ListUsers(ctx context.Context) ([]*UserProfile, error) {
	const op = "service.UserService.ListUsers"

	users, err := s.userRepo.ListUsers(ctx)
	if err != nil {
		s.log.Error("failed to list users", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list users: %w", op, err)
	}

	profiles := make([]*UserProfile, 0, len(users))
	for _, user := range users {
		profiles = append(profiles, profileOf(user))
	}
	return profiles, nil
}
