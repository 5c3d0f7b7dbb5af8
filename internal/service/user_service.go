package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"projectTracker/internal/logger"
	"projectTracker/internal/models/user"
	"projectTracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Profile struct {
	ID     primitive.ObjectID
	Name   string
	Email  string
	Avatar string
}

type UserService struct {
	base
}

func NewUserService(store Store, options ...Option) *UserService {
	return &UserService{base: newBase(store, options...)}
}

// создает или обновляет пользователя из токена, чтобы его можно было найти по email
func (s *UserService) Provision(ctx context.Context, profile Profile) (*user.User, error) {
	if profile.ID.IsZero() {
		return nil, NewUnauthenticated("в токене нет идентификатора пользователя")
	}

	email := user.NormalizeEmail(profile.Email)
	if email == "" {
		return nil, NewUnauthenticated("в токене нет email пользователя")
	}
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	now := s.clock()
	u := &user.User{
		ID:        profile.ID,
		Name:      name,
		Email:     email,
		Avatar:    strings.TrimSpace(profile.Avatar),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.UpsertUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			logger.Warn("Service: Email уже занят другим пользователем",
				zap.String("user_id", profile.ID.Hex()),
				zap.String("email", email))
			return nil, NewConflict("email уже используется другим пользователем", ToDetail("email", email))
		}
		return nil, fmt.Errorf("сохранение пользователя: %w", err)
	}
	return u, nil
}

func (s *UserService) Me(ctx context.Context, caller primitive.ObjectID) (user.Summary, error) {
	u, err := s.store.GetUserByID(ctx, caller)
	if err != nil {
		return user.Summary{}, lookupErr(err, ResourceUser, caller)
	}
	return u.Summary(), nil
}
