package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"projectTracker/internal/logger"
	"projectTracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

// Set отличает отсутствующее поле от явного нулевого значения
type Field[T any] struct {
	Set   bool
	Value T
}

func Value[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

type Option func(*base)

func WithClock(now func() time.Time) Option {
	return func(b *base) {
		b.now = now
	}
}

type base struct {
	store   Store
	resolve resolver
	now     func() time.Time
}

func newBase(store Store, options ...Option) base {
	b := base{
		store:   store,
		resolve: resolver{users: store, projects: store},
		now:     time.Now,
	}
	for _, opt := range options {
		opt(&b)
	}
	return b
}

func (b *base) clock() time.Time {
	return b.now().UTC()
}

type Service struct {
	Users    *UserService
	Projects *ProjectService
	Tasks    *TaskService
	Comments *CommentService

	store Store
}

func New(store Store, options ...Option) *Service {
	return &Service{
		Users:    NewUserService(store, options...),
		Projects: NewProjectService(store, options...),
		Tasks:    NewTaskService(store, options...),
		Comments: NewCommentService(store, options...),
		store:    store,
	}
}

func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.store.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка хранилища: %w", err)
	}
	return nil
}

// проверка id до обращения к хранилищу
func ParseID(field, raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, NewValidationError(field, "некорректный идентификатор")
	}
	return id, nil
}

func lookupErr(err error, resource Resource, id primitive.ObjectID) error {
	if errors.Is(err, repository.ErrNotFound) {
		logger.Info("Service: Запись не найдена",
			zap.String("resource", string(resource)),
			zap.String("target_id", id.Hex()))
		return NewNotFound(resource, id.Hex())
	}
	return fmt.Errorf("получение %s: %w", resource, err)
}

func writeErr(err error, resource Resource, id primitive.ObjectID) error {
	if errors.Is(err, repository.ErrNotFound) {
		return NewNotFound(resource, id.Hex())
	}
	return fmt.Errorf("запись %s: %w", resource, err)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func checkText(v *Validation, field, value string, max int) {
	switch {
	case value == "":
		v.Add(field, "обязательное поле")
	case runeLen(value) > max:
		v.Add(field, fmt.Sprintf("не более %d символов", max))
	}
}
