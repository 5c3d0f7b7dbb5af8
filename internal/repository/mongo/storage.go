package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"projectTracker/internal/logger"
	repo "projectTracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	usersCollection    = "users"
	projectsCollection = "projects"
	tasksCollection    = "tasks"
	commentsCollection = "comments"

	slowQuery = 100 * time.Millisecond
)

type Storage struct {
	client   *mongo.Client
	db       *mongo.Database
	users    *mongo.Collection
	projects *mongo.Collection
	tasks    *mongo.Collection
	comments *mongo.Collection
}

type Options struct {
	URI            string
	Database       string
	MaxPoolSize    uint64
	ConnectTimeout time.Duration
}

func New(ctx context.Context, opts Options) (*Storage, error) {
	timeout := opts.ConnectTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	clientOptions := options.Client().
		ApplyURI(opts.URI).
		SetConnectTimeout(timeout)
	if opts.MaxPoolSize > 0 {
		clientOptions.SetMaxPoolSize(opts.MaxPoolSize)
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		logger.Error("Repository: Ошибка подключения к MongoDB", err)
		return nil, fmt.Errorf("подключение к mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	db := client.Database(opts.Database)
	s := &Storage{
		client:   client,
		db:       db,
		users:    db.Collection(usersCollection),
		projects: db.Collection(projectsCollection),
		tasks:    db.Collection(tasksCollection),
		comments: db.Collection(commentsCollection),
	}

	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	logger.Info("Repository: Успешное подключение к MongoDB", zap.String("database", opts.Database))
	return s, nil
}

// повторный вызов безопасен
func (s *Storage) EnsureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.projects: {
			{Keys: bson.D{{Key: "owner", Value: 1}}},
			{Keys: bson.D{{Key: "members.user", Value: 1}}},
		},
		s.tasks: {
			{Keys: bson.D{{Key: "project", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "assignedTo", Value: 1}}},
			{Keys: bson.D{{Key: "dueDate", Value: 1}}},
		},
		s.comments: {
			{Keys: bson.D{{Key: "task", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			logger.Error("Repository: Не удалось создать индексы", err, zap.String("collection", coll.Name()))
			return fmt.Errorf("создание индексов %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	err := s.client.Disconnect(ctx)
	logger.Info("Repository: Закрытие соединения с MongoDB")
	return err
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

// удаление коллекций для интеграционных тестов
func (s *Storage) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repo.ErrNotFound
	}
	return err
}

func duplicate(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return repo.ErrConflict
	}
	return err
}

func warnSlow(op string, start time.Time) {
	if took := time.Since(start); took > slowQuery {
		logger.Warn("Repository: Медленный запрос", zap.String("operation", op), zap.Duration("ms", took))
	}
}
