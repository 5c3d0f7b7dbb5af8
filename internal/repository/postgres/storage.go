package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"projectTracker/internal/logger"
	repo "projectTracker/internal/repository"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	slowQuery       = 100 * time.Millisecond
	uniqueViolation = "23505"
)

type Storage struct {
	pool *pgxpool.Pool
}

type Options struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

func New(ctx context.Context, opts Options) (*Storage, error) {
	config, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5
	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		config.MinConns = opts.MinConns
	}
	if opts.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

// актуальная схема не считается ошибкой
func Migrate(dsn string) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("источник миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(dsn))
	if err != nil {
		logger.Error("Repository: Ошибка инициализации миграций", err)
		return fmt.Errorf("инициализация миграций: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Ошибка применения миграций", err)
		return fmt.Errorf("применение миграций: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("Repository: Миграции применены", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func migrateURL(dsn string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

func (s *Storage) Close(ctx context.Context) error {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
	return nil
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

// очистка таблиц для интеграционных тестов
func (s *Storage) Truncate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE users, projects, tasks, comments`)
	return err
}

func parseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("некорректный идентификатор %q: %w", hex, err)
	}
	return id, nil
}

func hexIDs(ids []primitive.ObjectID) []string {
	res := make([]string, 0, len(ids))
	for _, id := range ids {
		res = append(res, id.Hex())
	}
	return res
}

func optionalHex(id *primitive.ObjectID) *string {
	if id == nil {
		return nil
	}
	hex := id.Hex()
	return &hex
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrNotFound
	}
	return err
}

func duplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repo.ErrConflict
	}
	return err
}

func warnSlow(op string, start time.Time) {
	if took := time.Since(start); took > slowQuery {
		logger.Warn("Repository: Медленная операция", zap.String("operation", op), zap.Duration("ms", took))
	}
}
