package postgres

import (
	"context"
	"fmt"
	"time"

	"projectTracker/internal/logger"
	"projectTracker/internal/models/user"

	"github.com/jackc/pgx/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const userColumns = `id, name, email, avatar, created_at, updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	var (
		u  user.User
		id string
	)
	if err := row.Scan(&id, &u.Name, &u.Email, &u.Avatar, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	parsed, err := parseID(id)
	if err != nil {
		return nil, err
	}
	u.ID = parsed
	return &u, nil
}

func (s *Storage) UpsertUser(ctx context.Context, u *user.User) error {
	start := time.Now()
	defer warnSlow("upsert_user", start)

	query := `INSERT INTO users (` + userColumns + `)
				VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE
				SET name = EXCLUDED.name,
					email = EXCLUDED.email,
					avatar = EXCLUDED.avatar,
					updated_at = EXCLUDED.updated_at
			RETURNING created_at`

	err := s.pool.QueryRow(ctx, query,
		u.ID.Hex(),
		u.Name,
		u.Email,
		u.Avatar,
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(&u.CreatedAt)
	if err != nil {
		err = duplicate(err)
		logger.Error("Repository: Не удалось сохранить пользователя", err)
		return fmt.Errorf("сохранение пользователя: %w", err)
	}
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id primitive.ObjectID) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.pool.QueryRow(ctx, query, id.Hex()))
	if err != nil {
		return nil, fmt.Errorf("получение пользователя: %w", notFound(err))
	}
	return u, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(s.pool.QueryRow(ctx, query, user.NormalizeEmail(email)))
	if err != nil {
		return nil, fmt.Errorf("поиск пользователя по email: %w", notFound(err))
	}
	return u, nil
}

func (s *Storage) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*user.User, error) {
	start := time.Now()
	defer warnSlow("get_users", start)

	if len(ids) == 0 {
		return []*user.User{}, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	rows, err := s.pool.Query(ctx, query, hexIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("чтение пользователя: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
