package postgres

import (
	"context"
	"fmt"
	"time"

	"projectTracker/internal/logger"
	"projectTracker/internal/models/comment"
	repo "projectTracker/internal/repository"

	"github.com/jackc/pgx/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const commentColumns = `id, content, task, author, created_at, updated_at, is_edited`

func scanComment(row pgx.Row) (*comment.Comment, error) {
	var (
		c      comment.Comment
		id     string
		taskID string
		author string
	)
	err := row.Scan(&id, &c.Content, &taskID, &author, &c.CreatedAt, &c.UpdatedAt, &c.IsEdited)
	if err != nil {
		return nil, err
	}

	if c.ID, err = parseID(id); err != nil {
		return nil, err
	}
	if c.Task, err = parseID(taskID); err != nil {
		return nil, err
	}
	if c.Author, err = parseID(author); err != nil {
		return nil, err
	}
	return &c, nil
}

func collectComments(rows pgx.Rows) ([]*comment.Comment, error) {
	defer rows.Close()

	comments := []*comment.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("чтение комментария: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *Storage) CreateComment(ctx context.Context, c *comment.Comment) error {
	start := time.Now()
	defer warnSlow("create_comment", start)

	query := `INSERT INTO comments (` + commentColumns + `)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		c.ID.Hex(),
		c.Content,
		c.Task.Hex(),
		c.Author.Hex(),
		c.CreatedAt,
		c.UpdatedAt,
		c.IsEdited,
	)
	if err != nil {
		err = duplicate(err)
		logger.Error("Repository: Не удалось добавить комментарий", err)
		return fmt.Errorf("добавление комментария: %w", err)
	}
	return nil
}

func (s *Storage) GetCommentByID(ctx context.Context, id primitive.ObjectID) (*comment.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	c, err := scanComment(s.pool.QueryRow(ctx, query, id.Hex()))
	if err != nil {
		return nil, fmt.Errorf("получение комментария: %w", notFound(err))
	}
	return c, nil
}

func (s *Storage) ListCommentsByTask(ctx context.Context, taskID primitive.ObjectID) ([]*comment.Comment, error) {
	start := time.Now()
	defer warnSlow("list_comments", start)

	query := `SELECT ` + commentColumns + ` FROM comments
			WHERE task = $1
			ORDER BY created_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, taskID.Hex())
	if err != nil {
		logger.Error("Repository: Не удалось получить комментарии", err)
		return nil, fmt.Errorf("получение комментариев: %w", err)
	}
	return collectComments(rows)
}

func (s *Storage) UpdateComment(ctx context.Context, c *comment.Comment) error {
	query := `UPDATE comments
			SET content = $1,
				updated_at = $2,
				is_edited = $3
			WHERE id = $4`

	tag, err := s.pool.Exec(ctx, query, c.Content, c.UpdatedAt, c.IsEdited, c.ID.Hex())
	if err != nil {
		logger.Error("Repository: Не удалось обновить комментарий", err)
		return fmt.Errorf("обновление комментария: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) DeleteComment(ctx context.Context, id primitive.ObjectID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id.Hex())
	if err != nil {
		logger.Error("Repository: Не удалось удалить комментарий", err)
		return fmt.Errorf("удаление комментария: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) ListOrphanComments(ctx context.Context, limit int) ([]*comment.Comment, error) {
	if limit <= 0 {
		return []*comment.Comment{}, nil
	}

	query := `SELECT ` + commentColumns + ` FROM comments c
			WHERE NOT EXISTS (SELECT 1 FROM tasks t WHERE t.id = c.task)
			LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("поиск осиротевших комментариев: %w", err)
	}
	return collectComments(rows)
}
