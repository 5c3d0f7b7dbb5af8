package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"projectTracker/internal/logger"
	"projectTracker/internal/models/task"
	repo "projectTracker/internal/repository"

	"github.com/jackc/pgx/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const taskColumns = `id, title, description, project, assigned_to, created_by, status, priority,
	due_date, tags, attachments, created_at, updated_at, completed_at`

func scanTask(row pgx.Row) (*task.Task, error) {
	var (
		t          task.Task
		id         string
		projectID  string
		assignedTo *string
		createdBy  string
		files      []byte
	)
	err := row.Scan(&id, &t.Title, &t.Description, &projectID, &assignedTo, &createdBy,
		&t.Status, &t.Priority, &t.DueDate, &t.Tags, &files, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(files, &t.Attachments); err != nil {
		return nil, fmt.Errorf("вложения задачи: %w", err)
	}

	if t.ID, err = parseID(id); err != nil {
		return nil, err
	}
	if t.Project, err = parseID(projectID); err != nil {
		return nil, err
	}
	if t.CreatedBy, err = parseID(createdBy); err != nil {
		return nil, err
	}
	if assignedTo != nil {
		assignee, err := parseID(*assignedTo)
		if err != nil {
			return nil, err
		}
		t.AssignedTo = &assignee
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return &t, nil
}

func attachmentsJSON(items []task.Attachment) ([]byte, error) {
	if items == nil {
		items = []task.Attachment{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("вложения задачи: %w", err)
	}
	return data, nil
}

func collectTasks(rows pgx.Rows) ([]*task.Task, error) {
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("чтение задачи: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Storage) CreateTask(ctx context.Context, t *task.Task) error {
	start := time.Now()
	defer warnSlow("create_task", start)

	files, err := attachmentsJSON(t.Attachments)
	if err != nil {
		return err
	}

	query := `INSERT INTO tasks (` + taskColumns + `)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12, $13, $14)`

	_, err = s.pool.Exec(ctx, query,
		t.ID.Hex(),
		t.Title,
		t.Description,
		t.Project.Hex(),
		optionalHex(t.AssignedTo),
		t.CreatedBy.Hex(),
		t.Status,
		t.Priority,
		t.DueDate,
		t.Tags,
		files,
		t.CreatedAt,
		t.UpdatedAt,
		t.CompletedAt,
	)
	if err != nil {
		err = duplicate(err)
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id primitive.ObjectID) (*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	t, err := scanTask(s.pool.QueryRow(ctx, query, id.Hex()))
	if err != nil {
		return nil, fmt.Errorf("получение задачи: %w", notFound(err))
	}
	return t, nil
}

func taskWhere(f repo.TaskFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Project != nil {
		add("project = $%d", f.Project.Hex())
	}
	if f.Projects != nil {
		add("project = ANY($%d)", hexIDs(f.Projects))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.AssignedTo != nil {
		add("assigned_to = $%d", f.AssignedTo.Hex())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *Storage) ListTasks(ctx context.Context, f repo.TaskFilter) ([]*task.Task, error) {
	start := time.Now()
	defer warnSlow("list_tasks", start)

	where, args := taskWhere(f)
	query := `SELECT ` + taskColumns + ` FROM tasks` + where + ` ORDER BY created_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return collectTasks(rows)
}

func (s *Storage) UpdateTask(ctx context.Context, t *task.Task) error {
	start := time.Now()
	defer warnSlow("update_task", start)

	files, err := attachmentsJSON(t.Attachments)
	if err != nil {
		return err
	}

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				assigned_to = $3,
				status = $4,
				priority = $5,
				due_date = $6,
				tags = $7,
				attachments = $8::jsonb,
				updated_at = $9,
				completed_at = $10
			WHERE id = $11`

	tag, err := s.pool.Exec(ctx, query,
		t.Title,
		t.Description,
		optionalHex(t.AssignedTo),
		t.Status,
		t.Priority,
		t.DueDate,
		t.Tags,
		files,
		t.UpdatedAt,
		t.CompletedAt,
		t.ID.Hex(),
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, id primitive.ObjectID) error {
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id.Hex())
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) ListOrphanTasks(ctx context.Context, limit int) ([]*task.Task, error) {
	if limit <= 0 {
		return []*task.Task{}, nil
	}

	query := `SELECT ` + taskColumns + ` FROM tasks t
			WHERE NOT EXISTS (SELECT 1 FROM projects p WHERE p.id = t.project)
			LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("поиск осиротевших задач: %w", err)
	}
	return collectTasks(rows)
}
