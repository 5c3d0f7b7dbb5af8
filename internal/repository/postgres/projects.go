package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"projectTracker/internal/logger"
	"projectTracker/internal/models/project"
	repo "projectTracker/internal/repository"

	"github.com/jackc/pgx/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const projectColumns = `id, name, description, owner, members, status, start_date, end_date, created_at, updated_at`

func scanProject(row pgx.Row) (*project.Project, error) {
	var (
		p       project.Project
		id      string
		owner   string
		members []byte
	)
	err := row.Scan(&id, &p.Name, &p.Description, &owner, &members, &p.Status,
		&p.StartDate, &p.EndDate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if p.ID, err = parseID(id); err != nil {
		return nil, err
	}
	if p.Owner, err = parseID(owner); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(members, &p.Members); err != nil {
		return nil, fmt.Errorf("разбор участников: %w", err)
	}
	if p.Members == nil {
		p.Members = []project.Member{}
	}
	return &p, nil
}

func collectProjects(rows pgx.Rows) ([]*project.Project, error) {
	defer rows.Close()

	projects := []*project.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("чтение проекта: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// шаблон для @> по участнику
func memberProbe(userID primitive.ObjectID) ([]byte, error) {
	return json.Marshal([]map[string]string{{"user": userID.Hex()}})
}

func (s *Storage) CreateProject(ctx context.Context, p *project.Project) error {
	start := time.Now()
	defer warnSlow("create_project", start)

	members, err := json.Marshal(p.Members)
	if err != nil {
		return fmt.Errorf("сериализация участников: %w", err)
	}

	query := `INSERT INTO projects (` + projectColumns + `)
				VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10)`

	_, err = s.pool.Exec(ctx, query,
		p.ID.Hex(),
		p.Name,
		p.Description,
		p.Owner.Hex(),
		members,
		p.Status,
		p.StartDate,
		p.EndDate,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		err = duplicate(err)
		logger.Error("Repository: Не удалось добавить проект", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление проекта: %w", err)
	}
	return nil
}

func (s *Storage) GetProjectByID(ctx context.Context, id primitive.ObjectID) (*project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	p, err := scanProject(s.pool.QueryRow(ctx, query, id.Hex()))
	if err != nil {
		return nil, fmt.Errorf("получение проекта: %w", notFound(err))
	}
	return p, nil
}

func (s *Storage) GetProjectsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*project.Project, error) {
	if len(ids) == 0 {
		return []*project.Project{}, nil
	}

	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ANY($1)`
	rows, err := s.pool.Query(ctx, query, hexIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("получение проектов: %w", err)
	}
	return collectProjects(rows)
}

func (s *Storage) ListProjectsForUser(ctx context.Context, userID primitive.ObjectID) ([]*project.Project, error) {
	start := time.Now()
	defer warnSlow("list_projects", start)

	probe, err := memberProbe(userID)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + projectColumns + ` FROM projects
			WHERE owner = $1 OR members @> $2::jsonb
			ORDER BY created_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, query, userID.Hex(), probe)
	if err != nil {
		logger.Error("Repository: Не удалось получить проекты", err)
		return nil, fmt.Errorf("получение проектов: %w", err)
	}
	return collectProjects(rows)
}

func (s *Storage) UpdateProject(ctx context.Context, p *project.Project) error {
	start := time.Now()
	defer warnSlow("update_project", start)

	query := `UPDATE projects
			SET name = $1,
				description = $2,
				status = $3,
				start_date = $4,
				end_date = $5,
				updated_at = $6
			WHERE id = $7`

	tag, err := s.pool.Exec(ctx, query,
		p.Name,
		p.Description,
		p.Status,
		p.StartDate,
		p.EndDate,
		p.UpdatedAt,
		p.ID.Hex(),
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить проект", err)
		return fmt.Errorf("обновление проекта: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// одна инструкция с проверкой @>, повторное приглашение получает ErrConflict
func (s *Storage) AddMember(ctx context.Context, projectID primitive.ObjectID, member project.Member, now time.Time) error {
	start := time.Now()
	defer warnSlow("add_member", start)

	entry, err := json.Marshal([]project.Member{member})
	if err != nil {
		return fmt.Errorf("сериализация участника: %w", err)
	}
	probe, err := memberProbe(member.User)
	if err != nil {
		return err
	}

	query := `UPDATE projects
			SET members = members || $2::jsonb,
				updated_at = $4
			WHERE id = $1 AND NOT members @> $3::jsonb`

	tag, err := s.pool.Exec(ctx, query, projectID.Hex(), entry, probe, now)
	if err != nil {
		logger.Error("Repository: Не удалось добавить участника", err)
		return fmt.Errorf("добавление участника: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, projectID.Hex()).Scan(&exists)
	if err != nil {
		return fmt.Errorf("проверка проекта: %w", err)
	}
	if !exists {
		return repo.ErrNotFound
	}

	logger.Warn("Repository: Пользователь уже участник проекта",
		zap.String("project_id", projectID.Hex()),
		zap.String("user_id", member.User.Hex()))
	return repo.ErrConflict
}

func (s *Storage) DeleteProject(ctx context.Context, id primitive.ObjectID) error {
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id.Hex())
	if err != nil {
		logger.Error("Repository: Не удалось удалить проект", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление проекта: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}
