package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"projectTracker/internal/event"
	"projectTracker/internal/logger"
	"projectTracker/internal/models/project"
	"projectTracker/internal/policy"
	"projectTracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	maxProjectName        = 100
	maxProjectDescription = 500
)

type CreateProjectInput struct {
	Name        string
	Description string
	Status      string
	StartDate   *time.Time
	EndDate     *time.Time
}

type UpdateProjectInput struct {
	Name        *string
	Description *string
	Status      *string
	StartDate   Field[*time.Time]
	EndDate     Field[*time.Time]
}

type AddMemberInput struct {
	Email string
	Role  string
}

type ProjectService struct {
	base
}

func NewProjectService(store Store, options ...Option) *ProjectService {
	return &ProjectService{base: newBase(store, options...)}
}

func checkProjectStatus(v *Validation, status string) {
	if status != "" && !project.Status(status).Valid() {
		v.Add("status", "допустимые значения: planning, active, on-hold, completed")
	}
}

func checkDates(v *Validation, start, end *time.Time) {
	if start != nil && end != nil && end.Before(*start) {
		v.Add("endDate", "дата окончания раньше даты начала")
	}
}

func (s *ProjectService) Create(ctx context.Context, caller primitive.ObjectID, in CreateProjectInput) (project.View, []event.Event, error) {
	name := strings.TrimSpace(in.Name)
	description := strings.TrimSpace(in.Description)

	var v Validation
	checkText(&v, "name", name, maxProjectName)
	checkText(&v, "description", description, maxProjectDescription)
	checkProjectStatus(&v, in.Status)
	checkDates(&v, in.StartDate, in.EndDate)
	if err := v.Err(); err != nil {
		return project.View{}, nil, err
	}

	now := s.clock()
	p := project.New(name, description, caller, now)
	p.Apply(now,
		project.WithStatus(project.Status(in.Status)),
		project.WithStartDate(in.StartDate),
		project.WithEndDate(in.EndDate),
	)

	if err := s.store.CreateProject(ctx, p); err != nil {
		return project.View{}, nil, fmt.Errorf("создание проекта: %w", err)
	}

	view, err := s.resolve.project(ctx, p)
	if err != nil {
		return project.View{}, nil, err
	}

	logger.Info("Service: Проект создан",
		zap.String("project_id", p.ID.Hex()),
		zap.String("owner_id", caller.Hex()))

	created := event.ForProject(event.ProjectCreated, p.ID, view)
	created.Broadcast = true
	return view, []event.Event{created}, nil
}

func (s *ProjectService) List(ctx context.Context, caller primitive.ObjectID) ([]project.View, error) {
	projects, err := s.store.ListProjectsForUser(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("получение проектов: %w", err)
	}
	return s.resolve.projectList(ctx, projects)
}

func (s *ProjectService) load(ctx context.Context, id primitive.ObjectID) (*project.Project, error) {
	p, err := s.store.GetProjectByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, ResourceProject, id)
	}
	return p, nil
}

func (s *ProjectService) Get(ctx context.Context, caller primitive.ObjectID, rawID string) (project.View, error) {
	id, err := ParseID("id", rawID)
	if err != nil {
		return project.View{}, err
	}

	p, err := s.load(ctx, id)
	if err != nil {
		return project.View{}, err
	}
	if !policy.CanReadProject(caller, p) {
		return project.View{}, NewForbidden("просмотр проекта")
	}
	return s.resolve.project(ctx, p)
}

// для подписки на канал проекта
func (s *ProjectService) CanRead(ctx context.Context, caller, projectID primitive.ObjectID) (bool, error) {
	p, err := s.load(ctx, projectID)
	if err != nil {
		return false, err
	}
	return policy.CanReadProject(caller, p), nil
}

func (s *ProjectService) Update(ctx context.Context, caller primitive.ObjectID, rawID string, in UpdateProjectInput) (project.View, []event.Event, error) {
	id, err := ParseID("id", rawID)
	if err != nil {
		return project.View{}, nil, err
	}

	var (
		v       Validation
		options []project.ProjectOption
	)
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		checkText(&v, "name", name, maxProjectName)
		options = append(options, project.WithName(name))
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		checkText(&v, "description", description, maxProjectDescription)
		options = append(options, project.WithDescription(description))
	}
	if in.Status != nil {
		if *in.Status == "" {
			v.Add("status", "обязательное поле")
		}
		checkProjectStatus(&v, *in.Status)
		options = append(options, project.WithStatus(project.Status(*in.Status)))
	}
	if in.StartDate.Set {
		options = append(options, project.WithStartDate(in.StartDate.Value))
	}
	if in.EndDate.Set {
		options = append(options, project.WithEndDate(in.EndDate.Value))
	}
	if err := v.Err(); err != nil {
		return project.View{}, nil, err
	}

	p, err := s.load(ctx, id)
	if err != nil {
		return project.View{}, nil, err
	}
	if !policy.CanUpdateProject(caller, p) {
		return project.View{}, nil, NewForbidden("изменение проекта")
	}

	p.Apply(s.clock(), options...)
	checkDates(&v, p.StartDate, p.EndDate)
	if err := v.Err(); err != nil {
		return project.View{}, nil, err
	}

	if err := s.store.UpdateProject(ctx, p); err != nil {
		return project.View{}, nil, writeErr(err, ResourceProject, id)
	}

	fresh, err := s.load(ctx, id)
	if err != nil {
		return project.View{}, nil, err
	}
	view, err := s.resolve.project(ctx, fresh)
	if err != nil {
		return project.View{}, nil, err
	}

	return view, []event.Event{event.ForProject(event.ProjectUpdated, id, view)}, nil
}

func (s *ProjectService) Delete(ctx context.Context, caller primitive.ObjectID, rawID string) ([]event.Event, error) {
	id, err := ParseID("id", rawID)
	if err != nil {
		return nil, err
	}

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanDeleteProject(caller, p) {
		return nil, NewForbidden("удаление проекта")
	}

	if err := s.store.DeleteProject(ctx, id); err != nil {
		return nil, writeErr(err, ResourceProject, id)
	}

	logger.Info("Service: Проект удален", zap.String("project_id", id.Hex()))
	return []event.Event{event.Removed(event.ProjectDeleted, id, id)}, nil
}

func (s *ProjectService) AddMember(ctx context.Context, caller primitive.ObjectID, rawID string, in AddMemberInput) (project.View, []event.Event, error) {
	id, err := ParseID("id", rawID)
	if err != nil {
		return project.View{}, nil, err
	}

	var v Validation
	email := strings.TrimSpace(in.Email)
	v.Check(email != "", "email", "обязательное поле")
	role := project.Role(strings.TrimSpace(in.Role))
	if role == "" {
		role = project.RoleMember
	}
	switch {
	case role == project.RoleOwner:
		v.Add("role", "роль owner нельзя назначить")
	case !role.Valid():
		v.Add("role", "допустимые значения: admin, member")
	}
	if err := v.Err(); err != nil {
		return project.View{}, nil, err
	}

	p, err := s.load(ctx, id)
	if err != nil {
		return project.View{}, nil, err
	}
	if !policy.CanMutateProjectMembership(caller, p) {
		return project.View{}, nil, NewForbidden("управление участниками")
	}

	invitee, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return project.View{}, nil, NewNotFound(ResourceUser, email)
		}
		return project.View{}, nil, fmt.Errorf("поиск пользователя: %w", err)
	}

	if p.IsOwner(invitee.ID) || p.HasMember(invitee.ID) {
		return project.View{}, nil, alreadyMember(id, invitee.ID)
	}

	now := s.clock()
	member := project.Member{User: invitee.ID, Role: role, JoinedAt: now}
	if err := s.store.AddMember(ctx, id, member, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return project.View{}, nil, alreadyMember(id, invitee.ID)
		}
		return project.View{}, nil, writeErr(err, ResourceProject, id)
	}

	fresh, err := s.load(ctx, id)
	if err != nil {
		return project.View{}, nil, err
	}
	view, err := s.resolve.project(ctx, fresh)
	if err != nil {
		return project.View{}, nil, err
	}

	logger.Info("Service: Участник добавлен",
		zap.String("project_id", id.Hex()),
		zap.String("user_id", invitee.ID.Hex()),
		zap.String("role", string(role)))

	return view, []event.Event{event.ForProject(event.ProjectMemberAdded, id, view)}, nil
}

func alreadyMember(projectID, userID primitive.ObjectID) *BusinessError {
	return NewConflict("пользователь уже участник проекта",
		ToDetail("project", projectID.Hex()),
		ToDetail("user", userID.Hex()))
}
