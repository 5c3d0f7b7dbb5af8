package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"projectTracker/internal/event"
	"projectTracker/internal/logger"
	"projectTracker/internal/models/project"
	"projectTracker/internal/models/task"
	"projectTracker/internal/policy"
	"projectTracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	maxTaskTitle       = 200
	maxTaskDescription = 1000
	maxAttachmentName  = 200
	maxAttachmentURL   = 2048
)

type CreateTaskInput struct {
	Title       string
	Description string
	Project     string
	AssignedTo  string
	Status      string
	Priority    string
	DueDate     *time.Time
	Tags        []string
	Attachments []task.Attachment
}

// пустой AssignedTo снимает исполнителя, nil DueDate очищает срок
type UpdateTaskInput struct {
	Title       *string
	Description *string
	AssignedTo  Field[string]
	Status      *string
	Priority    *string
	DueDate     Field[*time.Time]
	Tags        Field[[]string]
	Attachments Field[[]task.Attachment]
}

type TaskQuery struct {
	Project    string
	Status     string
	AssignedTo string
}

type TaskService struct {
	base
}

func NewTaskService(store Store, options ...Option) *TaskService {
	return &TaskService{base: newBase(store, options...)}
}

func checkTaskStatus(v *Validation, status string) {
	if status != "" && !task.Status(status).Valid() {
		v.Add("status", "допустимые значения: todo, in-progress, review, done")
	}
}

func checkTaskPriority(v *Validation, priority string) {
	if priority != "" && !task.Priority(priority).Valid() {
		v.Add("priority", "допустимые значения: low, medium, high, urgent")
	}
}

func checkDescription(v *Validation, description string) {
	if runeLen(description) > maxTaskDescription {
		v.Add("description", fmt.Sprintf("не более %d символов", maxTaskDescription))
	}
}

func checkAttachments(v *Validation, items []task.Attachment) {
	for i, a := range items {
		field := fmt.Sprintf("attachments[%d]", i)
		if strings.TrimSpace(a.URL) == "" {
			v.Add(field+".url", "обязательное поле")
		} else if runeLen(a.URL) > maxAttachmentURL {
			v.Add(field+".url", fmt.Sprintf("не более %d символов", maxAttachmentURL))
		}
		if runeLen(strings.TrimSpace(a.Name)) > maxAttachmentName {
			v.Add(field+".name", fmt.Sprintf("не более %d символов", maxAttachmentName))
		}
	}
}

func optionalID(v *Validation, field, raw string) *primitive.ObjectID {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		v.Add(field, "некорректный идентификатор")
		return nil
	}
	return &id
}

func (s *TaskService) Create(ctx context.Context, caller primitive.ObjectID, in CreateTaskInput) (task.View, []event.Event, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)

	var v Validation
	checkText(&v, "title", title, maxTaskTitle)
	checkDescription(&v, description)
	checkTaskStatus(&v, in.Status)
	checkTaskPriority(&v, in.Priority)
	checkAttachments(&v, in.Attachments)

	var projectID primitive.ObjectID
	if strings.TrimSpace(in.Project) == "" {
		v.Add("project", "обязательное поле")
	} else if id := optionalID(&v, "project", in.Project); id != nil {
		projectID = *id
	}
	assignee := optionalID(&v, "assignedTo", in.AssignedTo)
	if err := v.Err(); err != nil {
		return task.View{}, nil, err
	}

	p, err := s.project(ctx, projectID)
	if err != nil {
		return task.View{}, nil, err
	}
	if !policy.CanCreateTaskIn(caller, p) {
		return task.View{}, nil, NewForbidden("создание задачи")
	}
	if err := s.ensureUser(ctx, assignee); err != nil {
		return task.View{}, nil, err
	}

	now := s.clock()
	t := task.New(title, description, projectID, caller, now,
		task.WithStatus(task.Status(in.Status)),
		task.WithPriority(task.Priority(in.Priority)),
		task.WithAssignee(assignee),
		task.WithDueDate(in.DueDate),
		task.WithTags(in.Tags),
		task.WithAttachments(in.Attachments, now),
	)

	if err := s.store.CreateTask(ctx, t); err != nil {
		return task.View{}, nil, fmt.Errorf("создание задачи: %w", err)
	}

	view, err := s.resolve.task(ctx, t, now)
	if err != nil {
		return task.View{}, nil, err
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", t.ID.Hex()),
		zap.String("project_id", projectID.Hex()))

	return view, []event.Event{event.ForProject(event.TaskCreated, projectID, view)}, nil
}

func (s *TaskService) List(ctx context.Context, caller primitive.ObjectID, q TaskQuery) ([]task.View, error) {
	var v Validation
	projectID := optionalID(&v, "project", q.Project)
	assignee := optionalID(&v, "assignedTo", q.AssignedTo)
	checkTaskStatus(&v, q.Status)
	if err := v.Err(); err != nil {
		return nil, err
	}

	filter := repository.TaskFilter{
		Project:    projectID,
		Status:     task.Status(q.Status),
		AssignedTo: assignee,
	}

	if projectID != nil {
		p, err := s.project(ctx, *projectID)
		if err != nil {
			return nil, err
		}
		if !policy.CanReadProject(caller, p) {
			return nil, NewForbidden("просмотр задач проекта")
		}
	} else {
		readable, err := s.store.ListProjectsForUser(ctx, caller)
		if err != nil {
			return nil, fmt.Errorf("получение проектов: %w", err)
		}
		filter.Projects = make([]primitive.ObjectID, 0, len(readable))
		for _, p := range readable {
			filter.Projects = append(filter.Projects, p.ID)
		}
	}

	tasks, err := s.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return s.resolve.taskList(ctx, tasks, s.clock())
}

func (s *TaskService) Get(ctx context.Context, caller primitive.ObjectID, rawID string) (task.View, error) {
	t, p, err := s.load(ctx, rawID)
	if err != nil {
		return task.View{}, err
	}
	if !policy.CanReadTask(caller, t, p) {
		return task.View{}, NewForbidden("просмотр задачи")
	}
	return s.resolve.task(ctx, t, s.clock())
}

func (s *TaskService) Update(ctx context.Context, caller primitive.ObjectID, rawID string, in UpdateTaskInput) (task.View, []event.Event, error) {
	id, err := ParseID("id", rawID)
	if err != nil {
		return task.View{}, nil, err
	}

	var (
		v        Validation
		options  []task.TaskOption
		assignee *primitive.ObjectID
	)
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		checkText(&v, "title", title, maxTaskTitle)
		options = append(options, task.WithTitle(title))
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		checkDescription(&v, description)
		options = append(options, task.WithDescription(description))
	}
	if in.Status != nil {
		if *in.Status == "" {
			v.Add("status", "обязательное поле")
		}
		checkTaskStatus(&v, *in.Status)
		options = append(options, task.WithStatus(task.Status(*in.Status)))
	}
	if in.Priority != nil {
		if *in.Priority == "" {
			v.Add("priority", "обязательное поле")
		}
		checkTaskPriority(&v, *in.Priority)
		options = append(options, task.WithPriority(task.Priority(*in.Priority)))
	}
	if in.AssignedTo.Set {
		assignee = optionalID(&v, "assignedTo", in.AssignedTo.Value)
		options = append(options, task.WithAssignee(assignee))
	}
	if in.DueDate.Set {
		options = append(options, task.WithDueDate(in.DueDate.Value))
	}
	if in.Tags.Set {
		options = append(options, task.WithTags(in.Tags.Value))
	}
	if in.Attachments.Set {
		checkAttachments(&v, in.Attachments.Value)
	}
	if err := v.Err(); err != nil {
		return task.View{}, nil, err
	}

	t, p, err := s.loadByID(ctx, id)
	if err != nil {
		return task.View{}, nil, err
	}
	if !policy.CanMutateTask(caller, t, p) {
		return task.View{}, nil, NewForbidden("изменение задачи")
	}
	if err := s.ensureUser(ctx, assignee); err != nil {
		return task.View{}, nil, err
	}

	now := s.clock()
	if in.Attachments.Set {
		options = append(options, task.WithAttachments(in.Attachments.Value, now))
	}
	t.Apply(now, options...)
	if err := s.store.UpdateTask(ctx, t); err != nil {
		return task.View{}, nil, writeErr(err, ResourceTask, id)
	}

	fresh, err := s.store.GetTaskByID(ctx, id)
	if err != nil {
		return task.View{}, nil, lookupErr(err, ResourceTask, id)
	}
	view, err := s.resolve.task(ctx, fresh, now)
	if err != nil {
		return task.View{}, nil, err
	}

	return view, []event.Event{event.ForProject(event.TaskUpdated, fresh.Project, view)}, nil
}

func (s *TaskService) Delete(ctx context.Context, caller primitive.ObjectID, rawID string) ([]event.Event, error) {
	t, p, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if !policy.CanDeleteTask(caller, t, p) {
		return nil, NewForbidden("удаление задачи")
	}

	if err := s.store.DeleteTask(ctx, t.ID); err != nil {
		return nil, writeErr(err, ResourceTask, t.ID)
	}

	logger.Info("Service: Задача удалена",
		zap.String("task_id", t.ID.Hex()),
		zap.String("deleted_by", caller.Hex()))
	return []event.Event{event.Removed(event.TaskDeleted, t.Project, t.ID)}, nil
}

func (s *TaskService) project(ctx context.Context, id primitive.ObjectID) (*project.Project, error) {
	p, err := s.store.GetProjectByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, ResourceProject, id)
	}
	return p, nil
}

func (s *TaskService) load(ctx context.Context, rawID string) (*task.Task, *project.Project, error) {
	id, err := ParseID("id", rawID)
	if err != nil {
		return nil, nil, err
	}
	return s.loadByID(ctx, id)
}

func (s *TaskService) loadByID(ctx context.Context, id primitive.ObjectID) (*task.Task, *project.Project, error) {
	t, err := s.store.GetTaskByID(ctx, id)
	if err != nil {
		return nil, nil, lookupErr(err, ResourceTask, id)
	}
	p, err := s.project(ctx, t.Project)
	if err != nil {
		return nil, nil, err
	}
	return t, p, nil
}

func (s *TaskService) ensureUser(ctx context.Context, id *primitive.ObjectID) error {
	if id == nil {
		return nil
	}
	if _, err := s.store.GetUserByID(ctx, *id); err != nil {
		return lookupErr(err, ResourceUser, *id)
	}
	return nil
}
