package service

import (
	"context"
	"fmt"
	"strings"

	"projectTracker/internal/event"
	"projectTracker/internal/models/comment"
	"projectTracker/internal/models/project"
	"projectTracker/internal/models/task"
	"projectTracker/internal/policy"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxCommentContent = 500

type CreateCommentInput struct {
	Task    string
	Content string
}

type CommentService struct {
	base
}

func NewCommentService(store Store, options ...Option) *CommentService {
	return &CommentService{base: newBase(store, options...)}
}

func (s *CommentService) Create(ctx context.Context, caller primitive.ObjectID, in CreateCommentInput) (comment.View, []event.Event, error) {
	content := strings.TrimSpace(in.Content)

	var v Validation
	checkText(&v, "content", content, maxCommentContent)
	var taskID primitive.ObjectID
	if strings.TrimSpace(in.Task) == "" {
		v.Add("task", "обязательное поле")
	} else if id := optionalID(&v, "task", in.Task); id != nil {
		taskID = *id
	}
	if err := v.Err(); err != nil {
		return comment.View{}, nil, err
	}

	t, p, err := s.parents(ctx, taskID)
	if err != nil {
		return comment.View{}, nil, err
	}
	if !policy.CanReadTask(caller, t, p) {
		return comment.View{}, nil, NewForbidden("комментирование задачи")
	}

	c := comment.New(content, taskID, caller, s.clock())
	if err := s.store.CreateComment(ctx, c); err != nil {
		return comment.View{}, nil, fmt.Errorf("создание комментария: %w", err)
	}

	view, err := s.resolve.comment(ctx, c)
	if err != nil {
		return comment.View{}, nil, err
	}
	return view, []event.Event{event.ForProject(event.CommentCreated, p.ID, view)}, nil
}

func (s *CommentService) List(ctx context.Context, caller primitive.ObjectID, rawTaskID string) ([]comment.View, error) {
	if strings.TrimSpace(rawTaskID) == "" {
		return nil, NewValidationError("task", "обязательный параметр")
	}
	taskID, err := ParseID("task", rawTaskID)
	if err != nil {
		return nil, err
	}

	t, p, err := s.parents(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !policy.CanReadTask(caller, t, p) {
		return nil, NewForbidden("просмотр комментариев")
	}

	comments, err := s.store.ListCommentsByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("получение комментариев: %w", err)
	}
	return s.resolve.commentList(ctx, comments)
}

func (s *CommentService) Update(ctx context.Context, caller primitive.ObjectID, rawID, content string) (comment.View, []event.Event, error) {
	id, err := ParseID("id", rawID)
	if err != nil {
		return comment.View{}, nil, err
	}
	content = strings.TrimSpace(content)

	var v Validation
	checkText(&v, "content", content, maxCommentContent)
	if err := v.Err(); err != nil {
		return comment.View{}, nil, err
	}

	c, err := s.store.GetCommentByID(ctx, id)
	if err != nil {
		return comment.View{}, nil, lookupErr(err, ResourceComment, id)
	}
	if !policy.CanMutateComment(caller, c) {
		return comment.View{}, nil, NewForbidden("изменение комментария")
	}
	t, err := s.store.GetTaskByID(ctx, c.Task)
	if err != nil {
		return comment.View{}, nil, lookupErr(err, ResourceTask, c.Task)
	}

	if c.Edit(content, s.clock()) {
		if err := s.store.UpdateComment(ctx, c); err != nil {
			return comment.View{}, nil, writeErr(err, ResourceComment, id)
		}
	}

	fresh, err := s.store.GetCommentByID(ctx, id)
	if err != nil {
		return comment.View{}, nil, lookupErr(err, ResourceComment, id)
	}
	view, err := s.resolve.comment(ctx, fresh)
	if err != nil {
		return comment.View{}, nil, err
	}
	return view, []event.Event{event.ForProject(event.CommentUpdated, t.Project, view)}, nil
}

func (s *CommentService) Delete(ctx context.Context, caller primitive.ObjectID, rawID string) ([]event.Event, error) {
	id, err := ParseID("id", rawID)
	if err != nil {
		return nil, err
	}

	c, err := s.store.GetCommentByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, ResourceComment, id)
	}
	if !policy.CanDeleteComment(caller, c) {
		return nil, NewForbidden("удаление комментария")
	}
	t, err := s.store.GetTaskByID(ctx, c.Task)
	if err != nil {
		return nil, lookupErr(err, ResourceTask, c.Task)
	}

	if err := s.store.DeleteComment(ctx, id); err != nil {
		return nil, writeErr(err, ResourceComment, id)
	}
	return []event.Event{event.Removed(event.CommentDeleted, t.Project, id)}, nil
}

func (s *CommentService) parents(ctx context.Context, taskID primitive.ObjectID) (*task.Task, *project.Project, error) {
	t, err := s.store.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, nil, lookupErr(err, ResourceTask, taskID)
	}
	p, err := s.store.GetProjectByID(ctx, t.Project)
	if err != nil {
		return nil, nil, lookupErr(err, ResourceProject, t.Project)
	}
	return t, p, nil
}
