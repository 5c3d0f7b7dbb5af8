package subscription

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"projectTracker/internal/event"
	"projectTracker/internal/models/comment"
	"projectTracker/internal/models/project"
	"projectTracker/internal/models/task"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// сущности хранятся по id и заменяются целиком, повторное событие ничего не меняет
type Board struct {
	mu        sync.RWMutex
	projectID primitive.ObjectID
	project   *project.View
	tasks     map[primitive.ObjectID]task.View
	comments  map[primitive.ObjectID]comment.View
	deleted   bool
}

func NewBoard(projectID primitive.ObjectID) *Board {
	return &Board{
		projectID: projectID,
		tasks:     make(map[primitive.ObjectID]task.View),
		comments:  make(map[primitive.ObjectID]comment.View),
	}
}

func (b *Board) ProjectID() primitive.ObjectID {
	return b.projectID
}

// typing и события других проектов пропускаются
func (b *Board) Apply(msg event.Message) (bool, error) {
	switch msg.Event {
	case event.ProjectCreated, event.ProjectUpdated, event.ProjectMemberAdded:
		var view project.View
		if err := decode(msg, &view); err != nil {
			return false, err
		}
		if view.ID != b.projectID {
			return false, nil
		}
		b.SetProject(view)
		return true, nil

	case event.ProjectDeleted:
		id, err := deletedID(msg)
		if err != nil {
			return false, err
		}
		if id != b.projectID {
			return false, nil
		}
		b.mu.Lock()
		b.deleted = true
		b.project = nil
		b.tasks = make(map[primitive.ObjectID]task.View)
		b.comments = make(map[primitive.ObjectID]comment.View)
		b.mu.Unlock()
		return true, nil

	case event.TaskCreated, event.TaskUpdated:
		var view task.View
		if err := decode(msg, &view); err != nil {
			return false, err
		}
		return b.UpsertTask(view), nil

	case event.TaskDeleted:
		id, err := deletedID(msg)
		if err != nil {
			return false, err
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.tasks[id]; !ok {
			return false, nil
		}
		delete(b.tasks, id)
		for cid, c := range b.comments {
			if c.Task == id {
				delete(b.comments, cid)
			}
		}
		return true, nil

	case event.CommentCreated, event.CommentUpdated:
		var view comment.View
		if err := decode(msg, &view); err != nil {
			return false, err
		}
		b.UpsertComment(view)
		return true, nil

	case event.CommentDeleted:
		id, err := deletedID(msg)
		if err != nil {
			return false, err
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.comments[id]; !ok {
			return false, nil
		}
		delete(b.comments, id)
		return true, nil
	}
	return false, nil
}

func (b *Board) SetProject(view project.View) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.project = &view
}

func (b *Board) UpsertTask(view task.View) bool {
	if view.Project.ID != b.projectID {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks[view.ID] = view
	return true
}

func (b *Board) UpsertComment(view comment.View) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.comments[view.ID] = view
}

func (b *Board) Project() (project.View, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.project == nil {
		return project.View{}, false
	}
	return *b.project, true
}

func (b *Board) Deleted() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.deleted
}

// новые первыми, как в списке задач
func (b *Board) Tasks() []task.View {
	b.mu.RLock()
	out := make([]task.View, 0, len(b.tasks))
	for _, t := range b.tasks {
		out = append(out, t)
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out
}

// старые первыми
func (b *Board) Comments(taskID primitive.ObjectID) []comment.View {
	b.mu.RLock()
	out := make([]comment.View, 0)
	for _, c := range b.comments {
		if c.Task == taskID {
			out = append(out, c)
		}
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out
}

func decode(msg event.Message, dst any) error {
	if err := json.Unmarshal(msg.Data, dst); err != nil {
		return fmt.Errorf("разбор события %s: %w", msg.Event, err)
	}
	return nil
}

func deletedID(msg event.Message) (primitive.ObjectID, error) {
	var payload event.Deleted
	if err := decode(msg, &payload); err != nil {
		return primitive.NilObjectID, err
	}
	return payload.ID, nil
}
