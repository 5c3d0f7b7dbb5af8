package inmemory

import (
	"context"
	"sync"

	"projectTracker/internal/logger"
	"projectTracker/internal/models/comment"
	"projectTracker/internal/models/project"
	"projectTracker/internal/models/task"
	"projectTracker/internal/models/user"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// записи копируются на входе и на выходе
type Storage struct {
	mtx *sync.RWMutex

	users    map[primitive.ObjectID]*user.User
	projects map[primitive.ObjectID]*project.Project
	tasks    map[primitive.ObjectID]*task.Task
	comments map[primitive.ObjectID]*comment.Comment

	// порядок вставки
	projectIDs []primitive.ObjectID
	taskIDs    []primitive.ObjectID
	commentIDs []primitive.ObjectID
}

func New() *Storage {
	return &Storage{
		mtx:        &sync.RWMutex{},
		users:      make(map[primitive.ObjectID]*user.User),
		projects:   make(map[primitive.ObjectID]*project.Project),
		tasks:      make(map[primitive.ObjectID]*task.Task),
		comments:   make(map[primitive.ObjectID]*comment.Comment),
		projectIDs: []primitive.ObjectID{},
		taskIDs:    []primitive.ObjectID{},
		commentIDs: []primitive.ObjectID{},
	}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	return nil
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	for ind, val := range ids {
		if val == id {
			return append(ids[:ind], ids[ind+1:]...)
		}
	}
	return ids
}

func cloneUser(u *user.User) *user.User {
	c := *u
	return &c
}

func cloneProject(p *project.Project) *project.Project {
	c := *p
	c.Members = append([]project.Member(nil), p.Members...)
	if p.StartDate != nil {
		d := *p.StartDate
		c.StartDate = &d
	}
	if p.EndDate != nil {
		d := *p.EndDate
		c.EndDate = &d
	}
	return &c
}

func cloneTask(t *task.Task) *task.Task {
	c := *t
	c.Tags = append([]string{}, t.Tags...)
	c.Attachments = append([]task.Attachment{}, t.Attachments...)
	if t.AssignedTo != nil {
		id := *t.AssignedTo
		c.AssignedTo = &id
	}
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.CompletedAt != nil {
		d := *t.CompletedAt
		c.CompletedAt = &d
	}
	return &c
}

func cloneComment(cm *comment.Comment) *comment.Comment {
	c := *cm
	return &c
}
