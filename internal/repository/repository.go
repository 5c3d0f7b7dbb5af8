package repository

import (
	"errors"

	"projectTracker/internal/models/task"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrNotFound = errors.New("запись не найдено")
var ErrConflict = errors.New("конфликт записи")

// нулевые поля не фильтруют, Projects != nil ограничивает выборку даже пустым списком
type TaskFilter struct {
	Project    *primitive.ObjectID
	Projects   []primitive.ObjectID
	Status     task.Status
	AssignedTo *primitive.ObjectID
}

func (f TaskFilter) Match(t *task.Task) bool {
	if f.Project != nil && t.Project != *f.Project {
		return false
	}
	if f.Projects != nil {
		found := false
		for _, id := range f.Projects {
			if id == t.Project {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.AssignedTo != nil && (t.AssignedTo == nil || *t.AssignedTo != *f.AssignedTo) {
		return false
	}
	return true
}
