package inmemory

import (
	"context"

	"projectTracker/internal/models/task"
	repo "projectTracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (s *Storage) CreateTask(ctx context.Context, t *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.tasks[t.ID]; ok {
		return repo.ErrConflict
	}
	s.tasks[t.ID] = cloneTask(t)
	s.taskIDs = append(s.taskIDs, t.ID)
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id primitive.ObjectID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return cloneTask(t), nil
}

func (s *Storage) ListTasks(ctx context.Context, filter repo.TaskFilter) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for i := len(s.taskIDs) - 1; i >= 0; i-- {
		t := s.tasks[s.taskIDs[i]]
		if !filter.Match(t) {
			continue
		}
		res = append(res, cloneTask(t))
	}
	return res, nil
}

func (s *Storage) UpdateTask(ctx context.Context, t *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.tasks[t.ID]
	if !ok {
		return repo.ErrNotFound
	}

	updated := cloneTask(t)
	updated.Project = existing.Project
	updated.CreatedBy = existing.CreatedBy
	updated.CreatedAt = existing.CreatedAt
	s.tasks[t.ID] = updated
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, id primitive.ObjectID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.tasks, id)
	s.taskIDs = removeID(s.taskIDs, id)
	return nil
}

// задачи, проект которых удален
func (s *Storage) ListOrphanTasks(ctx context.Context, limit int) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.taskIDs {
		if len(res) >= limit {
			break
		}
		t := s.tasks[id]
		if _, ok := s.projects[t.Project]; ok {
			continue
		}
		res = append(res, cloneTask(t))
	}
	return res, nil
}
