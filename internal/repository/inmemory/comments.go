package inmemory

import (
	"context"

	"projectTracker/internal/models/comment"
	repo "projectTracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (s *Storage) CreateComment(ctx context.Context, c *comment.Comment) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.comments[c.ID]; ok {
		return repo.ErrConflict
	}
	s.comments[c.ID] = cloneComment(c)
	s.commentIDs = append(s.commentIDs, c.ID)
	return nil
}

func (s *Storage) GetCommentByID(ctx context.Context, id primitive.ObjectID) (*comment.Comment, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return cloneComment(c), nil
}

func (s *Storage) ListCommentsByTask(ctx context.Context, taskID primitive.ObjectID) ([]*comment.Comment, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*comment.Comment{}
	for _, id := range s.commentIDs {
		c := s.comments[id]
		if c.Task == taskID {
			res = append(res, cloneComment(c))
		}
	}
	return res, nil
}

func (s *Storage) UpdateComment(ctx context.Context, c *comment.Comment) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.comments[c.ID]
	if !ok {
		return repo.ErrNotFound
	}

	existing.Content = c.Content
	existing.UpdatedAt = c.UpdatedAt
	existing.IsEdited = c.IsEdited
	return nil
}

func (s *Storage) DeleteComment(ctx context.Context, id primitive.ObjectID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.comments[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.comments, id)
	s.commentIDs = removeID(s.commentIDs, id)
	return nil
}

// комментарии удаленных задач
func (s *Storage) ListOrphanComments(ctx context.Context, limit int) ([]*comment.Comment, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*comment.Comment{}
	for _, id := range s.commentIDs {
		if len(res) >= limit {
			break
		}
		c := s.comments[id]
		if _, ok := s.tasks[c.Task]; ok {
			continue
		}
		res = append(res, cloneComment(c))
	}
	return res, nil
}
