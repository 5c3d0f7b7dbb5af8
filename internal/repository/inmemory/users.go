package inmemory

import (
	"context"

	"projectTracker/internal/models/user"
	repo "projectTracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// createdAt существующего пользователя сохраняется
func (s *Storage) UpsertUser(ctx context.Context, u *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for id, existing := range s.users {
		if id != u.ID && existing.Email == u.Email {
			return repo.ErrConflict
		}
	}

	if existing, ok := s.users[u.ID]; ok {
		u.CreatedAt = existing.CreatedAt
	}
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id primitive.ObjectID) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	email = user.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *Storage) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*user.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			res = append(res, cloneUser(u))
		}
	}
	return res, nil
}
