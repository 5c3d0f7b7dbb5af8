package inmemory

import (
	"context"
	"time"

	"projectTracker/internal/models/project"
	repo "projectTracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (s *Storage) CreateProject(ctx context.Context, p *project.Project) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.projects[p.ID]; ok {
		return repo.ErrConflict
	}
	s.projects[p.ID] = cloneProject(p)
	s.projectIDs = append(s.projectIDs, p.ID)
	return nil
}

func (s *Storage) GetProjectByID(ctx context.Context, id primitive.ObjectID) (*project.Project, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return cloneProject(p), nil
}

func (s *Storage) GetProjectsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*project.Project, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*project.Project, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.projects[id]; ok {
			res = append(res, cloneProject(p))
		}
	}
	return res, nil
}

func (s *Storage) ListProjectsForUser(ctx context.Context, userID primitive.ObjectID) ([]*project.Project, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*project.Project{}
	for i := len(s.projectIDs) - 1; i >= 0; i-- {
		p := s.projects[s.projectIDs[i]]
		if p.IsOwner(userID) || p.HasMember(userID) {
			res = append(res, cloneProject(p))
		}
	}
	return res, nil
}

func (s *Storage) UpdateProject(ctx context.Context, p *project.Project) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.projects[p.ID]
	if !ok {
		return repo.ErrNotFound
	}

	updated := cloneProject(p)
	updated.Owner = existing.Owner
	updated.Members = existing.Members
	updated.CreatedAt = existing.CreatedAt
	s.projects[p.ID] = updated
	return nil
}

func (s *Storage) AddMember(ctx context.Context, projectID primitive.ObjectID, member project.Member, now time.Time) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return repo.ErrNotFound
	}
	if p.HasMember(member.User) {
		return repo.ErrConflict
	}

	p.Members = append(p.Members, member)
	p.UpdatedAt = now
	return nil
}

func (s *Storage) DeleteProject(ctx context.Context, id primitive.ObjectID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.projects[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.projects, id)
	s.projectIDs = removeID(s.projectIDs, id)
	return nil
}
