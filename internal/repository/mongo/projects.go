package mongo

import (
	"context"
	"fmt"
	"time"

	"projectTracker/internal/logger"
	"projectTracker/internal/models/project"
	repo "projectTracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func (s *Storage) CreateProject(ctx context.Context, p *project.Project) error {
	start := time.Now()
	defer warnSlow("create_project", start)

	if _, err := s.projects.InsertOne(ctx, p); err != nil {
		err = duplicate(err)
		logger.Error("Repository: Не удалось добавить проект", err)
		return fmt.Errorf("добавление проекта: %w", err)
	}
	return nil
}

func (s *Storage) GetProjectByID(ctx context.Context, id primitive.ObjectID) (*project.Project, error) {
	var p project.Project
	if err := s.projects.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, fmt.Errorf("получение проекта: %w", notFound(err))
	}
	return &p, nil
}

func (s *Storage) GetProjectsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*project.Project, error) {
	if len(ids) == 0 {
		return []*project.Project{}, nil
	}

	cursor, err := s.projects.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("получение проектов: %w", err)
	}
	defer cursor.Close(ctx)

	projects := []*project.Project{}
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("декодирование проектов: %w", err)
	}
	return projects, nil
}

func (s *Storage) ListProjectsForUser(ctx context.Context, userID primitive.ObjectID) ([]*project.Project, error) {
	start := time.Now()
	defer warnSlow("list_projects", start)

	filter := bson.M{"$or": bson.A{
		bson.M{"owner": userID},
		bson.M{"members.user": userID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := s.projects.Find(ctx, filter, opts)
	if err != nil {
		logger.Error("Repository: Не удалось получить проекты", err)
		return nil, fmt.Errorf("получение проектов: %w", err)
	}
	defer cursor.Close(ctx)

	projects := []*project.Project{}
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("декодирование проектов: %w", err)
	}
	return projects, nil
}

func (s *Storage) UpdateProject(ctx context.Context, p *project.Project) error {
	start := time.Now()
	defer warnSlow("update_project", start)

	update := bson.M{
		"$set": bson.M{
			"name":        p.Name,
			"description": p.Description,
			"status":      p.Status,
			"startDate":   p.StartDate,
			"endDate":     p.EndDate,
			"updatedAt":   p.UpdatedAt,
		},
	}

	res, err := s.projects.UpdateOne(ctx, bson.M{"_id": p.ID}, update)
	if err != nil {
		logger.Error("Repository: Не удалось обновить проект", err)
		return fmt.Errorf("обновление проекта: %w", err)
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// $push только если пользователя еще нет в members
func (s *Storage) AddMember(ctx context.Context, projectID primitive.ObjectID, member project.Member, now time.Time) error {
	start := time.Now()
	defer warnSlow("add_member", start)

	filter := bson.M{
		"_id":          projectID,
		"members.user": bson.M{"$ne": member.User},
	}
	update := bson.M{
		"$push": bson.M{"members": member},
		"$set":  bson.M{"updatedAt": now},
	}

	res, err := s.projects.UpdateOne(ctx, filter, update)
	if err != nil {
		logger.Error("Repository: Не удалось добавить участника", err)
		return fmt.Errorf("добавление участника: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	count, err := s.projects.CountDocuments(ctx, bson.M{"_id": projectID})
	if err != nil {
		return fmt.Errorf("проверка проекта: %w", err)
	}
	if count == 0 {
		return repo.ErrNotFound
	}

	logger.Warn("Repository: Пользователь уже участник проекта",
		zap.String("project_id", projectID.Hex()),
		zap.String("user_id", member.User.Hex()))
	return repo.ErrConflict
}

func (s *Storage) DeleteProject(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.projects.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logger.Error("Repository: Не удалось удалить проект", err)
		return fmt.Errorf("удаление проекта: %w", err)
	}
	if res.DeletedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}
