package mongo

import (
	"context"
	"fmt"
	"time"

	"projectTracker/internal/logger"
	"projectTracker/internal/models/task"
	repo "projectTracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Storage) CreateTask(ctx context.Context, t *task.Task) error {
	start := time.Now()
	defer warnSlow("create_task", start)

	if _, err := s.tasks.InsertOne(ctx, t); err != nil {
		err = duplicate(err)
		logger.Error("Repository: Не удалось добавить задачу", err)
		return fmt.Errorf("добавление задачи: %w", err)
	}
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id primitive.ObjectID) (*task.Task, error) {
	var t task.Task
	if err := s.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, fmt.Errorf("получение задачи: %w", notFound(err))
	}
	return &t, nil
}

func taskFilter(f repo.TaskFilter) bson.M {
	filter := bson.M{}
	switch {
	case f.Project != nil && f.Projects != nil:
		filter["$and"] = bson.A{
			bson.M{"project": *f.Project},
			bson.M{"project": bson.M{"$in": f.Projects}},
		}
	case f.Project != nil:
		filter["project"] = *f.Project
	case f.Projects != nil:
		filter["project"] = bson.M{"$in": f.Projects}
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.AssignedTo != nil {
		filter["assignedTo"] = *f.AssignedTo
	}
	return filter
}

func (s *Storage) ListTasks(ctx context.Context, f repo.TaskFilter) ([]*task.Task, error) {
	start := time.Now()
	defer warnSlow("list_tasks", start)

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.tasks.Find(ctx, taskFilter(f), opts)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := []*task.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("декодирование задач: %w", err)
	}
	return tasks, nil
}

func (s *Storage) UpdateTask(ctx context.Context, t *task.Task) error {
	start := time.Now()
	defer warnSlow("update_task", start)

	update := bson.M{
		"$set": bson.M{
			"title":       t.Title,
			"description": t.Description,
			"assignedTo":  t.AssignedTo,
			"status":      t.Status,
			"priority":    t.Priority,
			"dueDate":     t.DueDate,
			"tags":        t.Tags,
			"attachments": t.Attachments,
			"updatedAt":   t.UpdatedAt,
			"completedAt": t.CompletedAt,
		},
	}

	res, err := s.tasks.UpdateOne(ctx, bson.M{"_id": t.ID}, update)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.tasks.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err)
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if res.DeletedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// $lookup по projects, остаются задачи без проекта
func (s *Storage) ListOrphanTasks(ctx context.Context, limit int) ([]*task.Task, error) {
	if limit <= 0 {
		return []*task.Task{}, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: projectsCollection},
			{Key: "localField", Value: "project"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "parent"},
		}}},
		{{Key: "$match", Value: bson.D{{Key: "parent", Value: bson.D{{Key: "$size", Value: 0}}}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.D{{Key: "parent", Value: 0}}}},
	}

	cursor, err := s.tasks.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("поиск осиротевших задач: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := []*task.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("декодирование задач: %w", err)
	}
	return tasks, nil
}
