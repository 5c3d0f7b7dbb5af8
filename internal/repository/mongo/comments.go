package mongo

import (
	"context"
	"fmt"
	"time"

	"projectTracker/internal/logger"
	"projectTracker/internal/models/comment"
	repo "projectTracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Storage) CreateComment(ctx context.Context, c *comment.Comment) error {
	start := time.Now()
	defer warnSlow("create_comment", start)

	if _, err := s.comments.InsertOne(ctx, c); err != nil {
		err = duplicate(err)
		logger.Error("Repository: Не удалось добавить комментарий", err)
		return fmt.Errorf("добавление комментария: %w", err)
	}
	return nil
}

func (s *Storage) GetCommentByID(ctx context.Context, id primitive.ObjectID) (*comment.Comment, error) {
	var c comment.Comment
	if err := s.comments.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, fmt.Errorf("получение комментария: %w", notFound(err))
	}
	return &c, nil
}

func (s *Storage) ListCommentsByTask(ctx context.Context, taskID primitive.ObjectID) ([]*comment.Comment, error) {
	start := time.Now()
	defer warnSlow("list_comments", start)

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.comments.Find(ctx, bson.M{"task": taskID}, opts)
	if err != nil {
		logger.Error("Repository: Не удалось получить комментарии", err)
		return nil, fmt.Errorf("получение комментариев: %w", err)
	}
	defer cursor.Close(ctx)

	comments := []*comment.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, fmt.Errorf("декодирование комментариев: %w", err)
	}
	return comments, nil
}

func (s *Storage) UpdateComment(ctx context.Context, c *comment.Comment) error {
	update := bson.M{
		"$set": bson.M{
			"content":   c.Content,
			"updatedAt": c.UpdatedAt,
			"isEdited":  c.IsEdited,
		},
	}

	res, err := s.comments.UpdateOne(ctx, bson.M{"_id": c.ID}, update)
	if err != nil {
		logger.Error("Repository: Не удалось обновить комментарий", err)
		return fmt.Errorf("обновление комментария: %w", err)
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) DeleteComment(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.comments.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logger.Error("Repository: Не удалось удалить комментарий", err)
		return fmt.Errorf("удаление комментария: %w", err)
	}
	if res.DeletedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) ListOrphanComments(ctx context.Context, limit int) ([]*comment.Comment, error) {
	if limit <= 0 {
		return []*comment.Comment{}, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: tasksCollection},
			{Key: "localField", Value: "task"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "parent"},
		}}},
		{{Key: "$match", Value: bson.D{{Key: "parent", Value: bson.D{{Key: "$size", Value: 0}}}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.D{{Key: "parent", Value: 0}}}},
	}

	cursor, err := s.comments.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("поиск осиротевших комментариев: %w", err)
	}
	defer cursor.Close(ctx)

	comments := []*comment.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, fmt.Errorf("декодирование комментариев: %w", err)
	}
	return comments, nil
}
