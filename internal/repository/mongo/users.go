package mongo

import (
	"context"
	"fmt"
	"time"

	"projectTracker/internal/logger"
	"projectTracker/internal/models/user"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Storage) UpsertUser(ctx context.Context, u *user.User) error {
	start := time.Now()
	defer warnSlow("upsert_user", start)

	filter := bson.M{"_id": u.ID}
	update := bson.M{
		"$set": bson.M{
			"name":      u.Name,
			"email":     u.Email,
			"avatar":    u.Avatar,
			"updatedAt": u.UpdatedAt,
		},
		"$setOnInsert": bson.M{"createdAt": u.CreatedAt},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored user.User
	err := s.users.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	if err != nil {
		err = duplicate(err)
		logger.Error("Repository: Не удалось сохранить пользователя", err)
		return fmt.Errorf("сохранение пользователя: %w", err)
	}

	u.CreatedAt = stored.CreatedAt
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id primitive.ObjectID) (*user.User, error) {
	var u user.User
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, fmt.Errorf("получение пользователя: %w", notFound(err))
	}
	return &u, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	var u user.User
	err := s.users.FindOne(ctx, bson.M{"email": user.NormalizeEmail(email)}).Decode(&u)
	if err != nil {
		return nil, fmt.Errorf("поиск пользователя по email: %w", notFound(err))
	}
	return &u, nil
}

func (s *Storage) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*user.User, error) {
	start := time.Now()
	defer warnSlow("get_users", start)

	if len(ids) == 0 {
		return []*user.User{}, nil
	}

	cursor, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	defer cursor.Close(ctx)

	users := []*user.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("декодирование пользователей: %w", err)
	}
	return users, nil
}
