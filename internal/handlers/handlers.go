package handlers

import (
	"context"
	"net/http"

	"projectTracker/internal/auth"
	"projectTracker/internal/event"
	"projectTracker/internal/logger"
	"projectTracker/internal/models/comment"
	"projectTracker/internal/models/project"
	"projectTracker/internal/models/task"
	"projectTracker/internal/models/user"
	"projectTracker/internal/service"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ProjectService interface {
	Create(ctx context.Context, caller primitive.ObjectID, in service.CreateProjectInput) (project.View, []event.Event, error)
	List(ctx context.Context, caller primitive.ObjectID) ([]project.View, error)
	Get(ctx context.Context, caller primitive.ObjectID, id string) (project.View, error)
	Update(ctx context.Context, caller primitive.ObjectID, id string, in service.UpdateProjectInput) (project.View, []event.Event, error)
	Delete(ctx context.Context, caller primitive.ObjectID, id string) ([]event.Event, error)
	AddMember(ctx context.Context, caller primitive.ObjectID, id string, in service.AddMemberInput) (project.View, []event.Event, error)
}

type TaskService interface {
	Create(ctx context.Context, caller primitive.ObjectID, in service.CreateTaskInput) (task.View, []event.Event, error)
	List(ctx context.Context, caller primitive.ObjectID, q service.TaskQuery) ([]task.View, error)
	Get(ctx context.Context, caller primitive.ObjectID, id string) (task.View, error)
	Update(ctx context.Context, caller primitive.ObjectID, id string, in service.UpdateTaskInput) (task.View, []event.Event, error)
	Delete(ctx context.Context, caller primitive.ObjectID, id string) ([]event.Event, error)
}

type CommentService interface {
	Create(ctx context.Context, caller primitive.ObjectID, in service.CreateCommentInput) (comment.View, []event.Event, error)
	List(ctx context.Context, caller primitive.ObjectID, taskID string) ([]comment.View, error)
	Update(ctx context.Context, caller primitive.ObjectID, id, content string) (comment.View, []event.Event, error)
	Delete(ctx context.Context, caller primitive.ObjectID, id string) ([]event.Event, error)
}

type UserService interface {
	Me(ctx context.Context, caller primitive.ObjectID) (user.Summary, error)
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// не блокирует и не возвращает ошибок
type Publisher interface {
	Publish(event.Event)
}

type publisher struct {
	pub Publisher
}

func (p publisher) publish(events []event.Event) {
	if p.pub == nil {
		return
	}
	for _, ev := range events {
		logger.Debug("HTTP: Публикация события",
			zap.String("event", string(ev.Kind)),
			zap.String("channel", ev.Channel))
		p.pub.Publish(ev)
	}
}

// пользователь кладется в контекст в middleware.Authenticate
func caller(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		logger.Warn("HTTP: Запрос без пользователя",
			zap.String("path", r.URL.Path),
			zap.String("client_ip", r.RemoteAddr))

		responseWithJSON(w, http.StatusUnauthorized,
			toPayload("success", false),
			toPayload("code", service.CodeUnauthenticated),
			toPayload("message", "Требуется аутентификация"),
		)
		return primitive.NilObjectID, false
	}
	return identity.UserID, true
}
