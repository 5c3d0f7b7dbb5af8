package service

import (
	"context"
	"time"

	"projectTracker/internal/models/comment"
	"projectTracker/internal/models/project"
	"projectTracker/internal/models/task"
	"projectTracker/internal/models/user"
	"projectTracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	UpsertUser(context.Context, *user.User) error
	GetUserByID(context.Context, primitive.ObjectID) (*user.User, error)
	GetUserByEmail(context.Context, string) (*user.User, error)
	GetUsersByIDs(context.Context, []primitive.ObjectID) ([]*user.User, error)
}

type ProjectRepository interface {
	CreateProject(context.Context, *project.Project) error
	GetProjectByID(context.Context, primitive.ObjectID) (*project.Project, error)
	GetProjectsByIDs(context.Context, []primitive.ObjectID) ([]*project.Project, error)
	ListProjectsForUser(context.Context, primitive.ObjectID) ([]*project.Project, error)
	// только редактируемые поля, members не трогаются
	UpdateProject(context.Context, *project.Project) error
	// атомарно, repository.ErrConflict если пользователь уже в списке
	AddMember(context.Context, primitive.ObjectID, project.Member, time.Time) error
	DeleteProject(context.Context, primitive.ObjectID) error
}

type TaskRepository interface {
	CreateTask(context.Context, *task.Task) error
	GetTaskByID(context.Context, primitive.ObjectID) (*task.Task, error)
	ListTasks(context.Context, repository.TaskFilter) ([]*task.Task, error)
	UpdateTask(context.Context, *task.Task) error
	DeleteTask(context.Context, primitive.ObjectID) error
}

type CommentRepository interface {
	CreateComment(context.Context, *comment.Comment) error
	GetCommentByID(context.Context, primitive.ObjectID) (*comment.Comment, error)
	ListCommentsByTask(context.Context, primitive.ObjectID) ([]*comment.Comment, error)
	UpdateComment(context.Context, *comment.Comment) error
	DeleteComment(context.Context, primitive.ObjectID) error
}

type OrphanRepository interface {
	ListOrphanTasks(context.Context, int) ([]*task.Task, error)
	ListOrphanComments(context.Context, int) ([]*comment.Comment, error)
	DeleteTask(context.Context, primitive.ObjectID) error
	DeleteComment(context.Context, primitive.ObjectID) error
}

type Store interface {
	UserRepository
	ProjectRepository
	TaskRepository
	CommentRepository
	OrphanRepository
	HealthCheck(context.Context) error
	Close(context.Context) error
}
