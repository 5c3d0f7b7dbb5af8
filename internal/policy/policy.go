package policy

import (
	"projectTracker/internal/models/comment"
	"projectTracker/internal/models/project"
	"projectTracker/internal/models/task"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func CanReadProject(userID primitive.ObjectID, p *project.Project) bool {
	if p == nil {
		return false
	}
	return p.IsOwner(userID) || p.HasMember(userID)
}

func CanMutateProjectMembership(userID primitive.ObjectID, p *project.Project) bool {
	if p == nil {
		return false
	}
	if p.IsOwner(userID) {
		return true
	}
	role, ok := p.MemberRole(userID)
	return ok && (role == project.RoleOwner || role == project.RoleAdmin)
}

func CanUpdateProject(userID primitive.ObjectID, p *project.Project) bool {
	return CanMutateProjectMembership(userID, p)
}

func CanDeleteProject(userID primitive.ObjectID, p *project.Project) bool {
	return p != nil && p.IsOwner(userID)
}

func CanCreateTaskIn(userID primitive.ObjectID, p *project.Project) bool {
	return CanReadProject(userID, p)
}

func CanReadTask(userID primitive.ObjectID, _ *task.Task, p *project.Project) bool {
	return CanReadProject(userID, p)
}

// любой участник может менять любую задачу проекта
func CanMutateTask(userID primitive.ObjectID, _ *task.Task, p *project.Project) bool {
	return CanReadProject(userID, p)
}

func CanDeleteTask(userID primitive.ObjectID, t *task.Task, p *project.Project) bool {
	if t == nil || p == nil {
		return false
	}
	return p.IsOwner(userID) || t.CreatedBy == userID
}

// только автор, у владельца проекта прав нет
func CanMutateComment(userID primitive.ObjectID, c *comment.Comment) bool {
	return c != nil && c.Author == userID
}

func CanDeleteComment(userID primitive.ObjectID, c *comment.Comment) bool {
	return CanMutateComment(userID, c)
}
