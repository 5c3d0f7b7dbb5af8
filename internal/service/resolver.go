package service

import (
	"context"
	"fmt"
	"time"

	"projectTracker/internal/models/comment"
	"projectTracker/internal/models/project"
	"projectTracker/internal/models/task"
	"projectTracker/internal/models/user"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ссылки на удаленных пользователей и проекты остаются только с id
type resolver struct {
	users    UserRepository
	projects ProjectRepository
}

func (r resolver) summaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]user.Summary, error) {
	lookup := make(map[primitive.ObjectID]user.Summary, len(ids))
	if len(ids) == 0 {
		return lookup, nil
	}

	users, err := r.users.GetUsersByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("разрешение пользователей: %w", err)
	}
	for _, u := range users {
		lookup[u.ID] = u.Summary()
	}
	return lookup, nil
}

func (r resolver) project(ctx context.Context, p *project.Project) (project.View, error) {
	views, err := r.projectList(ctx, []*project.Project{p})
	if err != nil {
		return project.View{}, err
	}
	return views[0], nil
}

func (r resolver) projectList(ctx context.Context, projects []*project.Project) ([]project.View, error) {
	var ids []primitive.ObjectID
	for _, p := range projects {
		ids = append(ids, p.Owner)
		ids = append(ids, p.UserIDs()...)
	}

	lookup, err := r.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]project.View, 0, len(projects))
	for _, p := range projects {
		views = append(views, p.ToView(lookup))
	}
	return views, nil
}

func (r resolver) task(ctx context.Context, t *task.Task, now time.Time) (task.View, error) {
	views, err := r.taskList(ctx, []*task.Task{t}, now)
	if err != nil {
		return task.View{}, err
	}
	return views[0], nil
}

func (r resolver) taskList(ctx context.Context, tasks []*task.Task, now time.Time) ([]task.View, error) {
	var projectIDs, userIDs []primitive.ObjectID
	for _, t := range tasks {
		projectIDs = append(projectIDs, t.Project)
		userIDs = append(userIDs, t.CreatedBy)
		if t.AssignedTo != nil {
			userIDs = append(userIDs, *t.AssignedTo)
		}
	}

	refs := make(map[primitive.ObjectID]project.Ref)
	if len(projectIDs) > 0 {
		projects, err := r.projects.GetProjectsByIDs(ctx, uniqueIDs(projectIDs))
		if err != nil {
			return nil, fmt.Errorf("разрешение проектов: %w", err)
		}
		for _, p := range projects {
			refs[p.ID] = p.Ref()
		}
	}

	lookup, err := r.summaries(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	views := make([]task.View, 0, len(tasks))
	for _, t := range tasks {
		ref, ok := refs[t.Project]
		if !ok {
			ref = project.Ref{ID: t.Project}
		}
		views = append(views, t.ToView(ref, lookup, now))
	}
	return views, nil
}

func (r resolver) comment(ctx context.Context, c *comment.Comment) (comment.View, error) {
	views, err := r.commentList(ctx, []*comment.Comment{c})
	if err != nil {
		return comment.View{}, err
	}
	return views[0], nil
}

func (r resolver) commentList(ctx context.Context, comments []*comment.Comment) ([]comment.View, error) {
	ids := make([]primitive.ObjectID, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.Author)
	}

	lookup, err := r.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]comment.View, 0, len(comments))
	for _, c := range comments {
		author, ok := lookup[c.Author]
		if !ok {
			author = user.Unresolved(c.Author)
		}
		views = append(views, c.ToView(author))
	}
	return views, nil
}

func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	res := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	return res
}
