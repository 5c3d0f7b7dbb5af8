package task

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskOption func(*Task)

func WithTitle(title string) TaskOption {
	return func(task *Task) {
		task.Title = title
	}
}

func WithDescription(description string) TaskOption {
	return func(task *Task) {
		task.Description = description
	}
}

func WithStatus(status Status) TaskOption {
	if status == "" {
		return nil
	}
	return func(task *Task) {
		task.Status = status
	}
}

func WithPriority(priority Priority) TaskOption {
	if priority == "" {
		return nil
	}
	return func(task *Task) {
		task.Priority = priority
	}
}

// nil снимает исполнителя
func WithAssignee(userID *primitive.ObjectID) TaskOption {
	return func(task *Task) {
		task.AssignedTo = userID
	}
}

func WithDueDate(dueDate *time.Time) TaskOption {
	return func(task *Task) {
		task.DueDate = dueDate
	}
}

func WithTags(tags []string) TaskOption {
	return func(task *Task) {
		task.Tags = NormalizeTags(tags)
	}
}

// пустое время загрузки заполняется now
func WithAttachments(items []Attachment, now time.Time) TaskOption {
	return func(task *Task) {
		res := make([]Attachment, 0, len(items))
		for _, a := range items {
			a.Name = strings.TrimSpace(a.Name)
			a.URL = strings.TrimSpace(a.URL)
			if a.UploadedAt.IsZero() {
				a.UploadedAt = now
			}
			res = append(res, a)
		}
		task.Attachments = res
	}
}
