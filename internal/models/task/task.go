package task

import (
	"strings"
	"time"

	"projectTracker/internal/models/project"
	"projectTracker/internal/models/user"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Task struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id"`
	Title       string              `json:"title" bson:"title"`
	Description string              `json:"description" bson:"description"`
	Project     primitive.ObjectID  `json:"project" bson:"project"`
	AssignedTo  *primitive.ObjectID `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	CreatedBy   primitive.ObjectID  `json:"createdBy" bson:"createdBy"`
	Status      Status              `json:"status" bson:"status"`
	Priority    Priority            `json:"priority" bson:"priority"`
	DueDate     *time.Time          `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	Tags        []string            `json:"tags" bson:"tags"`
	Attachments []Attachment        `json:"attachments" bson:"attachments"`
	CreatedAt   time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt" bson:"updatedAt"`
	CompletedAt *time.Time          `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
}

type Attachment struct {
	Name       string    `json:"name" bson:"name"`
	URL        string    `json:"url" bson:"url"`
	UploadedAt time.Time `json:"uploadedAt" bson:"uploadedAt"`
}

type Status string
type Priority string

const StatusTodo Status = "todo"
const StatusInProgress Status = "in-progress"
const StatusReview Status = "review"
const StatusDone Status = "done"

const PriorityLow Priority = "low"
const PriorityMedium Priority = "medium"
const PriorityHigh Priority = "high"
const PriorityUrgent Priority = "urgent"

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// пустые status и priority дают todo и medium
func New(title, description string, projectID, createdBy primitive.ObjectID, now time.Time, options ...TaskOption) *Task {
	t := &Task{
		ID:          primitive.NewObjectIDFromTimestamp(now),
		Title:       title,
		Description: description,
		Project:     projectID,
		CreatedBy:   createdBy,
		Status:      StatusTodo,
		Priority:    PriorityMedium,
		Tags:        []string{},
		Attachments: []Attachment{},
		CreatedAt:   now,
	}
	t.Apply(now, options...)
	return t
}

// после опций ставится updatedAt и один раз completedAt
func (t *Task) Apply(now time.Time, options ...TaskOption) {
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(t)
	}
	t.UpdatedAt = now
	if t.Status == StatusDone && t.CompletedAt == nil {
		completed := now
		t.CompletedAt = &completed
	}
}

func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status != StatusDone && t.DueDate != nil && t.DueDate.Before(now)
}

// trim, без пустых и повторов, порядок сохраняется
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	res := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		res = append(res, tag)
	}
	return res
}

type View struct {
	ID          primitive.ObjectID `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Project     project.Ref        `json:"project"`
	AssignedTo  *user.Summary      `json:"assignedTo,omitempty"`
	CreatedBy   user.Summary       `json:"createdBy"`
	Status      Status             `json:"status"`
	Priority    Priority           `json:"priority"`
	DueDate     *time.Time         `json:"dueDate,omitempty"`
	Tags        []string           `json:"tags"`
	Attachments []Attachment       `json:"attachments"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	CompletedAt *time.Time         `json:"completedAt,omitempty"`
	IsOverdue   bool               `json:"isOverdue"`
}

func (t *Task) ToView(ref project.Ref, lookup map[primitive.ObjectID]user.Summary, now time.Time) View {
	resolve := func(id primitive.ObjectID) user.Summary {
		if s, ok := lookup[id]; ok {
			return s
		}
		return user.Unresolved(id)
	}

	var assignee *user.Summary
	if t.AssignedTo != nil {
		s := resolve(*t.AssignedTo)
		assignee = &s
	}

	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	attachments := t.Attachments
	if attachments == nil {
		attachments = []Attachment{}
	}

	return View{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Project:     ref,
		AssignedTo:  assignee,
		CreatedBy:   resolve(t.CreatedBy),
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		Tags:        tags,
		Attachments: attachments,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		CompletedAt: t.CompletedAt,
		IsOverdue:   t.IsOverdue(now),
	}
}
