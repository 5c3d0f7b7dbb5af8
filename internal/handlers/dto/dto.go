package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"projectTracker/internal/models/task"
	"projectTracker/internal/service"
)

// отличает отсутствующее поле от явного null
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

const dateLayout = "2006-01-02"

// RFC 3339 или YYYY-MM-DD, пустая строка и null означают отсутствие даты
type Date struct {
	Time *time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		d.Time = nil
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("дата должна быть строкой: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		d.Time = nil
		return nil
	}

	for _, layout := range []string{time.RFC3339Nano, dateLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			d.Time = &t
			return nil
		}
	}
	return fmt.Errorf("неверный формат даты %q", raw)
}

func (d *Date) Ptr() *time.Time {
	if d == nil {
		return nil
	}
	return d.Time
}

func dateField(o Optional[Date]) service.Field[*time.Time] {
	if !o.Set {
		return service.Field[*time.Time]{}
	}
	return service.Value(o.Value.Time)
}

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	StartDate   *Date  `json:"startDate"`
	EndDate     *Date  `json:"endDate"`
}

func (r CreateProjectRequest) Input() service.CreateProjectInput {
	return service.CreateProjectInput{
		Name:        r.Name,
		Description: r.Description,
		Status:      r.Status,
		StartDate:   r.StartDate.Ptr(),
		EndDate:     r.EndDate.Ptr(),
	}
}

type UpdateProjectRequest struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Status      *string        `json:"status"`
	StartDate   Optional[Date] `json:"startDate"`
	EndDate     Optional[Date] `json:"endDate"`
}

func (r UpdateProjectRequest) Input() service.UpdateProjectInput {
	return service.UpdateProjectInput{
		Name:        r.Name,
		Description: r.Description,
		Status:      r.Status,
		StartDate:   dateField(r.StartDate),
		EndDate:     dateField(r.EndDate),
	}
}

type AddMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (r AddMemberRequest) Input() service.AddMemberInput {
	return service.AddMemberInput{Email: r.Email, Role: r.Role}
}

// createdBy нет: автором всегда становится вызывающий пользователь
type CreateTaskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Project     string   `json:"project"`
	AssignedTo  string   `json:"assignedTo"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	DueDate     *Date    `json:"dueDate"`
	Tags        []string `json:"tags"`

	Attachments []AttachmentRequest `json:"attachments"`
}

type AttachmentRequest struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	UploadedAt *Date  `json:"uploadedAt"`
}

func attachments(items []AttachmentRequest) []task.Attachment {
	res := make([]task.Attachment, 0, len(items))
	for _, a := range items {
		item := task.Attachment{Name: a.Name, URL: a.URL}
		if at := a.UploadedAt.Ptr(); at != nil {
			item.UploadedAt = *at
		}
		res = append(res, item)
	}
	return res
}

func (r CreateTaskRequest) Input() service.CreateTaskInput {
	return service.CreateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		Project:     r.Project,
		AssignedTo:  r.AssignedTo,
		Status:      r.Status,
		Priority:    r.Priority,
		DueDate:     r.DueDate.Ptr(),
		Tags:        r.Tags,
		Attachments: attachments(r.Attachments),
	}
}

type UpdateTaskRequest struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	AssignedTo  Optional[string]   `json:"assignedTo"`
	Status      *string            `json:"status"`
	Priority    *string            `json:"priority"`
	DueDate     Optional[Date]     `json:"dueDate"`
	Tags        Optional[[]string] `json:"tags"`

	Attachments Optional[[]AttachmentRequest] `json:"attachments"`
}

func (r UpdateTaskRequest) Input() service.UpdateTaskInput {
	in := service.UpdateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		DueDate:     dateField(r.DueDate),
	}
	if r.AssignedTo.Set {
		in.AssignedTo = service.Value(r.AssignedTo.Value)
	}
	if r.Tags.Set {
		in.Tags = service.Value(r.Tags.Value)
	}
	if r.Attachments.Set {
		in.Attachments = service.Value(attachments(r.Attachments.Value))
	}
	return in
}

type CreateCommentRequest struct {
	Task    string `json:"task"`
	Content string `json:"content"`
}

func (r CreateCommentRequest) Input() service.CreateCommentInput {
	return service.CreateCommentInput{Task: r.Task, Content: r.Content}
}

type UpdateCommentRequest struct {
	Content string `json:"content"`
}
