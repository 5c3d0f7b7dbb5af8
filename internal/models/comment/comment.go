package comment

import (
	"time"

	"projectTracker/internal/models/user"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Comment struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	Content   string             `json:"content" bson:"content"`
	Task      primitive.ObjectID `json:"task" bson:"task"`
	Author    primitive.ObjectID `json:"author" bson:"author"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
	IsEdited  bool               `json:"isEdited" bson:"isEdited"`
}

func New(content string, taskID, author primitive.ObjectID, now time.Time) *Comment {
	return &Comment{
		ID:        primitive.NewObjectIDFromTimestamp(now),
		Content:   content,
		Task:      taskID,
		Author:    author,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// только реальное изменение ставит isEdited и двигает updatedAt
func (c *Comment) Edit(content string, now time.Time) bool {
	if content == c.Content {
		return false
	}
	c.Content = content
	c.IsEdited = true
	if !now.After(c.UpdatedAt) {
		now = c.UpdatedAt.Add(time.Millisecond)
	}
	c.UpdatedAt = now
	return true
}

type View struct {
	ID        primitive.ObjectID `json:"id"`
	Content   string             `json:"content"`
	Task      primitive.ObjectID `json:"task"`
	Author    user.Summary       `json:"author"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
	IsEdited  bool               `json:"isEdited"`
}

func (c *Comment) ToView(author user.Summary) View {
	return View{
		ID:        c.ID,
		Content:   c.Content,
		Task:      c.Task,
		Author:    author,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		IsEdited:  c.IsEdited,
	}
}
