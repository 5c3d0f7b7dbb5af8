package project

import (
	"time"

	"projectTracker/internal/models/user"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string
type Status string

const RoleOwner Role = "owner"
const RoleAdmin Role = "admin"
const RoleMember Role = "member"

const StatusPlanning Status = "planning"
const StatusActive Status = "active"
const StatusOnHold Status = "on-hold"
const StatusCompleted Status = "completed"

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	switch s {
	case StatusPlanning, StatusActive, StatusOnHold, StatusCompleted:
		return true
	}
	return false
}

type Member struct {
	User     primitive.ObjectID `json:"user" bson:"user"`
	Role     Role               `json:"role" bson:"role"`
	JoinedAt time.Time          `json:"joinedAt" bson:"joinedAt"`
}

type Project struct {
	ID          primitive.ObjectID `json:"id" bson:"_id"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	Owner       primitive.ObjectID `json:"owner" bson:"owner"`
	Members     []Member           `json:"members" bson:"members"`
	Status      Status             `json:"status" bson:"status"`
	StartDate   *time.Time         `json:"startDate,omitempty" bson:"startDate,omitempty"`
	EndDate     *time.Time         `json:"endDate,omitempty" bson:"endDate,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// владелец сразу становится первым участником
func New(name, description string, owner primitive.ObjectID, now time.Time) *Project {
	return &Project{
		ID:          primitive.NewObjectIDFromTimestamp(now),
		Name:        name,
		Description: description,
		Owner:       owner,
		Members: []Member{
			{User: owner, Role: RoleOwner, JoinedAt: now},
		},
		Status:    StatusPlanning,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (p *Project) IsOwner(userID primitive.ObjectID) bool {
	return p.Owner == userID
}

func (p *Project) MemberRole(userID primitive.ObjectID) (Role, bool) {
	for _, m := range p.Members {
		if m.User == userID {
			return m.Role, true
		}
	}
	return "", false
}

func (p *Project) HasMember(userID primitive.ObjectID) bool {
	_, ok := p.MemberRole(userID)
	return ok
}

// владелец и участники без повторов
func (p *Project) UserIDs() []primitive.ObjectID {
	seen := map[primitive.ObjectID]struct{}{p.Owner: {}}
	ids := []primitive.ObjectID{p.Owner}
	for _, m := range p.Members {
		if _, ok := seen[m.User]; ok {
			continue
		}
		seen[m.User] = struct{}{}
		ids = append(ids, m.User)
	}
	return ids
}

type Ref struct {
	ID   primitive.ObjectID `json:"id"`
	Name string             `json:"name"`
}

func (p *Project) Ref() Ref {
	return Ref{ID: p.ID, Name: p.Name}
}

type MemberView struct {
	User     user.Summary `json:"user"`
	Role     Role         `json:"role"`
	JoinedAt time.Time    `json:"joinedAt"`
}

type View struct {
	ID          primitive.ObjectID `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Owner       user.Summary       `json:"owner"`
	Members     []MemberView       `json:"members"`
	Status      Status             `json:"status"`
	StartDate   *time.Time         `json:"startDate,omitempty"`
	EndDate     *time.Time         `json:"endDate,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// отсутствующие пользователи остаются только с id
func (p *Project) ToView(lookup map[primitive.ObjectID]user.Summary) View {
	resolve := func(id primitive.ObjectID) user.Summary {
		if s, ok := lookup[id]; ok {
			return s
		}
		return user.Unresolved(id)
	}

	members := make([]MemberView, 0, len(p.Members))
	for _, m := range p.Members {
		members = append(members, MemberView{
			User:     resolve(m.User),
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		})
	}

	return View{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Owner:       resolve(p.Owner),
		Members:     members,
		Status:      p.Status,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
