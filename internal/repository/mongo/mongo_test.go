package mongo_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"projectTracker/internal/models/comment"
	"projectTracker/internal/models/project"
	"projectTracker/internal/models/task"
	"projectTracker/internal/models/user"
	"projectTracker/internal/repository"
	"projectTracker/internal/repository/mongo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoTestSuite для интеграционных тестов с MongoDB
type MongoTestSuite struct {
	suite.Suite
	container testcontainers.Container
	storage   *mongo.Storage
	ctx       context.Context
}

// SetupSuite запускается один раз перед всеми тестами
func (s *MongoTestSuite) SetupSuite() {
	s.ctx = context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(s.ctx)
	require.NoError(s.T(), err)

	port, err := container.MappedPort(s.ctx, "27017")
	require.NoError(s.T(), err)

	s.storage, err = mongo.New(s.ctx, mongo.Options{
		URI:      fmt.Sprintf("mongodb://%s:%s", host, port.Port()),
		Database: "tracker_test",
	})
	require.NoError(s.T(), err)
}

// TearDownSuite очищает после всех тестов
func (s *MongoTestSuite) TearDownSuite() {
	if s.storage != nil {
		s.storage.Close(s.ctx)
	}
	if s.container != nil {
		s.container.Terminate(s.ctx)
	}
}

// SetupTest очищает базу перед каждым тестом
func (s *MongoTestSuite) SetupTest() {
	require.NoError(s.T(), s.storage.Drop(s.ctx))
	require.NoError(s.T(), s.storage.EnsureIndexes(s.ctx))
}

func (s *MongoTestSuite) newUser(name string) *user.User {
	now := time.Now().UTC().Truncate(time.Millisecond)
	u := &user.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Email:     user.NormalizeEmail(name + "@example.com"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(s.T(), s.storage.UpsertUser(s.ctx, u))
	return u
}

func (s *MongoTestSuite) newProject(owner primitive.ObjectID, name string) *project.Project {
	p := project.New(name, "", owner, time.Now().UTC())
	require.NoError(s.T(), s.storage.CreateProject(s.ctx, p))
	return p
}

// TestHealthCheck проверяет ping
func (s *MongoTestSuite) TestHealthCheck() {
	assert.NoError(s.T(), s.storage.HealthCheck(s.ctx))
}

// TestUsers тестирует upsert и уникальность email
func (s *MongoTestSuite) TestUsers() {
	t := s.T()
	alice := s.newUser("alice")
	created := alice.CreatedAt

	refreshed := *alice
	refreshed.Name = "Alice L."
	refreshed.CreatedAt = time.Now().Add(time.Hour)
	require.NoError(t, s.storage.UpsertUser(s.ctx, &refreshed))
	assert.True(t, created.Equal(refreshed.CreatedAt), "createdAt не должен меняться")

	got, err := s.storage.GetUserByEmail(s.ctx, " Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice L.", got.Name)

	dup := &user.User{ID: primitive.NewObjectID(), Name: "other", Email: alice.Email}
	assert.ErrorIs(t, s.storage.UpsertUser(s.ctx, dup), repository.ErrConflict)

	_, err = s.storage.GetUserByID(s.ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	users, err := s.storage.GetUsersByIDs(s.ctx, []primitive.ObjectID{alice.ID, primitive.NewObjectID()})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

// TestProjects тестирует CRUD проектов и участников
func (s *MongoTestSuite) TestProjects() {
	t := s.T()
	owner := s.newUser("owner")
	guest := s.newUser("guest")

	first := s.newProject(owner.ID, "first")
	second := s.newProject(owner.ID, "second")

	list, err := s.storage.ListProjectsForUser(s.ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	list, err = s.storage.ListProjectsForUser(s.ctx, guest.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	member := project.Member{User: guest.ID, Role: project.RoleMember, JoinedAt: time.Now().UTC()}
	require.NoError(t, s.storage.AddMember(s.ctx, first.ID, member, time.Now().UTC()))
	assert.ErrorIs(t, s.storage.AddMember(s.ctx, first.ID, member, time.Now().UTC()), repository.ErrConflict)
	assert.ErrorIs(t, s.storage.AddMember(s.ctx, primitive.NewObjectID(), member, time.Now().UTC()), repository.ErrNotFound)

	got, err := s.storage.GetProjectByID(s.ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, got.Members, 2)

	list, err = s.storage.ListProjectsForUser(s.ctx, guest.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)

	got.Apply(time.Now().UTC(), project.WithName("renamed"), project.WithStatus(project.StatusActive))
	got.Members = nil
	require.NoError(t, s.storage.UpdateProject(s.ctx, got))

	updated, err := s.storage.GetProjectByID(s.ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, project.StatusActive, updated.Status)
	assert.Len(t, updated.Members, 2, "участники не должны затираться обновлением")

	require.NoError(t, s.storage.DeleteProject(s.ctx, first.ID))
	assert.ErrorIs(t, s.storage.DeleteProject(s.ctx, first.ID), repository.ErrNotFound)
}

// TestConcurrentAddMember проверяет что дубликат добавляется только один раз
func (s *MongoTestSuite) TestConcurrentAddMember() {
	t := s.T()
	owner := s.newUser("owner")
	guest := s.newUser("guest")
	p := s.newProject(owner.ID, "race")

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			member := project.Member{User: guest.ID, Role: project.RoleMember, JoinedAt: time.Now().UTC()}
			results <- s.storage.AddMember(s.ctx, p.ID, member, time.Now().UTC())
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, repository.ErrConflict)
	}
	assert.Equal(t, 1, succeeded)

	got, err := s.storage.GetProjectByID(s.ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Members, 2)
}

// TestTasks тестирует фильтры и обновление задач
func (s *MongoTestSuite) TestTasks() {
	t := s.T()
	owner := s.newUser("owner")
	alpha := s.newProject(owner.ID, "alpha")
	beta := s.newProject(owner.ID, "beta")

	now := time.Now().UTC()
	assignee := owner.ID
	first := task.New("first", "", alpha.ID, owner.ID, now, task.WithAssignee(&assignee))
	second := task.New("second", "", alpha.ID, owner.ID, now.Add(time.Second), task.WithStatus(task.StatusReview))
	third := task.New("third", "", beta.ID, owner.ID, now.Add(2*time.Second))
	for _, tk := range []*task.Task{first, second, third} {
		require.NoError(t, s.storage.CreateTask(s.ctx, tk))
	}

	tests := []struct {
		name   string
		filter repository.TaskFilter
		want   []primitive.ObjectID
	}{
		{"all", repository.TaskFilter{}, []primitive.ObjectID{third.ID, second.ID, first.ID}},
		{"by project", repository.TaskFilter{Project: &alpha.ID}, []primitive.ObjectID{second.ID, first.ID}},
		{"by status", repository.TaskFilter{Status: task.StatusReview}, []primitive.ObjectID{second.ID}},
		{"by assignee", repository.TaskFilter{AssignedTo: &assignee}, []primitive.ObjectID{first.ID}},
		{"restricted", repository.TaskFilter{Projects: []primitive.ObjectID{beta.ID}}, []primitive.ObjectID{third.ID}},
		{"project outside restriction", repository.TaskFilter{Project: &alpha.ID, Projects: []primitive.ObjectID{beta.ID}}, []primitive.ObjectID{}},
		{"empty restriction", repository.TaskFilter{Projects: []primitive.ObjectID{}}, []primitive.ObjectID{}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			tasks, err := s.storage.ListTasks(s.ctx, tt.filter)
			require.NoError(s.T(), err)
			ids := make([]primitive.ObjectID, 0, len(tasks))
			for _, tk := range tasks {
				ids = append(ids, tk.ID)
			}
			assert.Equal(s.T(), tt.want, ids)
		})
	}

	uploaded := now.Truncate(time.Millisecond)
	first.Apply(time.Now().UTC(), task.WithStatus(task.StatusDone), task.WithAssignee(nil), task.WithTags([]string{"ui"}),
		task.WithAttachments([]task.Attachment{{Name: "logo", URL: "https://files/logo.png", UploadedAt: uploaded}}, now))
	require.NoError(t, s.storage.UpdateTask(s.ctx, first))

	got, err := s.storage.GetTaskByID(s.ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, got.Status)
	assert.Nil(t, got.AssignedTo)
	assert.NotNil(t, got.CompletedAt)
	assert.Equal(t, []string{"ui"}, got.Tags)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "logo", got.Attachments[0].Name)
	assert.True(t, uploaded.Equal(got.Attachments[0].UploadedAt))

	require.NoError(t, s.storage.DeleteTask(s.ctx, first.ID))
	_, err = s.storage.GetTaskByID(s.ctx, first.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// TestComments тестирует порядок и редактирование комментариев
func (s *MongoTestSuite) TestComments() {
	t := s.T()
	owner := s.newUser("owner")
	p := s.newProject(owner.ID, "alpha")
	tk := task.New("task", "", p.ID, owner.ID, time.Now().UTC())
	require.NoError(t, s.storage.CreateTask(s.ctx, tk))

	now := time.Now().UTC()
	older := comment.New("first", tk.ID, owner.ID, now)
	newer := comment.New("second", tk.ID, owner.ID, now.Add(time.Second))
	require.NoError(t, s.storage.CreateComment(s.ctx, newer))
	require.NoError(t, s.storage.CreateComment(s.ctx, older))

	list, err := s.storage.ListCommentsByTask(s.ctx, tk.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, older.ID, list[0].ID)

	require.True(t, older.Edit("edited", now.Add(time.Minute)))
	require.NoError(t, s.storage.UpdateComment(s.ctx, older))

	got, err := s.storage.GetCommentByID(s.ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)
	assert.True(t, got.IsEdited)

	require.NoError(t, s.storage.DeleteComment(s.ctx, older.ID))
	assert.ErrorIs(t, s.storage.DeleteComment(s.ctx, older.ID), repository.ErrNotFound)
}

// TestOrphans проверяет поиск записей без родителя
func (s *MongoTestSuite) TestOrphans() {
	t := s.T()
	owner := s.newUser("owner")
	p := s.newProject(owner.ID, "alpha")

	kept := task.New("kept", "", p.ID, owner.ID, time.Now().UTC())
	orphan := task.New("orphan", "", primitive.NewObjectID(), owner.ID, time.Now().UTC())
	require.NoError(t, s.storage.CreateTask(s.ctx, kept))
	require.NoError(t, s.storage.CreateTask(s.ctx, orphan))

	lost := comment.New("lost", primitive.NewObjectID(), owner.ID, time.Now().UTC())
	fine := comment.New("fine", kept.ID, owner.ID, time.Now().UTC())
	require.NoError(t, s.storage.CreateComment(s.ctx, lost))
	require.NoError(t, s.storage.CreateComment(s.ctx, fine))

	tasks, err := s.storage.ListOrphanTasks(s.ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, orphan.ID, tasks[0].ID)

	comments, err := s.storage.ListOrphanComments(s.ctx, 10)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, lost.ID, comments[0].ID)

	tasks, err = s.storage.ListOrphanTasks(s.ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

// TestMongoSuite запускает все тесты
func TestMongoSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционные тесты в short режиме")
	}
	suite.Run(t, new(MongoTestSuite))
}
