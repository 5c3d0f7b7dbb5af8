package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"projectTracker/internal/auth"
	"projectTracker/internal/event"
	"projectTracker/internal/handlers"
	"projectTracker/internal/models/comment"
	"projectTracker/internal/models/project"
	"projectTracker/internal/models/task"
	"projectTracker/internal/models/user"
	"projectTracker/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockProjectService - мок сервиса проектов
type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) Create(ctx context.Context, caller primitive.ObjectID, in service.CreateProjectInput) (project.View, []event.Event, error) {
	args := m.Called(ctx, caller, in)
	return args.Get(0).(project.View), args.Get(1).([]event.Event), args.Error(2)
}

func (m *MockProjectService) List(ctx context.Context, caller primitive.ObjectID) ([]project.View, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).([]project.View), args.Error(1)
}

func (m *MockProjectService) Get(ctx context.Context, caller primitive.ObjectID, id string) (project.View, error) {
	args := m.Called(ctx, caller, id)
	return args.Get(0).(project.View), args.Error(1)
}

func (m *MockProjectService) Update(ctx context.Context, caller primitive.ObjectID, id string, in service.UpdateProjectInput) (project.View, []event.Event, error) {
	args := m.Called(ctx, caller, id, in)
	return args.Get(0).(project.View), args.Get(1).([]event.Event), args.Error(2)
}

func (m *MockProjectService) Delete(ctx context.Context, caller primitive.ObjectID, id string) ([]event.Event, error) {
	args := m.Called(ctx, caller, id)
	return args.Get(0).([]event.Event), args.Error(1)
}

func (m *MockProjectService) AddMember(ctx context.Context, caller primitive.ObjectID, id string, in service.AddMemberInput) (project.View, []event.Event, error) {
	args := m.Called(ctx, caller, id, in)
	return args.Get(0).(project.View), args.Get(1).([]event.Event), args.Error(2)
}

// MockTaskService - мок сервиса задач
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) Create(ctx context.Context, caller primitive.ObjectID, in service.CreateTaskInput) (task.View, []event.Event, error) {
	args := m.Called(ctx, caller, in)
	return args.Get(0).(task.View), args.Get(1).([]event.Event), args.Error(2)
}

func (m *MockTaskService) List(ctx context.Context, caller primitive.ObjectID, q service.TaskQuery) ([]task.View, error) {
	args := m.Called(ctx, caller, q)
	return args.Get(0).([]task.View), args.Error(1)
}

func (m *MockTaskService) Get(ctx context.Context, caller primitive.ObjectID, id string) (task.View, error) {
	args := m.Called(ctx, caller, id)
	return args.Get(0).(task.View), args.Error(1)
}

func (m *MockTaskService) Update(ctx context.Context, caller primitive.ObjectID, id string, in service.UpdateTaskInput) (task.View, []event.Event, error) {
	args := m.Called(ctx, caller, id, in)
	return args.Get(0).(task.View), args.Get(1).([]event.Event), args.Error(2)
}

func (m *MockTaskService) Delete(ctx context.Context, caller primitive.ObjectID, id string) ([]event.Event, error) {
	args := m.Called(ctx, caller, id)
	return args.Get(0).([]event.Event), args.Error(1)
}

// MockCommentService - мок сервиса комментариев
type MockCommentService struct {
	mock.Mock
}

func (m *MockCommentService) Create(ctx context.Context, caller primitive.ObjectID, in service.CreateCommentInput) (comment.View, []event.Event, error) {
	args := m.Called(ctx, caller, in)
	return args.Get(0).(comment.View), args.Get(1).([]event.Event), args.Error(2)
}

func (m *MockCommentService) List(ctx context.Context, caller primitive.ObjectID, taskID string) ([]comment.View, error) {
	args := m.Called(ctx, caller, taskID)
	return args.Get(0).([]comment.View), args.Error(1)
}

func (m *MockCommentService) Update(ctx context.Context, caller primitive.ObjectID, id, content string) (comment.View, []event.Event, error) {
	args := m.Called(ctx, caller, id, content)
	return args.Get(0).(comment.View), args.Get(1).([]event.Event), args.Error(2)
}

func (m *MockCommentService) Delete(ctx context.Context, caller primitive.ObjectID, id string) ([]event.Event, error) {
	args := m.Called(ctx, caller, id)
	return args.Get(0).([]event.Event), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Me(ctx context.Context, caller primitive.ObjectID) (user.Summary, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).(user.Summary), args.Error(1)
}

type MockHealth struct {
	mock.Mock
}

func (m *MockHealth) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var (
	_ handlers.ProjectService = (*MockProjectService)(nil)
	_ handlers.TaskService    = (*MockTaskService)(nil)
	_ handlers.CommentService = (*MockCommentService)(nil)
	_ handlers.UserService    = (*MockUserService)(nil)
)

// recorder запоминает опубликованные события
type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) Publish(ev event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.events...)
}

type fixture struct {
	projects *MockProjectService
	tasks    *MockTaskService
	comments *MockCommentService
	users    *MockUserService
	health   *MockHealth
	pub      *recorder
	router   *chi.Mux
}

// newFixture собирает роутер так же, как приложение, но вместо проверки
// токена кладет в контекст фиксированного пользователя.
func newFixture(callerID primitive.ObjectID) *fixture {
	f := &fixture{
		projects: new(MockProjectService),
		tasks:    new(MockTaskService),
		comments: new(MockCommentService),
		users:    new(MockUserService),
		health:   new(MockHealth),
		pub:      &recorder{},
	}

	projectHandler := handlers.NewProjectHandler(f.projects, f.pub)
	taskHandler := handlers.NewTaskHandler(f.tasks, f.pub)
	commentHandler := handlers.NewCommentHandler(f.comments, f.pub)
	userHandler := handlers.NewUserHandler(f.users, f.health)

	r := chi.NewRouter()
	r.Get("/health", userHandler.HealthCheck)
	r.Group(func(r chi.Router) {
		if !callerID.IsZero() {
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					ctx := auth.WithIdentity(req.Context(), auth.Identity{UserID: callerID})
					next.ServeHTTP(w, req.WithContext(ctx))
				})
			})
		}
		r.Get("/users/me", userHandler.Me)
		r.Get("/projects", projectHandler.ListProjects)
		r.Post("/projects", projectHandler.CreateProject)
		r.Get("/projects/{id}", projectHandler.GetProject)
		r.Put("/projects/{id}", projectHandler.UpdateProject)
		r.Delete("/projects/{id}", projectHandler.DeleteProject)
		r.Post("/projects/{id}/members", projectHandler.AddMember)
		r.Get("/tasks", taskHandler.ListTasks)
		r.Post("/tasks", taskHandler.CreateTask)
		r.Get("/tasks/{id}", taskHandler.GetTask)
		r.Put("/tasks/{id}", taskHandler.UpdateTask)
		r.Delete("/tasks/{id}", taskHandler.DeleteTask)
		r.Get("/comments", commentHandler.ListComments)
		r.Post("/comments", commentHandler.CreateComment)
		r.Put("/comments/{id}", commentHandler.UpdateComment)
		r.Delete("/comments/{id}", commentHandler.DeleteComment)
	})
	f.router = r
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response
}

// TestProjectHandler_CreateProject тестирует создание проекта
func TestProjectHandler_CreateProject(t *testing.T) {
	callerID := primitive.NewObjectID()
	projectID := primitive.NewObjectID()
	view := project.View{ID: projectID, Name: "Alpha", Status: project.StatusPlanning}
	created := event.Event{Kind: event.ProjectCreated, Channel: event.ChannelKey(projectID), Payload: view, Broadcast: true}

	tests := []struct {
		name           string
		body           string
		contentType    string
		setupMock      func(*MockProjectService)
		expectedStatus int
		expectedEvents int
	}{
		{
			name:        "success - create project",
			body:        `{"name":"Alpha","description":"first","startDate":"2025-01-10"}`,
			contentType: "application/json",
			setupMock: func(m *MockProjectService) {
				start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
				m.On("Create", mock.Anything, callerID, service.CreateProjectInput{
					Name:        "Alpha",
					Description: "first",
					StartDate:   &start,
				}).Return(view, []event.Event{created}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedEvents: 1,
		},
		{
			name:           "error - invalid content type",
			body:           `{}`,
			contentType:    "text/plain",
			setupMock:      func(m *MockProjectService) {},
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "error - invalid JSON",
			body:           `{invalid json}`,
			contentType:    "application/json",
			setupMock:      func(m *MockProjectService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - invalid date",
			body:           `{"name":"Alpha","startDate":"next week"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockProjectService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "error - validation",
			body:        `{"name":""}`,
			contentType: "application/json",
			setupMock: func(m *MockProjectService) {
				m.On("Create", mock.Anything, callerID, mock.Anything).
					Return(project.View{}, []event.Event(nil), service.NewValidationError("name", "обязательное поле"))
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(callerID)
			tt.setupMock(f.projects)

			req := httptest.NewRequest("POST", "/projects", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			f.router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Len(t, f.pub.Events(), tt.expectedEvents)

			response := decode(t, w)
			if tt.expectedStatus == http.StatusCreated {
				assert.Equal(t, true, response["success"])
				data := response["data"].(map[string]any)
				assert.Equal(t, projectID.Hex(), data["id"])
				assert.Equal(t, "Alpha", data["name"])
			} else {
				assert.Equal(t, false, response["success"])
				assert.NotEmpty(t, response["message"])
			}

			f.projects.AssertExpectations(t)
		})
	}
}

// TestHandlers_ErrorMapping тестирует соответствие бизнес-ошибок HTTP статусам
func TestHandlers_ErrorMapping(t *testing.T) {
	callerID := primitive.NewObjectID()
	projectID := primitive.NewObjectID()

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"invalid argument", service.NewInvalidArgument("неверный идентификатор"), http.StatusBadRequest, service.CodeInvalidArgument},
		{"forbidden", service.NewForbidden("просмотр проекта"), http.StatusForbidden, service.CodeForbidden},
		{"not found", service.NewNotFound(service.ResourceProject, projectID.Hex()), http.StatusNotFound, service.CodeNotFound},
		{"conflict", service.NewConflict("уже участник"), http.StatusBadRequest, service.CodeConflict},
		{"unauthenticated", service.NewUnauthenticated("нет пользователя"), http.StatusUnauthorized, service.CodeUnauthenticated},
		{"store failure", errors.New("connection refused"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(callerID)
			f.projects.On("Get", mock.Anything, callerID, projectID.Hex()).Return(project.View{}, tt.err)

			w := f.do("GET", "/projects/"+projectID.Hex(), "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			response := decode(t, w)
			assert.Equal(t, false, response["success"])
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, response["code"])
			} else {
				assert.NotContains(t, w.Body.String(), "connection refused")
			}
		})
	}
}

// TestHandlers_Unauthenticated проверяет, что без пользователя в контексте сервисы не вызываются
func TestHandlers_Unauthenticated(t *testing.T) {
	f := newFixture(primitive.NilObjectID)

	for _, path := range []string{"/projects", "/tasks", "/comments?task=x", "/users/me"} {
		w := f.do("GET", path, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	f.projects.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	f.tasks.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

// TestProjectHandler_AddMember тестирует добавление участника
func TestProjectHandler_AddMember(t *testing.T) {
	callerID := primitive.NewObjectID()
	projectID := primitive.NewObjectID()
	f := newFixture(callerID)

	view := project.View{ID: projectID, Members: []project.MemberView{{Role: project.RoleOwner}, {Role: project.RoleMember}}}
	f.projects.On("AddMember", mock.Anything, callerID, projectID.Hex(), service.AddMemberInput{Email: "bob@example.com"}).
		Return(view, []event.Event{event.ForProject(event.ProjectMemberAdded, projectID, view)}, nil).Once()
	f.projects.On("AddMember", mock.Anything, callerID, projectID.Hex(), service.AddMemberInput{Email: "bob@example.com"}).
		Return(project.View{}, []event.Event(nil), service.NewConflict("пользователь уже участник проекта")).Once()

	w := f.do("POST", "/projects/"+projectID.Hex()+"/members", `{"email":"bob@example.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do("POST", "/projects/"+projectID.Hex()+"/members", `{"email":"bob@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.CodeConflict, decode(t, w)["code"])

	events := f.pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, event.ProjectMemberAdded, events[0].Kind)
	f.projects.AssertExpectations(t)
}

// TestProjectHandler_UpdateProject проверяет разбор частичного обновления
func TestProjectHandler_UpdateProject(t *testing.T) {
	callerID := primitive.NewObjectID()
	projectID := primitive.NewObjectID()
	f := newFixture(callerID)

	name := "Beta"
	f.projects.On("Update", mock.Anything, callerID, projectID.Hex(), mock.MatchedBy(func(in service.UpdateProjectInput) bool {
		return in.Name != nil && *in.Name == name &&
			in.Description == nil &&
			in.EndDate.Set && in.EndDate.Value == nil &&
			!in.StartDate.Set
	})).Return(project.View{ID: projectID, Name: name}, []event.Event{event.ForProject(event.ProjectUpdated, projectID, nil)}, nil)

	w := f.do("PUT", "/projects/"+projectID.Hex(), `{"name":"Beta","endDate":null}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, f.pub.Events(), 1)
	f.projects.AssertExpectations(t)
}

// TestProjectHandler_DeleteProject тестирует удаление проекта
func TestProjectHandler_DeleteProject(t *testing.T) {
	callerID := primitive.NewObjectID()
	projectID := primitive.NewObjectID()
	f := newFixture(callerID)

	f.projects.On("Delete", mock.Anything, callerID, projectID.Hex()).
		Return([]event.Event{event.Removed(event.ProjectDeleted, projectID, projectID)}, nil)

	w := f.do("DELETE", "/projects/"+projectID.Hex(), "")

	assert.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	assert.Equal(t, true, response["success"])
	assert.Equal(t, map[string]any{}, response["data"])

	events := f.pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, event.Deleted{ID: projectID}, events[0].Payload)
}

// TestProjectHandler_ListProjects проверяет формат списка
func TestProjectHandler_ListProjects(t *testing.T) {
	callerID := primitive.NewObjectID()
	f := newFixture(callerID)
	f.projects.On("List", mock.Anything, callerID).Return([]project.View(nil), nil)

	w := f.do("GET", "/projects", "")

	assert.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	assert.Equal(t, float64(0), response["count"])
	assert.Equal(t, []any{}, response["data"])
}

// TestTaskHandler_CreateTask проверяет, что createdBy из тела не доходит до сервиса
func TestTaskHandler_CreateTask(t *testing.T) {
	callerID := primitive.NewObjectID()
	projectID := primitive.NewObjectID()
	f := newFixture(callerID)

	due := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	expected := service.CreateTaskInput{
		Title:    "Write docs",
		Project:  projectID.Hex(),
		Priority: "high",
		DueDate:  &due,
		Tags:     []string{"docs"},
	}
	view := task.View{ID: primitive.NewObjectID(), Title: "Write docs", CreatedBy: user.Summary{ID: callerID}}
	f.tasks.On("Create", mock.Anything, callerID, expected).
		Return(view, []event.Event{event.ForProject(event.TaskCreated, projectID, view)}, nil)

	body := `{
		"title": "Write docs",
		"project": "` + projectID.Hex() + `",
		"priority": "high",
		"dueDate": "2025-03-01T12:30:00Z",
		"tags": ["docs"],
		"createdBy": "` + primitive.NewObjectID().Hex() + `"
	}`
	w := f.do("POST", "/tasks", body)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, callerID.Hex(), data["createdBy"].(map[string]any)["id"])
	f.tasks.AssertExpectations(t)
}

// TestTaskHandler_UpdateTask тестирует различие между отсутствующим полем и null
func TestTaskHandler_UpdateTask(t *testing.T) {
	callerID := primitive.NewObjectID()
	taskID := primitive.NewObjectID()

	tests := []struct {
		name  string
		body  string
		check func(service.UpdateTaskInput) bool
	}{
		{
			name: "empty body changes nothing",
			body: `{}`,
			check: func(in service.UpdateTaskInput) bool {
				return in.Title == nil && in.Status == nil && !in.AssignedTo.Set && !in.DueDate.Set && !in.Tags.Set
			},
		},
		{
			name: "null unassigns and clears due date",
			body: `{"assignedTo":null,"dueDate":null}`,
			check: func(in service.UpdateTaskInput) bool {
				return in.AssignedTo.Set && in.AssignedTo.Value == "" && in.DueDate.Set && in.DueDate.Value == nil
			},
		},
		{
			name: "plain date and status",
			body: `{"status":"done","dueDate":"2025-04-02"}`,
			check: func(in service.UpdateTaskInput) bool {
				return in.Status != nil && *in.Status == "done" &&
					in.DueDate.Set && in.DueDate.Value.Equal(time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC))
			},
		},
		{
			name: "tags replaced",
			body: `{"tags":["a","b"]}`,
			check: func(in service.UpdateTaskInput) bool {
				return in.Tags.Set && len(in.Tags.Value) == 2
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(callerID)
			f.tasks.On("Update", mock.Anything, callerID, taskID.Hex(), mock.MatchedBy(tt.check)).
				Return(task.View{ID: taskID}, []event.Event(nil), nil)

			w := f.do("PUT", "/tasks/"+taskID.Hex(), tt.body)

			assert.Equal(t, http.StatusOK, w.Code)
			f.tasks.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_ListTasks тестирует передачу фильтров
func TestTaskHandler_ListTasks(t *testing.T) {
	callerID := primitive.NewObjectID()
	projectID := primitive.NewObjectID()
	f := newFixture(callerID)

	f.tasks.On("List", mock.Anything, callerID, service.TaskQuery{Project: projectID.Hex(), Status: "review"}).
		Return([]task.View{{ID: primitive.NewObjectID()}, {ID: primitive.NewObjectID()}}, nil)

	w := f.do("GET", "/tasks?project="+projectID.Hex()+"&status=review", "")

	assert.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	assert.Equal(t, float64(2), response["count"])
	assert.Len(t, response["data"], 2)
}

// TestTaskHandler_DeleteTask проверяет, что при ошибке событие не публикуется
func TestTaskHandler_DeleteTask(t *testing.T) {
	callerID := primitive.NewObjectID()
	taskID := primitive.NewObjectID()
	f := newFixture(callerID)

	f.tasks.On("Delete", mock.Anything, callerID, taskID.Hex()).
		Return([]event.Event(nil), service.NewForbidden("удаление задачи"))

	w := f.do("DELETE", "/tasks/"+taskID.Hex(), "")

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, f.pub.Events())
}

// TestCommentHandler тестирует операции с комментариями
func TestCommentHandler(t *testing.T) {
	callerID := primitive.NewObjectID()
	projectID := primitive.NewObjectID()
	taskID := primitive.NewObjectID()
	commentID := primitive.NewObjectID()

	t.Run("create", func(t *testing.T) {
		f := newFixture(callerID)
		view := comment.View{ID: commentID, Task: taskID, Content: "hi"}
		f.comments.On("Create", mock.Anything, callerID, service.CreateCommentInput{Task: taskID.Hex(), Content: "hi"}).
			Return(view, []event.Event{event.ForProject(event.CommentCreated, projectID, view)}, nil)

		w := f.do("POST", "/comments", `{"task":"`+taskID.Hex()+`","content":"hi"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Len(t, f.pub.Events(), 1)
	})

	t.Run("update", func(t *testing.T) {
		f := newFixture(callerID)
		f.comments.On("Update", mock.Anything, callerID, commentID.Hex(), "edited").
			Return(comment.View{ID: commentID, Content: "edited", IsEdited: true}, []event.Event(nil), nil)

		w := f.do("PUT", "/comments/"+commentID.Hex(), `{"content":"edited"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].(map[string]any)
		assert.Equal(t, true, data["isEdited"])
	})

	t.Run("list requires task", func(t *testing.T) {
		f := newFixture(callerID)
		f.comments.On("List", mock.Anything, callerID, "").
			Return([]comment.View(nil), service.NewValidationError("task", "обязательный параметр"))

		w := f.do("GET", "/comments", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		response := decode(t, w)
		require.NotNil(t, response["errors"])
		assert.Equal(t, "task", response["errors"].([]any)[0].(map[string]any)["field"])
	})

	t.Run("delete", func(t *testing.T) {
		f := newFixture(callerID)
		f.comments.On("Delete", mock.Anything, callerID, commentID.Hex()).
			Return([]event.Event{event.Removed(event.CommentDeleted, projectID, commentID)}, nil)

		w := f.do("DELETE", "/comments/"+commentID.Hex(), "")

		assert.Equal(t, http.StatusOK, w.Code)
		events := f.pub.Events()
		require.Len(t, events, 1)
		assert.Equal(t, event.ChannelKey(projectID), events[0].Channel)
	})
}

// TestUserHandler тестирует профиль и HealthCheck
func TestUserHandler(t *testing.T) {
	callerID := primitive.NewObjectID()

	t.Run("me", func(t *testing.T) {
		f := newFixture(callerID)
		f.users.On("Me", mock.Anything, callerID).Return(user.Summary{ID: callerID, Name: "Alice"}, nil)

		w := f.do("GET", "/users/me", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Alice", decode(t, w)["data"].(map[string]any)["name"])
	})

	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"success - healthy", nil, http.StatusOK},
		{"error - unhealthy", errors.New("service unavailable"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(callerID)
			f.health.On("HealthCheck", mock.Anything).Return(tt.err)

			w := f.do("GET", "/health", "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), "project-tracker")
			f.health.AssertExpectations(t)
		})
	}
}

// TestHandlers_ConcurrentRequests тестирует конкурентные запросы
func TestHandlers_ConcurrentRequests(t *testing.T) {
	callerID := primitive.NewObjectID()
	projectID := primitive.NewObjectID()
	f := newFixture(callerID)

	view := task.View{ID: primitive.NewObjectID()}
	f.tasks.On("Create", mock.Anything, callerID, mock.Anything).
		Return(view, []event.Event{event.ForProject(event.TaskCreated, projectID, view)}, nil).Times(10)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := f.do("POST", "/tasks", `{"title":"t","project":"`+projectID.Hex()+`"}`)
			assert.Equal(t, http.StatusCreated, w.Code)
		}()
	}
	wg.Wait()

	assert.Len(t, f.pub.Events(), 10)
	f.tasks.AssertExpectations(t)
}
