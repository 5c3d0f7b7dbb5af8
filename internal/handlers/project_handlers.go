package handlers

import (
	"net/http"
	"time"

	"projectTracker/internal/handlers/dto"
	"projectTracker/internal/logger"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	ProjectService ProjectService
	publisher
}

func NewProjectHandler(projectService ProjectService, pub Publisher) ProjectHandler {
	return ProjectHandler{
		ProjectService: projectService,
		publisher:      publisher{pub: pub},
	}
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	projects, err := h.ProjectService.List(r.Context(), userID)
	if err != nil {
		handleError(w, r, err, "list_projects")
		return
	}

	responseWithList(w, projects)
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var request dto.CreateProjectRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	view, events, err := h.ProjectService.Create(r.Context(), userID, request.Input())
	if err != nil {
		handleError(w, r, err, "create_project")
		return
	}
	h.publish(events)

	logger.Info("HTTP_OUT: Проект создан",
		zap.String("project_id", view.ID.Hex()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithData(w, http.StatusCreated, view)
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	view, err := h.ProjectService.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err, "get_project")
		return
	}

	responseWithData(w, http.StatusOK, view)
}

func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var request dto.UpdateProjectRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	view, events, err := h.ProjectService.Update(r.Context(), userID, chi.URLParam(r, "id"), request.Input())
	if err != nil {
		handleError(w, r, err, "update_project")
		return
	}
	h.publish(events)

	logger.Info("HTTP_OUT: Проект обновлен",
		zap.String("project_id", view.ID.Hex()),
		zap.Duration("ms", time.Since(start)))

	responseWithData(w, http.StatusOK, view)
}

func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	events, err := h.ProjectService.Delete(r.Context(), userID, id)
	if err != nil {
		handleError(w, r, err, "delete_project")
		return
	}
	h.publish(events)

	logger.Info("HTTP_OUT: Проект удален", zap.String("project_id", id))

	responseWithJSON(w, http.StatusOK,
		toPayload("success", true),
		toPayload("message", "Проект удален"),
		toPayload("data", struct{}{}),
	)
}

func (h *ProjectHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var request dto.AddMemberRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	view, events, err := h.ProjectService.AddMember(r.Context(), userID, chi.URLParam(r, "id"), request.Input())
	if err != nil {
		handleError(w, r, err, "add_member")
		return
	}
	h.publish(events)

	logger.Info("HTTP_OUT: Участник добавлен",
		zap.String("project_id", view.ID.Hex()),
		zap.Int("members", len(view.Members)))

	responseWithData(w, http.StatusOK, view)
}
