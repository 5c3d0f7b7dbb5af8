package handlers

import (
	"net/http"
	"time"

	"projectTracker/internal/handlers/dto"
	"projectTracker/internal/logger"
	"projectTracker/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService TaskService
	publisher
}

func NewTaskHandler(taskService TaskService, pub Publisher) TaskHandler {
	return TaskHandler{
		TaskService: taskService,
		publisher:   publisher{pub: pub},
	}
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	tasks, err := h.TaskService.List(r.Context(), userID, service.TaskQuery{
		Project:    query.Get("project"),
		Status:     query.Get("status"),
		AssignedTo: query.Get("assignedTo"),
	})
	if err != nil {
		handleError(w, r, err, "list_tasks")
		return
	}

	responseWithList(w, tasks)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var request dto.CreateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	logger.Debug("HTTP: Вызов сервиса создания задачи")
	view, events, err := h.TaskService.Create(r.Context(), userID, request.Input())
	if err != nil {
		handleError(w, r, err, "create_task")
		return
	}
	h.publish(events)

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", view.ID.Hex()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithData(w, http.StatusCreated, view)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	view, err := h.TaskService.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err, "get_task")
		return
	}

	responseWithData(w, http.StatusOK, view)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var request dto.UpdateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	view, events, err := h.TaskService.Update(r.Context(), userID, chi.URLParam(r, "id"), request.Input())
	if err != nil {
		handleError(w, r, err, "update_task")
		return
	}
	h.publish(events)

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", view.ID.Hex()),
		zap.String("status", string(view.Status)),
		zap.Duration("ms", time.Since(start)))

	responseWithData(w, http.StatusOK, view)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	events, err := h.TaskService.Delete(r.Context(), userID, id)
	if err != nil {
		handleError(w, r, err, "delete_task")
		return
	}
	h.publish(events)

	logger.Info("HTTP_OUT: Задача удалена", zap.String("task_id", id))

	responseWithJSON(w, http.StatusOK,
		toPayload("success", true),
		toPayload("message", "Задача удалена"),
		toPayload("data", struct{}{}),
	)
}
