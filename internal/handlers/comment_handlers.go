package handlers

import (
	"net/http"

	"projectTracker/internal/handlers/dto"
	"projectTracker/internal/logger"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CommentHandler struct {
	CommentService CommentService
	publisher
}

func NewCommentHandler(commentService CommentService, pub Publisher) CommentHandler {
	return CommentHandler{
		CommentService: commentService,
		publisher:      publisher{pub: pub},
	}
}

func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	comments, err := h.CommentService.List(r.Context(), userID, r.URL.Query().Get("task"))
	if err != nil {
		handleError(w, r, err, "list_comments")
		return
	}

	responseWithList(w, comments)
}

func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var request dto.CreateCommentRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	view, events, err := h.CommentService.Create(r.Context(), userID, request.Input())
	if err != nil {
		handleError(w, r, err, "create_comment")
		return
	}
	h.publish(events)

	logger.Info("HTTP_OUT: Комментарий создан",
		zap.String("comment_id", view.ID.Hex()),
		zap.String("task_id", view.Task.Hex()))

	responseWithData(w, http.StatusCreated, view)
}

func (h *CommentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var request dto.UpdateCommentRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	view, events, err := h.CommentService.Update(r.Context(), userID, chi.URLParam(r, "id"), request.Content)
	if err != nil {
		handleError(w, r, err, "update_comment")
		return
	}
	h.publish(events)

	responseWithData(w, http.StatusOK, view)
}

func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	events, err := h.CommentService.Delete(r.Context(), userID, id)
	if err != nil {
		handleError(w, r, err, "delete_comment")
		return
	}
	h.publish(events)

	logger.Info("HTTP_OUT: Комментарий удален", zap.String("comment_id", id))

	responseWithJSON(w, http.StatusOK,
		toPayload("success", true),
		toPayload("message", "Комментарий удален"),
		toPayload("data", struct{}{}),
	)
}
