package handlers

import (
	"net/http"
	"time"

	"projectTracker/internal/logger"

	"go.uber.org/zap"
)

type UserHandler struct {
	UserService UserService
	Health      HealthChecker
}

func NewUserHandler(userService UserService, health HealthChecker) UserHandler {
	return UserHandler{
		UserService: userService,
		Health:      health,
	}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	summary, err := h.UserService.Me(r.Context(), userID)
	if err != nil {
		handleError(w, r, err, "me")
		return
	}

	responseWithData(w, http.StatusOK, summary)
}

func (h *UserHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := h.Health.HealthCheck(r.Context()); err != nil {
		logger.Warn("HTTP: Хранилище недоступно", zap.Error(err))
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("success", false),
			toPayload("service", "project-tracker"),
			toPayload("status", "unavailable"),
			toPayload("message", err.Error()),
		)
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("success", true),
		toPayload("service", "project-tracker"),
		toPayload("status", "ok"),
		toPayload("time", time.Now().UTC()),
	)
}
