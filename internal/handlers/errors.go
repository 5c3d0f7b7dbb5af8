package handlers

import (
	"net/http"

	"projectTracker/internal/logger"
	"projectTracker/internal/middleware"
	"projectTracker/internal/service"

	"go.uber.org/zap"
)

func handleBusinessError(w http.ResponseWriter, err error) bool {
	businessErr, ok := service.AsBusinessError(err)
	if !ok {
		return false
	}
	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	logger.Warn("HTTP: Бизнес-ошибка",
		zap.String("error_code", businessErr.Code),
		zap.String("message", businessErr.Message),
		zap.Int("http_status", statusCode))

	payload := []Payload{
		toPayload("success", false),
		toPayload("code", businessErr.Code),
		toPayload("message", businessErr.Message),
	}
	if len(businessErr.Fields) > 0 {
		payload = append(payload, toPayload("errors", businessErr.Fields))
	}
	if len(businessErr.Details) > 0 {
		payload = append(payload, toPayload("details", businessErr.Details))
	}
	responseWithJSON(w, statusCode, payload...)
	return true
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeForbidden:
		return http.StatusForbidden
	case service.CodeUnauthenticated:
		return http.StatusUnauthorized
	case service.CodeInvalidArgument, service.CodeConflict:
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}

func handleError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	if handleBusinessError(w, err) {
		return
	}

	logger.Error("HTTP: Ошибка Service", err,
		zap.String("operation", operation),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("client_ip", r.RemoteAddr))

	responseWithError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
}
