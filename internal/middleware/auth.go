package middleware

import (
	"context"
	"net/http"

	"projectTracker/internal/auth"
	"projectTracker/internal/logger"
	"projectTracker/internal/models/user"
	"projectTracker/internal/service"

	"go.uber.org/zap"
)

type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

type UserProvisioner interface {
	Provision(context.Context, service.Profile) (*user.User, error)
}

// проверка токена и обновление пользователя до вызова обработчика
func Authenticate(verifier TokenVerifier, users UserProvisioner) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestId := GetRequestID(r.Context())

			identity, err := verifier.Verify(auth.TokenFromRequest(r))
			if err != nil {
				logger.Warn("HTTP: Отказ в аутентификации",
					zap.String("request_id", requestId),
					zap.String("path", r.URL.Path),
					zap.Error(err))
				unauthenticated(w, "Требуется действительный токен доступа")
				return
			}

			u, err := users.Provision(r.Context(), service.Profile{
				ID:     identity.UserID,
				Name:   identity.Name,
				Email:  identity.Email,
				Avatar: identity.Avatar,
			})
			if err != nil {
				if busErr, ok := service.AsBusinessError(err); ok {
					logger.Warn("HTTP: Пользователь из токена отклонен",
						zap.String("request_id", requestId),
						zap.String("error_code", busErr.Code))
					unauthenticated(w, busErr.Message)
					return
				}
				logger.Error("HTTP: Не удалось сохранить пользователя", err, zap.String("request_id", requestId))
				writeJSON(w, http.StatusInternalServerError, map[string]any{
					"success": false,
					"message": "Внутренняя ошибка сервера",
				})
				return
			}

			// дальше идут имя и email в том виде, в каком они сохранены
			identity.Name = u.Name
			identity.Email = u.Email
			identity.Avatar = u.Avatar

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

func unauthenticated(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, map[string]any{
		"success": false,
		"code":    service.CodeUnauthenticated,
		"message": message,
	})
}
