package realtime

import (
	"context"
	"net/http"

	"projectTracker/internal/auth"
	"projectTracker/internal/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Handler struct {
	hub      *Hub
	access   Access
	upgrader websocket.Upgrader
	ctx      context.Context
}

// запрос уже прошел middleware.Authenticate, пустой origins или "*" пускает всех
func NewHandler(ctx context.Context, hub *Hub, access Access, origins []string) *Handler {
	return &Handler{
		hub:    hub,
		access: access,
		ctx:    ctx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(origins),
		},
	}
}

func checkOrigin(origins []string) func(*http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "требуется аутентификация", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("WS: Не удалось выполнить upgrade",
			zap.String("client_ip", r.RemoteAddr),
			zap.Error(err))
		return
	}

	NewClient(conn, h.hub, h.access, identity.Summary()).Serve(h.ctx)
}
