// watch подключается к каналу проекта и пишет в лог каждое примененное событие
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"projectTracker/internal/event"
	"projectTracker/internal/logger"
	"projectTracker/internal/subscription"

	"github.com/gorilla/websocket"
	"github.com/spf13/pflag"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func main() {
	url := pflag.StringP("url", "u", "ws://localhost:8080/ws", "адрес websocket сервера")
	token := pflag.StringP("token", "t", os.Getenv("TRACKER_TOKEN"), "токен доступа")
	projectHex := pflag.StringP("project", "p", "", "идентификатор проекта")
	dev := pflag.Bool("dev", false, "подробный лог")
	pflag.Parse()

	if err := logger.Init(*dev); err != nil {
		fmt.Fprintln(os.Stderr, "инициализация логгера:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	projectID, err := primitive.ObjectIDFromHex(*projectHex)
	if err != nil {
		logger.Error("Watch: Неверный идентификатор проекта", err, zap.String("project", *projectHex))
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *url, *token, projectID); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Watch: Соединение завершено с ошибкой", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, url, token string, projectID primitive.ObjectID) error {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, res, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if res != nil {
			return fmt.Errorf("подключение к %s: %s: %w", url, res.Status, err)
		}
		return fmt.Errorf("подключение к %s: %w", url, err)
	}
	defer conn.Close()

	manager := subscription.NewManager(conn, subscription.WithHandler(func(msg event.Message, changed bool) {
		logger.Info("Watch: Событие",
			zap.String("event", string(msg.Event)),
			zap.String("channel", msg.Channel),
			zap.Bool("merged", changed),
			zap.ByteString("data", msg.Data))
	}))

	board, err := manager.Enter(projectID)
	if err != nil {
		return err
	}
	logger.Info("Watch: Подписка оформлена", zap.String("project_id", projectID.Hex()))

	err = manager.Run(ctx)
	logger.Info("Watch: Итог",
		zap.Int("tasks", len(board.Tasks())),
		zap.Bool("project_deleted", board.Deleted()))
	return err
}
