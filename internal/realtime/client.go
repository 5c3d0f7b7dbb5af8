package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"projectTracker/internal/event"
	"projectTracker/internal/logger"
	"projectTracker/internal/models/user"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
	accessTimeout  = 5 * time.Second
)

type Access interface {
	CanRead(ctx context.Context, caller, projectID primitive.ObjectID) (bool, error)
}

type Client struct {
	id     string
	userID primitive.ObjectID
	who    user.Summary
	conn   *websocket.Conn
	hub    *Hub
	access Access

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, hub *Hub, access Access, who user.Summary) *Client {
	return &Client{
		id:     uuid.New().String(),
		userID: who.ID,
		who:    who,
		conn:   conn,
		hub:    hub,
		access: access,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

func (c *Client) ID() string {
	return c.id
}

// не блокирует, при полном буфере сообщение теряется
func (c *Client) Send(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *Client) Serve(ctx context.Context) {
	if !c.hub.Register(c) {
		c.conn.Close()
		return
	}
	logger.Info("WS: Клиент подключен",
		zap.String("conn_id", c.id),
		zap.String("user_id", c.userID.Hex()))

	go c.writePump()
	c.readPump(ctx)

	c.hub.Unregister(c)
	c.Close()
	logger.Info("WS: Клиент отключен",
		zap.String("conn_id", c.id),
		zap.String("user_id", c.userID.Hex()))
}

func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("WS: Соединение оборвано", zap.String("conn_id", c.id), zap.Error(err))
			}
			return
		}

		var msg event.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("неверный формат сообщения")
			continue
		}
		c.handle(ctx, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

type typingData struct {
	ProjectID string `json:"projectId"`
	TaskID    string `json:"taskId"`
}

func (c *Client) handle(ctx context.Context, msg event.Message) {
	switch msg.Event {
	case event.JoinProject:
		projectID, err := projectFromData(msg.Data)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.join(ctx, projectID)

	case event.LeaveProject:
		projectID, err := projectFromData(msg.Data)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.hub.Leave(c, event.ChannelKey(projectID))

	case event.TypingStart, event.TypingStop:
		var data typingData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("неверные данные typing")
			return
		}
		projectID, err := primitive.ObjectIDFromHex(data.ProjectID)
		if err != nil {
			c.sendError("неверный идентификатор проекта")
			return
		}
		channel := event.ChannelKey(projectID)
		if !c.hub.IsJoined(c, channel) {
			return
		}

		kind := event.UserTyping
		if msg.Event == event.TypingStop {
			kind = event.UserStoppedTyping
		}
		c.hub.Relay(event.Event{
			Kind:    kind,
			Channel: channel,
			Payload: event.Typing{User: c.who, TaskID: data.TaskID},
		}, c.id)

	default:
		c.sendError("неизвестное событие " + string(msg.Event))
	}
}

func (c *Client) join(ctx context.Context, projectID primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(ctx, accessTimeout)
	defer cancel()

	allowed, err := c.access.CanRead(ctx, c.userID, projectID)
	if err != nil {
		logger.Warn("WS: Не удалось проверить доступ к проекту",
			zap.String("conn_id", c.id),
			zap.String("project_id", projectID.Hex()),
			zap.Error(err))
		c.sendError("не удалось подключиться к проекту")
		return
	}
	if !allowed {
		c.sendError("нет доступа к проекту " + projectID.Hex())
		return
	}

	c.hub.Join(c, event.ChannelKey(projectID))
	logger.Debug("WS: Подписка на проект",
		zap.String("conn_id", c.id),
		zap.String("project_id", projectID.Hex()))
}

func (c *Client) sendError(message string) {
	msg, err := event.Encode(event.Event{
		Kind:    event.Error,
		Payload: map[string]string{"message": message},
	})
	if err == nil {
		c.Send(msg)
	}
}

// строка с id или объект {"projectId": ...}
func projectFromData(data json.RawMessage) (primitive.ObjectID, error) {
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return primitive.NilObjectID, errors.New("не указан проект")
	}

	var hex string
	if strings.HasPrefix(raw, "{") {
		var obj struct {
			ProjectID string `json:"projectId"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return primitive.NilObjectID, errors.New("неверные данные проекта")
		}
		hex = obj.ProjectID
	} else if err := json.Unmarshal(data, &hex); err != nil {
		return primitive.NilObjectID, errors.New("неверные данные проекта")
	}

	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, errors.New("неверный идентификатор проекта")
	}
	return id, nil
}
