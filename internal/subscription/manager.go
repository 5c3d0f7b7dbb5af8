package subscription

import (
	"context"
	"fmt"
	"sync"

	"projectTracker/internal/event"
	"projectTracker/internal/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// подходит *websocket.Conn
type Conn interface {
	WriteJSON(v any) error
	ReadJSON(v any) error
	Close() error
}

// changed равен false для кадров, которые не отслеживает ни одна доска
type Handler func(msg event.Message, changed bool)

type Option func(*Manager)

func WithHandler(h Handler) Option {
	return func(m *Manager) {
		m.handler = h
	}
}

type Manager struct {
	conn    Conn
	handler Handler

	writeMu sync.Mutex
	mu      sync.RWMutex
	boards  map[string]*Board
}

func NewManager(conn Conn, options ...Option) *Manager {
	m := &Manager{
		conn:   conn,
		boards: make(map[string]*Board),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// повторный вход возвращает ту же доску
func (m *Manager) Enter(projectID primitive.ObjectID) (*Board, error) {
	channel := event.ChannelKey(projectID)

	m.mu.Lock()
	board, ok := m.boards[channel]
	if !ok {
		board = NewBoard(projectID)
		m.boards[channel] = board
	}
	m.mu.Unlock()

	if ok {
		return board, nil
	}
	if err := m.write(event.JoinProject, projectID); err != nil {
		m.mu.Lock()
		delete(m.boards, channel)
		m.mu.Unlock()
		return nil, err
	}
	return board, nil
}

func (m *Manager) Leave(projectID primitive.ObjectID) error {
	channel := event.ChannelKey(projectID)

	m.mu.Lock()
	_, ok := m.boards[channel]
	delete(m.boards, channel)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return m.write(event.LeaveProject, projectID)
}

func (m *Manager) Board(projectID primitive.ObjectID) (*Board, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.boards[event.ChannelKey(projectID)]
	return b, ok
}

func (m *Manager) write(kind event.Kind, projectID primitive.ObjectID) error {
	data, err := projectID.MarshalJSON()
	if err != nil {
		return err
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := m.conn.WriteJSON(event.Message{Event: kind, Data: data}); err != nil {
		return fmt.Errorf("отправка %s: %w", kind, err)
	}
	return nil
}

func (m *Manager) Run(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			m.conn.Close()
		case <-stop:
		}
	}()

	for {
		var msg event.Message
		if err := m.conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("чтение сообщения: %w", err)
		}
		m.dispatch(msg)
	}
}

func (m *Manager) dispatch(msg event.Message) {
	changed := false

	switch {
	case msg.Event == event.Error:
		logger.Warn("Watch: Ошибка от сервера", zap.ByteString("data", msg.Data))

	case msg.Channel != "":
		m.mu.RLock()
		board, ok := m.boards[msg.Channel]
		m.mu.RUnlock()
		if !ok {
			break
		}
		var err error
		changed, err = board.Apply(msg)
		if err != nil {
			logger.Warn("Watch: Не удалось применить событие",
				zap.String("event", string(msg.Event)),
				zap.Error(err))
		}

	default:
		// широковещательные события (project:created) не привязаны к каналу
		m.mu.RLock()
		boards := make([]*Board, 0, len(m.boards))
		for _, b := range m.boards {
			boards = append(boards, b)
		}
		m.mu.RUnlock()
		for _, b := range boards {
			ok, err := b.Apply(msg)
			if err != nil {
				logger.Debug("Watch: Событие пропущено", zap.String("event", string(msg.Event)), zap.Error(err))
			}
			changed = changed || ok
		}
	}

	if m.handler != nil {
		m.handler(msg, changed)
	}
}
