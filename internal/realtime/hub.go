package realtime

import (
	"sync"

	"projectTracker/internal/event"
	"projectTracker/internal/logger"

	"go.uber.org/zap"
)

// Send не блокирует и возвращает false, если сообщение отброшено
type Subscriber interface {
	ID() string
	Send(msg []byte) bool
	Close()
}

type Hub struct {
	mu       sync.RWMutex
	conns    map[string]Subscriber
	channels map[string]map[string]Subscriber
	joined   map[string]map[string]struct{}
	closed   bool
}

func NewHub() *Hub {
	return &Hub{
		conns:    make(map[string]Subscriber),
		channels: make(map[string]map[string]Subscriber),
		joined:   make(map[string]map[string]struct{}),
	}
}

func (h *Hub) Register(s Subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[s.ID()] = s
	return true
}

// повторный Join ничего не меняет
func (h *Hub) Join(s Subscriber, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	h.conns[s.ID()] = s
	subs, ok := h.channels[channel]
	if !ok {
		subs = make(map[string]Subscriber)
		h.channels[channel] = subs
	}
	subs[s.ID()] = s

	chans, ok := h.joined[s.ID()]
	if !ok {
		chans = make(map[string]struct{})
		h.joined[s.ID()] = chans
	}
	chans[channel] = struct{}{}
}

func (h *Hub) Leave(s Subscriber, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leave(s.ID(), channel)
}

func (h *Hub) leave(id, channel string) {
	if subs, ok := h.channels[channel]; ok {
		delete(subs, id)
		if len(subs) == 0 {
			delete(h.channels, channel)
		}
	}
	if chans, ok := h.joined[id]; ok {
		delete(chans, channel)
		if len(chans) == 0 {
			delete(h.joined, id)
		}
	}
}

// убирает подписчика из всех каналов
func (h *Hub) Unregister(s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := s.ID()
	for channel := range h.joined[id] {
		h.leave(id, channel)
	}
	delete(h.conns, id)
}

func (h *Hub) IsJoined(s Subscriber, channel string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.channels[channel][s.ID()]
	return ok
}

func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// не более одной доставки каждому подписчику, broadcast всем соединениям
func (h *Hub) Publish(ev event.Event) {
	msg, err := event.Encode(ev)
	if err != nil {
		logger.Error("Hub: Не удалось закодировать событие", err, zap.String("event", string(ev.Kind)))
		return
	}

	var targets []Subscriber
	if ev.Broadcast {
		targets = h.snapshotAll()
	} else {
		targets = h.snapshot(ev.Channel, "")
	}
	h.deliver(ev.Kind, ev.Channel, msg, targets)
}

func (h *Hub) Relay(ev event.Event, except string) {
	msg, err := event.Encode(ev)
	if err != nil {
		logger.Error("Hub: Не удалось закодировать событие", err, zap.String("event", string(ev.Kind)))
		return
	}
	h.deliver(ev.Kind, ev.Channel, msg, h.snapshot(ev.Channel, except))
}

func (h *Hub) snapshot(channel, except string) []Subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()
	subs := h.channels[channel]
	out := make([]Subscriber, 0, len(subs))
	for id, s := range subs {
		if id != except {
			out = append(out, s)
		}
	}
	return out
}

func (h *Hub) snapshotAll() []Subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Subscriber, 0, len(h.conns))
	for _, s := range h.conns {
		out = append(out, s)
	}
	return out
}

func (h *Hub) deliver(kind event.Kind, channel string, msg []byte, targets []Subscriber) {
	dropped := 0
	for _, s := range targets {
		if !s.Send(msg) {
			dropped++
		}
	}
	if dropped > 0 {
		logger.Debug("Hub: Событие не доставлено части подписчиков",
			zap.String("event", string(kind)),
			zap.String("channel", channel),
			zap.Int("dropped", dropped))
	}
}

// после закрытия Join игнорируется
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	conns := make([]Subscriber, 0, len(h.conns))
	for _, s := range h.conns {
		conns = append(conns, s)
	}
	h.conns = make(map[string]Subscriber)
	h.channels = make(map[string]map[string]Subscriber)
	h.joined = make(map[string]map[string]struct{})
	h.mu.Unlock()

	for _, s := range conns {
		s.Close()
	}
	logger.Info("Hub: Все соединения закрыты", zap.Int("connections", len(conns)))
}
