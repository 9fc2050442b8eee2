package graph

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jacentio/cellgraph/cell"
)

// EventType names a lifecycle event.
type EventType string

const (
	EventBeforeCreate     EventType = "cell:beforeCreate"
	EventCreated          EventType = "cell:created"
	EventUpdated          EventType = "cell:updated"
	EventDeleted          EventType = "cell:deleted"
	EventConnected        EventType = "cell:connected"
	EventDisconnected     EventType = "cell:disconnected"
	EventConnectedUser    EventType = "cell:connectedUser"
	EventDisconnectedUser EventType = "cell:disconnectedUser"
)

// Event describes one engine mutation. Only the fields relevant to Type are
// set: Cell for create/update, CellID for delete and user relations,
// SourceID/TargetID for structural relations, RelationID for connects.
type Event struct {
	Type         EventType
	Time         time.Time
	Cell         *cell.Cell
	CellID       string
	SourceID     string
	TargetID     string
	RelationID   string
	RelationType cell.RelationType
}

// Listener receives engine events. HandleEvent runs on the caller's
// goroutine and must not block or modify ev.Cell.
type Listener interface {
	HandleEvent(ev Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ev Event)

// HandleEvent calls f(ev).
func (f ListenerFunc) HandleEvent(ev Event) { f(ev) }

// ChannelListener queues events on a buffered channel for a consumer to
// drain. Events that do not fit are dropped and counted.
type ChannelListener struct {
	ch      chan Event
	dropped atomic.Int64
}

// NewChannelListener creates a listener with the given buffer size.
func NewChannelListener(buffer int) *ChannelListener {
	if buffer < 0 {
		buffer = 0
	}
	return &ChannelListener{ch: make(chan Event, buffer)}
}

// HandleEvent enqueues ev without blocking.
func (l *ChannelListener) HandleEvent(ev Event) {
	select {
	case l.ch <- ev:
	default:
		l.dropped.Add(1)
	}
}

// Events returns the receive side of the queue.
func (l *ChannelListener) Events() <-chan Event {
	return l.ch
}

// Dropped returns how many events were discarded on a full queue.
func (l *ChannelListener) Dropped() int64 {
	return l.dropped.Load()
}

// emit delivers ev to every listener.
func (e *Engine) emit(ev Event) {
	ev.Time = e.now()
	for _, l := range e.listeners {
		e.deliver(l, ev)
	}
}

func (e *Engine) deliver(l Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("event listener panicked",
				zap.String("event", string(ev.Type)),
				zap.Any("panic", r),
			)
		}
	}()
	l.HandleEvent(ev)
}
