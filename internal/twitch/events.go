package twitch

import (
	"sync"
	"time"
)

// Level is the severity of a diagnostic event
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventType names a diagnostic event; subscribers register per type
type EventType string

const (
	EventLogInfo  EventType = "log-info"
	EventLogWarn  EventType = "log-warn"
	EventLogError EventType = "log-error"
)

// EventTypeFor returns the event type emitted for a level
func EventTypeFor(level Level) EventType {
	return EventType("log-" + string(level))
}

// Event is a diagnostic message published by the client
type Event struct {
	Type      EventType
	Level     Level
	Message   string
	RequestID string
	Time      time.Time
}

// Handler receives diagnostic events. It runs on the caller's goroutine.
type Handler func(Event)

// emitter is a minimal observer registry keyed by event type
type emitter struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

func newEmitter() *emitter {
	return &emitter{
		handlers: make(map[EventType][]Handler),
	}
}

func (e *emitter) on(t EventType, h Handler) {
	if h == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[t] = append(e.handlers[t], h)
}

// emit delivers ev to every handler registered for its type.
// A panicking handler is skipped so logging never breaks a request.
func (e *emitter) emit(ev Event) {
	e.mu.RLock()
	handlers := make([]Handler, len(e.handlers[ev.Type]))
	copy(handlers, e.handlers[ev.Type])
	e.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() { _ = recover() }()
			h(ev)
		}()
	}
}
