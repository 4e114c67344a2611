package logging

import (
	"context"
	"log/slog"

	"helix/internal/twitch"
)

// EventSource is anything that publishes Twitch client diagnostic events
type EventSource interface {
	On(t twitch.EventType, h twitch.Handler)
}

// SubscribeClientEvents forwards every diagnostic event of source to logger
func SubscribeClientEvents(source EventSource, logger *slog.Logger) {
	logger = logger.With("component", "twitch")
	handler := func(ev twitch.Event) {
		attrs := []any{"event", string(ev.Type)}
		if ev.RequestID != "" {
			attrs = append(attrs, "request_id", ev.RequestID)
		}
		logger.Log(context.Background(), slogLevel(ev.Level), ev.Message, attrs...)
	}

	source.On(twitch.EventLogInfo, handler)
	source.On(twitch.EventLogWarn, handler)
	source.On(twitch.EventLogError, handler)
}

func slogLevel(level twitch.Level) slog.Level {
	switch level {
	case twitch.LevelWarn:
		return slog.LevelWarn
	case twitch.LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
