package eventbus

import (
	"context"
	"log/slog"

	"github.com/matthewbaird/pedigree/internal/event"
)

// LogConsumer logs all domain events for observability.
type LogConsumer struct {
	logger *slog.Logger
}

func NewLogConsumer(logger *slog.Logger) *LogConsumer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LogConsumer{logger: logger.With("component", "events")}
}

func (c *LogConsumer) HandleEvent(ctx context.Context, evt event.DomainEvent) error {
	entities := make([]string, len(evt.AffectedEntities))
	for i, ref := range evt.AffectedEntities {
		entities[i] = ref.EntityType + ":" + ref.EntityID
	}
	level := slog.LevelDebug
	switch evt.Severity {
	case "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	c.logger.Log(ctx, level, evt.Summary,
		"type", evt.EventType, "category", evt.Category, "entities", entities)
	return nil
}
