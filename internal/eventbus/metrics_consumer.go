package eventbus

import (
	"context"

	"github.com/matthewbaird/pedigree/internal/event"
)

// EventCounter counts events by type and severity.
type EventCounter interface {
	EventObserved(eventType, severity string)
}

// MetricsConsumer feeds every domain event to an EventCounter.
type MetricsConsumer struct {
	counter EventCounter
}

// NewMetricsConsumer creates a consumer counting into c.
func NewMetricsConsumer(c EventCounter) *MetricsConsumer {
	return &MetricsConsumer{counter: c}
}

func (c *MetricsConsumer) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	c.counter.EventObserved(evt.EventType, evt.Severity)
	return nil
}
