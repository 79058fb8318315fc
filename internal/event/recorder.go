// Package event defines the editor's domain notifications: node mutations,
// term changes, record actions and identity sync outcomes. The editor queues
// them while it holds its lock and hands them to a Recorder once released.
package event

import (
	"context"
	"fmt"

	"github.com/matthewbaird/pedigree/internal/activity"
	"github.com/matthewbaird/pedigree/internal/types"
)

// Recorder accepts editor events after the editor lock is released.
type Recorder interface {
	Record(ctx context.Context, evt DomainEvent) error
}

// Publisher delivers editor events to live consumers (the websocket hub,
// the identity sync worker, metrics).
type Publisher interface {
	Publish(ctx context.Context, evt DomainEvent)
}

// ActivityRecorder indexes each event once per affected pedigree node,
// phenopacket or family record, and forwards it to an optional Publisher.
type ActivityRecorder struct {
	store activity.Store
	bus   Publisher
}

func NewActivityRecorder(store activity.Store) *ActivityRecorder {
	return &ActivityRecorder{store: store}
}

// SetPublisher must be called before the editor starts recording.
func (r *ActivityRecorder) SetPublisher(p Publisher) {
	r.bus = p
}

// Record publishes evt whether or not the activity write succeeds. A write
// error is returned for the caller to log. Events with no affected entities
// skip the store.
func (r *ActivityRecorder) Record(ctx context.Context, evt DomainEvent) error {
	var err error
	if entries := indexEntries(evt); len(entries) > 0 {
		if werr := r.store.WriteEntries(ctx, entries); werr != nil {
			err = fmt.Errorf("recording %s: %w", evt.EventType, werr)
		}
	}
	if r.bus != nil {
		r.bus.Publish(ctx, evt)
	}
	return err
}

func indexEntries(evt DomainEvent) []types.ActivityEntry {
	entries := make([]types.ActivityEntry, 0, len(evt.AffectedEntities))
	for _, ref := range evt.AffectedEntities {
		entries = append(entries, types.ActivityEntry{
			EventID:           evt.ID,
			EventType:         evt.EventType,
			OccurredAt:        evt.OccurredAt,
			IndexedEntityType: ref.EntityType,
			IndexedEntityID:   ref.EntityID,
			EntityRole:        ref.Role,
			SourceRefs:        evt.AffectedEntities,
			Summary:           evt.Summary,
			Category:          evt.Category,
			Severity:          evt.Severity,
			Payload:           evt.Payload,
		})
	}
	return entries
}
