// Package worker contains event consumer workers that act on the domain
// events of an editor session.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/matthewbaird/pedigree/internal/event"
	"github.com/matthewbaird/pedigree/internal/identity"
)

// Synchronizer is the identity surface the worker drives.
type Synchronizer interface {
	Sync(ctx context.Context, nodeID string) (identity.Outcome, error)
	SyncAll(ctx context.Context, nodeIDs []string, limit int) map[string]identity.Outcome
	PushPhenotypes(ctx context.Context, nodeID string) error
	Create(ctx context.Context, nodeID string) error
	Update(ctx context.Context, nodeID string) ([]identity.Change, error)
	View(ctx context.Context, nodeID string) (string, error)
}

// IdentitySyncWorker consumes domain events and runs the matching identity
// operation on its own goroutine, so the bus never waits on the registry or
// on the user answering a prompt. Outcomes are recorded as events.
type IdentitySyncWorker struct {
	sync     Synchronizer
	recorder event.Recorder
	limit    int
	logger   *slog.Logger

	wg sync.WaitGroup
}

// NewIdentitySyncWorker creates a worker. limit bounds the concurrent
// lookups of a load-finished batch; a nil recorder drops outcome events.
func NewIdentitySyncWorker(s Synchronizer, recorder event.Recorder, limit int, logger *slog.Logger) *IdentitySyncWorker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &IdentitySyncWorker{
		sync:     s,
		recorder: recorder,
		limit:    limit,
		logger:   logger.With("component", "identity-worker"),
	}
}

// HandleEvent routes a domain event to the synchronizer.
func (w *IdentitySyncWorker) HandleEvent(ctx context.Context, evt event.DomainEvent) error {
	nodeID := evt.NodeID()
	switch evt.EventType {
	case event.TypeExternalIDChanged:
		w.spawn(func() { w.syncNode(ctx, nodeID) })
	case event.TypeLoadFinished:
		var p event.LoadPayload
		if err := evt.Decode(&p); err != nil {
			return err
		}
		w.spawn(func() { w.syncAll(ctx, p.NodeIDs) })
	case event.TypeHPOChanged:
		w.spawn(func() {
			if err := w.sync.PushPhenotypes(ctx, nodeID); err != nil {
				w.logger.Warn("phenotype push failed", "node", nodeID, "err", err)
			}
		})
	case event.TypeCreateRecord:
		w.spawn(func() { w.create(ctx, nodeID) })
	case event.TypeUpdateRecord:
		w.spawn(func() {
			if _, err := w.sync.Update(ctx, nodeID); err != nil && !expected(err) {
				w.logger.Error("record update failed", "node", nodeID, "err", err)
			}
		})
	case event.TypeViewRecord:
		w.spawn(func() {
			if _, err := w.sync.View(ctx, nodeID); err != nil {
				w.logger.Warn("record view failed", "node", nodeID, "err", err)
			}
		})
	}
	return nil
}

// Wait blocks until every spawned operation has returned.
func (w *IdentitySyncWorker) Wait() { w.wg.Wait() }

func (w *IdentitySyncWorker) spawn(fn func()) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		fn()
	}()
}

func (w *IdentitySyncWorker) syncNode(ctx context.Context, nodeID string) {
	outcome, err := w.sync.Sync(ctx, nodeID)
	p := event.SyncedPayload{NodeID: nodeID, Outcome: string(outcome)}
	if err != nil {
		p.Error = err.Error()
	}
	w.record(ctx, event.NewSynced(p))
}

func (w *IdentitySyncWorker) syncAll(ctx context.Context, nodeIDs []string) {
	for nodeID, outcome := range w.sync.SyncAll(ctx, nodeIDs, w.limit) {
		w.record(ctx, event.NewSynced(event.SyncedPayload{NodeID: nodeID, Outcome: string(outcome)}))
	}
}

func (w *IdentitySyncWorker) create(ctx context.Context, nodeID string) {
	err := w.sync.Create(ctx, nodeID)
	var partial *identity.PartialCreationError
	switch {
	case err == nil:
		w.record(ctx, event.NewRecordCreated(event.RecordCreatedPayload{NodeID: nodeID}))
	case errors.As(err, &partial):
		w.record(ctx, event.NewRecordCreated(event.RecordCreatedPayload{NodeID: nodeID, Missing: partial.Missing}))
	case !expected(err):
		w.logger.Error("record creation failed", "node", nodeID, "err", err)
	}
}

// expected reports errors the user has already been told about.
func expected(err error) bool {
	return errors.Is(err, identity.ErrCancelled) ||
		errors.Is(err, identity.ErrInvalidIdentifier) ||
		errors.Is(err, identity.ErrNoRecord)
}

func (w *IdentitySyncWorker) record(ctx context.Context, evt event.DomainEvent) {
	if w.recorder == nil {
		return
	}
	if err := w.recorder.Record(ctx, evt); err != nil {
		w.logger.Warn("recording event failed", "type", evt.EventType, "err", err)
	}
}
