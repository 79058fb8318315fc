package editor

import (
	"context"
	"log/slog"
	"reflect"
	"sync"

	"github.com/matthewbaird/pedigree/internal/event"
	"github.com/matthewbaird/pedigree/internal/identity"
	"github.com/matthewbaird/pedigree/internal/pedigree"
)

// host gives the synchronizer locked access to the session's people.
type host struct{ e *Editor }

func (h host) Read(nodeID string, fn func(p *pedigree.Person)) error {
	e := h.e
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.graph.Person(nodeID)
	if err != nil {
		return err
	}
	fn(p)
	return nil
}

// Write restores the person's properties when fn fails, so a rejected
// registry record never leaves it half-updated.
func (h host) Write(nodeID string, fn func(p *pedigree.Person) error) error {
	e := h.e
	e.mu.Lock()
	defer e.unlock(context.Background())
	p, err := e.graph.Person(nodeID)
	if err != nil {
		return err
	}
	before := p.Properties()
	if err := fn(p); err != nil {
		if !reflect.DeepEqual(before, p.Properties()) {
			if rerr := p.Assign(before); rerr != nil {
				e.logger.Warn("restoring person", "node", nodeID, "err", rerr)
			}
		}
		return err
	}
	if t := e.menu.Target(); t != nil && t.ID() == nodeID {
		e.menu.Update(nil)
	}
	e.queue(event.NewChange("registry " + nodeID))
	return nil
}

func (h host) SetActions(nodeID string, a identity.Actions) {
	e := h.e
	e.mu.Lock()
	defer e.mu.Unlock()
	e.actions[nodeID] = a
	if t := e.menu.Target(); t != nil && t.ID() == nodeID {
		if p, err := e.graph.Person(nodeID); err == nil {
			e.applyActions(p)
		}
	}
}

// promptRelay forwards to the current prompter. With none set,
// confirmations are declined and notices are logged.
type promptRelay struct {
	logger *slog.Logger

	mu sync.RWMutex
	p  identity.Prompter
}

func newPromptRelay(logger *slog.Logger) *promptRelay {
	return &promptRelay{logger: logger}
}

func (r *promptRelay) set(p identity.Prompter) {
	r.mu.Lock()
	r.p = p
	r.mu.Unlock()
}

func (r *promptRelay) current() identity.Prompter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.p
}

func (r *promptRelay) Confirm(ctx context.Context, nodeID, message string) (bool, error) {
	if p := r.current(); p != nil {
		return p.Confirm(ctx, nodeID, message)
	}
	r.logger.Info("no prompter, declining", "node", nodeID, "message", message)
	return false, nil
}

func (r *promptRelay) Notify(ctx context.Context, nodeID, message string) {
	if p := r.current(); p != nil {
		p.Notify(ctx, nodeID, message)
		return
	}
	r.logger.Info("notice", "node", nodeID, "message", message)
}

func (r *promptRelay) Open(ctx context.Context, nodeID, url string) {
	if p := r.current(); p != nil {
		p.Open(ctx, nodeID, url)
		return
	}
	r.logger.Info("open", "node", nodeID, "url", url)
}

// legendObserver turns legend changes into events. Colors change inside
// person setters, which run under e.mu, so they are queued.
type legendObserver struct{ e *Editor }

func (o legendObserver) ColorAssigned(legend, key, color string) {
	if m := o.e.counters(); m != nil {
		m.LegendColorAssigned(legend)
	}
	o.e.queue(event.NewLegendColor(event.LegendPayload{Legend: legend, Key: key, Color: color}))
}

func (o legendObserver) ColorReleased(legend, key string) {
	if m := o.e.counters(); m != nil {
		m.LegendColorReleased(legend)
	}
	o.e.queue(event.NewLegendRelease(event.LegendPayload{Legend: legend, Key: key}))
}

// NameResolved runs on a loader goroutine without e.mu.
func (o legendObserver) NameResolved(legend, key, name string) {
	o.e.record(context.Background(), event.NewLegendName(event.LegendPayload{Legend: legend, Key: key, Name: name}))
}
