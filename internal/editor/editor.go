// Package editor is one pedigree editing session. It owns the graph, the
// legends, the node menu and the identity synchronizer, and serialises
// every change to them behind a single lock.
//
// Domain events raised while the lock is held are queued and recorded once
// it is released, so recorders and bus consumers never run under it.
package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/matthewbaird/pedigree/internal/clinical"
	"github.com/matthewbaird/pedigree/internal/event"
	"github.com/matthewbaird/pedigree/internal/identity"
	"github.com/matthewbaird/pedigree/internal/legend"
	"github.com/matthewbaird/pedigree/internal/menu"
	"github.com/matthewbaird/pedigree/internal/pedigree"
	"github.com/matthewbaird/pedigree/internal/term"
)

var ErrNoFamily = errors.New("editor: no family phenopacket configured")

// Registry is the registry surface of a session.
type Registry interface {
	identity.Records
	Genes(ctx context.Context) ([]clinical.GeneOption, error)
	Disorders(ctx context.Context) ([]clinical.DisorderOption, error)
	HPOTerms(ctx context.Context) ([]clinical.HPOOption, error)
	FamilyCohort(ctx context.Context, phenopacketID string) (clinical.Family, error)
	PedigreeData(ctx context.Context, phenopacketID string) (json.RawMessage, error)
	SavePedigreeData(ctx context.Context, phenopacketID string, doc json.RawMessage) error
}

// Metrics receives session counters.
type Metrics interface {
	identity.Metrics
	LegendColorAssigned(legend string)
	LegendColorReleased(legend string)
}

// Config holds the session settings.
type Config struct {
	Identity identity.Config
	// FamilyPhenopacketID is the phenopacket the pedigree is stored on.
	FamilyPhenopacketID string
	// AllowFreeTextGenes lets the gene picker accept symbols outside the
	// catalog.
	AllowFreeTextGenes bool
	Debounce           time.Duration
	Clock              menu.Clock
}

// LegendView is one rendered legend.
type LegendView struct {
	Name    string         `json:"name"`
	Entries []legend.Entry `json:"entries"`
}

// Editor is an editing session.
type Editor struct {
	mu      sync.Mutex
	graph   *pedigree.Graph
	legends *legend.Set
	menu    *menu.Controller
	actions map[string]identity.Actions

	registry Registry
	sync     *identity.Synchronizer
	prompt   *promptRelay
	recorder event.Recorder
	cfg      Config
	logger   *slog.Logger

	metricsMu sync.RWMutex
	metrics   Metrics

	pendingMu sync.Mutex
	pending   []event.DomainEvent

	catalogs singleflight.Group
	cacheMu  sync.Mutex
	cache    map[string]any
}

// New builds a session. loader resolves placeholder term names and may be
// nil. A nil recorder drops domain events.
func New(reg Registry, loader *term.Loader, recorder event.Recorder, cfg Config, logger *slog.Logger) (*Editor, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	schema, err := menu.PersonSchema()
	if err != nil {
		return nil, fmt.Errorf("loading menu schema: %w", err)
	}
	for i := range schema.Fields {
		if schema.Fields[i].Type == menu.KindGenePicker {
			schema.Fields[i].FreeText = cfg.AllowFreeTextGenes
		}
	}

	e := &Editor{
		legends:  legend.NewSet(loader),
		actions:  make(map[string]identity.Actions),
		registry: reg,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger.With("component", "editor"),
		cache:    make(map[string]any),
	}
	e.legends.SetObserver(legendObserver{e})
	e.graph = pedigree.NewGraph(e.legends)
	e.prompt = newPromptRelay(e.logger)
	e.menu = menu.New(schema, menu.Options{
		Listener: listener{e},
		Colors:   e.legends,
		Clock:    cfg.Clock,
		Debounce: cfg.Debounce,
		Sync: func(f func()) {
			e.mu.Lock()
			defer e.unlock(context.Background())
			f()
		},
		Logger: logger,
	})
	e.sync = identity.New(reg, host{e}, e.prompt, cfg.Identity, logger)
	return e, nil
}

// SetMetrics attaches counters to the session and its synchronizer.
func (e *Editor) SetMetrics(m Metrics) {
	if m == nil {
		return
	}
	e.metricsMu.Lock()
	e.metrics = m
	e.metricsMu.Unlock()
	e.sync.SetMetrics(m)
}

// SetPrompter routes confirmations and notices to p. A nil p declines
// every confirmation.
func (e *Editor) SetPrompter(p identity.Prompter) { e.prompt.set(p) }

// Identity returns the session's synchronizer.
func (e *Editor) Identity() *identity.Synchronizer { return e.sync }

// unlock releases e.mu and records the events queued while it was held.
func (e *Editor) unlock(ctx context.Context) {
	events := e.takePending()
	e.mu.Unlock()
	for _, evt := range events {
		e.record(ctx, evt)
	}
}

func (e *Editor) queue(evt event.DomainEvent) {
	e.pendingMu.Lock()
	e.pending = append(e.pending, evt)
	e.pendingMu.Unlock()
}

func (e *Editor) takePending() []event.DomainEvent {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	events := e.pending
	e.pending = nil
	return events
}

func (e *Editor) record(ctx context.Context, evt event.DomainEvent) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(ctx, evt); err != nil {
		e.logger.Warn("recording event failed", "type", evt.EventType, "err", err)
	}
}

func (e *Editor) counters() Metrics {
	e.metricsMu.RLock()
	defer e.metricsMu.RUnlock()
	return e.metrics
}

// ── Graph ───────────────────────────────────────────────────────────────────

// AddPerson adds an empty person.
func (e *Editor) AddPerson(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.unlock(ctx)
	if _, err := e.graph.Add(id); err != nil {
		return err
	}
	e.queue(event.NewChange("add " + id))
	return nil
}

// RemovePerson deletes a person, closing the menu first if it shows them.
func (e *Editor) RemovePerson(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.unlock(ctx)
	if t := e.menu.Target(); t != nil && t.ID() == id {
		e.menu.Hide()
	}
	if err := e.graph.Remove(id); err != nil {
		return err
	}
	delete(e.actions, id)
	e.sync.Forget(id)
	e.queue(event.NewChange("remove " + id))
	return nil
}

// SetRelations updates a person's place in the graph.
func (e *Editor) SetRelations(ctx context.Context, id string, r pedigree.Relations) error {
	e.mu.Lock()
	defer e.unlock(ctx)
	p, err := e.graph.Person(id)
	if err != nil {
		return err
	}
	p.SetRelations(r)
	if t := e.menu.Target(); t != nil && t.ID() == id {
		e.menu.Update(nil)
	}
	e.queue(event.NewChange("relations " + id))
	return nil
}

// Document returns the stored form of the pedigree.
func (e *Editor) Document() pedigree.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.Export()
}

// Legends returns the legends in display order.
func (e *Editor) Legends() []LegendView {
	all := e.legends.All()
	out := make([]LegendView, 0, len(all))
	for _, l := range all {
		out = append(out, LegendView{Name: l.Name(), Entries: l.Entries()})
	}
	return out
}

// ── Menu ────────────────────────────────────────────────────────────────────

// ShowMenu opens the node menu on a person.
func (e *Editor) ShowMenu(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.unlock(ctx)
	p, err := e.graph.Person(id)
	if err != nil {
		return err
	}
	e.menu.Show(p)
	e.applyActions(p)
	return nil
}

// HideMenu closes the node menu, applying pending text edits.
func (e *Editor) HideMenu(ctx context.Context) {
	e.mu.Lock()
	defer e.unlock(ctx)
	e.menu.Hide()
}

// ClickOutside reports a pointer press outside the menu.
func (e *Editor) ClickOutside(ctx context.Context, r menu.Region) {
	e.mu.Lock()
	defer e.unlock(ctx)
	e.menu.ClickOutside(r)
}

// Input applies a user edit to a menu field.
func (e *Editor) Input(ctx context.Context, field string, raw any) error {
	e.mu.Lock()
	defer e.unlock(ctx)
	return e.menu.HandleInput(field, raw)
}

// View renders the node menu.
func (e *Editor) View() menu.View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.menu.Render()
}

// Close closes the menu. Pending edits are applied.
func (e *Editor) Close(ctx context.Context) {
	e.HideMenu(ctx)
}

var recordActions = []string{identity.ActionCreate, identity.ActionUpdate, identity.ActionView}

// applyActions sets the record buttons from the person's known actions,
// falling back to what its state implies. Callers hold e.mu.
func (e *Editor) applyActions(p *pedigree.Person) {
	a, ok := e.actions[p.ID()]
	if !ok {
		a = identity.ActionsFor(p)
	}
	for _, name := range recordActions {
		if err := e.menu.SetDisabled(name, pedigree.ExcludeIf(!a.Enabled(name))); err != nil {
			e.logger.Debug("record action not in menu", "action", name)
		}
	}
}
