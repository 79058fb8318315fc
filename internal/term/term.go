// Package term holds the ontology value objects attached to pedigree nodes:
// disorders, HPO phenotype terms and candidate genes.
//
// Terms are shared by pointer. A term created without a name starts as a
// placeholder and is filled in place by a Loader, so every holder sees the
// resolved name without fetching again.
package term

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Kind names a term category.
type Kind string

const (
	KindDisorder Kind = "disorder"
	KindHPO      Kind = "hpo"
	KindGene     Kind = "gene"
)

// PlaceholderName is shown while a name lookup is in flight.
const PlaceholderName = "loading..."

// failedName is used when a lookup fails without a usable error title.
const failedName = "Failed to load term name"

const displaySep = " | "

// Term is the shared shape of Disorder, HPOTerm and Gene.
type Term interface {
	Kind() Kind
	// ID is the sanitized internal ID used as the legend key.
	ID() string
	// ExternalID is the ontology ID as stored and exported.
	ExternalID() string
	Name() string
	DisplayName() string
	// UserDefined reports a free-text term with no ontology ID.
	UserDefined() bool
	// Loading reports whether the name is still a placeholder.
	Loading() bool
}

// Resolver looks up the preferred name of an ontology term.
type Resolver interface {
	ResolveName(ctx context.Context, kind Kind, externalID string) (string, error)
}

// Titled is implemented by lookup errors that carry a short human title,
// such as an ontology API problem document.
type Titled interface {
	Title() string
}

// label is the mutable name slot shared by every term type.
type label struct {
	mu      sync.RWMutex
	name    string
	loading bool
}

// init sets the starting name. An empty name starts a placeholder.
func (l *label) init(name string) {
	if name == "" {
		l.name, l.loading = PlaceholderName, true
		return
	}
	l.name = name
}

func (l *label) Name() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.name
}

func (l *label) Loading() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loading
}

func (l *label) settle(name string) {
	l.mu.Lock()
	l.name = name
	l.loading = false
	l.mu.Unlock()
}

// loadable is a term whose name can be filled in by a Loader.
type loadable interface {
	Term
	settle(name string)
}

// Loader resolves placeholder names in the background.
type Loader struct {
	resolver Resolver
	logger   *slog.Logger
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewLoader returns a Loader backed by r. A nil logger discards output.
func NewLoader(r Resolver, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{
		resolver: r,
		logger:   logger.With("component", "term-loader"),
		timeout:  15 * time.Second,
	}
}

// Load starts resolving t's name if it is still a placeholder and reports
// whether a lookup was started. done runs once the name is settled, on
// success or failure; a failed lookup leaves an error-derived name and never
// surfaces the error to the caller.
func (l *Loader) Load(ctx context.Context, t Term, done func(Term)) bool {
	lt, ok := t.(loadable)
	if !ok || !t.Loading() || l.resolver == nil {
		return false
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()

		name, err := l.resolver.ResolveName(ctx, t.Kind(), t.ExternalID())
		switch {
		case err != nil:
			name = errorName(err)
			l.logger.Warn("name lookup failed", "kind", t.Kind(), "id", t.ExternalID(), "error", err)
		case name == "":
			name = failedName
			l.logger.Warn("name lookup returned no name", "kind", t.Kind(), "id", t.ExternalID())
		default:
			l.logger.Debug("loaded term name", "kind", t.Kind(), "id", t.ExternalID(), "name", name)
		}
		lt.settle(name)
		if done != nil {
			done(t)
		}
	}()
	return true
}

// Wait blocks until every started lookup has settled.
func (l *Loader) Wait() { l.wg.Wait() }

func errorName(err error) string {
	var titled Titled
	if errors.As(err, &titled) && titled.Title() != "" {
		return titled.Title()
	}
	return failedName
}
