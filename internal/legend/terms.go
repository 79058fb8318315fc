package legend

import (
	"context"
	"sync"

	"github.com/matthewbaird/pedigree/internal/term"
)

// Legend titles.
const (
	DisordersTitle  = "Disorders"
	PhenotypesTitle = "Phenotypes"
	GenesTitle      = "Candidate Genes"
)

// TermLegend is a Legend that also caches the term objects behind its keys.
// A term fetched by ID that is not cached yet is created as a placeholder
// and its name is loaded in the background.
type TermLegend[T term.Term] struct {
	*Legend
	loader *term.Loader
	fromID func(id string) T
	key    func(T) string

	mu    sync.Mutex
	terms map[string]T
}

func newTermLegend[T term.Term](title string, palette []string, loader *term.Loader, fromID func(string) T, key func(T) string) *TermLegend[T] {
	return &TermLegend[T]{
		Legend: New(title, palette),
		loader: loader,
		fromID: fromID,
		key:    key,
		terms:  make(map[string]T),
	}
}

// Term returns the cached term for a stored ID, creating it if needed.
func (l *TermLegend[T]) Term(id string) T {
	return l.Intern(l.fromID(id))
}

// Intern returns the cached term with t's key, caching t if there is none.
// A cached placeholder starts loading its name.
func (l *TermLegend[T]) Intern(t T) T {
	k := l.key(t)
	l.mu.Lock()
	if cached, ok := l.terms[k]; ok {
		l.mu.Unlock()
		return cached
	}
	l.terms[k] = t
	l.mu.Unlock()

	if l.loader != nil && t.Loading() {
		l.loader.Load(context.Background(), t, func(term.Term) {
			l.SetName(k, t.Name())
		})
	}
	return t
}

// Lookup returns the cached term for key without creating one.
func (l *TermLegend[T]) Lookup(key string) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.terms[key]
	return t, ok
}

// AddTerm interns t and records a case for nodeID.
func (l *TermLegend[T]) AddTerm(t T, nodeID string) bool {
	t = l.Intern(t)
	k := l.key(t)
	name := t.Name()
	added := l.AddCase(k, name, nodeID)
	// A load that settled before the entry existed was dropped by SetName.
	if settled := t.Name(); settled != name {
		l.SetName(k, settled)
	}
	return added
}

// RemoveTerm removes nodeID's case for t.
func (l *TermLegend[T]) RemoveTerm(t T, nodeID string) bool {
	return l.RemoveCase(l.key(t), nodeID)
}

// Key returns the legend key of t.
func (l *TermLegend[T]) Key(t T) string { return l.key(t) }

// DisorderLegend tracks disorders keyed by sanitized ID.
type DisorderLegend = TermLegend[*term.Disorder]

// HPOLegend tracks phenotype terms keyed by sanitized ID.
type HPOLegend = TermLegend[*term.HPOTerm]

// NewDisorderLegend returns an empty disorder legend.
func NewDisorderLegend(loader *term.Loader) *DisorderLegend {
	return newTermLegend(DisordersTitle, DisorderPalette, loader,
		func(id string) *term.Disorder { return term.NewDisorder(id, "") },
		(*term.Disorder).ID)
}

// NewHPOLegend returns an empty phenotype legend.
func NewHPOLegend(loader *term.Loader) *HPOLegend {
	return newTermLegend(PhenotypesTitle, HPOPalette, loader,
		func(id string) *term.HPOTerm { return term.NewHPOTerm(id, "") },
		(*term.HPOTerm).ID)
}

// GeneLegend tracks candidate genes keyed by symbol. The HGNC ID of each
// symbol is kept alongside for the node menu.
type GeneLegend struct {
	*TermLegend[*term.Gene]

	idsMu sync.Mutex
	hgnc  map[string]string
}

// NewGeneLegend returns an empty gene legend. Genes never need name loading.
func NewGeneLegend() *GeneLegend {
	return &GeneLegend{
		TermLegend: newTermLegend(GenesTitle, GenePalette, nil,
			func(symbol string) *term.Gene { return term.NewGene("", symbol, "") },
			(*term.Gene).Symbol),
		hgnc: make(map[string]string),
	}
}

// AddTerm records a case for g and remembers its HGNC ID.
func (l *GeneLegend) AddTerm(g *term.Gene, nodeID string) bool {
	l.AddHGNCID(g.Symbol(), g.ID())
	return l.TermLegend.AddTerm(g, nodeID)
}

// AddHGNCID remembers the HGNC ID for symbol.
func (l *GeneLegend) AddHGNCID(symbol, hgncID string) {
	l.idsMu.Lock()
	l.hgnc[symbol] = hgncID
	l.idsMu.Unlock()
}

// HGNCID returns the HGNC ID recorded for symbol.
func (l *GeneLegend) HGNCID(symbol string) (string, bool) {
	l.idsMu.Lock()
	defer l.idsMu.Unlock()
	id, ok := l.hgnc[symbol]
	return id, ok
}
