package editor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matthewbaird/pedigree/internal/clinical"
	"github.com/matthewbaird/pedigree/internal/event"
	"github.com/matthewbaird/pedigree/internal/pedigree"
)

// Genes returns the gene picker catalog.
func (e *Editor) Genes(ctx context.Context) ([]clinical.GeneOption, error) {
	return catalog(ctx, e, "genes", e.registry.Genes)
}

// Disorders returns the disorder picker catalog.
func (e *Editor) Disorders(ctx context.Context) ([]clinical.DisorderOption, error) {
	return catalog(ctx, e, "disorders", e.registry.Disorders)
}

// HPOTerms returns the phenotype picker catalog.
func (e *Editor) HPOTerms(ctx context.Context) ([]clinical.HPOOption, error) {
	return catalog(ctx, e, "hpo", e.registry.HPOTerms)
}

// catalog fetches a picker catalog once per session. Concurrent callers
// share one request; a failed fetch is retried on the next call.
func catalog[T any](ctx context.Context, e *Editor, name string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	e.cacheMu.Lock()
	cached, ok := e.cache[name]
	e.cacheMu.Unlock()
	if ok {
		return cached.([]T), nil
	}

	v, err, _ := e.catalogs.Do(name, func() (any, error) {
		out, err := fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading %s catalog: %w", name, err)
		}
		e.cacheMu.Lock()
		e.cache[name] = out
		e.cacheMu.Unlock()
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]T), nil
}

// Bootstrap links the session to its family cohort and loads the stored
// pedigree. A cohort failure is logged and the pedigree still loads.
func (e *Editor) Bootstrap(ctx context.Context) error {
	if e.cfg.FamilyPhenopacketID == "" {
		e.logger.Info("no family phenopacket, starting empty")
		return nil
	}
	fam, err := e.registry.FamilyCohort(ctx, e.cfg.FamilyPhenopacketID)
	if err != nil {
		e.logger.Error("family cohort unavailable", "phenopacket", e.cfg.FamilyPhenopacketID, "err", err)
	} else {
		e.sync.SetCohort(fam.CohortID)
		e.logger.Info("family cohort linked", "family", fam.ID, "cohort", fam.CohortID)
	}
	return e.Load(ctx)
}

// Load replaces the pedigree with the one stored on the family
// phenopacket. Node warnings are logged; load-finished is raised for every
// person loaded.
func (e *Editor) Load(ctx context.Context) error {
	if e.cfg.FamilyPhenopacketID == "" {
		return ErrNoFamily
	}
	raw, err := e.registry.PedigreeData(ctx, e.cfg.FamilyPhenopacketID)
	if err != nil {
		return fmt.Errorf("fetching pedigree: %w", err)
	}
	doc, err := pedigree.DecodeDocument(raw)
	if err != nil {
		return err
	}
	e.LoadDocument(ctx, doc)
	return nil
}

// LoadDocument replaces the pedigree with doc.
func (e *Editor) LoadDocument(ctx context.Context, doc pedigree.Document) {
	e.mu.Lock()
	defer e.unlock(ctx)
	e.menu.Hide()
	if err := e.graph.Load(doc); err != nil {
		e.logger.Warn("pedigree loaded with warnings", "err", err)
	}
	clear(e.actions)

	people := e.graph.People()
	ids := make([]string, 0, len(people))
	for _, p := range people {
		ids = append(ids, p.ID())
	}
	e.logger.Info("pedigree loaded", "people", len(ids))
	e.queue(event.NewLoadFinished(event.LoadPayload{NodeIDs: ids}))
}

// Save stores the pedigree on the family phenopacket.
func (e *Editor) Save(ctx context.Context) error {
	if e.cfg.FamilyPhenopacketID == "" {
		return ErrNoFamily
	}
	doc := e.Document()
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding pedigree: %w", err)
	}
	if err := e.registry.SavePedigreeData(ctx, e.cfg.FamilyPhenopacketID, raw); err != nil {
		return fmt.Errorf("saving pedigree: %w", err)
	}
	e.logger.Info("pedigree saved", "people", len(doc.Nodes))
	return nil
}
