package editor

import (
	"maps"
	"slices"

	"github.com/matthewbaird/pedigree/internal/event"
	"github.com/matthewbaird/pedigree/internal/menu"
	"github.com/matthewbaird/pedigree/internal/pedigree"
	"github.com/matthewbaird/pedigree/internal/term"
)

// listener applies menu requests. The menu only calls it with e.mu held.
type listener struct{ e *Editor }

func (l listener) RequestMutation(req menu.MutationRequest) {
	e := l.e
	log := e.logger.With("node", req.NodeID)
	p, err := e.graph.Person(req.NodeID)
	if err != nil {
		log.Warn("mutation for unknown node", "err", err)
		return
	}

	before := p.Properties()
	for _, method := range slices.Sorted(maps.Keys(req.Properties)) {
		if err := p.SetProperty(method, req.Properties[method]); err != nil {
			log.Warn("property rejected", "method", method, "err", err)
		}
	}
	for _, method := range slices.Sorted(maps.Keys(req.Modifications)) {
		if err := p.Modify(method, req.Modifications[method]); err != nil {
			log.Warn("modification rejected", "method", method, "err", err)
		}
	}
	after := p.Properties()

	e.queue(event.NewMutation(event.MutationPayload{
		NodeID:        req.NodeID,
		Properties:    describe(req.Properties),
		Modifications: describe(req.Modifications),
	}))
	if before.ExternalID != after.ExternalID {
		e.queue(event.NewExternalIDChanged(event.ExternalIDPayload{
			NodeID:   req.NodeID,
			Previous: before.ExternalID,
			Current:  after.ExternalID,
		}))
	}
	termsChanged(e, req.NodeID, term.KindDisorder, before.Disorders, after.Disorders)
	termsChanged(e, req.NodeID, term.KindHPO, before.HPOTerms, after.HPOTerms)
	termsChanged(e, req.NodeID, term.KindGene, before.CandidateGenes, after.CandidateGenes)
	e.queue(event.NewChange("edit " + req.NodeID))

	if t := e.menu.Target(); t != nil && t.ID() == req.NodeID {
		e.menu.Update(nil)
	}
}

func termsChanged(e *Editor, nodeID string, kind term.Kind, before, after []string) {
	removed, added := pedigree.Diff(before, after)
	if len(removed) == 0 && len(added) == 0 {
		return
	}
	e.queue(event.NewTermsChanged(kind, event.TermsPayload{NodeID: nodeID, Removed: removed, Added: added}))
}

func (l listener) RequestAction(req menu.ActionRequest) {
	l.e.queue(event.NewButtonAction(req.NodeID, req.Action))
	if slices.Contains(recordActions, req.Action) {
		l.e.queue(event.NewRecordAction(req.NodeID, req.Action))
	}
}

func (l listener) MenuShown(nodeID string) {
	l.e.queue(event.NewShowMenu(nodeID))
}

// describe returns the mutation values in their stored form, so term lists
// are recorded by display name.
func describe(values map[string]any) map[string]any {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]any, len(values))
	for k, v := range values {
		switch ts := v.(type) {
		case []*term.Disorder:
			out[k] = displayNames(ts)
		case []*term.HPOTerm:
			out[k] = displayNames(ts)
		case []*term.Gene:
			out[k] = displayNames(ts)
		default:
			out[k] = v
		}
	}
	return out
}

func displayNames[T term.Term](ts []T) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.DisplayName())
	}
	return out
}
