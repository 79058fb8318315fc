package legend

import "github.com/matthewbaird/pedigree/internal/term"

// Set is the three legends of one editor session.
type Set struct {
	Disorders *DisorderLegend
	HPO       *HPOLegend
	Genes     *GeneLegend
}

// NewSet returns empty legends whose placeholder names load through loader.
// A nil loader leaves placeholders unresolved.
func NewSet(loader *term.Loader) *Set {
	return &Set{
		Disorders: NewDisorderLegend(loader),
		HPO:       NewHPOLegend(loader),
		Genes:     NewGeneLegend(),
	}
}

// SetObserver sets o on all three legends.
func (s *Set) SetObserver(o Observer) {
	s.Disorders.SetObserver(o)
	s.HPO.SetObserver(o)
	s.Genes.SetObserver(o)
}

// All returns the legends in display order.
func (s *Set) All() []*Legend {
	return []*Legend{s.Disorders.Legend, s.HPO.Legend, s.Genes.Legend}
}

// Color returns the color assigned to key in the legend for kind.
func (s *Set) Color(kind term.Kind, key string) (string, bool) {
	switch kind {
	case term.KindDisorder:
		return s.Disorders.Color(key)
	case term.KindHPO:
		return s.HPO.Color(key)
	case term.KindGene:
		return s.Genes.Color(key)
	}
	return "", false
}
