package term

import "strings"

// NoHGNCID marks a gene typed in as free text.
const NoHGNCID = "-"

// Gene is a candidate gene identified by its HGNC ID and symbol. Genes are
// keyed by symbol in the legend and nodes store their display names.
type Gene struct {
	hgncID string
	symbol string
	group  string
}

// NewGene builds a gene. With no HGNC ID, symbol may be a display string
// "HGNC:1100 | BRCA1"; otherwise the ID defaults to NoHGNCID.
func NewGene(hgncID, symbol, group string) *Gene {
	hgncID, symbol = strings.TrimSpace(hgncID), strings.TrimSpace(symbol)
	if hgncID == "" {
		if left, right, ok := splitDisplay(symbol); ok {
			hgncID, symbol = left, right
		}
	}
	if hgncID == "" {
		hgncID = NoHGNCID
	}
	return &Gene{hgncID: hgncID, symbol: symbol, group: strings.TrimSpace(group)}
}

// ParseGene builds a gene from picker text.
func ParseGene(text string) *Gene { return NewGene("", text, "") }

func (g *Gene) Kind() Kind         { return KindGene }
func (g *Gene) ID() string         { return g.hgncID }
func (g *Gene) ExternalID() string { return g.hgncID }
func (g *Gene) Name() string       { return g.symbol }
func (g *Gene) Symbol() string     { return g.symbol }
func (g *Gene) Group() string      { return g.group }
func (g *Gene) UserDefined() bool  { return g.hgncID == NoHGNCID }
func (g *Gene) Loading() bool      { return false }

// DisplayName is "HGNC ID | symbol". Free-text genes keep the "-" ID so the
// display string parses back to the same gene.
func (g *Gene) DisplayName() string { return g.hgncID + displaySep + g.symbol }
