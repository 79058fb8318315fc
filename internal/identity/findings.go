package identity

import (
	"slices"
	"strings"

	"github.com/mitchellh/go-wordwrap"

	"github.com/matthewbaird/pedigree/internal/clinical"
)

// FindingWidth is the line budget of a reported finding in the comments.
const FindingWidth = 30

var (
	significant = []string{"Pathogenic", "Likely pathogenic"}
	primary     = []string{"Primary", "Primary finding"}

	zygosity = strings.NewReplacer(
		"Heterozygous", "Het",
		"Homozygous", "Hom",
		"Hemizygous", "Hem",
	)
)

// Findings returns the pathogenic primary findings, abbreviated and wrapped
// to width columns.
func Findings(interps []clinical.GenomicInterpretation, width int) []string {
	var out []string
	for _, gi := range interps {
		if gi.DisplayText == "" ||
			!slices.Contains(significant, gi.PathogenicityText) ||
			!slices.Contains(primary, gi.ReportCategory) {
			continue
		}
		text := zygosity.Replace(strings.Join(strings.Fields(gi.DisplayText), " "))
		out = append(out, wordwrap.WrapString(text, uint(width)))
	}
	return out
}

// prependFindings puts findings not already present ahead of comments.
func prependFindings(comments string, findings []string) string {
	var fresh []string
	for _, f := range findings {
		if !strings.Contains(comments, f) {
			fresh = append(fresh, f)
		}
	}
	switch {
	case len(fresh) == 0:
		return comments
	case comments == "":
		return strings.Join(fresh, "\n")
	}
	return strings.Join(fresh, "\n") + "\n" + comments
}
