package identity

import (
	"slices"

	"github.com/matthewbaird/pedigree/internal/clinical"
	"github.com/matthewbaird/pedigree/internal/types"
)

// PreferredName picks the name to show from a spine record. A usual name
// beats any other; otherwise the later period start wins, and a name with
// a start beats one without.
func PreferredName(names []clinical.HumanName) (clinical.HumanName, bool) {
	if len(names) == 0 {
		return clinical.HumanName{}, false
	}
	sorted := slices.Clone(names)
	slices.SortStableFunc(sorted, compareNames)
	return sorted[0], true
}

func compareNames(a, b clinical.HumanName) int {
	if ua, ub := a.Use == "usual", b.Use == "usual"; ua != ub {
		if ua {
			return -1
		}
		return 1
	}
	sa, _ := types.ParseDate(a.Period.Start)
	sb, _ := types.ParseDate(b.Period.Start)
	switch {
	case sa.IsZero() && sb.IsZero():
		return 0
	case sa.IsZero():
		return 1
	case sb.IsZero():
		return -1
	case sb.Before(sa):
		return -1
	case sa.Before(sb):
		return 1
	}
	return 0
}
