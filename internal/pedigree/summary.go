package pedigree

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Exclusion marks a field inactive or disabled, either whole or for a list
// of option values.
type Exclusion struct {
	All    bool
	Values []string
}

// ExcludeAll returns an exclusion covering the whole field.
func ExcludeAll() *Exclusion { return &Exclusion{All: true} }

// ExcludeNone returns an explicit "fully active" exclusion.
func ExcludeNone() *Exclusion { return &Exclusion{} }

// ExcludeValues returns an exclusion suppressing the given option values.
func ExcludeValues(values ...string) *Exclusion {
	return &Exclusion{Values: slices.Clone(values)}
}

// ExcludeIf returns ExcludeAll when b is true and ExcludeNone otherwise.
func ExcludeIf(b bool) *Exclusion {
	if b {
		return ExcludeAll()
	}
	return ExcludeNone()
}

// Excludes reports whether option v is suppressed.
func (e *Exclusion) Excludes(v string) bool {
	if e == nil {
		return false
	}
	return e.All || slices.Contains(e.Values, v)
}

// Any reports whether anything is suppressed.
func (e *Exclusion) Any() bool {
	return e != nil && (e.All || len(e.Values) > 0)
}

// Equal reports whether e and o suppress the same things. nil equals
// ExcludeNone.
func (e *Exclusion) Equal(o *Exclusion) bool {
	if !e.Any() || !o.Any() {
		return e.Any() == o.Any()
	}
	return e.All == o.All && slices.Equal(e.Values, o.Values)
}

// MarshalJSON encodes as false, true or a list of values.
func (e Exclusion) MarshalJSON() ([]byte, error) {
	if e.All {
		return []byte("true"), nil
	}
	if len(e.Values) == 0 {
		return []byte("false"), nil
	}
	return json.Marshal(e.Values)
}

// UnmarshalJSON accepts a boolean or a list of values.
func (e *Exclusion) UnmarshalJSON(b []byte) error {
	var flag bool
	if err := json.Unmarshal(b, &flag); err == nil {
		*e = Exclusion{All: flag}
		return nil
	}
	var values []string
	if err := json.Unmarshal(b, &values); err != nil {
		return fmt.Errorf("exclusion must be a boolean or a list: %w", err)
	}
	*e = Exclusion{Values: values}
	return nil
}

// FieldState is one entry of a node summary. A nil Inactive or Disabled
// means the node has no opinion and the menu keeps its previous state.
type FieldState struct {
	Value    any        `json:"value"`
	Inactive *Exclusion `json:"inactive,omitempty"`
	Disabled *Exclusion `json:"disabled,omitempty"`
}

// Summary maps menu field names to their state for one node.
type Summary map[string]FieldState
