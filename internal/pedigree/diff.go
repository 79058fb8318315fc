package pedigree

import (
	"errors"
	"fmt"
	"slices"

	"github.com/matthewbaird/pedigree/internal/term"
)

// Diff returns the keys of old missing from next and the keys of next
// missing from old, each in input order. Legend cases are adjusted from this
// diff so every AddCase has a matching RemoveCase.
func Diff(old, next []string) (removed, added []string) {
	for _, k := range old {
		if !slices.Contains(next, k) {
			removed = append(removed, k)
		}
	}
	for _, k := range next {
		if !slices.Contains(old, k) {
			added = append(added, k)
		}
	}
	return removed, added
}

// termBook is the legend surface the Person term lists need.
type termBook[T term.Term] interface {
	Intern(T) T
	Key(T) string
	AddTerm(T, string) bool
	RemoveTerm(T, string) bool
}

// replaceTerms moves nodeID's cases from old to next in book and returns the
// interned new list. Duplicates in next are dropped with ErrDuplicateTerm.
func replaceTerms[T term.Term](book termBook[T], nodeID string, old, next []T) ([]T, error) {
	var warnings []error
	keep := make([]T, 0, len(next))
	nextKeys := make([]string, 0, len(next))
	for _, t := range next {
		t = book.Intern(t)
		k := book.Key(t)
		if slices.Contains(nextKeys, k) {
			warnings = append(warnings, fmt.Errorf("%w: %s", ErrDuplicateTerm, t.DisplayName()))
			continue
		}
		keep = append(keep, t)
		nextKeys = append(nextKeys, k)
	}

	oldKeys := make([]string, len(old))
	byKey := make(map[string]T, len(old))
	for i, t := range old {
		oldKeys[i] = book.Key(t)
		byKey[oldKeys[i]] = t
	}

	removed, _ := Diff(oldKeys, nextKeys)
	for i := len(removed) - 1; i >= 0; i-- {
		book.RemoveTerm(byKey[removed[i]], nodeID)
	}
	for _, t := range keep {
		if !slices.Contains(oldKeys, book.Key(t)) {
			book.AddTerm(t, nodeID)
		}
	}
	return keep, errors.Join(warnings...)
}

// addTerm appends t unless a term with its key is present.
func addTerm[T term.Term](book termBook[T], nodeID string, list []T, t T) ([]T, error) {
	t = book.Intern(t)
	k := book.Key(t)
	for _, have := range list {
		if book.Key(have) == k {
			return list, fmt.Errorf("%w: %s", ErrDuplicateTerm, t.DisplayName())
		}
	}
	book.AddTerm(t, nodeID)
	return append(list, t), nil
}

// removeTerm drops the term with key k.
func removeTerm[T term.Term](book termBook[T], nodeID string, list []T, k string) ([]T, error) {
	for i, have := range list {
		if book.Key(have) == k {
			book.RemoveTerm(have, nodeID)
			return slices.Delete(slices.Clone(list), i, i+1), nil
		}
	}
	return list, fmt.Errorf("%w: %s", ErrMissingTerm, k)
}

func termKeys[T term.Term](book termBook[T], list []T) []string {
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = book.Key(t)
	}
	return out
}
