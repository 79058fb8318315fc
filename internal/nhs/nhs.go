// Package nhs validates and formats national patient numbers (NHS numbers).
//
// A valid number is exactly ten digits, written either as one contiguous
// string ("1234567890") or as three space-separated groups of 3, 3 and 4
// digits ("123 456 7890"). Any other grouping or non-digit content is invalid.
// This is the only place the rule lives; Person and the identity
// synchronizer both call IsNHSNumber.
package nhs

import "strings"

// IsNHSNumber reports whether id is a well-formed NHS number.
func IsNHSNumber(id string) bool {
	if !strings.Contains(id, " ") {
		return len(id) == 10 && allDigits(id)
	}
	parts := strings.Split(id, " ")
	if len(parts) != 3 {
		return false
	}
	for i, want := range []int{3, 3, 4} {
		if len(parts[i]) != want || !allDigits(parts[i]) {
			return false
		}
	}
	return true
}

// Normalize strips the group separators from an NHS number. Values that are
// not NHS numbers are returned unchanged.
func Normalize(id string) string {
	if !IsNHSNumber(id) {
		return id
	}
	return strings.ReplaceAll(id, " ", "")
}

// Format renders an NHS number as "XXX XXX XXXX". Values that are not NHS
// numbers are returned unchanged.
func Format(id string) string {
	if !IsNHSNumber(id) {
		return id
	}
	n := Normalize(id)
	return n[:3] + " " + n[3:6] + " " + n[6:]
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
