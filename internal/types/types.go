// Package types provides the shared value types used across the pedigree
// editor: civil calendar dates, life status, gender, and the activity-log
// shapes written by the event recorder.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// dateLayout is the ISO 8601 calendar date form used by the registry and by
// the native date input.
const dateLayout = "2006-01-02"

// Date is a calendar date with no time-of-day and no time zone. The zero
// value means "no date". Registry dates such as "1980-05-02" are taken as
// written; they are never converted through an instant, so a birth date
// cannot drift a day when the host zone changes.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses "YYYY-MM-DD". A longer value (a registry datetime such as
// "2011-04-05T10:00:00+01:00") is cut to its leading calendar date. An empty
// string yields the zero Date and no error.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// MustParseDate is ParseDate for literals in tests and fixtures.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero reports whether d is the "no date" value.
func (d Date) IsZero() bool { return d == Date{} }

// String returns the ISO form, or "" for the zero Date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// DMY returns the date as day/month/year for labels.
func (d Date) DMY() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
}

// Before reports whether d is strictly earlier than o. Zero dates never
// compare as before anything.
func (d Date) Before(o Date) bool {
	if d.IsZero() || o.IsZero() {
		return false
	}
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// MarshalJSON encodes the zero Date as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts null, "" or an ISO date string.
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// LifeStatus is a person's life state.
type LifeStatus string

const (
	Alive       LifeStatus = "alive"
	Deceased    LifeStatus = "deceased"
	Stillborn   LifeStatus = "stillborn"
	Unborn      LifeStatus = "unborn"
	Aborted     LifeStatus = "aborted"
	Miscarriage LifeStatus = "miscarriage"
)

// FetalStatuses are the life states that describe a pregnancy outcome
// rather than a born person.
var FetalStatuses = []string{string(Unborn), string(Aborted), string(Miscarriage), string(Stillborn)}

// Valid reports whether s is a recognised life status.
func (s LifeStatus) Valid() bool {
	switch s {
	case Alive, Deceased, Stillborn, Unborn, Aborted, Miscarriage:
		return true
	}
	return false
}

// IsFetus reports whether s is neither alive nor deceased.
func (s LifeStatus) IsFetus() bool { return s != Alive && s != Deceased }

// LifeStatusFromDeceased maps a registry "deceased" flag onto a life status.
func LifeStatusFromDeceased(deceased bool) LifeStatus {
	if deceased {
		return Deceased
	}
	return Alive
}

// Gender is the pedigree symbol gender: M, F, O (other) or U (unknown).
type Gender string

const (
	Male    Gender = "M"
	Female  Gender = "F"
	Other   Gender = "O"
	Unknown Gender = "U"
)

// Valid reports whether g is a recognised gender code.
func (g Gender) Valid() bool {
	switch g {
	case Male, Female, Other, Unknown:
		return true
	}
	return false
}

// ParseGender accepts pedigree codes ("M", "F", ...) and FHIR administrative
// genders ("male", "female", "other", "unknown"). Anything else is Unknown.
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male":
		return Male
	case "f", "female":
		return Female
	case "o", "other":
		return Other
	}
	return Unknown
}

// SourceRef identifies an entity referenced by a domain event.
type SourceRef struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Role       string `json:"role"` // "subject", "target", "related", "context"
}

// ActivityEntry is one row of the activity log, keyed by a referenced
// entity. One event produces one entry per affected entity.
type ActivityEntry struct {
	EventID           string          `json:"event_id"`
	EventType         string          `json:"event_type"`
	OccurredAt        time.Time       `json:"occurred_at"`
	IndexedEntityType string          `json:"indexed_entity_type"`
	IndexedEntityID   string          `json:"indexed_entity_id"`
	EntityRole        string          `json:"entity_role"`
	SourceRefs        []SourceRef     `json:"source_refs"`
	Summary           string          `json:"summary"`
	Category          string          `json:"category"`
	Severity          string          `json:"severity"` // "info", "warning", "error"
	Payload           json.RawMessage `json:"payload"`
}
