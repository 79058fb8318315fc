package term

import (
	"regexp"
	"strings"
)

// DefaultDisorderSource is assumed when a disorder ID has no "SOURCE:" prefix.
const DefaultDisorderSource = "ORPHA"

var sourcedID = regexp.MustCompile(`^([A-Za-z]+):(\d+)$`)

// Disorder is a genetic disorder, normally an Orphanet entity.
type Disorder struct {
	id     string
	source string
	label
}

// NewDisorder builds a disorder from an ID and an optional name.
//
// With no ID, name is parsed: "SOURCE:ID | Name" and "ID | Name" give an
// ontology term, a bare "SOURCE:ID" or numeric ID gives a placeholder that
// still needs its name loaded, and anything else is a user-defined disorder
// keyed by its own sanitized name. A non-numeric ID with no name is likewise
// user-defined, with the name recovered from the ID.
func NewDisorder(id, name string) *Disorder {
	id, name = strings.TrimSpace(id), strings.TrimSpace(name)
	d := &Disorder{source: DefaultDisorderSource}

	if id == "" {
		if left, right, ok := splitDisplay(name); ok {
			d.source, id = splitSource(left)
			name = right
		} else if isInt(name) || sourcedID.MatchString(name) {
			d.source, id = splitSource(name)
			name = ""
		} else {
			d.source = ""
			id = name
		}
	} else if sourcedID.MatchString(id) {
		d.source, id = splitSource(id)
	} else if !isInt(id) {
		d.source = ""
		if name == "" {
			name = DesanitizeDisorderID(id)
		}
	}

	d.id = SanitizeDisorderID(id)
	d.label.init(name)
	return d
}

// ParseDisorder builds a disorder from picker text.
func ParseDisorder(text string) *Disorder { return NewDisorder("", text) }

func splitSource(s string) (source, id string) {
	if src, rest, ok := strings.Cut(s, ":"); ok {
		return strings.TrimSpace(src), strings.TrimSpace(rest)
	}
	return DefaultDisorderSource, s
}

func (d *Disorder) Kind() Kind         { return KindDisorder }
func (d *Disorder) ID() string         { return d.id }
func (d *Disorder) ExternalID() string { return DesanitizeDisorderID(d.id) }
func (d *Disorder) Source() string     { return d.source }
func (d *Disorder) UserDefined() bool  { return d.source == "" }

// DisplayName is "SOURCE:ID | Name", or just the name for a user-defined
// disorder.
func (d *Disorder) DisplayName() string {
	if d.UserDefined() {
		return d.Name()
	}
	return d.source + ":" + d.ExternalID() + displaySep + d.Name()
}
