package term

import "strings"

// HPOTerm is a Human Phenotype Ontology term.
type HPOTerm struct {
	id string
	label
}

// NewHPOTerm builds a phenotype term. As with NewDisorder, an empty ID means
// name is picker text ("HP:0001250 | Seizure", a bare "HP:0001250", or a
// free-text phenotype), and an ID that is not of the "HP:<digits>" form with
// no name is a user-defined term.
func NewHPOTerm(id, name string) *HPOTerm {
	id, name = strings.TrimSpace(id), strings.TrimSpace(name)
	if id == "" {
		if left, right, ok := splitDisplay(name); ok {
			id, name = left, right
		} else if IsHPOID(name) {
			id, name = name, ""
		} else {
			id = name
		}
	} else if name == "" && !IsHPOID(DesanitizeHPOID(id)) {
		name = DesanitizeHPOID(id)
	}

	h := &HPOTerm{id: SanitizeHPOID(id)}
	h.label.init(name)
	return h
}

// ParseHPOTerm builds a phenotype term from picker text.
func ParseHPOTerm(text string) *HPOTerm { return NewHPOTerm("", text) }

func (h *HPOTerm) Kind() Kind         { return KindHPO }
func (h *HPOTerm) ID() string         { return h.id }
func (h *HPOTerm) ExternalID() string { return DesanitizeHPOID(h.id) }
func (h *HPOTerm) UserDefined() bool  { return !IsHPOID(h.ExternalID()) }

// DisplayName is "HP:0000000 | Name", or just the name for a user-defined
// term.
func (h *HPOTerm) DisplayName() string {
	if h.UserDefined() {
		return h.Name()
	}
	return h.ExternalID() + displaySep + h.Name()
}
