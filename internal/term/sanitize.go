package term

import (
	"regexp"
	"strings"
)

// Sanitized IDs are embedded in UI element IDs and legend keys, so every
// character outside [A-Za-z0-9,;_*-] is escaped. Stored pedigrees keep the
// desanitized form.
var (
	openBracket  = regexp.MustCompile(`[(\[]`)
	closeBracket = regexp.MustCompile(`[)\]]`)
	unsafeChars  = regexp.MustCompile(`[^a-zA-Z0-9,;_\-*]`)
	hpoIDPattern = regexp.MustCompile(`(?i)^HP:\d+$`)
)

const (
	escSpace = "__"
	escOpen  = "_L_"
	escClose = "_J_"
	escColon = "_C_"
)

type escape struct {
	token string
	plain string
}

// Three-character tokens are listed before the space escape so that "_J___"
// decodes as ") " rather than splitting the bracket token.
var (
	disorderEscapes = []escape{{escOpen, "("}, {escClose, ")"}, {escSpace, " "}}
	hpoEscapes      = []escape{{escOpen, "("}, {escClose, ")"}, {escColon, ":"}, {escSpace, " "}}
)

// unescape decodes s in one left-to-right pass. Underscores are not escaped,
// so a literal "_" directly before a bracket or a space merges with the
// following token: "a_(b" sanitizes to "a__L_b" and decodes to "a L_b".
// Ontology IDs never contain that sequence.
func unescape(s string, escapes []escape) string {
	if !strings.Contains(s, "_") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
scan:
	for i := 0; i < len(s); {
		if s[i] == '_' {
			for _, e := range escapes {
				if strings.HasPrefix(s[i:], e.token) {
					b.WriteString(e.plain)
					i += len(e.token)
					continue scan
				}
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// SanitizeDisorderID escapes a disorder ID. All-digit IDs are returned as is.
func SanitizeDisorderID(id string) string {
	if isInt(id) {
		return id
	}
	s := openBracket.ReplaceAllString(id, escOpen)
	s = closeBracket.ReplaceAllString(s, escClose)
	return unsafeChars.ReplaceAllString(s, escSpace)
}

// DesanitizeDisorderID reverses SanitizeDisorderID, except for the
// underscore-before-escape case described on unescape.
func DesanitizeDisorderID(id string) string {
	return unescape(id, disorderEscapes)
}

// SanitizeHPOID escapes an HPO ID. Colons get their own escape so that
// "HP:0001250" survives the round trip.
func SanitizeHPOID(id string) string {
	s := openBracket.ReplaceAllString(id, escOpen)
	s = closeBracket.ReplaceAllString(s, escClose)
	s = strings.ReplaceAll(s, ":", escColon)
	return unsafeChars.ReplaceAllString(s, escSpace)
}

// DesanitizeHPOID reverses SanitizeHPOID.
func DesanitizeHPOID(id string) string {
	return unescape(id, hpoEscapes)
}

// IsHPOID reports whether id has the ontology form "HP:<digits>".
func IsHPOID(id string) bool {
	return hpoIDPattern.MatchString(id)
}

// SplitList splits a free-text multi-value field on delim, trimming blanks.
func SplitList(raw, delim string) []string {
	var out []string
	for _, part := range strings.Split(raw, delim) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isInt(s string) bool {
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

// splitDisplay splits "ID | Name". ok is false when s has no separator.
func splitDisplay(s string) (id, name string, ok bool) {
	id, name, ok = strings.Cut(s, displaySep)
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(id), strings.TrimSpace(name), true
}
