package menu

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

var (
	//go:embed schema/field.cue
	fieldSchema []byte

	//go:embed schema/person.cue
	personMenu []byte
)

// ErrSchema is returned when a menu definition fails validation.
var ErrSchema = errors.New("invalid menu schema")

// Schema is a validated menu definition.
type Schema struct {
	Tabs   []string
	Fields []Descriptor
}

// PersonSchema returns the built-in person menu.
func PersonSchema() (Schema, error) { return LoadSchema(personMenu) }

// LoadSchema validates a CUE menu definition against the field schema and
// decodes it. Field names must be unique.
func LoadSchema(src []byte) (Schema, error) {
	ctx := cuecontext.New()
	base := ctx.CompileBytes(fieldSchema, cue.Filename("field.cue"))
	if err := base.Err(); err != nil {
		return Schema{}, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	val := base.Unify(ctx.CompileBytes(src, cue.Filename("menu.cue")))
	if err := val.Validate(cue.Concrete(true)); err != nil {
		return Schema{}, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	var s Schema
	if err := val.LookupPath(cue.ParsePath("tabs")).Decode(&s.Tabs); err != nil {
		return Schema{}, fmt.Errorf("%w: tabs: %v", ErrSchema, err)
	}

	// Descriptors go through JSON so Exclusion and Kind decode with their
	// own rules.
	raw, err := val.LookupPath(cue.ParsePath("fields")).MarshalJSON()
	if err != nil {
		return Schema{}, fmt.Errorf("%w: fields: %v", ErrSchema, err)
	}
	if err := json.Unmarshal(raw, &s.Fields); err != nil {
		return Schema{}, fmt.Errorf("%w: fields: %v", ErrSchema, err)
	}

	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if seen[f.Name] {
			return Schema{}, fmt.Errorf("%w: duplicate field %q", ErrSchema, f.Name)
		}
		seen[f.Name] = true
	}
	return s, nil
}
