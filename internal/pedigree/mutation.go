package pedigree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matthewbaird/pedigree/internal/term"
	"github.com/matthewbaird/pedigree/internal/types"
)

// IsSetter reports whether method is applied through SetProperty rather
// than Modify.
func IsSetter(method string) bool { return strings.HasPrefix(method, "set") }

// SetProperty applies one named setter. value must have the type the setter
// takes: string, bool, types.Date, an int or numeric string for gestation
// age, or a term slice for the term lists.
func (p *Person) SetProperty(method string, value any) error {
	switch method {
	case SetFirstName:
		return withString(method, value, p.SetFirstName)
	case SetLastName:
		return withString(method, value, p.SetLastName)
	case SetExternalID:
		return withString(method, value, p.SetExternalID)
	case SetPhenopacketID:
		return withString(method, value, p.SetPhenopacketID)
	case SetComments:
		return withString(method, value, p.SetComments)
	case SetChildlessStatus:
		return withString(method, value, p.SetChildlessStatus)
	case SetGender:
		return withString(method, value, func(s string) { p.SetGender(types.Gender(s)) })
	case SetLifeStatus:
		s, ok := value.(string)
		if !ok {
			return typeErr(method, value)
		}
		return p.SetLifeStatus(types.LifeStatus(s))
	case SetCarrierStatus:
		s, ok := value.(string)
		if !ok {
			return typeErr(method, value)
		}
		return p.SetCarrierStatus(s)
	case SetBirthDate, SetDeathDate:
		d, err := asDate(value)
		if err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
		if method == SetBirthDate {
			return p.SetBirthDate(d)
		}
		return p.SetDeathDate(d)
	case SetGestationAge:
		weeks, err := asInt(value)
		if err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
		p.SetGestationAge(weeks)
		return nil
	case SetAdopted:
		return withBool(method, value, p.SetAdopted)
	case SetEvaluated:
		return withBool(method, value, p.SetEvaluated)
	case SetLostContact:
		return withBool(method, value, p.SetLostContact)
	case SetDisorders:
		ds, ok := value.([]*term.Disorder)
		if !ok {
			return typeErr(method, value)
		}
		return p.SetDisorders(ds)
	case SetHPO:
		hs, ok := value.([]*term.HPOTerm)
		if !ok {
			return typeErr(method, value)
		}
		return p.SetHPO(hs)
	case SetGenes:
		gs, ok := value.([]*term.Gene)
		if !ok {
			return typeErr(method, value)
		}
		return p.SetGenes(gs)
	}
	return fmt.Errorf("%w: %s", ErrUnknownProperty, method)
}

// Modify applies one non-setter modification.
func (p *Person) Modify(method string, value any) error {
	switch method {
	case MakePlaceholder:
		if on, ok := value.(bool); ok && on {
			p.MakePlaceholder()
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownModification, method)
}

func withString(method string, value any, set func(string)) error {
	s, ok := value.(string)
	if !ok {
		return typeErr(method, value)
	}
	set(s)
	return nil
}

func withBool(method string, value any, set func(bool)) error {
	b, ok := value.(bool)
	if !ok {
		return typeErr(method, value)
	}
	set(b)
	return nil
}

func asDate(value any) (types.Date, error) {
	switch v := value.(type) {
	case types.Date:
		return v, nil
	case string:
		return types.ParseDate(v)
	case nil:
		return types.Date{}, nil
	}
	return types.Date{}, fmt.Errorf("%w: %T", ErrPropertyType, value)
}

func asInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case string:
		if v == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrPropertyType, v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: %T", ErrPropertyType, value)
}

func typeErr(method string, value any) error {
	return fmt.Errorf("%w: %s got %T", ErrPropertyType, method, value)
}
