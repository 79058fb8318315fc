package menu

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/matthewbaird/pedigree/internal/pedigree"
	"github.com/matthewbaird/pedigree/internal/term"
	"github.com/matthewbaird/pedigree/internal/types"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrOptionUnavailable = errors.New("option unavailable")
	ErrFreeText          = errors.New("free text not allowed")
	ErrNotEditable       = errors.New("field is not editable")
)

// ColorSource looks up the legend color of a term.
type ColorSource interface {
	Color(kind term.Kind, key string) (string, bool)
}

// OptionView is one visible choice of a radio or select field.
type OptionView struct {
	Actual    string `json:"actual"`
	Displayed string `json:"displayed"`
	Disabled  bool   `json:"disabled,omitempty"`
}

// ItemView is one selected term of a picker.
type ItemView struct {
	Value string `json:"value"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// FieldView is the rendered state of one field.
type FieldView struct {
	Name     string       `json:"name"`
	Label    string       `json:"label,omitempty"`
	Type     Kind         `json:"type"`
	Tab      string       `json:"tab,omitempty"`
	Hidden   bool         `json:"hidden,omitempty"`
	Disabled bool         `json:"disabled,omitempty"`
	Value    any          `json:"value,omitempty"`
	Options  []OptionView `json:"options,omitempty"`
	Items    []ItemView   `json:"items,omitempty"`
	Caption  string       `json:"caption,omitempty"`
	Tip      string       `json:"tip,omitempty"`
	Rows     int          `json:"rows,omitempty"`
	Columns  int          `json:"columns,omitempty"`
}

// Control holds the state of one rendered field.
type Control interface {
	Descriptor() Descriptor
	Value() any
	// SetValue stores a programmatic value. It is never treated as an edit.
	SetValue(v any) error
	// Reset restores the descriptor default.
	Reset()
	Inactive() *pedigree.Exclusion
	SetInactive(e *pedigree.Exclusion)
	Disabled() *pedigree.Exclusion
	SetDisabled(e *pedigree.Exclusion)
	// Input converts a raw user edit to a typed value without storing it.
	Input(raw any) (any, error)
	// Same reports whether a and b are the same value for this control.
	Same(a, b any) bool
	View(colors ColorSource) FieldView
}

// Render builds the control for d. Unknown kinds report false.
func Render(d Descriptor) (Control, bool) {
	var c Control
	switch d.Type {
	case KindRadio, KindSelect:
		c = &choiceControl{base: newBase(d), options: d.options()}
	case KindCheckbox:
		c = &checkboxControl{base: newBase(d)}
	case KindButton:
		c = &buttonControl{base: newBase(d)}
	case KindText, KindTextarea, KindHidden:
		c = &textControl{base: newBase(d)}
	case KindDatePicker:
		c = &dateControl{base: newBase(d)}
	case KindDiseasePicker:
		c = &picker[*term.Disorder]{base: newBase(d), kind: term.KindDisorder, delim: "||",
			parse: term.ParseDisorder, key: (*term.Disorder).ID, freeText: d.FreeText}
	case KindHPOPicker:
		c = &picker[*term.HPOTerm]{base: newBase(d), kind: term.KindHPO, delim: ",",
			parse: term.ParseHPOTerm, key: (*term.HPOTerm).ID}
	case KindGenePicker:
		c = &picker[*term.Gene]{base: newBase(d), kind: term.KindGene, delim: ",",
			parse: term.ParseGene, key: (*term.Gene).Symbol, freeText: d.FreeText}
	default:
		return nil, false
	}
	c.Reset()
	return c, true
}

type base struct {
	desc     Descriptor
	inactive *pedigree.Exclusion
	disabled *pedigree.Exclusion
}

func newBase(d Descriptor) base {
	return base{desc: d, inactive: pedigree.ExcludeNone(), disabled: d.Disabled}
}

func (b *base) Descriptor() Descriptor            { return b.desc }
func (b *base) Inactive() *pedigree.Exclusion     { return b.inactive }
func (b *base) SetInactive(e *pedigree.Exclusion) { b.inactive = e }
func (b *base) Disabled() *pedigree.Exclusion     { return b.disabled }
func (b *base) SetDisabled(e *pedigree.Exclusion) { b.disabled = e }

func (b *base) view() FieldView {
	return FieldView{
		Name:     b.desc.Name,
		Label:    b.desc.Label,
		Type:     b.desc.Type,
		Tab:      b.desc.Tab,
		Hidden:   b.desc.Type == KindHidden || (b.inactive != nil && b.inactive.All),
		Disabled: b.disabled != nil && b.disabled.All,
		Tip:      b.desc.Tip,
		Rows:     b.desc.Rows,
		Columns:  b.desc.Columns,
	}
}

func (b *base) invalid(raw any) error {
	return fmt.Errorf("%w: %s got %T", ErrInvalidInput, b.desc.Name, raw)
}

// asString accepts strings and the numbers JSON decoding produces.
func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case int:
		return strconv.Itoa(s), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case nil:
		return "", true
	}
	return "", false
}

type choiceControl struct {
	base
	options []Option
	value   string
}

func (c *choiceControl) Value() any { return c.value }

func (c *choiceControl) Reset() {
	c.value, _ = asString(c.desc.Default)
}

func (c *choiceControl) SetValue(v any) error {
	s, ok := asString(v)
	if !ok {
		return c.invalid(v)
	}
	c.value = s
	return nil
}

func (c *choiceControl) Input(raw any) (any, error) {
	s, ok := asString(raw)
	if !ok {
		return nil, c.invalid(raw)
	}
	if !slices.ContainsFunc(c.options, func(o Option) bool { return o.Actual == s }) {
		return nil, fmt.Errorf("%w: %s has no option %q", ErrInvalidInput, c.desc.Name, s)
	}
	if c.inactive.Excludes(s) || c.disabled.Excludes(s) {
		return nil, fmt.Errorf("%w: %s %q", ErrOptionUnavailable, c.desc.Name, s)
	}
	return s, nil
}

func (c *choiceControl) Same(a, b any) bool {
	x, okx := asString(a)
	y, oky := asString(b)
	return okx && oky && x == y
}

func (c *choiceControl) View(ColorSource) FieldView {
	v := c.view()
	v.Value = c.value
	for _, o := range c.options {
		if c.inactive.Excludes(o.Actual) {
			continue
		}
		v.Options = append(v.Options, OptionView{
			Actual:    o.Actual,
			Displayed: o.Displayed,
			Disabled:  c.disabled.Excludes(o.Actual),
		})
	}
	return v
}

type checkboxControl struct {
	base
	value bool
}

func (c *checkboxControl) Value() any { return c.value }

func (c *checkboxControl) Reset() {
	c.value, _ = c.desc.Default.(bool)
}

func (c *checkboxControl) SetValue(v any) error {
	b, ok := v.(bool)
	if !ok && v != nil {
		return c.invalid(v)
	}
	c.value = b
	return nil
}

func (c *checkboxControl) Input(raw any) (any, error) {
	b, ok := raw.(bool)
	if !ok {
		return nil, c.invalid(raw)
	}
	return b, nil
}

func (c *checkboxControl) Same(a, b any) bool {
	x, _ := a.(bool)
	y, _ := b.(bool)
	return x == y
}

func (c *checkboxControl) View(ColorSource) FieldView {
	v := c.view()
	v.Value = c.value
	return v
}

// buttonControl has no value. Input on it requests an action.
type buttonControl struct {
	base
}

func (c *buttonControl) Value() any             { return nil }
func (c *buttonControl) Reset()                 {}
func (c *buttonControl) SetValue(any) error     { return nil }
func (c *buttonControl) Input(any) (any, error) { return nil, nil }
func (c *buttonControl) Same(any, any) bool     { return false }

func (c *buttonControl) View(ColorSource) FieldView {
	v := c.view()
	v.Caption = c.desc.Caption
	return v
}

// textControl backs text, textarea and hidden fields.
type textControl struct {
	base
	value string
}

func (c *textControl) Value() any { return c.value }

func (c *textControl) Reset() {
	c.value, _ = asString(c.desc.Default)
}

func (c *textControl) SetValue(v any) error {
	s, ok := asString(v)
	if !ok {
		return c.invalid(v)
	}
	c.value = s
	return nil
}

func (c *textControl) Input(raw any) (any, error) {
	if c.desc.Type == KindHidden {
		return nil, fmt.Errorf("%w: %s", ErrNotEditable, c.desc.Name)
	}
	s, ok := raw.(string)
	if !ok && raw != nil {
		return nil, c.invalid(raw)
	}
	return s, nil
}

func (c *textControl) Same(a, b any) bool {
	x, _ := asString(a)
	y, _ := asString(b)
	return x == y
}

func (c *textControl) View(ColorSource) FieldView {
	v := c.view()
	v.Value = c.value
	return v
}

type dateControl struct {
	base
	value types.Date
}

func (c *dateControl) Value() any { return c.value }
func (c *dateControl) Reset()     { c.value = types.Date{} }

func (c *dateControl) SetValue(v any) error {
	d, err := toDate(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidInput, c.desc.Name, err)
	}
	c.value = d
	return nil
}

func (c *dateControl) Input(raw any) (any, error) {
	d, err := toDate(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidInput, c.desc.Name, err)
	}
	return d, nil
}

func (c *dateControl) Same(a, b any) bool {
	x, errx := toDate(a)
	y, erry := toDate(b)
	return errx == nil && erry == nil && x == y
}

func (c *dateControl) View(ColorSource) FieldView {
	v := c.view()
	v.Value = c.value
	return v
}

func toDate(v any) (types.Date, error) {
	switch d := v.(type) {
	case types.Date:
		return d, nil
	case string:
		return types.ParseDate(d)
	case nil:
		return types.Date{}, nil
	}
	return types.Date{}, fmt.Errorf("unexpected %T", v)
}

// picker is a multi-select of ontology terms.
type picker[T term.Term] struct {
	base
	kind     term.Kind
	delim    string
	parse    func(string) T
	key      func(T) string
	freeText bool
	value    []T
}

func (c *picker[T]) Value() any { return c.value }
func (c *picker[T]) Reset()     { c.value = nil }

func (c *picker[T]) SetValue(v any) error {
	if ts, ok := v.([]T); ok {
		c.value = slices.Clone(ts)
		return nil
	}
	items, ok := toItems(v, c.delim)
	if !ok {
		return c.invalid(v)
	}
	ts := make([]T, 0, len(items))
	for _, it := range items {
		ts = append(ts, c.parse(it))
	}
	c.value = ts
	return nil
}

// Input parses the full selection. Free-text entries are refused unless
// the picker allows them or the entry is already selected.
func (c *picker[T]) Input(raw any) (any, error) {
	items, ok := toItems(raw, c.delim)
	if !ok {
		return nil, c.invalid(raw)
	}
	ts := make([]T, 0, len(items))
	for _, it := range items {
		t := c.parse(it)
		if t.UserDefined() && !c.freeText && !c.selected(c.key(t)) {
			return nil, fmt.Errorf("%w: %s %q", ErrFreeText, c.desc.Name, it)
		}
		ts = append(ts, t)
	}
	return ts, nil
}

func (c *picker[T]) selected(key string) bool {
	return slices.ContainsFunc(c.value, func(t T) bool { return c.key(t) == key })
}

// Same compares selections by key sequence.
func (c *picker[T]) Same(a, b any) bool {
	x, _ := a.([]T)
	y, _ := b.([]T)
	return slices.EqualFunc(x, y, func(p, q T) bool { return c.key(p) == c.key(q) })
}

func (c *picker[T]) View(colors ColorSource) FieldView {
	v := c.view()
	for _, t := range c.value {
		item := ItemView{Value: t.DisplayName(), ID: t.ExternalID(), Name: t.Name()}
		if colors != nil {
			item.Color, _ = colors.Color(c.kind, c.key(t))
		}
		v.Items = append(v.Items, item)
	}
	return v
}

// toItems accepts a list of strings or one delimited string.
func toItems(v any, delim string) ([]string, bool) {
	switch x := v.(type) {
	case nil:
		return nil, true
	case string:
		return term.SplitList(x, delim), true
	case []string:
		return x, true
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
