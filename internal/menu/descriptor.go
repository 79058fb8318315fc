package menu

import (
	"strconv"

	"github.com/matthewbaird/pedigree/internal/pedigree"
)

// Kind is the control type named by a field descriptor.
type Kind string

const (
	KindRadio         Kind = "radio"
	KindCheckbox      Kind = "checkbox"
	KindButton        Kind = "button"
	KindText          Kind = "text"
	KindTextarea      Kind = "textarea"
	KindDatePicker    Kind = "date-picker"
	KindDiseasePicker Kind = "disease-picker"
	KindHPOPicker     Kind = "hpo-picker"
	KindGenePicker    Kind = "gene-picker"
	KindSelect        Kind = "select"
	KindHidden        Kind = "hidden"
)

// Known reports whether k names a control the menu can build.
func (k Kind) Known() bool {
	switch k {
	case KindRadio, KindCheckbox, KindButton, KindText, KindTextarea, KindDatePicker,
		KindDiseasePicker, KindHPOPicker, KindGenePicker, KindSelect, KindHidden:
		return true
	}
	return false
}

// debounced reports whether edits of this kind are coalesced before they
// reach the node.
func (k Kind) debounced() bool {
	return k == KindText || k == KindTextarea || k == KindDatePicker
}

// Option is one choice of a radio or select field.
type Option struct {
	Actual    string `json:"actual"`
	Displayed string `json:"displayed"`
}

// Range generates numeric select options from Start to End inclusive.
type Range struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Item  [2]string `json:"item"`
}

// Descriptor declares one menu field.
type Descriptor struct {
	Name      string              `json:"name"`
	Label     string              `json:"label"`
	Type      Kind                `json:"type"`
	Tab       string              `json:"tab,omitempty"`
	Default   any                 `json:"default,omitempty"`
	Function  string              `json:"function,omitempty"`
	Disabled  *pedigree.Exclusion `json:"disabled,omitempty"`
	Values    []Option            `json:"values,omitempty"`
	Range     *Range              `json:"range,omitempty"`
	NullValue bool                `json:"nullValue,omitempty"`
	Columns   int                 `json:"columns,omitempty"`
	Rows      int                 `json:"rows,omitempty"`
	Tip       string              `json:"tip,omitempty"`
	Caption   string              `json:"value,omitempty"`
	FreeText  bool                `json:"freeText,omitempty"`
}

// options returns the explicit values followed by any range-generated ones.
func (d Descriptor) options() []Option {
	opts := make([]Option, 0, len(d.Values))
	if d.NullValue {
		opts = append(opts, Option{Actual: "", Displayed: "-"})
	}
	opts = append(opts, d.Values...)
	if r := d.Range; r != nil {
		for i := r.Start; i <= r.End; i++ {
			unit := r.Item[1]
			if i == 1 {
				unit = r.Item[0]
			}
			n := strconv.Itoa(i)
			opts = append(opts, Option{Actual: n, Displayed: n + " " + unit})
		}
	}
	return opts
}
