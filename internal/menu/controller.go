// Package menu is the node property menu: a set of typed controls built
// from field descriptors, bound to one node at a time.
//
// The controller is not safe for concurrent use. Debounced edits fire on
// timer goroutines and are handed to Options.Sync, which must serialise
// them with every other call.
package menu

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/matthewbaird/pedigree/internal/pedigree"
)

var (
	ErrUnknownField  = errors.New("unknown menu field")
	ErrFieldInactive = errors.New("menu field is inactive")
	ErrFieldDisabled = errors.New("menu field is disabled")
	ErrNotBound      = errors.New("menu is not bound to a node")
)

// Node is what the menu can be bound to.
type Node interface {
	ID() string
	Summary() pedigree.Summary
	OnWidgetHide()
}

// shower is implemented by nodes that track whether their menu is open.
type shower interface {
	OnWidgetShow()
}

// MutationRequest asks the host to change one node. Setter names map to
// Properties and other mutators to Modifications.
type MutationRequest struct {
	NodeID        string         `json:"nodeID"`
	Properties    map[string]any `json:"properties,omitempty"`
	Modifications map[string]any `json:"modifications,omitempty"`
}

// ActionRequest reports a button press.
type ActionRequest struct {
	NodeID string `json:"nodeID"`
	Action string `json:"action"`
}

// Listener receives the requests the menu emits.
type Listener interface {
	RequestMutation(req MutationRequest)
	RequestAction(req ActionRequest)
	MenuShown(nodeID string)
}

// Region is where a pointer press landed.
type Region int

const (
	RegionMenu Region = iota
	RegionPicker
	RegionCanvas
)

// View is the rendered menu.
type View struct {
	Visible bool        `json:"visible"`
	NodeID  string      `json:"nodeID,omitempty"`
	Tabs    []string    `json:"tabs,omitempty"`
	Fields  []FieldView `json:"fields"`
}

// Options configures a Controller.
type Options struct {
	Listener Listener
	Colors   ColorSource
	Clock    Clock
	Debounce time.Duration
	// Sync runs a debounced edit when its timer fires. Defaults to calling
	// it directly.
	Sync   func(func())
	Logger *slog.Logger
}

// Controller manages the menu state.
type Controller struct {
	tabs     []string
	order    []string
	controls map[string]Control

	listener Listener
	colors   ColorSource
	debounce *Debouncer
	logger   *slog.Logger

	node     Node
	visible  bool
	updating bool
}

// New builds a controller from a schema. Descriptors of unknown kinds are
// skipped.
func New(s Schema, opts Options) *Controller {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Sync == nil {
		opts.Sync = func(f func()) { f() }
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	c := &Controller{
		tabs:     s.Tabs,
		controls: make(map[string]Control, len(s.Fields)),
		listener: opts.Listener,
		colors:   opts.Colors,
		debounce: NewDebouncer(opts.Clock, opts.Debounce),
		logger:   opts.Logger.With("component", "menu"),
	}
	c.debounce.SetRunner(opts.Sync)
	for _, d := range s.Fields {
		ctl, ok := Render(d)
		if !ok {
			c.logger.Debug("skipping field of unknown kind", "field", d.Name, "type", d.Type)
			continue
		}
		c.controls[d.Name] = ctl
		c.order = append(c.order, d.Name)
	}
	return c
}

// SetListener replaces the request listener.
func (c *Controller) SetListener(l Listener) { c.listener = l }

// Visible reports whether the menu is shown.
func (c *Controller) Visible() bool { return c.visible }

// Target returns the bound node, or nil.
func (c *Controller) Target() Node { return c.node }

// Control returns the control of a field.
func (c *Controller) Control(name string) (Control, bool) {
	ctl, ok := c.controls[name]
	return ctl, ok
}

// Value returns the current value of a field.
func (c *Controller) Value(name string) (any, error) {
	ctl, ok := c.controls[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return ctl.Value(), nil
}

// Show binds the menu to node and displays its summary.
func (c *Controller) Show(node Node) {
	if c.visible && c.node != nil && c.node != node {
		c.Hide()
	}
	c.node = node
	if s, ok := node.(shower); ok {
		s.OnWidgetShow()
	}
	c.refresh()
	c.visible = true
	if c.listener != nil {
		c.listener.MenuShown(node.ID())
	}
}

// Hide closes the menu and returns every field to its declared default.
// Pending text edits are applied first.
func (c *Controller) Hide() {
	c.debounce.Flush()
	if c.node != nil {
		c.node.OnWidgetHide()
	}
	c.node = nil
	c.visible = false
	for _, name := range c.order {
		ctl := c.controls[name]
		ctl.Reset()
		ctl.SetInactive(pedigree.ExcludeNone())
		ctl.SetDisabled(ctl.Descriptor().Disabled)
	}
}

// Update re-reads the bound node. A non-nil node rebinds first.
func (c *Controller) Update(node Node) {
	if node != nil {
		c.node = node
	}
	if c.node == nil {
		return
	}
	c.refresh()
}

// ClickOutside hides the menu when the press landed on the canvas.
func (c *Controller) ClickOutside(r Region) {
	if c.visible && r == RegionCanvas {
		c.Hide()
	}
}

// SetDisabled overrides the disabled state of a field. Fields the node
// summary does not mention keep it across updates.
func (c *Controller) SetDisabled(name string, e *pedigree.Exclusion) error {
	ctl, ok := c.controls[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	ctl.SetDisabled(e)
	return nil
}

// refresh copies the node summary into the controls. Change handlers are
// suppressed while it runs.
func (c *Controller) refresh() {
	c.updating = true
	defer func() { c.updating = false }()

	summary := c.node.Summary()
	for _, name := range c.order {
		st, ok := summary[name]
		if !ok {
			continue
		}
		ctl := c.controls[name]
		if st.Value != nil {
			if err := ctl.SetValue(st.Value); err != nil {
				c.logger.Warn("summary value rejected", "field", name, "err", err)
			}
		}
		if st.Inactive != nil {
			ctl.SetInactive(st.Inactive)
		}
		if st.Disabled != nil {
			ctl.SetDisabled(st.Disabled)
		}
	}
}

// HandleInput applies a user edit to a field. Edits that leave the node's
// value unchanged are dropped. Text and date edits are debounced.
func (c *Controller) HandleInput(name string, raw any) error {
	if c.updating {
		return nil
	}
	if c.node == nil {
		return ErrNotBound
	}
	ctl, ok := c.controls[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if e := ctl.Inactive(); e != nil && e.All {
		return fmt.Errorf("%w: %s", ErrFieldInactive, name)
	}
	if e := ctl.Disabled(); e != nil && e.All {
		return fmt.Errorf("%w: %s", ErrFieldDisabled, name)
	}
	value, err := ctl.Input(raw)
	if err != nil {
		return err
	}

	d := ctl.Descriptor()
	node := c.node
	if d.Type == KindButton {
		if c.listener != nil {
			c.listener.RequestAction(ActionRequest{NodeID: node.ID(), Action: d.Name})
		}
		return nil
	}
	if err := ctl.SetValue(value); err != nil {
		return err
	}
	if d.Type.debounced() {
		c.debounce.Schedule(name, func() { c.commit(node, ctl, value) })
		return nil
	}
	c.commit(node, ctl, value)
	return nil
}

// commit emits the mutation for value unless the node already has it.
func (c *Controller) commit(node Node, ctl Control, value any) {
	d := ctl.Descriptor()
	if d.Function == "" || c.listener == nil {
		return
	}
	if cur, ok := node.Summary()[d.Name]; ok && ctl.Same(cur.Value, value) {
		return
	}
	req := MutationRequest{NodeID: node.ID()}
	if pedigree.IsSetter(d.Function) {
		req.Properties = map[string]any{d.Function: value}
	} else {
		req.Modifications = map[string]any{d.Function: value}
	}
	c.listener.RequestMutation(req)
}

// Render returns the current menu view.
func (c *Controller) Render() View {
	v := View{Visible: c.visible, Tabs: c.tabs, Fields: make([]FieldView, 0, len(c.order))}
	if c.node != nil {
		v.NodeID = c.node.ID()
	}
	for _, name := range c.order {
		v.Fields = append(v.Fields, c.controls[name].View(c.colors))
	}
	return v
}
