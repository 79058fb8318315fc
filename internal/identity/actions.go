package identity

import "github.com/matthewbaird/pedigree/internal/pedigree"

// Record action names, as used by the menu buttons.
const (
	ActionCreate = "createGenO"
	ActionUpdate = "updateGenO"
	ActionView   = "viewGenO"
)

// Actions is which record actions are enabled for a node.
type Actions struct {
	Create bool `json:"create"`
	Update bool `json:"update"`
	View   bool `json:"view"`
}

var (
	noActions     = Actions{}
	createActions = Actions{Create: true}
	linkedActions = Actions{Update: true, View: true}
)

// ActionsFor returns the enablement implied by a person's current state.
func ActionsFor(p *pedigree.Person) Actions {
	switch {
	case !p.HasNHSNumber():
		return noActions
	case p.PhenopacketID() != "":
		return linkedActions
	default:
		return createActions
	}
}

// Enabled reports whether the named action is enabled.
func (a Actions) Enabled(action string) bool {
	switch action {
	case ActionCreate:
		return a.Create
	case ActionUpdate:
		return a.Update
	case ActionView:
		return a.View
	}
	return false
}
