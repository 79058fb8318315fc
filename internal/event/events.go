package event

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/pedigree/internal/term"
	"github.com/matthewbaird/pedigree/internal/types"
)

// Event types. The pedigree: names are the editor's notification names.
const (
	TypeSetProperty       = "pedigree:node:setproperty"
	TypeModify            = "pedigree:node:modify"
	TypeShowMenu          = "pedigree:node:showmenu"
	TypeButtonAction      = "pedigree:node:buttonaction"
	TypeExternalIDChanged = "pedigree:person:set:externalid"
	TypeHPOChanged        = "pedigree:person:set:hpo"
	TypeDisordersChanged  = "pedigree:person:set:disorders"
	TypeGenesChanged      = "pedigree:person:set:genes"
	TypeCreateRecord      = "pedigree:person:createGenO"
	TypeUpdateRecord      = "pedigree:person:updateGenO"
	TypeViewRecord        = "pedigree:person:viewGenO"
	TypeLoadFinished      = "pedigree:load:finish"
	TypeChange            = "pedigree:change"
	TypeLegendColor       = "legend:color"
	TypeLegendRelease     = "legend:release"
	TypeLegendName        = "legend:name"
	TypeSynced            = "identity:synced"
	TypeRecordCreated     = "identity:record:created"
)

// Categories.
const (
	CategoryPerson   = "person"
	CategoryPedigree = "pedigree"
	CategoryLegend   = "legend"
	CategoryIdentity = "identity"
	CategoryRecord   = "record"
)

// DomainEvent carries the canonical shape of every domain event.
type DomainEvent struct {
	ID               string
	EventType        string
	OccurredAt       time.Time
	AffectedEntities []types.SourceRef
	Summary          string
	Category         string
	Severity         string // "info", "warning", "error"
	Payload          json.RawMessage
}

// Decode unmarshals the payload into v.
func (e DomainEvent) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", e.EventType, err)
	}
	return nil
}

// NodeID returns the subject person of the event, or "".
func (e DomainEvent) NodeID() string {
	for _, ref := range e.AffectedEntities {
		if ref.EntityType == "person" && ref.Role == "subject" {
			return ref.EntityID
		}
	}
	return ""
}

func newID() string { return uuid.New().String() }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func person(nodeID string) types.SourceRef {
	return types.SourceRef{EntityType: "person", EntityID: nodeID, Role: "subject"}
}

func newEvent(eventType, category, severity, summary string, payload any, refs ...types.SourceRef) DomainEvent {
	return DomainEvent{
		ID:               newID(),
		EventType:        eventType,
		OccurredAt:       time.Now(),
		AffectedEntities: refs,
		Summary:          summary,
		Category:         category,
		Severity:         severity,
		Payload:          mustJSON(payload),
	}
}

// ── Node events ─────────────────────────────────────────────────────────────

// MutationPayload is a mutation request from the node menu. Exactly one of
// Properties and Modifications is set.
type MutationPayload struct {
	NodeID        string         `json:"node_id"`
	Properties    map[string]any `json:"properties,omitempty"`
	Modifications map[string]any `json:"modifications,omitempty"`
}

// NewMutation returns a setproperty event, or a modify event when the
// payload carries modifications.
func NewMutation(p MutationPayload) DomainEvent {
	eventType, what := TypeSetProperty, p.Properties
	if len(p.Modifications) > 0 {
		eventType, what = TypeModify, p.Modifications
	}
	methods := slices.Sorted(maps.Keys(what))
	return newEvent(eventType, CategoryPerson, "info",
		fmt.Sprintf("Node %s: %v", p.NodeID, methods), p, person(p.NodeID))
}

// NodePayload names a single node.
type NodePayload struct {
	NodeID string `json:"node_id"`
}

func NewShowMenu(nodeID string) DomainEvent {
	return newEvent(TypeShowMenu, CategoryPerson, "info",
		fmt.Sprintf("Menu shown for node %s", nodeID), NodePayload{NodeID: nodeID}, person(nodeID))
}

// ActionPayload is a button press on the node menu.
type ActionPayload struct {
	NodeID string `json:"node_id"`
	Action string `json:"action"`
}

// NewButtonAction returns the generic button event.
func NewButtonAction(nodeID, action string) DomainEvent {
	return newEvent(TypeButtonAction, CategoryPerson, "info",
		fmt.Sprintf("Action %s on node %s", action, nodeID), ActionPayload{NodeID: nodeID, Action: action}, person(nodeID))
}

// NewRecordAction returns the per-action record event, for example
// pedigree:person:createGenO.
func NewRecordAction(nodeID, action string) DomainEvent {
	return newEvent("pedigree:person:"+action, CategoryRecord, "info",
		fmt.Sprintf("Record action %s on node %s", action, nodeID), ActionPayload{NodeID: nodeID, Action: action}, person(nodeID))
}

// ── Person events ───────────────────────────────────────────────────────────

// ExternalIDPayload carries event-specific data for ExternalIDChanged.
type ExternalIDPayload struct {
	NodeID   string `json:"node_id"`
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

func NewExternalIDChanged(p ExternalIDPayload) DomainEvent {
	return newEvent(TypeExternalIDChanged, CategoryPerson, "info",
		fmt.Sprintf("External ID of node %s changed to %q", p.NodeID, p.Current), p, person(p.NodeID))
}

// TermsPayload carries the keys removed from and added to a term list.
type TermsPayload struct {
	NodeID  string   `json:"node_id"`
	Removed []string `json:"removed"`
	Added   []string `json:"added"`
}

var termEventTypes = map[term.Kind]string{
	term.KindDisorder: TypeDisordersChanged,
	term.KindHPO:      TypeHPOChanged,
	term.KindGene:     TypeGenesChanged,
}

// NewTermsChanged returns the set:disorders, set:hpo or set:genes event.
func NewTermsChanged(kind term.Kind, p TermsPayload) DomainEvent {
	return newEvent(termEventTypes[kind], CategoryPerson, "info",
		fmt.Sprintf("Node %s %s: %d removed, %d added", p.NodeID, kind, len(p.Removed), len(p.Added)), p, person(p.NodeID))
}

// ── Pedigree events ─────────────────────────────────────────────────────────

// LoadPayload lists the people of a loaded pedigree.
type LoadPayload struct {
	NodeIDs []string `json:"node_ids"`
}

func NewLoadFinished(p LoadPayload) DomainEvent {
	refs := make([]types.SourceRef, 0, len(p.NodeIDs))
	for _, id := range p.NodeIDs {
		refs = append(refs, types.SourceRef{EntityType: "person", EntityID: id, Role: "context"})
	}
	return newEvent(TypeLoadFinished, CategoryPedigree, "info",
		fmt.Sprintf("Pedigree loaded with %d people", len(p.NodeIDs)), p, refs...)
}

// ChangePayload describes a pedigree change worth saving.
type ChangePayload struct {
	Reason string `json:"reason"`
}

func NewChange(reason string) DomainEvent {
	return newEvent(TypeChange, CategoryPedigree, "info", "Pedigree changed: "+reason, ChangePayload{Reason: reason},
		types.SourceRef{EntityType: "pedigree", EntityID: "session", Role: "subject"})
}

// ── Legend events ───────────────────────────────────────────────────────────

// LegendPayload is a change to one legend entry. Color is empty once the
// entry has been released.
type LegendPayload struct {
	Legend string `json:"legend"`
	Key    string `json:"key"`
	Color  string `json:"color,omitempty"`
	Name   string `json:"name,omitempty"`
}

func legendRef(name string) types.SourceRef {
	return types.SourceRef{EntityType: "legend", EntityID: name, Role: "subject"}
}

func NewLegendColor(p LegendPayload) DomainEvent {
	return newEvent(TypeLegendColor, CategoryLegend, "info",
		fmt.Sprintf("%s entry %s colored %s", p.Legend, p.Key, p.Color), p, legendRef(p.Legend))
}

func NewLegendRelease(p LegendPayload) DomainEvent {
	return newEvent(TypeLegendRelease, CategoryLegend, "info",
		fmt.Sprintf("%s entry %s released", p.Legend, p.Key), p, legendRef(p.Legend))
}

func NewLegendName(p LegendPayload) DomainEvent {
	return newEvent(TypeLegendName, CategoryLegend, "info",
		fmt.Sprintf("%s entry %s named %q", p.Legend, p.Key, p.Name), p, legendRef(p.Legend))
}

// ── Identity events ─────────────────────────────────────────────────────────

// SyncedPayload is the outcome of a registry lookup.
type SyncedPayload struct {
	NodeID  string `json:"node_id"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

func NewSynced(p SyncedPayload) DomainEvent {
	severity := "info"
	switch p.Outcome {
	case "stale":
		severity = "warning"
	case "error":
		severity = "error"
	}
	return newEvent(TypeSynced, CategoryIdentity, severity,
		fmt.Sprintf("Node %s synced: %s", p.NodeID, p.Outcome), p, person(p.NodeID))
}

// RecordCreatedPayload reports a registry record creation.
type RecordCreatedPayload struct {
	NodeID        string   `json:"node_id"`
	PhenopacketID string   `json:"phenopacket_id,omitempty"`
	Missing       []string `json:"missing,omitempty"`
}

func NewRecordCreated(p RecordCreatedPayload) DomainEvent {
	severity, summary := "info", fmt.Sprintf("Registry record created for node %s", p.NodeID)
	if len(p.Missing) > 0 {
		severity = "error"
		summary = fmt.Sprintf("Registry record for node %s partially created, missing %v", p.NodeID, p.Missing)
	}
	refs := []types.SourceRef{person(p.NodeID)}
	if p.PhenopacketID != "" {
		refs = append(refs, types.SourceRef{EntityType: "phenopacket", EntityID: p.PhenopacketID, Role: "target"})
	}
	return newEvent(TypeRecordCreated, CategoryRecord, severity, summary, p, refs...)
}
