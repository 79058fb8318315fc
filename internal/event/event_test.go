package event

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/pedigree/internal/activity"
	"github.com/matthewbaird/pedigree/internal/term"
	"github.com/matthewbaird/pedigree/internal/types"
)

type capture struct{ events []DomainEvent }

func (c *capture) Publish(_ context.Context, evt DomainEvent) { c.events = append(c.events, evt) }

func TestNewMutation(t *testing.T) {
	set := NewMutation(MutationPayload{NodeID: "7", Properties: map[string]any{"setGender": "F"}})
	assert.Equal(t, TypeSetProperty, set.EventType)
	assert.Equal(t, "7", set.NodeID())
	assert.Equal(t, "Node 7: [setGender]", set.Summary)

	mod := NewMutation(MutationPayload{NodeID: "7", Modifications: map[string]any{"makePlaceholder": true}})
	assert.Equal(t, TypeModify, mod.EventType)

	var p MutationPayload
	require.NoError(t, mod.Decode(&p))
	assert.Equal(t, map[string]any{"makePlaceholder": true}, p.Modifications)
}

func TestEventNames(t *testing.T) {
	assert.Equal(t, "pedigree:person:set:hpo", NewTermsChanged(term.KindHPO, TermsPayload{NodeID: "1"}).EventType)
	assert.Equal(t, "pedigree:person:set:genes", NewTermsChanged(term.KindGene, TermsPayload{NodeID: "1"}).EventType)
	assert.Equal(t, TypeCreateRecord, NewRecordAction("1", "createGenO").EventType)
	assert.Equal(t, TypeViewRecord, NewRecordAction("1", "viewGenO").EventType)
	assert.Equal(t, "error", NewSynced(SyncedPayload{NodeID: "1", Outcome: "error"}).Severity)
	assert.Equal(t, "warning", NewSynced(SyncedPayload{NodeID: "1", Outcome: "stale"}).Severity)
	assert.Empty(t, NewLoadFinished(LoadPayload{NodeIDs: []string{"1"}}).NodeID())
}

func TestActivityRecorderFansOut(t *testing.T) {
	store := activity.NewMemoryStore()
	bus := &capture{}
	rec := NewActivityRecorder(store)
	rec.SetPublisher(bus)

	evt := NewRecordCreated(RecordCreatedPayload{NodeID: "7", PhenopacketID: "pp-1", Missing: []string{"interpretation"}})
	require.NoError(t, rec.Record(context.Background(), evt))

	got, _, total, err := store.QueryByEntity(context.Background(), "phenopacket", "pp-1", activity.QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "target", got[0].EntityRole)
	assert.Equal(t, activity.SeverityError, got[0].Severity)

	_, _, total, err = store.QueryByEntity(context.Background(), "person", "7", activity.QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	require.Len(t, bus.events, 1)
	assert.Equal(t, evt.ID, bus.events[0].ID)
}

type failingStore struct {
	activity.Store
	writes int
}

func (f *failingStore) WriteEntries(context.Context, []types.ActivityEntry) error {
	f.writes++
	return assert.AnError
}

func TestActivityRecorderPublishesWhenStoreFails(t *testing.T) {
	store := &failingStore{}
	bus := &capture{}
	rec := NewActivityRecorder(store)
	rec.SetPublisher(bus)

	evt := NewMutation(MutationPayload{NodeID: "7", Properties: map[string]any{"setGender": "F"}})
	err := rec.Record(context.Background(), evt)
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), TypeSetProperty)

	require.Len(t, bus.events, 1)
	assert.Equal(t, evt.ID, bus.events[0].ID)
}

func TestActivityRecorderSkipsStoreWithoutEntities(t *testing.T) {
	store := &failingStore{}
	bus := &capture{}
	rec := NewActivityRecorder(store)
	rec.SetPublisher(bus)

	require.NoError(t, rec.Record(context.Background(), NewLoadFinished(LoadPayload{})))
	assert.Zero(t, store.writes)
	assert.Len(t, bus.events, 1)
}
