package editor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/pedigree/internal/clinical"
	"github.com/matthewbaird/pedigree/internal/event"
	"github.com/matthewbaird/pedigree/internal/identity"
	"github.com/matthewbaird/pedigree/internal/legend"
	"github.com/matthewbaird/pedigree/internal/menu"
	"github.com/matthewbaird/pedigree/internal/pedigree"
	"github.com/matthewbaird/pedigree/internal/worker"
)

type fakeRegistry struct {
	mu          sync.Mutex
	individuals map[string]clinical.Individual
	blob        json.RawMessage
	saved       json.RawMessage
	cohortErr   error
	geneCalls   int
	members     []string
}

func (r *fakeRegistry) Demographics(ctx context.Context, nhsNumber string) (clinical.Individual, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ind, ok := r.individuals[nhsNumber]
	return ind, ok, nil
}

func (r *fakeRegistry) SpineDemographics(ctx context.Context, nhsNumber string) (clinical.SpinePatient, bool, error) {
	return clinical.SpinePatient{}, false, nil
}

func (r *fakeRegistry) AddCohortMember(ctx context.Context, cohortID, individualID string) (string, error) {
	r.mu.Lock()
	r.members = append(r.members, cohortID+"/"+individualID)
	r.mu.Unlock()
	return "member-1", nil
}

func (r *fakeRegistry) RemoveCohortMember(ctx context.Context, cohortID, phenopacketID string) (int, error) {
	return 1, nil
}

func (r *fakeRegistry) InsertPhenopacket(ctx context.Context) (string, error) { return "pp-new", nil }

func (r *fakeRegistry) UpsertIndividual(ctx context.Context, in clinical.IndividualInput) (string, error) {
	return "ind-new", nil
}

func (r *fakeRegistry) InsertInterpretation(ctx context.Context, phenopacketID, specialtyID string) (string, error) {
	return "interp-1", nil
}

func (r *fakeRegistry) AddCaseHistory(ctx context.Context, phenopacketID, status, notes string) (string, error) {
	return "case-1", nil
}

func (r *fakeRegistry) ReplacePhenotypicFeatures(ctx context.Context, phenopacketID string, terms []clinical.HPOOption) error {
	return nil
}

func (r *fakeRegistry) Genes(ctx context.Context) ([]clinical.GeneOption, error) {
	r.mu.Lock()
	r.geneCalls++
	r.mu.Unlock()
	return []clinical.GeneOption{{Symbol: "BRCA1", HGNCID: "HGNC:1100"}}, nil
}

func (r *fakeRegistry) Disorders(ctx context.Context) ([]clinical.DisorderOption, error) {
	return nil, errors.New("catalog down")
}

func (r *fakeRegistry) HPOTerms(ctx context.Context) ([]clinical.HPOOption, error) {
	return []clinical.HPOOption{{ID: "HP:0001250", Name: "Seizure"}}, nil
}

func (r *fakeRegistry) FamilyCohort(ctx context.Context, phenopacketID string) (clinical.Family, error) {
	if r.cohortErr != nil {
		return clinical.Family{}, r.cohortErr
	}
	return clinical.Family{ID: "fam-1", CohortID: "cohort-1"}, nil
}

func (r *fakeRegistry) PedigreeData(ctx context.Context, phenopacketID string) (json.RawMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blob, nil
}

func (r *fakeRegistry) SavePedigreeData(ctx context.Context, phenopacketID string, doc json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = doc
	return nil
}

// syncRecorder keeps every event and hands it straight to the worker, the
// way the bus would.
type syncRecorder struct {
	mu      sync.Mutex
	events  []event.DomainEvent
	handler interface {
		HandleEvent(ctx context.Context, evt event.DomainEvent) error
	}
}

func (r *syncRecorder) Record(ctx context.Context, evt event.DomainEvent) error {
	r.mu.Lock()
	r.events = append(r.events, evt)
	h := r.handler
	r.mu.Unlock()
	if h != nil {
		return h.HandleEvent(ctx, evt)
	}
	return nil
}

func (r *syncRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

func (r *syncRecorder) find(eventType string) []event.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event.DomainEvent
	for _, e := range r.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type answerPrompter struct {
	mu       sync.Mutex
	answer   bool
	confirms []string
	notices  []string
}

func (p *answerPrompter) Confirm(ctx context.Context, nodeID, message string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirms = append(p.confirms, message)
	return p.answer, nil
}

func (p *answerPrompter) Notify(ctx context.Context, nodeID, message string) {
	p.mu.Lock()
	p.notices = append(p.notices, message)
	p.mu.Unlock()
}

func (p *answerPrompter) Open(ctx context.Context, nodeID, url string) {}

type countingMetrics struct {
	mu       sync.Mutex
	assigned map[string]int
	released map[string]int
}

func (m *countingMetrics) SyncOutcome(string) {}
func (m *countingMetrics) StaleResponse()     {}
func (m *countingMetrics) RecordCreated(bool) {}

func (m *countingMetrics) LegendColorAssigned(l string) {
	m.mu.Lock()
	m.assigned[l]++
	m.mu.Unlock()
}

func (m *countingMetrics) LegendColorReleased(l string) {
	m.mu.Lock()
	m.released[l]++
	m.mu.Unlock()
}

type fixture struct {
	editor   *Editor
	registry *fakeRegistry
	recorder *syncRecorder
	worker   *worker.IdentitySyncWorker
	clock    *menu.ManualClock
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		registry: &fakeRegistry{individuals: map[string]clinical.Individual{}},
		recorder: &syncRecorder{},
		clock:    &menu.ManualClock{},
	}
	cfg.Clock = f.clock
	if cfg.Identity.CohortID == "" {
		cfg.Identity.CohortID = "cohort-1"
	}
	ed, err := New(f.registry, nil, f.recorder, cfg, nil)
	require.NoError(t, err)
	f.editor = ed
	f.worker = worker.NewIdentitySyncWorker(ed.Identity(), f.recorder, 2, nil)
	f.recorder.handler = f.worker
	return f
}

func (f *fixture) person(t *testing.T, id string) pedigree.Node {
	t.Helper()
	for _, n := range f.editor.Document().Nodes {
		if n.ID == id {
			return n
		}
	}
	t.Fatalf("no node %s", id)
	return pedigree.Node{}
}

func field(t *testing.T, v menu.View, name string) menu.FieldView {
	t.Helper()
	for _, fv := range v.Fields {
		if fv.Name == name {
			return fv
		}
	}
	t.Fatalf("no field %s", name)
	return menu.FieldView{}
}

func TestCheckboxEditAppliesImmediately(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	require.NoError(t, f.editor.AddPerson(ctx, "1"))
	require.NoError(t, f.editor.ShowMenu(ctx, "1"))

	require.NoError(t, f.editor.Input(ctx, pedigree.FieldAdopted, true))

	assert.True(t, f.person(t, "1").Properties.IsAdopted)
	assert.Equal(t, true, field(t, f.editor.View(), pedigree.FieldAdopted).Value)

	want := []string{event.TypeChange, event.TypeShowMenu, event.TypeSetProperty, event.TypeChange}
	if diff := cmp.Diff(want, f.recorder.types()); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestTextEditIsDebounced(t *testing.T) {
	f := newFixture(t, Config{Debounce: 2 * time.Second})
	ctx := context.Background()
	require.NoError(t, f.editor.AddPerson(ctx, "1"))
	require.NoError(t, f.editor.ShowMenu(ctx, "1"))

	require.NoError(t, f.editor.Input(ctx, pedigree.FieldFirstName, "an"))
	require.NoError(t, f.editor.Input(ctx, pedigree.FieldFirstName, "ann"))
	assert.Empty(t, f.person(t, "1").Properties.FName)

	f.clock.Advance(2 * time.Second)
	assert.Equal(t, "Ann", f.person(t, "1").Properties.FName)
	assert.Len(t, f.recorder.find(event.TypeSetProperty), 1)
}

func TestHideMenuFlushesPendingEdits(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	require.NoError(t, f.editor.AddPerson(ctx, "1"))
	require.NoError(t, f.editor.ShowMenu(ctx, "1"))

	require.NoError(t, f.editor.Input(ctx, pedigree.FieldComments, "seen in clinic"))
	f.editor.HideMenu(ctx)

	assert.Equal(t, "seen in clinic", f.person(t, "1").Properties.Comments)
	assert.False(t, f.editor.View().Visible)
}

func TestExternalIDChangeSyncsFromRegistry(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	var ind clinical.Individual
	require.NoError(t, json.Unmarshal([]byte(`{"id": "ind-1", "first_name": "ann", "last_name": "smith", "sex": "F", "phenopacket_id": "pp-1"}`), &ind))
	f.registry.individuals["1112223334"] = ind

	require.NoError(t, f.editor.AddPerson(ctx, "1"))
	require.NoError(t, f.editor.ShowMenu(ctx, "1"))
	assert.True(t, field(t, f.editor.View(), identity.ActionCreate).Disabled)

	require.NoError(t, f.editor.Input(ctx, pedigree.FieldExternalID, "111 222 3334"))
	f.clock.Advance(menu.DefaultDebounce)
	f.worker.Wait()

	props := f.person(t, "1").Properties
	assert.Equal(t, "Ann", props.FName)
	assert.Equal(t, "Smith", props.LName)
	assert.Equal(t, "pp-1", props.PhenopacketID)

	view := f.editor.View()
	assert.Equal(t, "Ann", field(t, view, pedigree.FieldFirstName).Value)
	assert.True(t, field(t, view, identity.ActionCreate).Disabled)
	assert.False(t, field(t, view, identity.ActionUpdate).Disabled)
	assert.False(t, field(t, view, identity.ActionView).Disabled)

	changed := f.recorder.find(event.TypeExternalIDChanged)
	require.Len(t, changed, 1)
	var p event.ExternalIDPayload
	require.NoError(t, changed[0].Decode(&p))
	assert.Equal(t, "111 222 3334", p.Current)

	synced := f.recorder.find(event.TypeSynced)
	require.Len(t, synced, 1)
	var s event.SyncedPayload
	require.NoError(t, synced[0].Decode(&s))
	assert.Equal(t, string(identity.OutcomeRegistry), s.Outcome)
	assert.Equal(t, []string{"cohort-1/ind-1"}, f.registry.members)
}

func TestRecordButtonRaisesRecordAction(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	prompt := &answerPrompter{answer: false}
	f.editor.SetPrompter(prompt)

	require.NoError(t, f.editor.AddPerson(ctx, "1"))
	require.NoError(t, f.editor.ShowMenu(ctx, "1"))
	err := f.editor.Input(ctx, identity.ActionCreate, nil)
	require.ErrorIs(t, err, menu.ErrFieldDisabled)

	require.NoError(t, f.editor.Input(ctx, pedigree.FieldExternalID, "1112223334"))
	f.editor.HideMenu(ctx)
	f.worker.Wait()
	require.NoError(t, f.editor.ShowMenu(ctx, "1"))
	require.False(t, field(t, f.editor.View(), identity.ActionCreate).Disabled)

	require.NoError(t, f.editor.Input(ctx, identity.ActionCreate, nil))
	f.worker.Wait()

	assert.Len(t, f.recorder.find(event.TypeButtonAction), 1)
	assert.Len(t, f.recorder.find(event.TypeCreateRecord), 1)
	assert.Len(t, prompt.confirms, 1)
	assert.Equal(t, []string{"The registry record was not created."}, prompt.notices)
	assert.Empty(t, f.recorder.find(event.TypeRecordCreated))
}

func TestTermEditsRaiseTermAndLegendEvents(t *testing.T) {
	f := newFixture(t, Config{})
	m := &countingMetrics{assigned: map[string]int{}, released: map[string]int{}}
	f.editor.SetMetrics(m)
	ctx := context.Background()
	require.NoError(t, f.editor.AddPerson(ctx, "1"))
	require.NoError(t, f.editor.ShowMenu(ctx, "1"))

	require.NoError(t, f.editor.Input(ctx, pedigree.FieldDisorders, []any{"ORPHA:558 | Marfan syndrome"}))

	colored := f.recorder.find(event.TypeLegendColor)
	require.Len(t, colored, 1)
	var lp event.LegendPayload
	require.NoError(t, colored[0].Decode(&lp))
	assert.Equal(t, legend.DisordersTitle, lp.Legend)
	assert.Equal(t, legend.DisorderPalette[0], lp.Color)
	assert.Equal(t, 1, m.assigned[legend.DisordersTitle])

	items := field(t, f.editor.View(), pedigree.FieldDisorders).Items
	require.Len(t, items, 1)
	assert.Equal(t, legend.DisorderPalette[0], items[0].Color)

	require.Len(t, f.recorder.find(event.TypeDisordersChanged), 1)

	require.NoError(t, f.editor.Input(ctx, pedigree.FieldDisorders, []any{}))
	assert.Len(t, f.recorder.find(event.TypeLegendRelease), 1)
	assert.Equal(t, 1, m.released[legend.DisordersTitle])

	changes := f.recorder.find(event.TypeDisordersChanged)
	require.Len(t, changes, 2)
	var tp event.TermsPayload
	require.NoError(t, changes[1].Decode(&tp))
	assert.Len(t, tp.Removed, 1)
	assert.Empty(t, tp.Added)
}

func TestGeneFreeTextFollowsConfig(t *testing.T) {
	ctx := context.Background()
	for _, allow := range []bool{false, true} {
		f := newFixture(t, Config{AllowFreeTextGenes: allow})
		require.NoError(t, f.editor.AddPerson(ctx, "1"))
		require.NoError(t, f.editor.ShowMenu(ctx, "1"))
		err := f.editor.Input(ctx, pedigree.FieldGenes, []any{"MYGENE"})
		if allow {
			assert.NoError(t, err)
		} else {
			assert.ErrorIs(t, err, menu.ErrFreeText)
		}
	}
}

func TestRemovePersonClosesMenu(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	require.NoError(t, f.editor.AddPerson(ctx, "1"))
	require.NoError(t, f.editor.ShowMenu(ctx, "1"))

	require.NoError(t, f.editor.RemovePerson(ctx, "1"))
	assert.False(t, f.editor.View().Visible)
	assert.Empty(t, f.editor.Document().Nodes)
	assert.ErrorIs(t, f.editor.RemovePerson(ctx, "1"), pedigree.ErrNodeNotFound)
}

func TestBootstrapLoadsAndSaves(t *testing.T) {
	f := newFixture(t, Config{FamilyPhenopacketID: "fam-pp"})
	f.registry.cohortErr = errors.New("registry down")
	f.registry.blob = json.RawMessage(`{"nodes": [
		{"id": "1", "type": "Person", "properties": {"fName": "Ann"}},
		{"id": "2", "type": "Person", "properties": {"fName": "Bob"}}
	]}`)
	ctx := context.Background()

	require.NoError(t, f.editor.Bootstrap(ctx))
	f.worker.Wait()
	assert.Len(t, f.editor.Document().Nodes, 2)

	loaded := f.recorder.find(event.TypeLoadFinished)
	require.Len(t, loaded, 1)
	var lp event.LoadPayload
	require.NoError(t, loaded[0].Decode(&lp))
	assert.Equal(t, []string{"1", "2"}, lp.NodeIDs)
	assert.Len(t, f.recorder.find(event.TypeSynced), 2)

	require.NoError(t, f.editor.Save(ctx))
	doc, err := pedigree.DecodeDocument(f.registry.saved)
	require.NoError(t, err)
	if diff := cmp.Diff(f.editor.Document(), doc); diff != "" {
		t.Errorf("saved document (-want +got):\n%s", diff)
	}
}

func TestLoadWithoutFamily(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	assert.NoError(t, f.editor.Bootstrap(ctx))
	assert.ErrorIs(t, f.editor.Load(ctx), ErrNoFamily)
	assert.ErrorIs(t, f.editor.Save(ctx), ErrNoFamily)
}

func TestCatalogsAreCached(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	for range 3 {
		genes, err := f.editor.Genes(ctx)
		require.NoError(t, err)
		assert.Equal(t, "BRCA1", genes[0].Symbol)
	}
	assert.Equal(t, 1, f.registry.geneCalls)

	_, err := f.editor.Disorders(ctx)
	assert.ErrorContains(t, err, "loading disorders catalog")
}

func TestHostWriteRestoresOnError(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	require.NoError(t, f.editor.AddPerson(ctx, "1"))
	h := host{f.editor}

	boom := errors.New("boom")
	err := h.Write("1", func(p *pedigree.Person) error {
		p.SetFirstName("changed")
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, f.person(t, "1").Properties.FName)

	require.NoError(t, h.Write("1", func(p *pedigree.Person) error {
		p.SetFirstName("kept")
		return nil
	}))
	assert.Equal(t, "Kept", f.person(t, "1").Properties.FName)
	assert.ErrorIs(t, h.Write("9", func(*pedigree.Person) error { return nil }), pedigree.ErrNodeNotFound)
}
