package menu

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/pedigree/internal/legend"
	"github.com/matthewbaird/pedigree/internal/pedigree"
	"github.com/matthewbaird/pedigree/internal/term"
	"github.com/matthewbaird/pedigree/internal/types"
)

// testHost applies requests to a person the way the editor does.
type testHost struct {
	t         *testing.T
	person    *pedigree.Person
	menu      *Controller
	mutations []MutationRequest
	actions   []ActionRequest
	shown     []string
}

func (h *testHost) RequestMutation(req MutationRequest) {
	h.mutations = append(h.mutations, req)
	for m, v := range req.Properties {
		require.NoError(h.t, h.person.SetProperty(m, v))
	}
	for m, v := range req.Modifications {
		require.NoError(h.t, h.person.Modify(m, v))
	}
	h.menu.Update(nil)
}

func (h *testHost) RequestAction(req ActionRequest) { h.actions = append(h.actions, req) }
func (h *testHost) MenuShown(id string)             { h.shown = append(h.shown, id) }

func newTestMenu(t *testing.T) (*testHost, *ManualClock, *legend.Set) {
	t.Helper()
	schema, err := PersonSchema()
	require.NoError(t, err)

	legends := legend.NewSet(nil)
	g := pedigree.NewGraph(legends)
	p, err := g.Add("7")
	require.NoError(t, err)

	clock := &ManualClock{}
	h := &testHost{t: t, person: p}
	h.menu = New(schema, Options{Listener: h, Colors: legends, Clock: clock})
	return h, clock, legends
}

func TestPersonSchemaLoads(t *testing.T) {
	s, err := PersonSchema()
	require.NoError(t, err)
	assert.Equal(t, []string{"Personal", "Clinical", "Genetic", "Record"}, s.Tabs)

	byName := map[string]Descriptor{}
	for _, f := range s.Fields {
		byName[f.Name] = f
	}
	gender := byName[pedigree.FieldGender]
	assert.Equal(t, KindRadio, gender.Type)
	assert.Equal(t, "U", gender.Default)
	assert.Len(t, gender.Values, 4)

	gestation := byName[pedigree.FieldGestationAge].options()
	require.Len(t, gestation, 52)
	assert.Equal(t, Option{Actual: "", Displayed: "-"}, gestation[0])
	assert.Equal(t, Option{Actual: "1", Displayed: "1 week"}, gestation[2])
	assert.Equal(t, Option{Actual: "50", Displayed: "50 weeks"}, gestation[51])

	create := byName["createGenO"]
	require.NotNil(t, create.Disabled)
	assert.True(t, create.Disabled.All)
	assert.Equal(t, "Create record", create.Caption)
}

func TestLoadSchemaErrors(t *testing.T) {
	cases := map[string]string{
		"duplicate":     `tabs: [], fields: [{name: "a", type: "text"}, {name: "a", type: "checkbox"}]`,
		"unknown key":   `tabs: [], fields: [{name: "a", type: "text", colour: "red"}]`,
		"bad name":      `tabs: [], fields: [{name: "1a", type: "text"}]`,
		"reverse range": `tabs: [], fields: [{name: "a", type: "select", range: {start: 5, end: 1, item: ["x", "xs"]}}]`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadSchema([]byte(src))
			assert.ErrorIs(t, err, ErrSchema)
		})
	}
}

func TestUnknownKindSkipped(t *testing.T) {
	s, err := LoadSchema([]byte(`tabs: [], fields: [{name: "a", type: "slider"}, {name: "b", type: "text"}]`))
	require.NoError(t, err)
	c := New(s, Options{})
	_, ok := c.Control("a")
	assert.False(t, ok)
	_, ok = c.Control("b")
	assert.True(t, ok)
	assert.Len(t, c.Render().Fields, 1)
}

func TestShowReproducesSummary(t *testing.T) {
	h, _, _ := newTestMenu(t)
	p := h.person
	p.SetFirstName("ann")
	require.NoError(t, p.SetBirthDate(types.MustParseDate("1980-05-02")))
	require.NoError(t, p.SetDisorders([]*term.Disorder{term.NewDisorder("558", "Marfan syndrome")}))

	h.menu.Show(p)
	assert.True(t, h.menu.Visible())
	assert.True(t, p.Selected())
	assert.Equal(t, []string{"7"}, h.shown)

	for name, st := range p.Summary() {
		ctl, ok := h.menu.Control(name)
		require.True(t, ok, name)
		assert.True(t, ctl.Same(st.Value, ctl.Value()), name)
	}
	assert.Empty(t, h.mutations)
}

func TestRadioEditEmitsOneMutation(t *testing.T) {
	h, _, _ := newTestMenu(t)
	h.menu.Show(h.person)

	require.NoError(t, h.menu.HandleInput(pedigree.FieldGender, "F"))
	require.NoError(t, h.menu.HandleInput(pedigree.FieldGender, "F"))

	want := []MutationRequest{{NodeID: "7", Properties: map[string]any{pedigree.SetGender: "F"}}}
	if diff := cmp.Diff(want, h.mutations); diff != "" {
		t.Errorf("mutations (-want +got):\n%s", diff)
	}
	assert.Equal(t, types.Female, h.person.Gender())
}

func TestInactiveOptionsRefused(t *testing.T) {
	h, _, _ := newTestMenu(t)
	h.person.SetRelations(pedigree.Relations{HasRelationships: true})
	h.menu.Show(h.person)

	err := h.menu.HandleInput(pedigree.FieldLifeState, string(types.Unborn))
	assert.ErrorIs(t, err, ErrOptionUnavailable)
	err = h.menu.HandleInput(pedigree.FieldLifeState, "zombie")
	assert.ErrorIs(t, err, ErrInvalidInput)

	view := h.menu.Render()
	for _, f := range view.Fields {
		if f.Name != pedigree.FieldLifeState {
			continue
		}
		var shown []string
		for _, o := range f.Options {
			shown = append(shown, o.Actual)
		}
		assert.Equal(t, []string{"alive", "deceased"}, shown)
	}
}

func TestWholeFieldInactive(t *testing.T) {
	h, _, _ := newTestMenu(t)
	h.menu.Show(h.person)
	err := h.menu.HandleInput(pedigree.FieldGestationAge, "20")
	assert.ErrorIs(t, err, ErrFieldInactive)
	err = h.menu.HandleInput(pedigree.FieldPlaceholder, true)
	assert.ErrorIs(t, err, ErrFieldInactive)
}

func TestTextEditsDebounced(t *testing.T) {
	h, clock, _ := newTestMenu(t)
	h.menu.Show(h.person)

	for _, v := range []string{"a", "an", "ann"} {
		require.NoError(t, h.menu.HandleInput(pedigree.FieldFirstName, v))
		clock.Advance(time.Second)
	}
	assert.Empty(t, h.mutations)

	clock.Advance(time.Second)
	require.Len(t, h.mutations, 1)
	assert.Equal(t, map[string]any{pedigree.SetFirstName: "ann"}, h.mutations[0].Properties)
	assert.Equal(t, "Ann", h.person.FirstName())

	v, err := h.menu.Value(pedigree.FieldFirstName)
	require.NoError(t, err)
	assert.Equal(t, "Ann", v)
}

func TestDebouncedEditMatchingNodeIsDropped(t *testing.T) {
	h, clock, _ := newTestMenu(t)
	h.person.SetFirstName("Ann")
	h.menu.Show(h.person)

	require.NoError(t, h.menu.HandleInput(pedigree.FieldFirstName, "Anx"))
	require.NoError(t, h.menu.HandleInput(pedigree.FieldFirstName, "Ann"))
	clock.Advance(DefaultDebounce)
	assert.Empty(t, h.mutations)
}

func TestHideFlushesPendingEdits(t *testing.T) {
	h, _, _ := newTestMenu(t)
	h.menu.Show(h.person)
	require.NoError(t, h.menu.HandleInput(pedigree.FieldBirthDate, "1990-01-31"))

	h.menu.Hide()
	assert.False(t, h.menu.Visible())
	assert.False(t, h.person.Selected())
	assert.Nil(t, h.menu.Target())
	require.Len(t, h.mutations, 1)
	assert.Equal(t, types.MustParseDate("1990-01-31"), h.person.BirthDate())

	v, err := h.menu.Value(pedigree.FieldGender)
	require.NoError(t, err)
	assert.Equal(t, "U", v)

	assert.ErrorIs(t, h.menu.HandleInput(pedigree.FieldGender, "M"), ErrNotBound)
}

func renderedField(t *testing.T, c *Controller, name string) FieldView {
	t.Helper()
	for _, f := range c.Render().Fields {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("field %s not rendered", name)
	return FieldView{}
}

func TestHideRestoresDeclaredDisabledState(t *testing.T) {
	h, _, _ := newTestMenu(t)
	require.NoError(t, h.person.SetDisorders([]*term.Disorder{term.NewDisorder("123", "Syndrome A")}))
	h.menu.Show(h.person)
	require.NoError(t, h.menu.SetDisabled("createGenO", pedigree.ExcludeNone()))

	carrierNoneDisabled := func() bool {
		for _, o := range renderedField(t, h.menu, pedigree.FieldCarrier).Options {
			if o.Actual == pedigree.CarrierNone {
				return o.Disabled
			}
		}
		t.Fatal("no empty carrier option")
		return false
	}
	require.True(t, carrierNoneDisabled())
	require.False(t, renderedField(t, h.menu, "createGenO").Disabled)

	h.menu.Hide()
	assert.False(t, carrierNoneDisabled())
	assert.True(t, renderedField(t, h.menu, "createGenO").Disabled)
}

func TestClickOutside(t *testing.T) {
	h, _, _ := newTestMenu(t)
	h.menu.Show(h.person)
	h.menu.ClickOutside(RegionPicker)
	assert.True(t, h.menu.Visible())
	h.menu.ClickOutside(RegionCanvas)
	assert.False(t, h.menu.Visible())
}

func TestButtonsFollowExternalEnablement(t *testing.T) {
	h, _, _ := newTestMenu(t)
	h.menu.Show(h.person)

	assert.ErrorIs(t, h.menu.HandleInput("createGenO", nil), ErrFieldDisabled)

	require.NoError(t, h.menu.SetDisabled("createGenO", pedigree.ExcludeNone()))
	h.menu.Update(nil)
	require.NoError(t, h.menu.HandleInput("createGenO", nil))
	assert.Equal(t, []ActionRequest{{NodeID: "7", Action: "createGenO"}}, h.actions)

	assert.ErrorIs(t, h.menu.SetDisabled("nope", nil), ErrUnknownField)
}

func TestPickerFreeTextRules(t *testing.T) {
	h, _, _ := newTestMenu(t)
	require.NoError(t, h.person.SetHPO([]*term.HPOTerm{term.NewHPOTerm("", "Odd gait")}))
	h.menu.Show(h.person)

	err := h.menu.HandleInput(pedigree.FieldHPO, []any{"Odd gait", "Tall stature"})
	assert.ErrorIs(t, err, ErrFreeText)

	require.NoError(t, h.menu.HandleInput(pedigree.FieldHPO, []any{"Odd gait", "HP:0001519 | Disproportionate tall stature"}))
	require.Len(t, h.mutations, 1)
	require.Len(t, h.person.HPO(), 2)
	assert.Equal(t, "HP:0001519", h.person.HPO()[1].ExternalID())

	require.NoError(t, h.menu.HandleInput(pedigree.FieldDisorders, "ORPHA:558 | Marfan syndrome||My own disorder"))
	require.Len(t, h.person.Disorders(), 2)
	assert.True(t, h.person.Disorders()[1].UserDefined())
}

func TestPickerSameSelectionIsNoop(t *testing.T) {
	h, _, _ := newTestMenu(t)
	require.NoError(t, h.person.SetDisorders([]*term.Disorder{term.NewDisorder("558", "Marfan syndrome")}))
	h.menu.Show(h.person)

	require.NoError(t, h.menu.HandleInput(pedigree.FieldDisorders, []any{"ORPHA:558 | Marfan syndrome"}))
	assert.Empty(t, h.mutations)
}

func TestRenderCarriesLegendColors(t *testing.T) {
	h, _, _ := newTestMenu(t)
	require.NoError(t, h.person.SetDisorders([]*term.Disorder{term.NewDisorder("558", "Marfan syndrome")}))
	h.menu.Show(h.person)

	var items []ItemView
	for _, f := range h.menu.Render().Fields {
		if f.Name == pedigree.FieldDisorders {
			items = f.Items
		}
	}
	want := []ItemView{{Value: "ORPHA:558 | Marfan syndrome", ID: "558", Name: "Marfan syndrome", Color: legend.DisorderPalette[0]}}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("items (-want +got):\n%s", diff)
	}
}

func TestDebouncerReschedules(t *testing.T) {
	clock := &ManualClock{}
	d := NewDebouncer(clock, time.Second)
	var fired []string
	d.Schedule("a", func() { fired = append(fired, "a1") })
	clock.Advance(500 * time.Millisecond)
	d.Schedule("a", func() { fired = append(fired, "a2") })
	d.Schedule("b", func() { fired = append(fired, "b") })
	clock.Advance(500 * time.Millisecond)
	assert.Empty(t, fired)
	assert.Equal(t, 2, d.Pending())

	d.Cancel("b")
	clock.Advance(time.Second)
	assert.Equal(t, []string{"a2"}, fired)
	assert.Zero(t, d.Pending())
}

func TestDebouncerFlushInOrder(t *testing.T) {
	d := NewDebouncer(&ManualClock{}, time.Second)
	var fired []string
	for _, k := range []string{"z", "a", "m"} {
		d.Schedule(k, func() { fired = append(fired, k) })
	}
	d.Flush()
	assert.Equal(t, []string{"z", "a", "m"}, fired)
}
