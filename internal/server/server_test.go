package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/pedigree/internal/activity"
	"github.com/matthewbaird/pedigree/internal/clinical"
	"github.com/matthewbaird/pedigree/internal/editor"
	"github.com/matthewbaird/pedigree/internal/identity"
	"github.com/matthewbaird/pedigree/internal/legend"
	"github.com/matthewbaird/pedigree/internal/menu"
	"github.com/matthewbaird/pedigree/internal/pedigree"
	"github.com/matthewbaird/pedigree/internal/types"
)

// stubRegistry serves catalogs and pedigree blobs. Record calls are not
// expected and panic through the nil embedded interface.
type stubRegistry struct {
	editor.Registry
	blob  json.RawMessage
	saved json.RawMessage
}

func (r *stubRegistry) Genes(ctx context.Context) ([]clinical.GeneOption, error) {
	return []clinical.GeneOption{{Symbol: "BRCA1", HGNCID: "HGNC:1100"}}, nil
}

func (r *stubRegistry) Disorders(ctx context.Context) ([]clinical.DisorderOption, error) {
	return nil, assert.AnError
}

func (r *stubRegistry) HPOTerms(ctx context.Context) ([]clinical.HPOOption, error) {
	return nil, nil
}

func (r *stubRegistry) PedigreeData(ctx context.Context, phenopacketID string) (json.RawMessage, error) {
	return r.blob, nil
}

func (r *stubRegistry) SavePedigreeData(ctx context.Context, phenopacketID string, doc json.RawMessage) error {
	r.saved = doc
	return nil
}

type testEnv struct {
	server   *Server
	editor   *editor.Editor
	registry *stubRegistry
	store    *activity.MemoryStore
	handler  http.Handler
}

func newTestEnv(t *testing.T, cfg editor.Config) *testEnv {
	t.Helper()
	reg := &stubRegistry{}
	cfg.Clock = &menu.ManualClock{}
	ed, err := editor.New(reg, nil, nil, cfg, nil)
	require.NoError(t, err)
	store := activity.NewMemoryStore()
	srv := New(ed, store, nil, nil)
	return &testEnv{server: srv, editor: ed, registry: reg, store: store, handler: srv.Handler()}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, editor.Config{})
	rec := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

func TestMenuEditOverHTTP(t *testing.T) {
	env := newTestEnv(t, editor.Config{})

	rec := env.do(t, http.MethodPost, "/v1/persons", map[string]string{"id": "1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/v1/menu/show", ShowData{NodeID: "1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[menu.View](t, rec)
	assert.True(t, view.Visible)
	assert.Equal(t, "1", view.NodeID)

	rec = env.do(t, http.MethodPost, "/v1/menu/input", InputData{Field: pedigree.FieldAdopted, Value: true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/v1/pedigree", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[pedigree.Document](t, rec)
	require.Len(t, doc.Nodes, 1)
	assert.True(t, doc.Nodes[0].Properties.IsAdopted)

	rec = env.do(t, http.MethodPost, "/v1/menu/click", ClickData{Region: "canvas"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[menu.View](t, rec).Visible)

	rec = env.do(t, http.MethodGet, "/v1/menu", nil)
	assert.False(t, decode[menu.View](t, rec).Visible)
}

func TestErrorMapping(t *testing.T) {
	env := newTestEnv(t, editor.Config{})
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/persons", map[string]string{"id": "1"}).Code)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"duplicate person", http.MethodPost, "/v1/persons", map[string]string{"id": "1"}, http.StatusConflict, "NODE_EXISTS"},
		{"missing id", http.MethodPost, "/v1/persons", map[string]string{}, http.StatusBadRequest, "INVALID_BODY"},
		{"unknown person", http.MethodPost, "/v1/menu/show", ShowData{NodeID: "9"}, http.StatusNotFound, "NOT_FOUND"},
		{"remove unknown", http.MethodDelete, "/v1/persons/9", nil, http.StatusNotFound, "NOT_FOUND"},
		{"input unbound", http.MethodPost, "/v1/menu/input", InputData{Field: pedigree.FieldAdopted, Value: true}, http.StatusConflict, "MENU_NOT_BOUND"},
		{"bad region", http.MethodPost, "/v1/menu/click", ClickData{Region: "sky"}, http.StatusBadRequest, "INVALID_REGION"},
		{"no family", http.MethodPost, "/v1/pedigree/load", nil, http.StatusPreconditionFailed, "NO_FAMILY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode[map[string]string](t, rec)["code"])
		})
	}
}

func TestInputErrorsAfterShow(t *testing.T) {
	env := newTestEnv(t, editor.Config{})
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/persons", map[string]string{"id": "1"}).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/v1/menu/show", ShowData{NodeID: "1"}).Code)

	rec := env.do(t, http.MethodPost, "/v1/menu/input", InputData{Field: "no_such_field", Value: 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/menu/input", InputData{Field: identity.ActionCreate, Value: true})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "FIELD_LOCKED", decode[map[string]string](t, rec)["code"])
}

func TestCatalogs(t *testing.T) {
	env := newTestEnv(t, editor.Config{})

	rec := env.do(t, http.MethodGet, "/v1/catalog/genes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	genes := decode[struct {
		Items []clinical.GeneOption `json:"items"`
	}](t, rec)
	if diff := cmp.Diff([]clinical.GeneOption{{Symbol: "BRCA1", HGNCID: "HGNC:1100"}}, genes.Items); diff != "" {
		t.Errorf("genes (-want +got):\n%s", diff)
	}

	rec = env.do(t, http.MethodGet, "/v1/catalog/hpo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/v1/catalog/disorders", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestPedigreeLoadAndSave(t *testing.T) {
	env := newTestEnv(t, editor.Config{FamilyPhenopacketID: "pp-fam"})
	env.registry.blob = json.RawMessage(`{"nodes":[{"id":"7","type":"person","properties":{"fName":"Ada"}}]}`)

	rec := env.do(t, http.MethodPost, "/v1/pedigree/load", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	doc := decode[pedigree.Document](t, rec)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, "7", doc.Nodes[0].ID)
	assert.Equal(t, "Ada", doc.Nodes[0].Properties.FName)

	rec = env.do(t, http.MethodPost, "/v1/pedigree/save", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	saved, err := pedigree.DecodeDocument(env.registry.saved)
	require.NoError(t, err)
	if diff := cmp.Diff(doc, saved); diff != "" {
		t.Errorf("saved document (-want +got):\n%s", diff)
	}
}

func TestPutPedigreeReplacesGraph(t *testing.T) {
	env := newTestEnv(t, editor.Config{})
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/persons", map[string]string{"id": "1"}).Code)

	rec := env.do(t, http.MethodPut, "/v1/pedigree", json.RawMessage(`{"nodes":[{"id":"2","type":"person","properties":{}}]}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	doc := decode[pedigree.Document](t, rec)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, "2", doc.Nodes[0].ID)

	rec = env.do(t, http.MethodPut, "/v1/pedigree", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLegends(t *testing.T) {
	env := newTestEnv(t, editor.Config{})
	rec := env.do(t, http.MethodGet, "/v1/legends", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	legends := decode[[]editor.LegendView](t, rec)
	require.Len(t, legends, 3)
	assert.Equal(t, legend.DisordersTitle, legends[0].Name)
	assert.Empty(t, legends[0].Entries)
}

func TestActivityRoutes(t *testing.T) {
	env := newTestEnv(t, editor.Config{})
	now := time.Now().UTC()
	require.NoError(t, env.store.WriteEntries(context.Background(), []types.ActivityEntry{
		{EventID: "e1", EventType: "setproperty", OccurredAt: now.Add(-time.Minute), IndexedEntityType: "node", IndexedEntityID: "1", Summary: "Adopted set on 1", Category: "edit", Severity: "info"},
		{EventID: "e2", EventType: "identity:sync_failed", OccurredAt: now, IndexedEntityType: "node", IndexedEntityID: "1", Summary: "Registry lookup failed for 1", Category: "identity", Severity: "warning"},
		{EventID: "e3", EventType: "setproperty", OccurredAt: now, IndexedEntityType: "node", IndexedEntityID: "2", Summary: "Comments set on 2", Category: "edit", Severity: "info"},
	}))

	rec := env.do(t, http.MethodGet, "/v1/activity/entity/node/1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	feed := decode[struct {
		Activities []types.ActivityEntry `json:"activities"`
		TotalCount int                   `json:"total_count"`
	}](t, rec)
	assert.Equal(t, 2, feed.TotalCount)
	require.Len(t, feed.Activities, 2)
	assert.Equal(t, "e2", feed.Activities[0].EventID)

	rec = env.do(t, http.MethodGet, "/v1/activity/entity/node/1?min_severity=warning", nil)
	feed = decode[struct {
		Activities []types.ActivityEntry `json:"activities"`
		TotalCount int                   `json:"total_count"`
	}](t, rec)
	require.Len(t, feed.Activities, 1)
	assert.Equal(t, "e2", feed.Activities[0].EventID)

	rec = env.do(t, http.MethodPost, "/v1/activity/search", map[string]string{"query": "comments"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	found := decode[struct {
		Results    []types.ActivityEntry `json:"results"`
		TotalCount int                   `json:"total_count"`
	}](t, rec)
	require.Len(t, found.Results, 1)
	assert.Equal(t, "e3", found.Results[0].EventID)

	rec = env.do(t, http.MethodPost, "/v1/activity/search", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func dialHub(t *testing.T, env *testEnv) (*websocket.Conn, context.Context) {
	t.Helper()
	ts := httptest.NewServer(env.handler)
	t.Cleanup(ts.Close)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/v1/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn, ctx
}

// readUntil returns the next message of the given type.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string) map[string]any {
	t.Helper()
	for {
		var msg map[string]any
		require.NoError(t, wsjson.Read(ctx, conn, &msg))
		if msg["type"] == msgType {
			return msg
		}
	}
}

func TestWebSocketShowMenu(t *testing.T) {
	env := newTestEnv(t, editor.Config{})
	require.NoError(t, env.editor.AddPerson(context.Background(), "1"))
	conn, ctx := dialHub(t, env)

	hello := readUntil(t, ctx, conn, "hello")
	assert.NotEmpty(t, hello["data"].(map[string]any)["client_id"])
	readUntil(t, ctx, conn, "legends")
	initial := readUntil(t, ctx, conn, "menu")
	assert.Equal(t, false, initial["data"].(map[string]any)["visible"])

	data, _ := json.Marshal(ShowData{NodeID: "1"})
	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Type: "show", ID: "req-1", Data: data}))
	shown := readUntil(t, ctx, conn, "menu")
	assert.Equal(t, "req-1", shown["request_id"])
	assert.Equal(t, true, shown["data"].(map[string]any)["visible"])
	assert.Equal(t, "1", shown["data"].(map[string]any)["nodeID"])

	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Type: "bogus", ID: "req-2"}))
	failed := readUntil(t, ctx, conn, "error")
	assert.Equal(t, "req-2", failed["request_id"])
	assert.Equal(t, "unknown_type", failed["data"].(map[string]any)["code"])

	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Type: "ping", ID: "req-3"}))
	pong := readUntil(t, ctx, conn, "pong")
	assert.Equal(t, "req-3", pong["request_id"])
}

func TestWebSocketConfirm(t *testing.T) {
	env := newTestEnv(t, editor.Config{})
	hub := env.server.Hub()

	ok, err := hub.Confirm(context.Background(), "1", "Create record?")
	require.NoError(t, err)
	assert.False(t, ok, "no client connected")

	conn, ctx := dialHub(t, env)
	readUntil(t, ctx, conn, "hello")

	answered := make(chan bool, 1)
	go func() {
		ok, _ := hub.Confirm(ctx, "1", "Create record?")
		answered <- ok
	}()

	prompt := readUntil(t, ctx, conn, "confirm")
	assert.Equal(t, "Create record?", prompt["data"].(map[string]any)["message"])
	data, _ := json.Marshal(AnswerData{OK: true})
	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Type: "answer", ID: prompt["request_id"].(string), Data: data}))

	select {
	case ok := <-answered:
		assert.True(t, ok)
	case <-ctx.Done():
		t.Fatal("confirm not answered")
	}
}

func TestWebSocketConfirmTimesOut(t *testing.T) {
	env := newTestEnv(t, editor.Config{})
	hub := env.server.Hub()
	hub.SetConfirmTimeout(20 * time.Millisecond)

	conn, ctx := dialHub(t, env)
	readUntil(t, ctx, conn, "hello")

	ok, err := hub.Confirm(ctx, "1", "Create record?")
	require.NoError(t, err)
	assert.False(t, ok)
}
