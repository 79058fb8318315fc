package ontology

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/pedigree/internal/term"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /EN/ClinicalEntity/orphacode/558/Name", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"ORPHAcode": 558, "Preferred term": "Marfan syndrome"}`))
	})
	mux.HandleFunc("GET /EN/ClinicalEntity/orphacode/0/Name", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"title": "Not Found", "detail": "no such code", "status": 404}`))
	})
	mux.HandleFunc("GET /api/hpo/term/HP:0001250", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"details": {"id": "HP:0001250", "name": "Seizure"}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveName(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(Config{OrphaURL: srv.URL, HPOURL: srv.URL})

	name, err := c.ResolveName(context.Background(), term.KindDisorder, "558")
	require.NoError(t, err)
	assert.Equal(t, "Marfan syndrome", name)

	name, err = c.ResolveName(context.Background(), term.KindHPO, "HP:0001250")
	require.NoError(t, err)
	assert.Equal(t, "Seizure", name)
}

func TestResolveName_APIErrorCarriesTitle(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(Config{OrphaURL: srv.URL, HPOURL: srv.URL})

	_, err := c.ResolveName(context.Background(), term.KindDisorder, "0")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	var titled term.Titled
	require.True(t, errors.As(err, &titled))
	assert.Equal(t, "Not Found", titled.Title())
}

func TestResolveName_UnsupportedKind(t *testing.T) {
	c := NewClient(Config{})
	_, err := c.ResolveName(context.Background(), term.KindGene, "HGNC:1")
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestLoaderWithClient(t *testing.T) {
	srv := newTestServer(t)
	l := term.NewLoader(NewClient(Config{OrphaURL: srv.URL, HPOURL: srv.URL}), nil)

	ok := term.NewDisorder("558", "")
	missing := term.NewDisorder("0", "")
	l.Load(context.Background(), ok, nil)
	l.Load(context.Background(), missing, nil)
	l.Wait()

	assert.Equal(t, "Marfan syndrome", ok.Name())
	assert.Equal(t, "Not Found", missing.Name())
}
