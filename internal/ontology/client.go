// Package ontology resolves term names against the public Orphanet and HPO
// APIs. Client implements term.Resolver.
package ontology

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matthewbaird/pedigree/internal/term"
)

const (
	DefaultOrphaURL = "https://api.orphacode.org"
	DefaultHPOURL   = "https://hpo.jax.org"

	// Orphanet requires an apikey header but accepts any value.
	defaultOrphaKey = "5d29dd2f-8021-41e2-8146-3548d7ba409b"
)

// ErrUnsupportedKind is returned for term kinds with no name service.
var ErrUnsupportedKind = errors.New("ontology: no name service for term kind")

// APIError is a non-200 reply from an ontology service. Its Title is used as
// the placeholder name of a term whose lookup failed.
type APIError struct {
	Service    string
	StatusCode int
	Heading    string
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ontology: %s returned %d: %s %s", e.Service, e.StatusCode, e.Heading, e.Detail)
}

// Title implements term.Titled.
func (e *APIError) Title() string { return e.Heading }

// Config configures a Client.
type Config struct {
	OrphaURL   string
	HPOURL     string
	OrphaKey   string
	Language   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client looks up preferred term names.
type Client struct {
	httpClient *http.Client
	orphaURL   string
	hpoURL     string
	orphaKey   string
	language   string
}

// NewClient returns a Client, filling unset fields with the public
// endpoints.
func NewClient(cfg Config) *Client {
	c := &Client{
		httpClient: cfg.HTTPClient,
		orphaURL:   strings.TrimRight(cfg.OrphaURL, "/"),
		hpoURL:     strings.TrimRight(cfg.HPOURL, "/"),
		orphaKey:   cfg.OrphaKey,
		language:   cfg.Language,
	}
	if c.httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}
	if c.orphaURL == "" {
		c.orphaURL = DefaultOrphaURL
	}
	if c.hpoURL == "" {
		c.hpoURL = DefaultHPOURL
	}
	if c.orphaKey == "" {
		c.orphaKey = defaultOrphaKey
	}
	if c.language == "" {
		c.language = "EN"
	}
	return c
}

var _ term.Resolver = (*Client)(nil)

// ResolveName implements term.Resolver.
func (c *Client) ResolveName(ctx context.Context, kind term.Kind, externalID string) (string, error) {
	switch kind {
	case term.KindDisorder:
		return c.DisorderName(ctx, externalID)
	case term.KindHPO:
		return c.HPOName(ctx, externalID)
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
}

type orphaName struct {
	ORPHAcode     json.Number `json:"ORPHAcode"`
	PreferredTerm string      `json:"Preferred term"`
}

// DisorderName returns the Orphanet preferred term for an ORPHA code.
func (c *Client) DisorderName(ctx context.Context, orphaCode string) (string, error) {
	u := fmt.Sprintf("%s/%s/ClinicalEntity/orphacode/%s/Name", c.orphaURL, c.language, url.PathEscape(orphaCode))
	resp, err := doGet[orphaName](ctx, c, "orphanet", u, map[string]string{"apikey": c.orphaKey})
	if err != nil {
		return "", err
	}
	return resp.PreferredTerm, nil
}

type hpoTerm struct {
	Details struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"details"`
}

// HPOName returns the HPO name for an ID such as "HP:0001250".
func (c *Client) HPOName(ctx context.Context, hpoID string) (string, error) {
	u := fmt.Sprintf("%s/api/hpo/term/%s", c.hpoURL, url.PathEscape(hpoID))
	resp, err := doGet[hpoTerm](ctx, c, "hpo", u, nil)
	if err != nil {
		return "", err
	}
	return resp.Details.Name, nil
}

func doGet[Resp any](ctx context.Context, c *Client, service, u string, headers map[string]string) (*Resp, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", service, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(service, resp)
	}

	var out Resp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", service, err)
	}
	return &out, nil
}

// problem covers both services' error bodies: Orphanet sends title/detail,
// HPO sends error/message.
type problem struct {
	Title   string `json:"title"`
	Detail  string `json:"detail"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func parseError(service string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{Service: service, StatusCode: resp.StatusCode}

	var p problem
	if err := json.Unmarshal(body, &p); err == nil {
		apiErr.Heading = firstNonEmpty(p.Title, p.Message, p.Error)
		apiErr.Detail = firstNonEmpty(p.Detail, p.Error)
	}
	if apiErr.Heading == "" {
		apiErr.Heading = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
