// Package config loads the editor configuration: an optional CUE or JSON
// file, unified with the embedded schema, with PEDIGREE_* environment
// variables taking precedence over the file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed config.cue
var schemaSource []byte

var ErrInvalid = errors.New("config: invalid configuration")

// Environment selects the registry deployment.
type Environment string

const (
	Live    Environment = "LIVE"
	PreProd Environment = "PREPROD"
	Test    Environment = "TEST"
	Develop Environment = "DEVELOP"
	Local   Environment = "LOCAL"
)

type endpoints struct {
	graphql     string
	application string
}

var deployments = map[Environment]endpoints{
	Live:    {"https://graphql.northwestglh.com/v1/graphql", "https://gen-o.northwestglh.com"},
	PreProd: {"https://preprod-graphql.northwestglh.com/v1/graphql", "https://preprod-gen-o.northwestglh.com"},
	Test:    {"https://test-graphql.northwestglh.com/v1/graphql", "https://test-gen-o.northwestglh.com"},
	Develop: {"https://develop-graphql.northwestglh.com/v1/graphql", "https://develop-gen-o.northwestglh.com"},
	Local:   {"http://localhost:4100/v1/graphql", "http://localhost:3000"},
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// OntologyConfig points the name resolvers at their services. Empty fields
// use the public endpoints.
type OntologyConfig struct {
	OrphaURL string `json:"orpha_url"`
	HPOURL   string `json:"hpo_url"`
	OrphaKey string `json:"orpha_key"`
	Language string `json:"language"`
}

// Config is the editor configuration.
type Config struct {
	Environment         Environment    `json:"environment"`
	ListenAddr          string         `json:"listen_addr"`
	Log                 LogConfig      `json:"log"`
	ActivityDB          string         `json:"activity_db"`
	Token               string         `json:"token"`
	SpecialtyID         string         `json:"specialty_id"`
	FamilyPhenopacketID string         `json:"family_phenopacket_id"`
	Debounce            string         `json:"debounce"`
	SyncBatchLimit      int            `json:"sync_batch_limit"`
	FindingWidth        int            `json:"finding_width"`
	Ontology            OntologyConfig `json:"ontology"`
	Genes               struct {
		AllowFreeText bool `json:"allow_free_text"`
	} `json:"genes"`

	// Derived from Environment.
	GraphQLURL     string        `json:"-"`
	ApplicationURL string        `json:"-"`
	DebounceDelay  time.Duration `json:"-"`
}

// envOverrides maps environment variables to config paths.
var envOverrides = map[string]string{
	"PEDIGREE_ENVIRONMENT":           "environment",
	"PEDIGREE_ADDR":                  "listen_addr",
	"PEDIGREE_LOG_LEVEL":             "log.level",
	"PEDIGREE_LOG_FORMAT":            "log.format",
	"PEDIGREE_DB":                    "activity_db",
	"PEDIGREE_TOKEN":                 "token",
	"PEDIGREE_SPECIALTY_ID":          "specialty_id",
	"PEDIGREE_FAMILY_PHENOPACKET_ID": "family_phenopacket_id",
	"PEDIGREE_DEBOUNCE":              "debounce",
}

// Load reads the file at path (if not empty), applies overrides from
// lookupEnv and validates the result. A nil lookupEnv reads the process
// environment.
func Load(path string, lookupEnv func(string) (string, bool)) (Config, error) {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	var src []byte
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		src = b
	}
	return Parse(src, path, lookupEnv)
}

// Parse is Load on an in-memory document.
func Parse(src []byte, filename string, lookupEnv func(string) (string, bool)) (Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaSource, cue.Filename("config.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compiling config schema: %w", err)
	}

	data := map[string]any{}
	if len(strings.TrimSpace(string(src))) > 0 {
		file := ctx.CompileBytes(src, cue.Filename(filename))
		if err := file.Err(); err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		if err := file.Decode(&data); err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	if lookupEnv != nil {
		for name, path := range envOverrides {
			if v, ok := lookupEnv(name); ok && v != "" {
				setPath(data, path, v)
			}
		}
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(data))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	d, err := time.ParseDuration(cfg.Debounce)
	if err != nil {
		return Config{}, fmt.Errorf("%w: debounce: %v", ErrInvalid, err)
	}
	cfg.DebounceDelay = d
	ep := deployments[cfg.Environment]
	cfg.GraphQLURL, cfg.ApplicationURL = ep.graphql, ep.application
	return cfg, nil
}

func setPath(m map[string]any, path, value string) {
	parts := strings.Split(path, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

// NewLogger builds the process logger.
func NewLogger(cfg LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
