package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "modernc.org/sqlite"

	"github.com/matthewbaird/pedigree/internal/types"
)

// Store is the interface for reading and writing activity entries.
type Store interface {
	// WriteEntries writes one or more activity entries (one event → many entries).
	WriteEntries(ctx context.Context, entries []types.ActivityEntry) error

	// QueryByEntity returns activity entries for a specific entity, newest
	// first. totalCount ignores the cursor and limit.
	QueryByEntity(ctx context.Context, entityType, entityID string, opts QueryOptions) (entries []types.ActivityEntry, nextCursor string, totalCount int, err error)

	// Search matches activity summaries case-insensitively.
	Search(ctx context.Context, query string, opts SearchOptions) (entries []types.ActivityEntry, totalCount int, err error)
}

const table = "activity_entries"

var columns = []string{
	"event_id", "event_type", "occurred_at", "indexed_entity_type", "indexed_entity_id",
	"entity_role", "source_refs", "summary", "category", "severity", "payload",
}

// SQLiteStore implements Store on a SQLite file. Queries and inserts are
// built with ent's SQL builder; the schema is plain DDL.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the activity database at path and
// migrates it.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening activity database: %w", err)
	}
	drv := entsql.OpenDB(dialect.SQLite, db)
	s := &SQLiteStore{db: drv.DB()}
	if err := s.CreateTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

const createTable = `CREATE TABLE IF NOT EXISTS activity_entries (
	event_id            TEXT NOT NULL,
	event_type          TEXT NOT NULL,
	occurred_at         INTEGER NOT NULL,
	indexed_entity_type TEXT NOT NULL,
	indexed_entity_id   TEXT NOT NULL,
	entity_role         TEXT NOT NULL,
	source_refs         TEXT NOT NULL DEFAULT '[]',
	summary             TEXT NOT NULL,
	category            TEXT NOT NULL,
	severity            TEXT NOT NULL,
	payload             TEXT,
	PRIMARY KEY (indexed_entity_type, indexed_entity_id, event_id)
)`

const createIndex = `CREATE INDEX IF NOT EXISTS idx_activity_entity_time
	ON activity_entries (indexed_entity_type, indexed_entity_id, occurred_at)`

// CreateTable creates the activity table and its lookup index.
func (s *SQLiteStore) CreateTable(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("creating activity table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, createIndex); err != nil {
		return fmt.Errorf("creating activity index: %w", err)
	}
	return nil
}

// WriteEntries inserts activity entries. Entries already stored for the same
// entity and event are skipped.
func (s *SQLiteStore) WriteEntries(ctx context.Context, entries []types.ActivityEntry) error {
	if len(entries) == 0 {
		return nil
	}
	insert := entsql.Dialect(dialect.SQLite).Insert(table).Columns(columns...)
	for _, e := range entries {
		refs, err := json.Marshal(e.SourceRefs)
		if err != nil {
			return fmt.Errorf("encoding source refs: %w", err)
		}
		var payload any
		if len(e.Payload) > 0 {
			payload = string(e.Payload)
		}
		insert.Values(
			e.EventID, e.EventType, e.OccurredAt.UnixNano(), e.IndexedEntityType, e.IndexedEntityID,
			e.EntityRole, string(refs), e.Summary, e.Category, e.Severity, payload,
		)
	}
	query, args := insert.OnConflict(entsql.DoNothing()).Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("writing activity entries: %w", err)
	}
	return nil
}

// QueryByEntity returns activity entries for a specific entity with filtering and pagination.
func (s *SQLiteStore) QueryByEntity(ctx context.Context, entityType, entityID string, opts QueryOptions) ([]types.ActivityEntry, string, int, error) {
	preds := []*entsql.Predicate{
		entsql.EQ("indexed_entity_type", entityType),
		entsql.EQ("indexed_entity_id", entityID),
	}
	if opts.Since != nil {
		preds = append(preds, entsql.GTE("occurred_at", opts.Since.UnixNano()))
	}
	if opts.Until != nil {
		preds = append(preds, entsql.LTE("occurred_at", opts.Until.UnixNano()))
	}
	if len(opts.Categories) > 0 {
		preds = append(preds, entsql.In("category", anys(opts.Categories)...))
	}
	if opts.MinSeverity != "" && opts.MinSeverity != SeverityInfo {
		var allowed []string
		for _, sev := range severityOrder {
			if AtLeast(sev, opts.MinSeverity) {
				allowed = append(allowed, sev)
			}
		}
		preds = append(preds, entsql.In("severity", anys(allowed)...))
	}

	total, err := s.count(ctx, preds)
	if err != nil {
		return nil, "", 0, err
	}
	if t, ok := cursorTime(opts.Cursor); ok {
		preds = append(preds, entsql.LT("occurred_at", t.UnixNano()))
	}

	limit := opts.limit()
	entries, err := s.selectEntries(ctx, preds, limit+1) // one extra for the cursor
	if err != nil {
		return nil, "", 0, err
	}
	var next string
	if len(entries) > limit {
		entries = entries[:limit]
		next = nextCursor(entries[len(entries)-1].OccurredAt)
	}
	return entries, next, total, nil
}

// Search matches activity summaries. SQLite's LIKE folds ASCII case.
func (s *SQLiteStore) Search(ctx context.Context, query string, opts SearchOptions) ([]types.ActivityEntry, int, error) {
	preds := []*entsql.Predicate{entsql.Like("summary", "%"+query+"%")}
	if opts.EntityType != "" {
		preds = append(preds, entsql.EQ("indexed_entity_type", opts.EntityType))
	}
	if opts.Since != nil {
		preds = append(preds, entsql.GTE("occurred_at", opts.Since.UnixNano()))
	}
	if len(opts.Categories) > 0 {
		preds = append(preds, entsql.In("category", anys(opts.Categories)...))
	}

	total, err := s.count(ctx, preds)
	if err != nil {
		return nil, 0, err
	}
	entries, err := s.selectEntries(ctx, preds, opts.limit())
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (s *SQLiteStore) count(ctx context.Context, preds []*entsql.Predicate) (int, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(entsql.Count("*")).
		From(entsql.Table(table)).
		Where(entsql.And(preds...)).
		Query()
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting activity entries: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) selectEntries(ctx context.Context, preds []*entsql.Predicate, limit int) ([]types.ActivityEntry, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(columns...).
		From(entsql.Table(table)).
		Where(entsql.And(preds...)).
		OrderBy(entsql.Desc("occurred_at"), entsql.Desc("rowid")).
		Limit(limit).
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying activity entries: %w", err)
	}
	defer rows.Close()

	var entries []types.ActivityEntry
	for rows.Next() {
		var (
			e        types.ActivityEntry
			at       int64
			refsJSON string
			payload  sql.NullString
		)
		err := rows.Scan(
			&e.EventID, &e.EventType, &at, &e.IndexedEntityType, &e.IndexedEntityID,
			&e.EntityRole, &refsJSON, &e.Summary, &e.Category, &e.Severity, &payload,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning activity entry: %w", err)
		}
		e.OccurredAt = time.Unix(0, at)
		if refsJSON != "" {
			_ = json.Unmarshal([]byte(refsJSON), &e.SourceRefs)
		}
		if payload.Valid {
			e.Payload = json.RawMessage(payload.String)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func anys(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
