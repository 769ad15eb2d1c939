package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/matsen/bibrender/internal/author"
	"github.com/matsen/bibrender/internal/export"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// selectFields contains the standard field list for SELECT queries.
const selectFields = `section, key, type, sort_key, date, authors_json, title, text, html`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS citations (
			section TEXT NOT NULL,
			key TEXT NOT NULL,
			type TEXT NOT NULL,
			sort_key TEXT NOT NULL,
			date TEXT NOT NULL,
			authors_json TEXT,
			title TEXT,
			text TEXT NOT NULL,
			html TEXT NOT NULL,
			PRIMARY KEY (section, key)
		);

		CREATE INDEX IF NOT EXISTS idx_citations_sort_key ON citations(sort_key);

		-- Full-text search virtual table (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS citations_fts USING fts5(
			section,
			key,
			title,
			authors_text,
			text
		);
	`

	_, err := db.Exec(schema)
	return err
}

// Rebuild replaces the catalog contents with records. It returns the
// number of records stored.
func (d *DB) Rebuild(records []export.Record) (n int, err error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err := tx.Exec("DELETE FROM citations"); err != nil {
		return 0, fmt.Errorf("clearing citations table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM citations_fts"); err != nil {
		return 0, fmt.Errorf("clearing citations_fts table: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO citations (` + selectFields + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing citations insert: %w", err)
	}
	defer stmt.Close()

	ftsStmt, err := tx.Prepare(`
		INSERT INTO citations_fts (section, key, title, authors_text, text)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for _, rec := range records {
		var authorsJSON []byte
		if len(rec.Authors) > 0 {
			authorsJSON, err = json.Marshal(rec.Authors)
			if err != nil {
				return 0, fmt.Errorf("marshaling authors for %s: %w", rec.Key, err)
			}
		}

		_, err = stmt.Exec(
			rec.Section, rec.Key, rec.Type, rec.SortKey, rec.Date,
			nullableString(authorsJSON), nullableStringValue(rec.Title),
			rec.Text, rec.HTML,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting citation %s: %w", rec.Key, err)
		}

		_, err = ftsStmt.Exec(rec.Section, rec.Key, rec.Title, strings.Join(rec.Authors, ", "), rec.Text)
		if err != nil {
			return 0, fmt.Errorf("inserting fts for %s: %w", rec.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return len(records), nil
}

// Search performs a full-text search, newest first. A limit of zero or
// less returns every match.
func (d *DB) Search(query string, limit int) ([]export.Record, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := d.db.Query(`
		SELECT `+selectFields+`
		FROM citations
		WHERE (section, key) IN (
			SELECT section, key FROM citations_fts WHERE citations_fts MATCH ?)
		ORDER BY sort_key DESC, section, key
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// SearchByAuthor returns citations with an author matching name, newest
// first. Candidates come from a prefix search on author names and are
// then checked with author.Query, so "Yu" does not match "Yujia".
func (d *DB) SearchByAuthor(name string, limit int) ([]export.Record, error) {
	q := author.ParseQuery(name)
	if q.Last == "" {
		return nil, nil
	}

	rows, err := d.db.Query(`
		SELECT `+selectFields+`
		FROM citations
		WHERE (section, key) IN (
			SELECT section, key FROM citations_fts WHERE citations_fts MATCH ?)
		ORDER BY sort_key DESC, section, key`, "authors_text:"+prepareAuthorQuery(q.Last))
	if err != nil {
		return nil, fmt.Errorf("searching author: %w", err)
	}
	defer rows.Close()

	candidates, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}

	var out []export.Record
	for _, rec := range candidates {
		if limit > 0 && len(out) >= limit {
			break
		}
		for _, a := range rec.Authors {
			if q.MatchesName(a) {
				out = append(out, rec)
				break
			}
		}
	}
	return out, nil
}

// ListAll returns all citations, newest first, optionally limited.
func (d *DB) ListAll(limit int) ([]export.Record, error) {
	query := `SELECT ` + selectFields + ` FROM citations ORDER BY sort_key DESC, section, key`
	var args []interface{}

	if limit > 0 {
		query += " LIMIT ?"
		args = []interface{}{limit}
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing citations: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Count returns the total number of citations.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM citations").Scan(&count)
	return count, err
}

// prepareAuthorQuery prepares an author name for FTS5 search with prefix matching.
func prepareAuthorQuery(name string) string {
	var terms []string
	for _, part := range strings.Fields(name) {
		escaped := strings.ReplaceAll(part, "\"", "\"\"")
		terms = append(terms, "\""+escaped+"\"*")
	}
	return "(" + strings.Join(terms, " AND ") + ")"
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (export.Record, error) {
	var rec export.Record
	var authorsJSON, title sql.NullString

	err := s.Scan(
		&rec.Section, &rec.Key, &rec.Type, &rec.SortKey, &rec.Date,
		&authorsJSON, &title, &rec.Text, &rec.HTML,
	)
	if err != nil {
		return rec, err
	}

	rec.Title = title.String
	if authorsJSON.Valid && authorsJSON.String != "" {
		if err := json.Unmarshal([]byte(authorsJSON.String), &rec.Authors); err != nil {
			return rec, fmt.Errorf("parsing authors JSON for %s: %w", rec.Key, err)
		}
	}
	return rec, nil
}

func scanRecords(rows *sql.Rows) ([]export.Record, error) {
	var records []export.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func nullableString(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	// For simple queries, just quote the terms
	// FTS5 uses double quotes for phrase matching
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// If query contains special chars, quote it
	if strings.ContainsAny(query, "\"*+-:(){}[]^~.,'&") {
		// Escape internal quotes and wrap in quotes
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
