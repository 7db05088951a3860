// Package store persists finished corpora (both dictionaries and the
// filtered sparse table) to SQL so they can be reloaded without re-running
// the pipeline.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/bow"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/database"
	apperrors "github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/errors"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS corpora (
		name      TEXT PRIMARY KEY,
		documents INTEGER NOT NULL,
		types     INTEGER NOT NULL,
		total     BIGINT NOT NULL,
		saved_at  BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS corpus_types (
		corpus   TEXT NOT NULL,
		token_id INTEGER NOT NULL,
		token    TEXT NOT NULL,
		PRIMARY KEY (corpus, token_id)
	)`,
	`CREATE TABLE IF NOT EXISTS corpus_documents (
		corpus TEXT NOT NULL,
		doc_id INTEGER NOT NULL,
		label  TEXT NOT NULL,
		PRIMARY KEY (corpus, doc_id)
	)`,
	`CREATE TABLE IF NOT EXISTS corpus_counts (
		corpus   TEXT NOT NULL,
		doc_id   INTEGER NOT NULL,
		token_id INTEGER NOT NULL,
		count    INTEGER NOT NULL,
		PRIMARY KEY (corpus, doc_id, token_id)
	)`,
}

// Corpus is everything needed to hand a preprocessed corpus to a topic
// model.
type Corpus struct {
	Name      string
	Types     *dictionary.Dictionary
	Documents *dictionary.Dictionary
	Table     *bow.Table
}

// Summary describes a stored corpus.
type Summary struct {
	Name      string
	Documents int
	Types     int
	Total     int
	SavedAt   time.Time
}

type Store struct {
	db     *database.Client
	logger *slog.Logger
}

// Open connects to the configured database and creates the schema.
func Open(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database client. Call Migrate before first use.
func New(db *database.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "corpus-store", "driver", db.Driver()),
	}
}

func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating corpus schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// insertBatch bounds the number of rows in one multi-row INSERT.
const insertBatch = 250

// SaveCorpus replaces any corpus stored under c.Name in a single transaction.
func (s *Store) SaveCorpus(ctx context.Context, c Corpus) error {
	if c.Name == "" {
		return fmt.Errorf("saving corpus without a name: %w", apperrors.ErrInvalidInput)
	}
	sb := s.db.Builder()
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		if err := s.deleteCorpus(ctx, tx, c.Name); err != nil {
			return err
		}
		query, args, err := sb.Insert("corpora").
			Columns("name", "documents", "types", "total", "saved_at").
			Values(c.Name, c.Documents.Len(), c.Types.Len(), c.Table.Total(), time.Now().UTC().Unix()).
			ToSql()
		if err != nil {
			return fmt.Errorf("building corpus insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting corpus: %w", err)
		}
		if err := s.insertDictionary(ctx, tx, "corpus_types", "token_id", "token", c.Name, c.Types); err != nil {
			return err
		}
		if err := s.insertDictionary(ctx, tx, "corpus_documents", "doc_id", "label", c.Name, c.Documents); err != nil {
			return err
		}
		return s.insertCounts(ctx, tx, c.Name, c.Table)
	})
	if err != nil {
		return fmt.Errorf("saving corpus %q: %w", c.Name, err)
	}
	s.logger.Info("corpus saved",
		"corpus", c.Name,
		"documents", c.Documents.Len(),
		"types", c.Types.Len(),
		"rows", c.Table.Len(),
	)
	return nil
}

// Delete removes a stored corpus. A missing corpus yields ErrNotFound.
func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.summary(ctx, name); err != nil {
		return err
	}
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		return s.deleteCorpus(ctx, tx, name)
	})
	if err != nil {
		return fmt.Errorf("deleting corpus %q: %w", name, err)
	}
	s.logger.Info("corpus deleted", "corpus", name)
	return nil
}

func (s *Store) deleteCorpus(ctx context.Context, tx *sql.Tx, name string) error {
	sb := s.db.Builder()
	for _, table := range []string{"corpus_counts", "corpus_documents", "corpus_types", "corpora"} {
		col := "corpus"
		if table == "corpora" {
			col = "name"
		}
		query, args, err := sb.Delete(table).Where(squirrel.Eq{col: name}).ToSql()
		if err != nil {
			return fmt.Errorf("building %s delete: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}

func (s *Store) insertDictionary(ctx context.Context, tx *sql.Tx, table, idCol, valCol, name string, d *dictionary.Dictionary) error {
	values := d.Tokens()
	for lo := 0; lo < len(values); lo += insertBatch {
		hi := min(lo+insertBatch, len(values))
		q := s.db.Builder().Insert(table).Columns("corpus", idCol, valCol)
		for i := lo; i < hi; i++ {
			q = q.Values(name, i+1, values[i])
		}
		if err := execInsert(ctx, tx, q); err != nil {
			return fmt.Errorf("inserting into %s: %w", table, err)
		}
	}
	return nil
}

func (s *Store) insertCounts(ctx context.Context, tx *sql.Tx, name string, t *bow.Table) error {
	rows := t.Rows()
	for lo := 0; lo < len(rows); lo += insertBatch {
		hi := min(lo+insertBatch, len(rows))
		q := s.db.Builder().Insert("corpus_counts").Columns("corpus", "doc_id", "token_id", "count")
		for _, r := range rows[lo:hi] {
			q = q.Values(name, r.Doc, r.Token, r.Count)
		}
		if err := execInsert(ctx, tx, q); err != nil {
			return fmt.Errorf("inserting count rows: %w", err)
		}
	}
	return nil
}

func execInsert(ctx context.Context, tx *sql.Tx, q squirrel.InsertBuilder) error {
	query, args, err := q.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

// LoadCorpus reads a stored corpus back. A missing corpus yields
// ErrNotFound.
func (s *Store) LoadCorpus(ctx context.Context, name string) (*Corpus, error) {
	if _, err := s.summary(ctx, name); err != nil {
		return nil, err
	}
	types, err := s.loadDictionary(ctx, "corpus_types", "token_id", "token", name)
	if err != nil {
		return nil, err
	}
	docs, err := s.loadDictionary(ctx, "corpus_documents", "doc_id", "label", name)
	if err != nil {
		return nil, err
	}
	table, err := s.LoadTable(ctx, name)
	if err != nil {
		return nil, err
	}
	return &Corpus{Name: name, Types: types, Documents: docs, Table: table}, nil
}

// LoadTable reads only the sparse table of a stored corpus.
func (s *Store) LoadTable(ctx context.Context, name string) (*bow.Table, error) {
	query, args, err := s.db.Builder().
		Select("doc_id", "token_id", "count").
		From("corpus_counts").
		Where(squirrel.Eq{"corpus": name}).
		OrderBy("doc_id", "token_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building count query: %w", err)
	}
	rows, err := s.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying counts of %q: %w", name, err)
	}
	defer rows.Close()

	var out []bow.Row
	for rows.Next() {
		var r bow.Row
		if err := rows.Scan(&r.Doc, &r.Token, &r.Count); err != nil {
			return nil, fmt.Errorf("scanning count row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading counts of %q: %w", name, err)
	}
	return bow.NewTable(out), nil
}

func (s *Store) loadDictionary(ctx context.Context, table, idCol, valCol, name string) (*dictionary.Dictionary, error) {
	query, args, err := s.db.Builder().
		Select(valCol).
		From(table).
		Where(squirrel.Eq{"corpus": name}).
		OrderBy(idCol).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building %s query: %w", table, err)
	}
	rows, err := s.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s of %q: %w", table, name, err)
	}
	defer rows.Close()

	var ordered []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		ordered = append(ordered, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s of %q: %w", table, name, err)
	}
	return dictionary.FromTokens(ordered), nil
}

var summaryColumns = []string{"name", "documents", "types", "total", "saved_at"}

func scanSummary(row squirrel.RowScanner) (Summary, error) {
	var sm Summary
	var savedAt int64
	if err := row.Scan(&sm.Name, &sm.Documents, &sm.Types, &sm.Total, &savedAt); err != nil {
		return Summary{}, err
	}
	sm.SavedAt = time.Unix(savedAt, 0).UTC()
	return sm, nil
}

func (s *Store) summary(ctx context.Context, name string) (Summary, error) {
	query, args, err := s.db.Builder().
		Select(summaryColumns...).
		From("corpora").
		Where(squirrel.Eq{"name": name}).
		ToSql()
	if err != nil {
		return Summary{}, fmt.Errorf("building corpus lookup: %w", err)
	}
	sm, err := scanSummary(s.db.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Summary{}, fmt.Errorf("corpus %q: %w", name, apperrors.ErrNotFound)
	}
	if err != nil {
		return Summary{}, fmt.Errorf("looking up corpus %q: %w", name, err)
	}
	return sm, nil
}

// List returns a summary of every stored corpus, newest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	query, args, err := s.db.Builder().
		Select(summaryColumns...).
		From("corpora").
		OrderBy("saved_at DESC", "name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building corpus listing: %w", err)
	}
	rows, err := s.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing corpora: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		sm, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning corpus row: %w", err)
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}
