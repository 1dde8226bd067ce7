/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

INTERFACES IMPLEMENTED:
  ledger.EntryStore / ledger.TxStore:  ledger entry persistence
  ledger.SeriesStore:                  number-series counters
  ledger.DocumentChecker:              existence checks
  ledger.AuditLog:                     lifecycle audit trail
  books.DocumentStore:                 documents
  books.AccountStore:                  chart of accounts

APPEND-ONLY ENFORCEMENT:
  The entries table is append-only with one exception: MarkReverted
  flips the reverted column 0→1. There is no other UPDATE and no
  DELETE on entries; corrections happen via mirrored reversal rows.

ATOMICITY:
  WithTx wraps posting and reversal writes in a database transaction,
  so a reference's rows become visible together or not at all.

CONCURRENCY:
  A sync.RWMutex serializes writers, matching the single-writer
  assumption of the number series. SQLite is opened in WAL mode so
  readers don't block.

USAGE:
  store, err := sqlite.New("./data/books.db")
  defer store.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/ledger-engine/books"
	"github.com/warp/ledger-engine/ledger"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A :memory: database exists per connection; one pooled connection
	// keeps every query on the same database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Ledger entries (append-only; reverted is the only mutable column)
	CREATE TABLE IF NOT EXISTS entries (
		name INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		account TEXT NOT NULL,
		party TEXT,
		debit TEXT NOT NULL,
		credit TEXT NOT NULL,
		reference_type TEXT NOT NULL,
		reference_name TEXT NOT NULL,
		reverted INTEGER NOT NULL DEFAULT 0,
		reverts INTEGER,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_reference
		ON entries(reference_type, reference_name);
	CREATE INDEX IF NOT EXISTS idx_entries_account
		ON entries(account);

	-- Number series counters, keyed by prefix
	CREATE TABLE IF NOT EXISTS number_series (
		name TEXT PRIMARY KEY,
		current INTEGER,
		start INTEGER NOT NULL,
		pad_zeros INTEGER NOT NULL DEFAULT 4,
		reference_type TEXT NOT NULL
	);

	-- Documents
	CREATE TABLE IF NOT EXISTS documents (
		schema TEXT NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		date TEXT NOT NULL,
		status TEXT NOT NULL,
		party TEXT,
		settlement_account TEXT,
		from_account TEXT,
		to_account TEXT,
		amount TEXT,
		payload_json TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (schema, name)
	);

	CREATE INDEX IF NOT EXISTS idx_documents_status
		ON documents(schema, status);

	-- Chart of accounts
	CREATE TABLE IF NOT EXISTS accounts (
		name TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		parent TEXT
	);

	-- Lifecycle audit trail (append-only)
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		actor TEXT,
		action TEXT NOT NULL,
		schema TEXT NOT NULL,
		name TEXT NOT NULL,
		detail TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_reference
		ON audit_log(schema, name);
	`
	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// =============================================================================
// ENTRY STORE (ledger.EntryStore interface)
// =============================================================================

// AppendEntries persists rows and returns them with assigned names.
func (s *Store) AppendEntries(ctx context.Context, entries []ledger.Entry) ([]ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendEntries(ctx, s.db, entries)
}

func (s *Store) appendEntries(ctx context.Context, db execer, entries []ledger.Entry) ([]ledger.Entry, error) {
	query := `
		INSERT INTO entries
		(date, account, party, debit, credit, reference_type, reference_name, reverted, reverts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	created := make([]ledger.Entry, len(entries))
	for i, e := range entries {
		var reverts any
		if e.Reverts != 0 {
			reverts = int64(e.Reverts)
		}
		res, err := db.ExecContext(ctx, query,
			e.Date.UTC().Format(time.RFC3339),
			string(e.Account),
			nullString(string(e.Party)),
			e.Debit.String(),
			e.Credit.String(),
			string(e.ReferenceType),
			e.ReferenceName,
			boolToInt(e.Reverted),
			reverts,
			e.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to append entry: %w", err)
		}
		name, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to read entry name: %w", err)
		}
		e.Name = ledger.EntryName(name)
		created[i] = e
	}
	return created, nil
}

// EntriesByReference returns all rows for one document, ordered by name.
func (s *Store) EntriesByReference(ctx context.Context, refType ledger.SchemaName, refName string) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryEntries(ctx, s.db,
		entrySelect+" WHERE reference_type = ? AND reference_name = ? ORDER BY name ASC",
		string(refType), refName)
}

// EntriesByAccount returns all rows against one account, ordered by name.
func (s *Store) EntriesByAccount(ctx context.Context, account ledger.AccountName) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryEntries(ctx, s.db,
		entrySelect+" WHERE account = ? ORDER BY name ASC",
		string(account))
}

// AllEntries returns the newest entries up to limit (admin view).
func (s *Store) AllEntries(ctx context.Context, limit int) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryEntries(ctx, s.db, entrySelect+" ORDER BY name DESC LIMIT ?", limit)
}

// MarkReverted flips the reverted flag on the named rows. One-way.
func (s *Store) MarkReverted(ctx context.Context, names []ledger.EntryName) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return markReverted(ctx, s.db, names)
}

func markReverted(ctx context.Context, db execer, names []ledger.EntryName) error {
	if len(names) == 0 {
		return nil
	}
	placeholders := make([]string, len(names))
	args := make([]any, len(names))
	for i, n := range names {
		placeholders[i] = "?"
		args[i] = int64(n)
	}
	query := "UPDATE entries SET reverted = 1 WHERE name IN (" + strings.Join(placeholders, ", ") + ")"
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark entries reverted: %w", err)
	}
	return nil
}

const entrySelect = `
	SELECT name, date, account, party, debit, credit,
	       reference_type, reference_name, reverted, reverts, created_at
	FROM entries`

func (s *Store) queryEntries(ctx context.Context, db querier, query string, args ...any) ([]ledger.Entry, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (ledger.Entry, error) {
	var (
		e             ledger.Entry
		name          int64
		date          string
		party         sql.NullString
		debit, credit string
		reverted      int
		reverts       sql.NullInt64
		createdAt     string
	)

	err := rows.Scan(&name, &date, &e.Account, &party, &debit, &credit,
		&e.ReferenceType, &e.ReferenceName, &reverted, &reverts, &createdAt)
	if err != nil {
		return e, fmt.Errorf("failed to scan entry: %w", err)
	}

	e.Name = ledger.EntryName(name)
	e.Date, _ = time.Parse(time.RFC3339, date)
	e.Party = ledger.PartyName(party.String)
	e.Debit, _ = ledger.FromString(debit)
	e.Credit, _ = ledger.FromString(credit)
	e.Reverted = reverted != 0
	if reverts.Valid {
		e.Reverts = ledger.EntryName(reverts.Int64)
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return e, nil
}

// =============================================================================
// TRANSACTIONAL STORE (ledger.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.EntryStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx, parent: s}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

type txStore struct {
	tx     *sql.Tx
	parent *Store
}

func (ts *txStore) AppendEntries(ctx context.Context, entries []ledger.Entry) ([]ledger.Entry, error) {
	return ts.parent.appendEntries(ctx, ts.tx, entries)
}

func (ts *txStore) EntriesByReference(ctx context.Context, refType ledger.SchemaName, refName string) ([]ledger.Entry, error) {
	return ts.parent.queryEntries(ctx, ts.tx,
		entrySelect+" WHERE reference_type = ? AND reference_name = ? ORDER BY name ASC",
		string(refType), refName)
}

func (ts *txStore) MarkReverted(ctx context.Context, names []ledger.EntryName) error {
	return markReverted(ctx, ts.tx, names)
}

// =============================================================================
// SERIES STORE (ledger.SeriesStore interface)
// =============================================================================

// GetSeries returns the counter row for a prefix, or nil.
func (s *Store) GetSeries(ctx context.Context, name string) (*ledger.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		series  ledger.Series
		current sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT name, current, start, pad_zeros, reference_type FROM number_series WHERE name = ?",
		name,
	).Scan(&series.Name, &current, &series.Start, &series.PadZeros, &series.ReferenceType)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if current.Valid {
		v := current.Int64
		series.Current = &v
	}
	return &series, nil
}

// PutSeries inserts or updates a counter row.
func (s *Store) PutSeries(ctx context.Context, series ledger.Series) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current any
	if series.Current != nil {
		current = *series.Current
	}
	query := `
		INSERT INTO number_series (name, current, start, pad_zeros, reference_type)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			current = excluded.current,
			start = excluded.start,
			pad_zeros = excluded.pad_zeros,
			reference_type = excluded.reference_type
	`
	_, err := s.db.ExecContext(ctx, query,
		series.Name, current, series.Start, series.PadZeros, string(series.ReferenceType))
	return err
}

// ListSeries returns all counter rows.
func (s *Store) ListSeries(ctx context.Context) ([]ledger.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, current, start, pad_zeros, reference_type FROM number_series ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ledger.Series
	for rows.Next() {
		var (
			series  ledger.Series
			current sql.NullInt64
		)
		if err := rows.Scan(&series.Name, &current, &series.Start, &series.PadZeros, &series.ReferenceType); err != nil {
			return nil, err
		}
		if current.Valid {
			v := current.Int64
			series.Current = &v
		}
		result = append(result, series)
	}
	return result, rows.Err()
}

// =============================================================================
// DOCUMENT CHECKER (ledger.DocumentChecker interface)
// =============================================================================

// Exists reports whether a named row exists in the given schema's
// store. Accounts live in their own table; everything else is a
// document.
func (s *Store) Exists(ctx context.Context, schema ledger.SchemaName, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		count int
		err   error
	)
	if schema == ledger.SchemaAccount {
		err = s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM accounts WHERE name = ?", name).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM documents WHERE schema = ? AND name = ?",
			string(schema), name).Scan(&count)
	}
	return count > 0, err
}

// =============================================================================
// DOCUMENT STORE (books.DocumentStore interface)
// =============================================================================

// docPayload holds the per-kind line data serialized as JSON.
type docPayload struct {
	Items []books.LineItem   `json:"items,omitempty"`
	Taxes []books.TaxLine    `json:"taxes,omitempty"`
	Rows  []books.JournalRow `json:"rows,omitempty"`
}

// SaveDocument inserts a document or updates its mutable fields.
func (s *Store) SaveDocument(ctx context.Context, doc *books.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payloadJSON, err := json.Marshal(docPayload{Items: doc.Items, Taxes: doc.Taxes, Rows: doc.Rows})
	if err != nil {
		return fmt.Errorf("failed to encode document payload: %w", err)
	}

	query := `
		INSERT INTO documents
		(schema, name, kind, date, status, party, settlement_account,
		 from_account, to_account, amount, payload_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(schema, name) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		string(doc.Schema), doc.Name, string(doc.Kind),
		doc.Date.UTC().Format(time.RFC3339),
		string(doc.Status),
		nullString(string(doc.Party)),
		nullString(string(doc.SettlementAccount)),
		nullString(string(doc.FromAccount)),
		nullString(string(doc.ToAccount)),
		doc.Amount.String(),
		string(payloadJSON),
		doc.CreatedAt.UTC().Format(time.RFC3339),
		doc.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// GetDocument returns a document, or nil if absent.
func (s *Store) GetDocument(ctx context.Context, schema ledger.SchemaName, name string) (*books.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, err := s.queryDocuments(ctx,
		documentSelect+" WHERE schema = ? AND name = ?", string(schema), name)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return &docs[0], nil
}

// ListDocuments returns documents of one schema, newest first.
func (s *Store) ListDocuments(ctx context.Context, schema ledger.SchemaName) ([]books.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryDocuments(ctx,
		documentSelect+" WHERE schema = ? ORDER BY created_at DESC, name DESC", string(schema))
}

const documentSelect = `
	SELECT schema, name, kind, date, status, party, settlement_account,
	       from_account, to_account, amount, payload_json, created_at, updated_at
	FROM documents`

func (s *Store) queryDocuments(ctx context.Context, query string, args ...any) ([]books.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []books.Document
	for rows.Next() {
		var (
			doc                        books.Document
			date, createdAt, updatedAt string
			party, settlement          sql.NullString
			fromAccount, toAccount     sql.NullString
			amount, payloadJSON        sql.NullString
		)
		err := rows.Scan(&doc.Schema, &doc.Name, &doc.Kind, &date, &doc.Status,
			&party, &settlement, &fromAccount, &toAccount, &amount, &payloadJSON,
			&createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}

		doc.Date, _ = time.Parse(time.RFC3339, date)
		doc.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		doc.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		doc.Party = ledger.PartyName(party.String)
		doc.SettlementAccount = ledger.AccountName(settlement.String)
		doc.FromAccount = ledger.AccountName(fromAccount.String)
		doc.ToAccount = ledger.AccountName(toAccount.String)
		if amount.Valid {
			doc.Amount, _ = ledger.FromString(amount.String)
		}
		if payloadJSON.Valid && payloadJSON.String != "" {
			var payload docPayload
			if err := json.Unmarshal([]byte(payloadJSON.String), &payload); err != nil {
				return nil, fmt.Errorf("failed to decode document payload: %w", err)
			}
			doc.Items = payload.Items
			doc.Taxes = payload.Taxes
			doc.Rows = payload.Rows
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// =============================================================================
// ACCOUNT STORE (books.AccountStore interface)
// =============================================================================

// SaveAccount inserts or updates a chart-of-accounts node.
func (s *Store) SaveAccount(ctx context.Context, a books.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO accounts (name, type, parent)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			type = excluded.type,
			parent = excluded.parent
	`
	_, err := s.db.ExecContext(ctx, query,
		string(a.Name), string(a.Type), nullString(string(a.Parent)))
	return err
}

// GetAccount returns an account, or nil if absent.
func (s *Store) GetAccount(ctx context.Context, name ledger.AccountName) (*books.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		a      books.Account
		parent sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT name, type, parent FROM accounts WHERE name = ?", string(name),
	).Scan(&a.Name, &a.Type, &parent)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Parent = ledger.AccountName(parent.String)
	return &a, nil
}

// ListAccounts returns the full chart, ordered by name.
func (s *Store) ListAccounts(ctx context.Context) ([]books.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT name, type, parent FROM accounts ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []books.Account
	for rows.Next() {
		var (
			a      books.Account
			parent sql.NullString
		)
		if err := rows.Scan(&a.Name, &a.Type, &parent); err != nil {
			return nil, err
		}
		a.Parent = ledger.AccountName(parent.String)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// =============================================================================
// AUDIT LOG (ledger.AuditLog interface)
// =============================================================================

// AppendAudit records one lifecycle action. Append-only.
func (s *Store) AppendAudit(ctx context.Context, entry ledger.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO audit_log (id, timestamp, actor, action, schema, name, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.Timestamp.UTC().Format(time.RFC3339),
		entry.Actor,
		string(entry.Action),
		string(entry.Schema),
		entry.Name,
		entry.Detail,
	)
	return err
}

// QueryAudit returns audit entries, optionally filtered by reference.
func (s *Store) QueryAudit(ctx context.Context, schema ledger.SchemaName, name string) ([]ledger.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, timestamp, actor, action, schema, name, detail FROM audit_log"
	var args []any
	switch {
	case schema != "" && name != "":
		query += " WHERE schema = ? AND name = ?"
		args = []any{string(schema), name}
	case schema != "":
		query += " WHERE schema = ?"
		args = []any{string(schema)}
	}
	// rowid is insertion order; timestamps alone only have second
	// precision and tie within a burst.
	query += " ORDER BY rowid ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ledger.AuditEntry
	for rows.Next() {
		var (
			e  ledger.AuditEntry
			ts string
		)
		if err := rows.Scan(&e.ID, &ts, &e.Actor, &e.Action, &e.Schema, &e.Name, &e.Detail); err != nil {
			return nil, err
		}
		e.Timestamp, _ = time.Parse(time.RFC3339, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"entries", "number_series", "documents", "accounts", "audit_log"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
