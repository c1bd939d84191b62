package service

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/model"
)

// SQLiteStore is the persistent DocumentStore, AuditLog and TransferStore.
// Clause, suggestion and report payloads are stored as json columns keyed by
// document id; audit sequence numbers and transfer transitions are
// maintained transactionally so the invariants hold across processes.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// migrate creates the necessary tables
func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);

		CREATE TABLE IF NOT EXISTS clauses (
			document_id TEXT PRIMARY KEY,
			payload TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS suggestions (
			document_id TEXT PRIMARY KEY,
			payload TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS reports (
			document_id TEXT PRIMARY KEY,
			payload TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS audit_entries (
			document_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			actor TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			status TEXT NOT NULL,
			summary TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (document_id, seq)
		);

		CREATE TABLE IF NOT EXISTS transfers (
			document_id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			attempts INTEGER NOT NULL DEFAULT 0,
			last_attempt DATETIME
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveDocument(doc *model.Document) error {
	cp := *doc
	cp.UpdatedAt = time.Now()
	payload, err := json.Marshal(&cp)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO documents (id, payload, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			payload = excluded.payload,
			status = excluded.status,
			updated_at = excluded.updated_at
	`, cp.ID, string(payload), cp.Status, cp.CreatedAt, cp.UpdatedAt)
	return err
}

func (s *SQLiteStore) GetDocument(id string) (*model.Document, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM documents WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var doc model.Document
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("corrupt document payload: %w", err)
	}
	return &doc, nil
}

func (s *SQLiteStore) ListByStatus(status string, limit int) ([]*model.Document, error) {
	query := `SELECT payload FROM documents WHERE status = ? ORDER BY updated_at`
	args := []any{status}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*model.Document
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var doc model.Document
		if err := json.Unmarshal([]byte(payload), &doc); err != nil {
			return nil, fmt.Errorf("corrupt document payload: %w", err)
		}
		result = append(result, &doc)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) AdvanceStatus(id, from, to string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var payload string
	err = tx.QueryRow(`SELECT payload FROM documents WHERE id = ? AND status = ?`, id, from).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		// Distinguish missing document from wrong state.
		var n int
		if err := tx.QueryRow(`SELECT COUNT(1) FROM documents WHERE id = ?`, id).Scan(&n); err != nil {
			return false, err
		}
		if n == 0 {
			return false, ErrNotFound
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var doc model.Document
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return false, fmt.Errorf("corrupt document payload: %w", err)
	}
	doc.Status = to
	doc.UpdatedAt = time.Now()
	updated, err := json.Marshal(&doc)
	if err != nil {
		return false, err
	}

	res, err := tx.Exec(`
		UPDATE documents SET payload = ?, status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, string(updated), to, doc.UpdatedAt, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	return true, tx.Commit()
}

func (s *SQLiteStore) SetFailed(id, errMsg string) error {
	doc, err := s.GetDocument(id)
	if err != nil {
		return err
	}
	doc.Status = model.StatusFailed
	doc.ErrorMsg = errMsg
	return s.SaveDocument(doc)
}

func (s *SQLiteStore) saveJSON(table, documentID string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(fmt.Sprintf(`
		INSERT INTO %s (document_id, payload) VALUES (?, ?)
		ON CONFLICT(document_id) DO UPDATE SET payload = excluded.payload
	`, table), documentID, string(payload))
	return err
}

func (s *SQLiteStore) loadJSON(table, documentID string, v any) error {
	var payload string
	err := s.db.QueryRow(
		fmt.Sprintf(`SELECT payload FROM %s WHERE document_id = ?`, table),
		documentID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(payload), v)
}

func (s *SQLiteStore) SaveClauses(documentID string, clauses []model.Clause) error {
	return s.saveJSON("clauses", documentID, clauses)
}

func (s *SQLiteStore) GetClauses(documentID string) ([]model.Clause, error) {
	var clauses []model.Clause
	err := s.loadJSON("clauses", documentID, &clauses)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return clauses, err
}

func (s *SQLiteStore) SaveSuggestions(documentID string, suggestions []model.Suggestion) error {
	return s.saveJSON("suggestions", documentID, suggestions)
}

func (s *SQLiteStore) GetSuggestions(documentID string) ([]model.Suggestion, error) {
	var suggestions []model.Suggestion
	err := s.loadJSON("suggestions", documentID, &suggestions)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return suggestions, err
}

func (s *SQLiteStore) SaveReport(report *model.Report) error {
	return s.saveJSON("reports", report.DocumentID, report)
}

func (s *SQLiteStore) GetReport(documentID string) (*model.Report, error) {
	var report model.Report
	if err := s.loadJSON("reports", documentID, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Append implements AuditLog. The per-document sequence is computed inside
// the insert transaction, so concurrent appenders never produce gaps or
// duplicates.
func (s *SQLiteStore) Append(entry model.AuditEntry) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRow(
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM audit_entries WHERE document_id = ?`,
		entry.DocumentID,
	).Scan(&seq)
	if err != nil {
		return 0, err
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	summary, err := json.Marshal(entry.Summary)
	if err != nil {
		return 0, err
	}

	_, err = tx.Exec(`
		INSERT INTO audit_entries (document_id, seq, actor, timestamp, status, summary, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.DocumentID, seq, entry.Actor, entry.Timestamp, entry.Status, string(summary), entry.DurationMS)
	if err != nil {
		return 0, err
	}

	return seq, tx.Commit()
}

// Entries implements AuditLog.
func (s *SQLiteStore) Entries(documentID string) ([]model.AuditEntry, error) {
	rows, err := s.db.Query(`
		SELECT seq, actor, timestamp, status, summary, duration_ms
		FROM audit_entries WHERE document_id = ? ORDER BY seq
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		entry := model.AuditEntry{DocumentID: documentID}
		var summary string
		if err := rows.Scan(&entry.Seq, &entry.Actor, &entry.Timestamp, &entry.Status, &summary, &entry.DurationMS); err != nil {
			return nil, err
		}
		if summary != "" && summary != "null" {
			if err := json.Unmarshal([]byte(summary), &entry.Summary); err != nil {
				return nil, fmt.Errorf("corrupt audit summary: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Ensure implements TransferStore: creates a pending record if none exists.
func (s *SQLiteStore) Ensure(documentID string) error {
	_, err := s.db.Exec(`
		INSERT INTO transfers (document_id, status, attempts)
		VALUES (?, ?, 0)
		ON CONFLICT(document_id) DO NOTHING
	`, documentID, model.TransferPending)
	return err
}

// GetTransfer implements TransferStore.
func (s *SQLiteStore) GetTransfer(documentID string) (*model.TransferRecord, error) {
	rec := &model.TransferRecord{DocumentID: documentID}
	var lastAttempt sql.NullTime
	err := s.db.QueryRow(`
		SELECT status, attempts, last_attempt FROM transfers WHERE document_id = ?
	`, documentID).Scan(&rec.Status, &rec.Attempts, &lastAttempt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastAttempt.Valid {
		rec.LastAttempt = lastAttempt.Time
	}
	return rec, nil
}

// Transition implements TransferStore: a single conditional update from one
// transfer status to another. Delivered is terminal by construction because
// no caller transitions out of it.
func (s *SQLiteStore) Transition(documentID, from, to string) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE transfers SET status = ?, last_attempt = ?
		WHERE document_id = ? AND status = ?
	`, to, time.Now(), documentID, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RecordAttempt implements TransferStore.
func (s *SQLiteStore) RecordAttempt(documentID string) error {
	_, err := s.db.Exec(`
		UPDATE transfers SET attempts = attempts + 1, last_attempt = ?
		WHERE document_id = ?
	`, time.Now(), documentID)
	return err
}
