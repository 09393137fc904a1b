package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// SQLiteStore persists the FAQ corpus plus feedback and escalation rows
// in a single SQLite database. WAL mode allows a reader (the matcher)
// and a writer (the admin/indexing side) to coexist across processes.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// Verify interface implementations at compile time
var (
	_ CorpusStore   = (*SQLiteStore)(nil)
	_ FeedbackStore = (*SQLiteStore)(nil)
)

// NewSQLiteStore opens (creating if needed) the database at path.
// An empty path opens an in-memory database for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer to prevent lock contention
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// modernc.org/sqlite ignores DSN params; set pragmas explicitly
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS faqs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		tags TEXT NOT NULL DEFAULT '[]',
		embedding TEXT NOT NULL DEFAULT '',
		embedding_model TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		faq_id INTEGER,
		helpful INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_session ON feedback(session_id);
	CREATE INDEX IF NOT EXISTS idx_feedback_faq ON feedback(faq_id);

	CREATE TABLE IF NOT EXISTS escalations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		user_query TEXT NOT NULL,
		contact TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_escalations_session ON escalations(session_id);
	CREATE INDEX IF NOT EXISTS idx_escalations_status ON escalations(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ListFAQs implements CorpusStore. Rows are ordered by id so corpus
// order (and therefore ranking tie-breaks) is stable.
func (s *SQLiteStore) ListFAQs(ctx context.Context) ([]FAQ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, answer, tags, embedding, embedding_model FROM faqs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing faqs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var faqs []FAQ
	for rows.Next() {
		var (
			f        FAQ
			tagsRaw  string
			embRaw   string
			embModel string
		)
		if err := rows.Scan(&f.ID, &f.Question, &f.Answer, &tagsRaw, &embRaw, &embModel); err != nil {
			return nil, fmt.Errorf("scanning faq row: %w", err)
		}
		f.Tags = ParseTags(tagsRaw)
		f.Embedding = decodeEmbedding(embRaw)
		f.EmbeddingModel = embModel
		faqs = append(faqs, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating faq rows: %w", err)
	}

	return faqs, nil
}

// UpsertFAQ inserts f, or replaces the row with the same ID when
// f.ID > 0. Returns the record's ID.
func (s *SQLiteStore) UpsertFAQ(ctx context.Context, f FAQ) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}

	tags, err := EncodeTags(f.Tags)
	if err != nil {
		return 0, err
	}
	emb, err := encodeEmbedding(f.Embedding)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, fmt.Errorf("store is closed")
	}

	if f.ID > 0 {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO faqs (id, question, answer, tags, embedding, embedding_model)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			f.ID, f.Question, f.Answer, tags, emb, f.EmbeddingModel)
		if err != nil {
			return 0, fmt.Errorf("upserting faq %d: %w", f.ID, err)
		}
		return f.ID, nil
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO faqs (question, answer, tags, embedding, embedding_model)
		 VALUES (?, ?, ?, ?, ?)`,
		f.Question, f.Answer, tags, emb, f.EmbeddingModel)
	if err != nil {
		return 0, fmt.Errorf("inserting faq: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted id: %w", err)
	}
	return id, nil
}

// UpdateEmbedding stores a freshly computed vector for a record.
func (s *SQLiteStore) UpdateEmbedding(ctx context.Context, id int64, embedding []float32, model string) error {
	emb, err := encodeEmbedding(embedding)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE faqs SET embedding = ?, embedding_model = ? WHERE id = ?`, emb, model, id)
	if err != nil {
		return fmt.Errorf("updating embedding for faq %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("faq %d not found", id)
	}
	return nil
}

// UpdateTags stores generated tags for a record.
func (s *SQLiteStore) UpdateTags(ctx context.Context, id int64, tags []string) error {
	encoded, err := EncodeTags(tags)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE faqs SET tags = ? WHERE id = ?`, encoded, id)
	if err != nil {
		return fmt.Errorf("updating tags for faq %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("faq %d not found", id)
	}
	return nil
}

// RecordFeedback implements FeedbackStore.
func (s *SQLiteStore) RecordFeedback(ctx context.Context, sessionID string, faqID *int64, helpful bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}

	helpfulInt := 0
	if helpful {
		helpfulInt = 1
	}
	var faqVal any
	if faqID != nil {
		faqVal = *faqID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (session_id, faq_id, helpful) VALUES (?, ?, ?)`,
		sessionID, faqVal, helpfulInt)
	if err != nil {
		return fmt.Errorf("recording feedback: %w", err)
	}
	return nil
}

// RecordEscalation implements FeedbackStore.
func (s *SQLiteStore) RecordEscalation(ctx context.Context, sessionID, query, contact string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO escalations (session_id, user_query, contact) VALUES (?, ?, ?)`,
		sessionID, query, contact)
	if err != nil {
		return fmt.Errorf("recording escalation: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
