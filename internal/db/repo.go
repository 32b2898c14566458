package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"neuroflow/internal/memory"
	"neuroflow/pkg"
)

// Repository wraps Postgres persistence for sessions, transcript messages,
// long-term memory items and stored notes.  The remote LLM service owns the
// conversational history; this is the local clinical record.
type Repository struct {
	DB *sql.DB
}

// NewRepository constructs a Repository from an existing sql.DB.  The caller
// manages the connection lifecycle.
func NewRepository(db *sql.DB) *Repository { return &Repository{DB: db} }

// CreateSession records a new session keyed by the remote thread id.
func (r *Repository) CreateSession(ctx context.Context, threadID string) (*pkg.Session, error) {
	var s pkg.Session
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO sessions (id) VALUES ($1)
         RETURNING id, created_at, terminated`,
		threadID,
	).Scan(&s.ID, &s.CreatedAt, &s.Terminated)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSession retrieves one session.
func (r *Repository) GetSession(ctx context.Context, sessionID string) (*pkg.Session, error) {
	var s pkg.Session
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, created_at, closed_at, terminated FROM sessions WHERE id = $1`,
		sessionID,
	).Scan(&s.ID, &s.CreatedAt, &s.ClosedAt, &s.Terminated)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CloseSession marks a session terminated.
func (r *Repository) CloseSession(ctx context.Context, sessionID string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE sessions SET terminated = TRUE, closed_at = NOW() WHERE id = $1`,
		sessionID)
	return err
}

// CreateMessage appends one transcript entry.
func (r *Repository) CreateMessage(ctx context.Context, sessionID string, role pkg.MessageRole, content string) (*pkg.Message, error) {
	var m pkg.Message
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO messages (session_id, role, content)
         VALUES ($1, $2, $3)
         RETURNING id, session_id, role, content, created_at`,
		sessionID, role, content,
	).Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetTranscript returns a session's messages ordered by creation time.
func (r *Repository) GetTranscript(ctx context.Context, sessionID string) ([]pkg.Message, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, session_id, role, content, created_at
         FROM messages
         WHERE session_id = $1
         ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var transcript []pkg.Message
	for rows.Next() {
		var m pkg.Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		transcript = append(transcript, m)
	}
	return transcript, rows.Err()
}

// SaveNote stores the structured note and its document path for a session.
func (r *Repository) SaveNote(ctx context.Context, sessionID string, note *pkg.ClinicalNote, docPath string) error {
	payload, err := json.Marshal(note)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO notes (id, session_id, note, doc_path)
         VALUES ($1, $2, $3, $4)
         ON CONFLICT (session_id) DO UPDATE SET note = EXCLUDED.note, doc_path = EXCLUDED.doc_path`,
		uuid.NewString(), sessionID, payload, docPath)
	return err
}

// GetNote retrieves a session's stored note, or (nil, "", nil) when no note
// exists yet.
func (r *Repository) GetNote(ctx context.Context, sessionID string) (*pkg.ClinicalNote, string, error) {
	var payload []byte
	var docPath string
	err := r.DB.QueryRowContext(ctx,
		`SELECT note, doc_path FROM notes WHERE session_id = $1`, sessionID,
	).Scan(&payload, &docPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	var note pkg.ClinicalNote
	if err := json.Unmarshal(payload, &note); err != nil {
		return nil, "", err
	}
	return &note, docPath, nil
}

// GetContext implements memory.Store: the accumulated long-term items for a
// session, oldest first, joined by newlines.
func (r *Repository) GetContext(ctx context.Context, sessionID string) (string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT content FROM memory_items WHERE session_id = $1 ORDER BY id ASC`,
		sessionID)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var item string
		if err := rows.Scan(&item); err != nil {
			return "", err
		}
		items = append(items, item)
	}
	return strings.Join(items, "\n"), rows.Err()
}

// Write implements memory.Store: one insert per long-term item, input order.
// A failing item does not abort the remaining items; failures are aggregated
// into a memory.WriteError.  ShortTerm items are never persisted.
func (r *Repository) Write(ctx context.Context, sessionID string, mc pkg.MemoryCandidates) error {
	if len(mc.LongTerm) == 0 {
		return nil
	}
	var failed int
	var errs error
	for _, item := range mc.LongTerm {
		if _, err := r.DB.ExecContext(ctx,
			`INSERT INTO memory_items (session_id, content) VALUES ($1, $2)`,
			sessionID, item); err != nil {
			failed++
			errs = errors.Join(errs, err)
		}
	}
	if failed > 0 {
		return &memory.WriteError{SessionID: sessionID, Failed: failed, Err: errs}
	}
	return nil
}

// Ping verifies the connection within the given timeout.
func (r *Repository) Ping(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return r.DB.PingContext(ctx)
}
