package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/grdesk/internal/logfields"
	"git.home.luguber.info/inful/grdesk/internal/store"
)

// SQLiteJournal implements Journal using SQLite.
type SQLiteJournal struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

var _ Journal = (*SQLiteJournal)(nil)

// NewSQLiteJournal opens a journal. Use ":memory:" for an in-memory
// database, or a file path for persistent storage.
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ErrDatabaseOpenFailed.WithContext(logfields.KeyPath, dbPath).WithCause(err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	j := &SQLiteJournal{db: db, now: time.Now}
	if err := j.initialize(); err != nil {
		_ = db.Close()
		return nil, ErrInitializeSchemaFailed.WithContext(logfields.KeyPath, dbPath).WithCause(err)
	}
	return j, nil
}

func (j *SQLiteJournal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS actions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		action_id TEXT NOT NULL,
		action_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		payload BLOB,
		meta TEXT,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_actions_timestamp ON actions(timestamp);
	CREATE INDEX IF NOT EXISTS idx_actions_type ON actions(action_type);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Append records action with the current time.
func (j *SQLiteJournal) Append(ctx context.Context, action store.Action) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	payload, err := encodePayload(action.Payload)
	if err != nil {
		return ErrMarshalPayloadFailed.WithContext(logfields.KeyActionType, action.Type).WithCause(err)
	}
	var meta []byte
	if len(action.Meta) > 0 {
		if meta, err = json.Marshal(action.Meta); err != nil {
			return ErrMarshalPayloadFailed.WithContext(logfields.KeyActionType, action.Type).WithCause(err)
		}
	}

	_, err = j.db.ExecContext(ctx,
		"INSERT INTO actions (action_id, action_type, timestamp, payload, meta, error) VALUES (?, ?, ?, ?, ?, ?)",
		action.ID, action.Type, j.now().UnixNano(), payload, meta, action.Error,
	)
	if err != nil {
		return ErrAppendFailed.WithContext(logfields.KeyActionType, action.Type).WithCause(err)
	}
	return nil
}

func encodePayload(p any) ([]byte, error) {
	switch v := p.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return v, nil
	default:
		return json.Marshal(v)
	}
}

// All returns every entry.
func (j *SQLiteJournal) All(ctx context.Context) ([]Entry, error) {
	return j.query(ctx, "SELECT seq, action_id, action_type, timestamp, payload, meta, error FROM actions ORDER BY seq")
}

// GetRange returns entries recorded within [start, end].
func (j *SQLiteJournal) GetRange(ctx context.Context, start, end time.Time) ([]Entry, error) {
	return j.query(ctx,
		"SELECT seq, action_id, action_type, timestamp, payload, meta, error FROM actions WHERE timestamp >= ? AND timestamp <= ? ORDER BY seq",
		start.UnixNano(), end.UnixNano())
}

// Count returns the number of entries.
func (j *SQLiteJournal) Count(ctx context.Context) (int64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	var n int64
	if err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM actions").Scan(&n); err != nil {
		return 0, ErrQueryFailed.WithCause(err)
	}
	return n, nil
}

func (j *SQLiteJournal) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, ErrQueryFailed.WithCause(err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e    Entry
			ts   int64
			meta []byte
			raw  []byte
		)
		if err := rows.Scan(&e.Seq, &e.ActionID, &e.Type, &ts, &raw, &meta, &e.Error); err != nil {
			return nil, ErrScanFailed.WithCause(err)
		}
		e.Timestamp = time.Unix(0, ts)
		if len(raw) > 0 {
			e.Payload = json.RawMessage(raw)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Meta); err != nil {
				return nil, ErrScanFailed.WithContext("seq", e.Seq).WithCause(err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, ErrScanFailed.WithCause(err)
	}
	return entries, nil
}

// Close closes the database connection.
func (j *SQLiteJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}
