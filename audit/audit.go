// Package audit records every mutating operation in an SQLite audit_log
// table: who asked, over which transport, with what parameters, and how it
// ended. Writes are batched off the request path; the synchronous Log is
// for callers that need the row committed before returning.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/inkwellhq/inkwell/dbopen"
	"github.com/inkwellhq/inkwell/idgen"
)

// Entry is one audit record. Zero fields are filled with defaults when
// logged.
type Entry struct {
	EntryID    string
	Timestamp  int64
	Action     string
	Parameters string
	UserID     string
	Transport  string
	RequestID  string
	Status     string
	Error      string
	DurationMs int64
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	entry_id      TEXT PRIMARY KEY,
	timestamp     INTEGER NOT NULL,
	action        TEXT NOT NULL,
	parameters    TEXT NOT NULL DEFAULT '',
	user_id       TEXT NOT NULL DEFAULT '',
	transport     TEXT NOT NULL DEFAULT 'http',
	request_id    TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'success',
	error_message TEXT NOT NULL DEFAULT '',
	duration_ms   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_audit_log_timestamp ON audit_log(timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
`

const batchSize = 32

// SQLiteLogger writes audit entries to SQLite. LogAsync entries are
// buffered and flushed in batches; Close drains the buffer.
type SQLiteLogger struct {
	db     *sql.DB
	gen    idgen.Generator
	ch     chan *Entry
	wg     sync.WaitGroup
	closed atomic.Bool
}

// Option customises a SQLiteLogger.
type Option func(*SQLiteLogger)

// WithIDGenerator replaces the entry id generator.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(l *SQLiteLogger) { l.gen = gen }
}

// NewSQLiteLogger wraps db. Call Init once to create the table.
func NewSQLiteLogger(db *sql.DB, opts ...Option) *SQLiteLogger {
	l := &SQLiteLogger{
		db:  db,
		gen: idgen.Prefixed("aud_", idgen.UUIDv7()),
		ch:  make(chan *Entry, 4*batchSize),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.wg.Add(1)
	go l.run()
	return l
}

// Init creates the audit_log table if it does not exist.
func (l *SQLiteLogger) Init() error {
	if _, err := l.db.Exec(schema); err != nil {
		return fmt.Errorf("audit: init schema: %w", err)
	}
	return nil
}

// Log writes one entry synchronously.
func (l *SQLiteLogger) Log(ctx context.Context, e *Entry) error {
	l.fillDefaults(e)
	return l.insert(ctx, []*Entry{e})
}

// LogAsync queues an entry for batched writing. Entries queued after Close
// are dropped.
func (l *SQLiteLogger) LogAsync(e *Entry) {
	l.fillDefaults(e)
	if l.closed.Load() {
		return
	}
	select {
	case l.ch <- e:
	default:
		// Buffer full: fall back to a synchronous write rather than drop.
		_ = l.insert(context.Background(), []*Entry{e})
	}
}

// Close flushes queued entries and stops the writer.
func (l *SQLiteLogger) Close() {
	if l.closed.Swap(true) {
		return
	}
	close(l.ch)
	l.wg.Wait()
}

func (l *SQLiteLogger) run() {
	defer l.wg.Done()
	buf := make([]*Entry, 0, batchSize)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	flush := func() {
		if len(buf) == 0 {
			return
		}
		_ = l.insert(context.Background(), buf)
		buf = buf[:0]
	}

	for {
		select {
		case e, ok := <-l.ch:
			if !ok {
				flush()
				return
			}
			buf = append(buf, e)
			if len(buf) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (l *SQLiteLogger) fillDefaults(e *Entry) {
	if e.EntryID == "" {
		e.EntryID = l.gen()
	}
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMilli()
	}
	if e.Transport == "" {
		e.Transport = "http"
	}
	if e.Status == "" {
		if e.Error != "" {
			e.Status = "error"
		} else {
			e.Status = "success"
		}
	}
}

func (l *SQLiteLogger) insert(ctx context.Context, entries []*Entry) error {
	return dbopen.RunTx(ctx, l.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO audit_log
			(entry_id, timestamp, action, parameters, user_id, transport, request_id, status, error_message, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("audit: prepare: %w", err)
		}
		defer stmt.Close()
		for _, e := range entries {
			if _, err := stmt.Exec(e.EntryID, e.Timestamp, e.Action, e.Parameters,
				e.UserID, e.Transport, e.RequestID, e.Status, e.Error, e.DurationMs); err != nil {
				return fmt.Errorf("audit: insert: %w", err)
			}
		}
		return nil
	})
}
