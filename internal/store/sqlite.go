package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dgnsrekt/gwsync/internal/data"
)

//go:embed schema.sql
var schemaSQL string

// SQLite stores checkpoints and an append-only archive of synced events.
type SQLite struct {
	db *sql.DB
}

var _ Checkpointer = (*SQLite)(nil)

// Open creates or opens a SQLite database at the given path and applies
// pragmas and schema. It is safe to call on an existing database.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, name string) (*Checkpoint, error) {
	var (
		cursor    int64
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT cursor, updated_at FROM checkpoints WHERE name = ?`, name,
	).Scan(&cursor, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint: %w", err)
	}
	return &Checkpoint{
		Name:      name,
		Cursor:    uint64(cursor),
		Timestamp: time.UnixMilli(updatedAt),
	}, nil
}

func (s *SQLite) Save(ctx context.Context, checkpoint *Checkpoint) error {
	ts := checkpoint.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (name, cursor, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET cursor = excluded.cursor, updated_at = excluded.updated_at`,
		checkpoint.Name, int64(checkpoint.Cursor), ts.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE name = ?`, name); err != nil {
		return fmt.Errorf("deleting checkpoint: %w", err)
	}
	return nil
}

// AppendEvents archives events, ignoring ids already stored. It returns the
// number of rows actually inserted.
func (s *SQLite) AppendEvents(ctx context.Context, events []data.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO events (id, v, ts_ms, type, source, device_uid, short_addr, msg, payload, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UnixMilli()
	inserted := 0
	for _, e := range events {
		var payload sql.NullString
		if e.HasPayload() {
			payload = sql.NullString{String: string(e.Payload), Valid: true}
		}
		res, err := stmt.ExecContext(ctx,
			int64(e.ID), e.Version, e.Timestamp, e.Type, e.Source, e.Subject, int64(e.ShortAddr), e.Msg, payload, now,
		)
		if err != nil {
			return 0, fmt.Errorf("archiving event %d: %w", e.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing archive: %w", err)
	}
	return inserted, nil
}

// ListEvents returns archived events with id > since in ascending order.
func (s *SQLite) ListEvents(ctx context.Context, since uint64, limit int) ([]data.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, v, ts_ms, type, source, device_uid, short_addr, msg, payload
		FROM events WHERE id > ? ORDER BY id ASC LIMIT ?`,
		int64(since), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []data.Event
	for rows.Next() {
		var (
			e         data.Event
			id        int64
			shortAddr int64
			payload   sql.NullString
		)
		if err := rows.Scan(&id, &e.Version, &e.Timestamp, &e.Type, &e.Source, &e.Subject, &shortAddr, &e.Msg, &payload); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.ID = uint64(id)
		e.ShortAddr = uint16(shortAddr)
		if payload.Valid {
			e.Payload = json.RawMessage(payload.String)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountEvents returns the number of archived events.
func (s *SQLite) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return n, nil
}
