// Package sqlite provides a durable, file-backed adapter for the entity
// runtime. Events are stored append-only with a per-stream sequence; the
// latest committed state is kept alongside as a snapshot.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tonyfromundefined/ventyd-sub000/core/entity"
)

//go:embed schema.sql
var schemaSQL string

// Adapter implements entity.Adapter on top of a SQLite database.
// Safe for concurrent use; SQLite serializes writers and the commit
// transaction enforces the expected-events precondition.
type Adapter struct {
	log *slog.Logger
	db  *sql.DB
}

// Open creates or opens a SQLite database at the given path and applies the
// schema. The database runs in WAL mode with a single writer connection.
// Idempotent, safe to call on an existing database.
func Open(path string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent commits.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Adapter{
		log: slog.Default().With(slog.String("adapter", "sqlite")),
		db:  db,
	}, nil
}

func (a *Adapter) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (a *Adapter) DB() *sql.DB { return a.db }

func (a *Adapter) GetEventsByEntityID(
	ctx context.Context,
	entityName, entityID string,
) ([]entity.Event, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT event_id, event_name, event_created_at, body
		FROM events
		WHERE entity_name = ? AND entity_id = ?
		ORDER BY seq ASC
	`, entityName, entityID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []entity.Event
	for rows.Next() {
		var (
			ev        entity.Event
			createdAt string
			body      []byte
		)
		if err := rows.Scan(&ev.EventID, &ev.EventName, &createdAt, &body); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.EventCreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse event %s timestamp: %w", ev.EventID, err)
		}
		ev.EntityName = entityName
		ev.EntityID = entityID
		ev.Body = json.RawMessage(body)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func (a *Adapter) CommitEvents(ctx context.Context, req entity.CommitRequest) error {
	if len(req.Events) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM events WHERE entity_name = ? AND entity_id = ?
	`, req.EntityName, req.EntityID).Scan(&count)
	if err != nil {
		return fmt.Errorf("count events: %w", err)
	}
	if count != req.ExpectedEvents {
		return fmt.Errorf(
			"%w: stream %s/%s has %d events, expected %d",
			entity.ErrConcurrencyConflict, req.EntityName, req.EntityID, count, req.ExpectedEvents,
		)
	}

	for i, ev := range req.Events {
		if err := ev.Validate(); err != nil {
			return err
		}
		body, err := json.Marshal(ev.Body)
		if err != nil {
			return fmt.Errorf("encode body of event %s: %w", ev.EventID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO events (entity_name, entity_id, seq, event_id, event_name, event_created_at, body)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			req.EntityName,
			req.EntityID,
			count+i,
			ev.EventID,
			ev.EventName,
			ev.EventCreatedAt.UTC().Format(time.RFC3339Nano),
			body,
		)
		if err != nil {
			return fmt.Errorf("insert event %s: %w", ev.EventID, err)
		}
	}

	if req.State != nil {
		state, err := json.Marshal(req.State)
		if err != nil {
			return fmt.Errorf("encode state: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO states (entity_name, entity_id, num_events, state, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (entity_name, entity_id) DO UPDATE SET
				num_events = excluded.num_events,
				state      = excluded.state,
				updated_at = excluded.updated_at
		`,
			req.EntityName,
			req.EntityID,
			count+len(req.Events),
			state,
			time.Now().UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("upsert state: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	a.log.Debug(
		"committed",
		slog.String("entity", req.EntityName),
		slog.String("id", req.EntityID),
		slog.Int("num_events", len(req.Events)),
	)
	return nil
}

// GetState returns the latest committed state snapshot as raw JSON, with the
// number of events it reflects. Returns (nil, 0, nil) when no state is
// stored.
func (a *Adapter) GetState(
	ctx context.Context,
	entityName, entityID string,
) (json.RawMessage, int, error) {
	var (
		state     []byte
		numEvents int
	)
	err := a.db.QueryRowContext(ctx, `
		SELECT state, num_events FROM states WHERE entity_name = ? AND entity_id = ?
	`, entityName, entityID).Scan(&state, &numEvents)
	if err == sql.ErrNoRows {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("query state: %w", err)
	}
	return state, numEvents, nil
}

var _ entity.Adapter = (*Adapter)(nil)
