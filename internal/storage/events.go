package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventKind names a journal entry.
type EventKind string

// Journal event kinds.
const (
	EventSessionStarted     EventKind = "session_started"
	EventSubmitted          EventKind = "submitted"
	EventResultApplied      EventKind = "result_applied"
	EventPassFailed         EventKind = "pass_failed"
	EventCorrectionRecorded EventKind = "correction_recorded"
	EventReprocessed        EventKind = "reprocessed"
	EventEditToggled        EventKind = "edit_toggled"
	EventItemWritten        EventKind = "item_written"
	EventWriteRejected      EventKind = "write_rejected"
	EventExported           EventKind = "exported"
)

// Event is one journal entry.
type Event struct {
	CreatedAt time.Time       `json:"created_at"`
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Kind      EventKind       `json:"kind"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Seq       int             `json:"seq"`
}

// CreateSession registers a session.
func (s *SQLiteStorage) CreateSession(ctx context.Context, id string, at time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, created_at) VALUES (?, ?)`, id, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// AppendEvent writes an event with payload encoded as JSON. The event gets
// a fresh id and the next sequence number of its session.
func (s *SQLiteStorage) AppendEvent(ctx context.Context, sessionID string, kind EventKind, payload any) (Event, error) {
	if err := validateContext(ctx); err != nil {
		return Event{}, err
	}

	ev := Event{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	if err := validateEvent(&ev); err != nil {
		return Event{}, err
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("failed to encode event payload: %w", err)
		}
		ev.Payload = data
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Event{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM events WHERE session_id = ?`, sessionID).Scan(&ev.Seq)
	if err != nil {
		return Event{}, fmt.Errorf("failed to get next sequence: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO events (id, seq, session_id, kind, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Seq, ev.SessionID, string(ev.Kind), nullableJSON(ev.Payload), ev.CreatedAt)
	if err != nil {
		return Event{}, fmt.Errorf("failed to insert event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Event{}, fmt.Errorf("failed to commit event: %w", err)
	}
	return ev, nil
}

// ListEvents returns a session's events in order.
func (s *SQLiteStorage) ListEvents(ctx context.Context, sessionID string) ([]Event, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, seq, session_id, kind, payload, created_at FROM events WHERE session_id = ? ORDER BY seq`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var (
			ev      Event
			kind    string
			payload sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.Seq, &ev.SessionID, &kind, &payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Kind = EventKind(kind)
		if payload.Valid {
			ev.Payload = json.RawMessage(payload.String)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

// SaveResponse keeps a raw service response for later replay.
func (s *SQLiteStorage) SaveResponse(ctx context.Context, sessionID string, body []byte) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return err
	}
	if len(body) == 0 {
		return ErrEmptyResponse
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO responses (session_id, body, received_at) VALUES (?, ?, ?)`,
		sessionID, body, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save response: %w", err)
	}
	return nil
}

// LatestResponse returns the last response saved for a session.
func (s *SQLiteStorage) LatestResponse(ctx context.Context, sessionID string) ([]byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM responses WHERE session_id = ? ORDER BY id DESC LIMIT 1`, sessionID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: response for session %s", ErrNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load response: %w", err)
	}
	return body, nil
}

func nullableJSON(data json.RawMessage) any {
	if len(data) == 0 {
		return nil
	}
	return string(data)
}
