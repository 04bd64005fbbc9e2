package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/gpi/internal/ir"
)

// WriteSession stores one session with its handles and callback events in
// a single transaction. The session's Seq is assigned here; the value in
// rec is ignored. Writing the same session id twice is an error.
func (s *Store) WriteSession(ctx context.Context, rec SessionRecord, handles []HandleRecord, events []CallbackEvent) error {
	backends, err := marshalBackends(rec.Backends)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write session: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE id = ?`, rec.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("write session: session %s already recorded", rec.ID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, seq, backends, design, toplevel, digest, end_time, precision)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM sessions), ?, ?, ?, ?, ?, ?)
	`, rec.ID, backends, rec.Design, rec.Toplevel, rec.Digest, int64(rec.EndTime), rec.Precision)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	if err := insertHandles(ctx, tx, rec.ID, handles); err != nil {
		return err
	}
	if err := insertEvents(ctx, tx, rec.ID, events); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write session: commit: %w", err)
	}
	return nil
}

func insertHandles(ctx context.Context, tx *sql.Tx, session string, handles []HandleRecord) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO handles (session_id, seq, backend, full_name, kind, is_const, pseudo)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write handles: %w", err)
	}
	defer stmt.Close()

	for _, h := range handles {
		if _, err := stmt.ExecContext(ctx, session, h.Seq, h.Backend, h.FullName, h.Kind, h.Const, h.Pseudo); err != nil {
			return fmt.Errorf("write handle %s: %w", h.FullName, err)
		}
	}
	return nil
}

func insertEvents(ctx context.Context, tx *sql.Tx, session string, events []CallbackEvent) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO callback_events (session_id, seq, sim_time, reason, native, target, from_state, to_state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write events: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, session, e.Seq, int64(e.SimTime), e.Reason, e.Native, e.Target, e.From, e.To); err != nil {
			return fmt.Errorf("write event %d: %w", e.Seq, err)
		}
	}
	return nil
}

// marshalBackends stores the backend list as canonical JSON.
func marshalBackends(names []string) (string, error) {
	arr := make(ir.Array, len(names))
	for i, n := range names {
		arr[i] = ir.String(n)
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal backends: %w", err)
	}
	return string(data), nil
}

func unmarshalBackends(data string) ([]string, error) {
	v, err := ir.Parse([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal backends: %w", err)
	}
	arr, ok := v.(ir.Array)
	if !ok {
		return nil, fmt.Errorf("unmarshal backends: expected array, got %T", v)
	}
	names := make([]string, 0, len(arr))
	for i, e := range arr {
		s, ok := e.(ir.String)
		if !ok {
			return nil, fmt.Errorf("unmarshal backends: [%d] is %T", i, e)
		}
		names = append(names, string(s))
	}
	return names, nil
}
