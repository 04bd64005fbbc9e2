package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/gpi/internal/queryir"
	"github.com/roach88/gpi/internal/querysql"
)

// ErrSessionNotFound is returned when no session matches.
var ErrSessionNotFound = errors.New("session not found")

const sessionColumns = `id, seq, backends, design, toplevel, digest, end_time, precision`

// Sessions returns every recorded session, oldest first. It returns an
// empty slice, not nil, for an empty store.
func (s *Store) Sessions(ctx context.Context) ([]SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := []SessionRecord{}
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

// Session returns the session with the given id. An empty id selects the
// most recent session.
func (s *Store) Session(ctx context.Context, id string) (SessionRecord, error) {
	var row *sql.Row
	if id == "" {
		row = s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY seq DESC LIMIT 1`)
	} else {
		row = s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	}
	rec, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		if id == "" {
			return SessionRecord{}, fmt.Errorf("latest session: %w", ErrSessionNotFound)
		}
		return SessionRecord{}, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (SessionRecord, error) {
	var (
		rec      SessionRecord
		backends string
		endTime  int64
	)
	if err := sc.Scan(&rec.ID, &rec.Seq, &backends, &rec.Design, &rec.Toplevel, &rec.Digest, &endTime, &rec.Precision); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan session: %w", err)
	}
	names, err := unmarshalBackends(backends)
	if err != nil {
		return rec, err
	}
	rec.Backends = names
	rec.EndTime = uint64(endTime)
	return rec, nil
}

// Handles returns the handles of one session in creation order.
func (s *Store) Handles(ctx context.Context, session string) ([]HandleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, backend, full_name, kind, is_const, pseudo
		FROM handles
		WHERE session_id = ?
		ORDER BY seq ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query handles: %w", err)
	}
	defer rows.Close()

	out := []HandleRecord{}
	for rows.Next() {
		var h HandleRecord
		if err := rows.Scan(&h.Seq, &h.Backend, &h.FullName, &h.Kind, &h.Const, &h.Pseudo); err != nil {
			return nil, fmt.Errorf("scan handle: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate handles: %w", err)
	}
	return out, nil
}

// CallbackEvents returns the callback transitions of one session in the
// order they happened.
func (s *Store) CallbackEvents(ctx context.Context, session string) ([]CallbackEvent, error) {
	return s.queryEvents(ctx, `WHERE session_id = ?`, session)
}

// EventsForTarget returns the transitions of value-change callbacks on one
// object, by full name.
func (s *Store) EventsForTarget(ctx context.Context, session, target string) ([]CallbackEvent, error) {
	return s.queryEvents(ctx, `WHERE session_id = ? AND target = ?`, session, target)
}

// EventsMatching returns the transitions of a session that satisfy the
// filter.
func (s *Store) EventsMatching(ctx context.Context, session string, filter queryir.Predicate) ([]CallbackEvent, error) {
	where, params, err := querysql.Compile(filter)
	if err != nil {
		return nil, err
	}
	return s.queryEvents(ctx, `WHERE session_id = ? AND (`+where+`)`, append([]any{session}, params...)...)
}

func (s *Store) queryEvents(ctx context.Context, where string, args ...any) ([]CallbackEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, sim_time, reason, native, target, from_state, to_state
		FROM callback_events
		`+where+`
		ORDER BY seq ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query callback events: %w", err)
	}
	defer rows.Close()

	out := []CallbackEvent{}
	for rows.Next() {
		var (
			e       CallbackEvent
			simTime int64
		)
		if err := rows.Scan(&e.Seq, &simTime, &e.Reason, &e.Native, &e.Target, &e.From, &e.To); err != nil {
			return nil, fmt.Errorf("scan callback event: %w", err)
		}
		e.SimTime = uint64(simTime)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate callback events: %w", err)
	}
	return out, nil
}

// DeleteSession removes a session and, through the foreign keys, its
// handles and events.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete session %s: %w", id, ErrSessionNotFound)
	}
	return nil
}
