package call

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/saranya-muthuraj/ivrsim/internal/menu"
)

// SQLiteStore persists call sessions in a SQLite file via the pure-Go
// driver, so local deployments need no CGO and no external database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ivr_sessions (
			call_id TEXT PRIMARY KEY,
			caller_number TEXT NOT NULL,
			status TEXT NOT NULL,
			current_menu TEXT NOT NULL,
			menu_path TEXT NOT NULL,
			inputs TEXT NOT NULL,
			input_buffer TEXT NOT NULL DEFAULT '',
			active_pnr TEXT NOT NULL DEFAULT '',
			active_ff_number TEXT NOT NULL DEFAULT '',
			booking_flight TEXT NOT NULL DEFAULT '',
			booking_name TEXT NOT NULL DEFAULT '',
			booking_age INTEGER NOT NULL DEFAULT 0,
			booking_gender TEXT NOT NULL DEFAULT '',
			started_at TEXT NOT NULL,
			ended_at TEXT,
			last_activity_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ivr_sessions_status_activity ON ivr_sessions (status, last_activity_at)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init session schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// openSQLite applies the pragmas SQLite needs to survive concurrent HTTP
// handlers: WAL for readers, a busy timeout for writers, and a single
// connection so the driver serializes writes instead of failing with
// "database is locked".
func openSQLite(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return db, nil
}

func (s *SQLiteStore) Create(ctx context.Context, sess *Session) error {
	path, inputs, err := marshalAudit(sess)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ivr_sessions (`+sessionColumns+`)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		sess.ID, sess.CallerNumber, string(sess.Status), string(sess.CurrentMenu),
		string(path), string(inputs), sess.InputBuffer, sess.ActivePNR,
		sess.ActiveFFNumber, sess.BookingFlight, sess.BookingName,
		sess.BookingAge, sess.BookingGender,
		formatTime(sess.StartedAt), nullableTimeText(sess.EndedAt), formatTime(sess.LastActivityAt),
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM ivr_sessions WHERE call_id=?`, id)
	sess, err := scanSessionText(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess.Ended() {
		return nil, ErrEnded
	}
	return sess, nil
}

func (s *SQLiteStore) Update(ctx context.Context, sess *Session) error {
	path, inputs, err := marshalAudit(sess)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE ivr_sessions SET status=?, current_menu=?, menu_path=?,
		  inputs=?, input_buffer=?, active_pnr=?, active_ff_number=?,
		  booking_flight=?, booking_name=?, booking_age=?, booking_gender=?,
		  ended_at=?, last_activity_at=?
		 WHERE call_id=? AND status='active'`,
		string(sess.Status), string(sess.CurrentMenu), string(path), string(inputs),
		sess.InputBuffer, sess.ActivePNR, sess.ActiveFFNumber,
		sess.BookingFlight, sess.BookingName, sess.BookingAge, sess.BookingGender,
		nullableTimeText(sess.EndedAt), formatTime(sess.LastActivityAt), sess.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.Get(ctx, sess.ID); err != nil {
			return err
		}
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) End(ctx context.Context, id, note string) (*Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	end(sess, note, time.Now().UTC())
	path, inputs, err := marshalAudit(sess)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE ivr_sessions SET status=?, inputs=?, menu_path=?,
		  input_buffer='', ended_at=?, last_activity_at=?
		 WHERE call_id=? AND status='active'`,
		string(sess.Status), string(inputs), string(path),
		formatTime(sess.EndedAt), formatTime(sess.LastActivityAt), id,
	)
	if err != nil {
		return nil, fmt.Errorf("end session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrEnded
	}
	return sess, nil
}

func (s *SQLiteStore) ExpireInactive(ctx context.Context, cutoff time.Time) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM ivr_sessions
		 WHERE status='active' AND last_activity_at < ?`, formatTime(cutoff))
	if err != nil {
		return nil, fmt.Errorf("find inactive sessions: %w", err)
	}
	var stale []*Session
	for rows.Next() {
		sess, err := scanSessionText(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan inactive session: %w", err)
		}
		stale = append(stale, sess)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate inactive sessions: %w", err)
	}
	_ = rows.Close()

	var out []*Session
	for _, sess := range stale {
		ended, err := s.End(ctx, sess.ID, "Call expired after inactivity.")
		if errors.Is(err, ErrEnded) || errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return out, err
		}
		out = append(out, ended)
	}
	return out, nil
}

func (s *SQLiteStore) ActiveCount(ctx context.Context) (int, error) {
	return s.count(ctx, "active")
}

func (s *SQLiteStore) EndedCount(ctx context.Context) (int, error) {
	return s.count(ctx, "ended")
}

func (s *SQLiteStore) count(ctx context.Context, status string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM ivr_sessions WHERE status=?`, status).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func scanSessionText(row rowScanner) (*Session, error) {
	var (
		sess        Session
		status, cur string
		path        string
		inputs      string
		started     string
		lastAct     string
		endedAt     sql.NullString
	)
	err := row.Scan(
		&sess.ID, &sess.CallerNumber, &status, &cur, &path, &inputs,
		&sess.InputBuffer, &sess.ActivePNR, &sess.ActiveFFNumber,
		&sess.BookingFlight, &sess.BookingName, &sess.BookingAge,
		&sess.BookingGender, &started, &endedAt, &lastAct,
	)
	if err != nil {
		return nil, err
	}
	sess.Status = Status(status)
	sess.CurrentMenu = menu.ID(cur)
	if sess.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if sess.LastActivityAt, err = parseTime(lastAct); err != nil {
		return nil, err
	}
	if endedAt.Valid && endedAt.String != "" {
		if sess.EndedAt, err = parseTime(endedAt.String); err != nil {
			return nil, err
		}
	}
	if err := unmarshalAudit(&sess, []byte(path), []byte(inputs)); err != nil {
		return nil, err
	}
	return &sess, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", v, err)
	}
	return t, nil
}

func nullableTimeText(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}
