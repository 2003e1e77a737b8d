package call

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saranya-muthuraj/ivrsim/internal/menu"
)

// PostgresStore persists call sessions in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initSessionSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initSessionSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ivr_sessions (
			call_id TEXT PRIMARY KEY,
			caller_number TEXT NOT NULL,
			status TEXT NOT NULL,
			current_menu TEXT NOT NULL,
			menu_path JSONB NOT NULL,
			inputs JSONB NOT NULL,
			input_buffer TEXT NOT NULL DEFAULT '',
			active_pnr TEXT NOT NULL DEFAULT '',
			active_ff_number TEXT NOT NULL DEFAULT '',
			booking_flight TEXT NOT NULL DEFAULT '',
			booking_name TEXT NOT NULL DEFAULT '',
			booking_age INT NOT NULL DEFAULT 0,
			booking_gender TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMPTZ NOT NULL,
			ended_at TIMESTAMPTZ,
			last_activity_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_ivr_sessions_status_activity ON ivr_sessions (status, last_activity_at);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init session schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

const sessionColumns = `call_id, caller_number, status, current_menu, menu_path, inputs,
	input_buffer, active_pnr, active_ff_number, booking_flight, booking_name,
	booking_age, booking_gender, started_at, ended_at, last_activity_at`

func (s *PostgresStore) Create(ctx context.Context, sess *Session) error {
	path, inputs, err := marshalAudit(sess)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO ivr_sessions (`+sessionColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		sess.ID, sess.CallerNumber, string(sess.Status), string(sess.CurrentMenu),
		path, inputs, sess.InputBuffer, sess.ActivePNR, sess.ActiveFFNumber,
		sess.BookingFlight, sess.BookingName, sess.BookingAge, sess.BookingGender,
		sess.StartedAt, nullableTime(sess.EndedAt), sess.LastActivityAt,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Session, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM ivr_sessions WHERE call_id=$1`, id)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess.Ended() {
		return nil, ErrEnded
	}
	return sess, nil
}

func (s *PostgresStore) Update(ctx context.Context, sess *Session) error {
	path, inputs, err := marshalAudit(sess)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE ivr_sessions SET status=$2, current_menu=$3, menu_path=$4,
		  inputs=$5, input_buffer=$6, active_pnr=$7, active_ff_number=$8,
		  booking_flight=$9, booking_name=$10, booking_age=$11,
		  booking_gender=$12, ended_at=$13, last_activity_at=$14
		 WHERE call_id=$1 AND status='active'`,
		sess.ID, string(sess.Status), string(sess.CurrentMenu), path, inputs,
		sess.InputBuffer, sess.ActivePNR, sess.ActiveFFNumber,
		sess.BookingFlight, sess.BookingName, sess.BookingAge, sess.BookingGender,
		nullableTime(sess.EndedAt), sess.LastActivityAt,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either unknown or already ended; re-read to tell them apart.
		if _, err := s.Get(ctx, sess.ID); err != nil {
			return err
		}
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) End(ctx context.Context, id, note string) (*Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	end(sess, note, time.Now().UTC())
	path, inputs, err := marshalAudit(sess)
	if err != nil {
		return nil, err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE ivr_sessions SET status=$2, inputs=$3, menu_path=$4,
		  input_buffer='', ended_at=$5, last_activity_at=$5
		 WHERE call_id=$1 AND status='active'`,
		id, string(sess.Status), inputs, path, sess.EndedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("end session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrEnded
	}
	return sess, nil
}

func (s *PostgresStore) ExpireInactive(ctx context.Context, cutoff time.Time) ([]*Session, error) {
	rows, err := s.pool.Query(ctx,
		`UPDATE ivr_sessions SET status='ended', input_buffer='',
		  ended_at=now(), last_activity_at=now()
		 WHERE status='active' AND last_activity_at < $1
		 RETURNING `+sessionColumns, cutoff)
	if err != nil {
		return nil, fmt.Errorf("expire sessions: %w", err)
	}
	defer rows.Close()
	var out []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expired session: %w", err)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired sessions: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ActiveCount(ctx context.Context) (int, error) {
	return s.count(ctx, "active")
}

func (s *PostgresStore) EndedCount(ctx context.Context) (int, error) {
	return s.count(ctx, "ended")
}

func (s *PostgresStore) count(ctx context.Context, status string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM ivr_sessions WHERE status=$1`, status).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		sess         Session
		status, cur  string
		path, inputs []byte
		endedAt      *time.Time
	)
	err := row.Scan(
		&sess.ID, &sess.CallerNumber, &status, &cur, &path, &inputs,
		&sess.InputBuffer, &sess.ActivePNR, &sess.ActiveFFNumber,
		&sess.BookingFlight, &sess.BookingName, &sess.BookingAge,
		&sess.BookingGender, &sess.StartedAt, &endedAt, &sess.LastActivityAt,
	)
	if err != nil {
		return nil, err
	}
	sess.Status = Status(status)
	sess.CurrentMenu = menu.ID(cur)
	if endedAt != nil {
		sess.EndedAt = *endedAt
	}
	if err := unmarshalAudit(&sess, path, inputs); err != nil {
		return nil, err
	}
	return &sess, nil
}

func unmarshalAudit(sess *Session, path, inputs []byte) error {
	if err := json.Unmarshal(path, &sess.MenuPath); err != nil {
		return fmt.Errorf("decode menu_path: %w", err)
	}
	if err := json.Unmarshal(inputs, &sess.Inputs); err != nil {
		return fmt.Errorf("decode inputs: %w", err)
	}
	return nil
}

func marshalAudit(sess *Session) (path, inputs []byte, err error) {
	if path, err = json.Marshal(sess.MenuPath); err != nil {
		return nil, nil, fmt.Errorf("encode menu_path: %w", err)
	}
	if inputs, err = json.Marshal(sess.Inputs); err != nil {
		return nil, nil, fmt.Errorf("encode inputs: %w", err)
	}
	return path, inputs, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
