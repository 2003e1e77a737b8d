package directory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite keeps the directory in a SQLite file via the pure-Go driver. The
// connection pool is limited to a single connection, so transactions get
// SQLite's single-writer guarantee and the seat updates stay atomic.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLite, error) {
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
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
			pnr_key TEXT PRIMARY KEY,
			pnr_display TEXT NOT NULL,
			flight TEXT NOT NULL,
			status TEXT NOT NULL,
			route TEXT NOT NULL,
			sched_time TEXT NOT NULL,
			seats_available INTEGER NOT NULL,
			passenger_name TEXT NOT NULL DEFAULT '',
			passenger_age INTEGER NOT NULL DEFAULT 0,
			passenger_gender TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_flight ON bookings (flight)`,
		`CREATE TABLE IF NOT EXISTS frequent_flyers (
			ff_number TEXT PRIMARY KEY,
			pin TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			points INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS call_history (
			call_id TEXT PRIMARY KEY,
			caller_number TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			menu_path TEXT NOT NULL,
			inputs TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init directory schema: %w", err)
		}
	}
	return &SQLite{db: db}, nil
}

func (d *SQLite) Reservation(ctx context.Context, key string) (*Reservation, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE pnr_key=?`, key)
	r, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return r, nil
}

func (d *SQLite) ReservationsByFlight(ctx context.Context, flight string) ([]*Reservation, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE flight=? ORDER BY pnr_key`, flight)
	if err != nil {
		return nil, fmt.Errorf("query flight reservations: %w", err)
	}
	defer rows.Close()
	var out []*Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}
	return out, nil
}

func (d *SQLite) ResolveFlightCode(ctx context.Context, entered string) (string, error) {
	entered = NormalizeFlightCode(entered)
	rows, err := d.db.QueryContext(ctx, `SELECT DISTINCT flight FROM bookings`)
	if err != nil {
		return "", fmt.Errorf("list flights: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return "", fmt.Errorf("scan flight: %w", err)
		}
		if matchFlight(code, entered) {
			return code, nil
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate flights: %w", err)
	}
	return "", ErrNotFound
}

func (d *SQLite) LoyaltyAccount(ctx context.Context, number string) (*LoyaltyAccount, error) {
	var a LoyaltyAccount
	err := d.db.QueryRowContext(ctx,
		`SELECT ff_number, pin, name, points FROM frequent_flyers WHERE ff_number=?`,
		number).Scan(&a.Number, &a.PIN, &a.Name, &a.Points)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get loyalty account: %w", err)
	}
	return &a, nil
}

func (d *SQLite) CancelReservation(ctx context.Context, key string) (*Reservation, error) {
	var out *Reservation
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+bookingColumns+` FROM bookings WHERE pnr_key=?`, key)
		r, err := scanReservation(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("read reservation: %w", err)
		}
		if r.Status == StatusCancelled {
			return ErrAlreadyCancelled
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE bookings SET status=? WHERE pnr_key=?`, string(StatusCancelled), key); err != nil {
			return fmt.Errorf("mark cancelled: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE bookings SET seats_available = seats_available + 1 WHERE flight=?`, r.Flight); err != nil {
			return fmt.Errorf("release seat: %w", err)
		}
		r.Status = StatusCancelled
		r.SeatsAvailable++
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (d *SQLite) CreateBooking(ctx context.Context, flight, name string, age int, gender string) (*Reservation, error) {
	var out *Reservation
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+bookingColumns+` FROM bookings WHERE flight=? ORDER BY pnr_key LIMIT 1`, flight)
		template, err := scanReservation(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("read flight template: %w", err)
		}
		if template.SeatsAvailable <= 0 {
			return ErrSoldOut
		}

		display, key := newBookingIdentity(flight)
		for {
			var n int
			if err := tx.QueryRowContext(ctx,
				`SELECT count(*) FROM bookings WHERE pnr_key=?`, key).Scan(&n); err != nil {
				return fmt.Errorf("check key collision: %w", err)
			}
			if n == 0 {
				break
			}
			display, key = newBookingIdentity(flight)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE bookings SET seats_available = seats_available - 1 WHERE flight=?`, flight); err != nil {
			return fmt.Errorf("take seat: %w", err)
		}
		booked := &Reservation{
			Key:             key,
			DisplayPNR:      display,
			Flight:          flight,
			Status:          StatusConfirmed,
			Route:           template.Route,
			Time:            template.Time,
			SeatsAvailable:  template.SeatsAvailable - 1,
			PassengerName:   name,
			PassengerAge:    age,
			PassengerGender: gender,
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO bookings (`+bookingColumns+`)
			 VALUES (?,?,?,?,?,?,?,?,?,?)`,
			booked.Key, booked.DisplayPNR, booked.Flight, string(booked.Status),
			booked.Route, booked.Time, booked.SeatsAvailable,
			booked.PassengerName, booked.PassengerAge, booked.PassengerGender,
		); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		out = booked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (d *SQLite) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (d *SQLite) InsertReservation(ctx context.Context, r *Reservation) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO bookings (`+bookingColumns+`)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		r.Key, r.DisplayPNR, r.Flight, string(r.Status), r.Route, r.Time,
		r.SeatsAvailable, r.PassengerName, r.PassengerAge, r.PassengerGender,
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (d *SQLite) UpsertLoyaltyAccount(ctx context.Context, a *LoyaltyAccount) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO frequent_flyers (ff_number, pin, name, points)
		 VALUES (?,?,?,?)
		 ON CONFLICT (ff_number) DO UPDATE SET pin=excluded.pin, name=excluded.name, points=excluded.points`,
		a.Number, a.PIN, a.Name, a.Points,
	)
	if err != nil {
		return fmt.Errorf("upsert loyalty account: %w", err)
	}
	return nil
}

func (d *SQLite) ReservationCount(ctx context.Context) (int, error) {
	return d.countRows(ctx, "bookings")
}

func (d *SQLite) LoyaltyAccountCount(ctx context.Context) (int, error) {
	return d.countRows(ctx, "frequent_flyers")
}

func (d *SQLite) CallRecordCount(ctx context.Context) (int, error) {
	return d.countRows(ctx, "call_history")
}

func (d *SQLite) countRows(ctx context.Context, table string) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT count(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func (d *SQLite) SaveCallRecord(ctx context.Context, rec *CallRecord) error {
	path, err := json.Marshal(rec.MenuPath)
	if err != nil {
		return fmt.Errorf("encode menu_path: %w", err)
	}
	inputs, err := json.Marshal(rec.Inputs)
	if err != nil {
		return fmt.Errorf("encode inputs: %w", err)
	}
	_, err = d.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO call_history (call_id, caller_number, start_time, end_time, menu_path, inputs)
		 VALUES (?,?,?,?,?,?)`,
		rec.CallID, rec.CallerNumber,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.EndedAt.UTC().Format(time.RFC3339Nano),
		string(path), string(inputs),
	)
	if err != nil {
		return fmt.Errorf("save call record: %w", err)
	}
	return nil
}

func (d *SQLite) Close() error { return d.db.Close() }
