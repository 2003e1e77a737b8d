package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps the directory in PostgreSQL. Cancel and booking run inside
// a transaction that locks every row of the affected flight in a stable
// order, so concurrent calls on one flight serialize instead of losing
// seat updates.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initDirectorySchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func initDirectorySchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
			pnr_key TEXT PRIMARY KEY,
			pnr_display TEXT NOT NULL,
			flight TEXT NOT NULL,
			status TEXT NOT NULL,
			route TEXT NOT NULL,
			sched_time TEXT NOT NULL,
			seats_available INT NOT NULL,
			passenger_name TEXT NOT NULL DEFAULT '',
			passenger_age INT NOT NULL DEFAULT 0,
			passenger_gender TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_flight ON bookings (flight);`,
		`CREATE TABLE IF NOT EXISTS frequent_flyers (
			ff_number TEXT PRIMARY KEY,
			pin TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			points INT NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS call_history (
			call_id TEXT PRIMARY KEY,
			caller_number TEXT NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ NOT NULL,
			menu_path JSONB NOT NULL,
			inputs JSONB NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init directory schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

const bookingColumns = `pnr_key, pnr_display, flight, status, route, sched_time,
	seats_available, passenger_name, passenger_age, passenger_gender`

func (d *Postgres) Reservation(ctx context.Context, key string) (*Reservation, error) {
	row := d.pool.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE pnr_key=$1`, key)
	r, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return r, nil
}

func (d *Postgres) ReservationsByFlight(ctx context.Context, flight string) ([]*Reservation, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE flight=$1 ORDER BY pnr_key`, flight)
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

func (d *Postgres) ResolveFlightCode(ctx context.Context, entered string) (string, error) {
	entered = NormalizeFlightCode(entered)
	rows, err := d.pool.Query(ctx, `SELECT DISTINCT flight FROM bookings`)
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

func (d *Postgres) LoyaltyAccount(ctx context.Context, number string) (*LoyaltyAccount, error) {
	var a LoyaltyAccount
	err := d.pool.QueryRow(ctx,
		`SELECT ff_number, pin, name, points FROM frequent_flyers WHERE ff_number=$1`,
		number).Scan(&a.Number, &a.PIN, &a.Name, &a.Points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get loyalty account: %w", err)
	}
	return &a, nil
}

func (d *Postgres) CancelReservation(ctx context.Context, key string) (*Reservation, error) {
	var out *Reservation
	err := d.withTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT `+bookingColumns+` FROM bookings WHERE pnr_key=$1 FOR UPDATE`, key)
		r, err := scanReservation(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock reservation: %w", err)
		}
		if r.Status == StatusCancelled {
			return ErrAlreadyCancelled
		}
		if err := lockFlightRows(ctx, tx, r.Flight); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE bookings SET status=$2 WHERE pnr_key=$1`, key, string(StatusCancelled)); err != nil {
			return fmt.Errorf("mark cancelled: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE bookings SET seats_available = seats_available + 1 WHERE flight=$1`, r.Flight); err != nil {
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

func (d *Postgres) CreateBooking(ctx context.Context, flight, name string, age int, gender string) (*Reservation, error) {
	var out *Reservation
	err := d.withTx(ctx, func(tx pgx.Tx) error {
		if err := lockFlightRows(ctx, tx, flight); err != nil {
			return err
		}
		row := tx.QueryRow(ctx,
			`SELECT `+bookingColumns+` FROM bookings WHERE flight=$1 ORDER BY pnr_key LIMIT 1`, flight)
		template, err := scanReservation(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("read flight template: %w", err)
		}
		if template.SeatsAvailable <= 0 {
			return ErrSoldOut
		}

		display, key := newBookingIdentity(flight)
		for {
			var exists bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM bookings WHERE pnr_key=$1)`, key).Scan(&exists); err != nil {
				return fmt.Errorf("check key collision: %w", err)
			}
			if !exists {
				break
			}
			display, key = newBookingIdentity(flight)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE bookings SET seats_available = seats_available - 1 WHERE flight=$1`, flight); err != nil {
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
		if _, err := tx.Exec(ctx,
			`INSERT INTO bookings (`+bookingColumns+`)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
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

// lockFlightRows takes row locks on every reservation of the flight in a
// stable order so concurrent cancel/booking transactions queue up rather
// than deadlock.
func lockFlightRows(ctx context.Context, tx pgx.Tx, flight string) error {
	rows, err := tx.Query(ctx,
		`SELECT pnr_key FROM bookings WHERE flight=$1 ORDER BY pnr_key FOR UPDATE`, flight)
	if err != nil {
		return fmt.Errorf("lock flight rows: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return fmt.Errorf("scan locked row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate locked rows: %w", err)
	}
	return nil
}

func (d *Postgres) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (d *Postgres) InsertReservation(ctx context.Context, r *Reservation) error {
	_, err := d.pool.Exec(ctx,
		`INSERT INTO bookings (`+bookingColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 ON CONFLICT (pnr_key) DO NOTHING`,
		r.Key, r.DisplayPNR, r.Flight, string(r.Status), r.Route, r.Time,
		r.SeatsAvailable, r.PassengerName, r.PassengerAge, r.PassengerGender,
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (d *Postgres) UpsertLoyaltyAccount(ctx context.Context, a *LoyaltyAccount) error {
	_, err := d.pool.Exec(ctx,
		`INSERT INTO frequent_flyers (ff_number, pin, name, points)
		 VALUES ($1,$2,$3,$4)
		 ON CONFLICT (ff_number) DO UPDATE SET pin=EXCLUDED.pin, name=EXCLUDED.name, points=EXCLUDED.points`,
		a.Number, a.PIN, a.Name, a.Points,
	)
	if err != nil {
		return fmt.Errorf("upsert loyalty account: %w", err)
	}
	return nil
}

func (d *Postgres) ReservationCount(ctx context.Context) (int, error) {
	return d.countRows(ctx, "bookings")
}

func (d *Postgres) LoyaltyAccountCount(ctx context.Context) (int, error) {
	return d.countRows(ctx, "frequent_flyers")
}

func (d *Postgres) CallRecordCount(ctx context.Context) (int, error) {
	return d.countRows(ctx, "call_history")
}

func (d *Postgres) countRows(ctx context.Context, table string) (int, error) {
	var n int
	if err := d.pool.QueryRow(ctx, `SELECT count(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func (d *Postgres) SaveCallRecord(ctx context.Context, rec *CallRecord) error {
	path, err := json.Marshal(rec.MenuPath)
	if err != nil {
		return fmt.Errorf("encode menu_path: %w", err)
	}
	inputs, err := json.Marshal(rec.Inputs)
	if err != nil {
		return fmt.Errorf("encode inputs: %w", err)
	}
	_, err = d.pool.Exec(ctx,
		`INSERT INTO call_history (call_id, caller_number, start_time, end_time, menu_path, inputs)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (call_id) DO NOTHING`,
		rec.CallID, rec.CallerNumber, rec.StartedAt, rec.EndedAt, path, inputs,
	)
	if err != nil {
		return fmt.Errorf("save call record: %w", err)
	}
	return nil
}

func (d *Postgres) Close() error {
	d.pool.Close()
	return nil
}

type reservationScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row reservationScanner) (*Reservation, error) {
	var (
		r      Reservation
		status string
	)
	err := row.Scan(
		&r.Key, &r.DisplayPNR, &r.Flight, &status, &r.Route, &r.Time,
		&r.SeatsAvailable, &r.PassengerName, &r.PassengerAge, &r.PassengerGender,
	)
	if err != nil {
		return nil, err
	}
	r.Status = ReservationStatus(status)
	return &r, nil
}
