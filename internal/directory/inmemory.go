package directory

import (
	"context"
	"sync"
)

// InMemory is the in-process directory for local/dev use and tests. One
// mutex covers every operation, which makes the seat-count read-modify-write
// of cancel and booking trivially atomic.
type InMemory struct {
	mu       sync.RWMutex
	byKey    map[string]*Reservation
	accounts map[string]*LoyaltyAccount
	calls    []*CallRecord
}

func NewInMemory() *InMemory {
	return &InMemory{
		byKey:    make(map[string]*Reservation),
		accounts: make(map[string]*LoyaltyAccount),
	}
}

func (d *InMemory) Reservation(_ context.Context, key string) (*Reservation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.byKey[key]
	if !ok {
		return nil, ErrNotFound
	}
	c := *r
	return &c, nil
}

func (d *InMemory) ReservationsByFlight(_ context.Context, flight string) ([]*Reservation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.flightRowsLocked(flight), nil
}

func (d *InMemory) flightRowsLocked(flight string) []*Reservation {
	var out []*Reservation
	for _, r := range d.byKey {
		if r.Flight == flight {
			c := *r
			out = append(out, &c)
		}
	}
	return out
}

func (d *InMemory) ResolveFlightCode(_ context.Context, entered string) (string, error) {
	entered = NormalizeFlightCode(entered)
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, r := range d.byKey {
		if matchFlight(r.Flight, entered) {
			return r.Flight, nil
		}
	}
	return "", ErrNotFound
}

func (d *InMemory) LoyaltyAccount(_ context.Context, number string) (*LoyaltyAccount, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.accounts[number]
	if !ok {
		return nil, ErrNotFound
	}
	c := *a
	return &c, nil
}

func (d *InMemory) CancelReservation(_ context.Context, key string) (*Reservation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.byKey[key]
	if !ok {
		return nil, ErrNotFound
	}
	if r.Status == StatusCancelled {
		return nil, ErrAlreadyCancelled
	}
	r.Status = StatusCancelled
	for _, row := range d.byKey {
		if row.Flight == r.Flight {
			row.SeatsAvailable++
		}
	}
	c := *r
	return &c, nil
}

func (d *InMemory) CreateBooking(_ context.Context, flight, name string, age int, gender string) (*Reservation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var rows []*Reservation
	for _, r := range d.byKey {
		if r.Flight == flight {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	if rows[0].SeatsAvailable <= 0 {
		return nil, ErrSoldOut
	}

	display, key := newBookingIdentity(flight)
	for {
		if _, taken := d.byKey[key]; !taken {
			break
		}
		display, key = newBookingIdentity(flight)
	}

	booked := &Reservation{
		Key:             key,
		DisplayPNR:      display,
		Flight:          flight,
		Status:          StatusConfirmed,
		Route:           rows[0].Route,
		Time:            rows[0].Time,
		SeatsAvailable:  rows[0].SeatsAvailable - 1,
		PassengerName:   name,
		PassengerAge:    age,
		PassengerGender: gender,
	}
	for _, row := range rows {
		row.SeatsAvailable--
	}
	d.byKey[key] = booked

	c := *booked
	return &c, nil
}

func (d *InMemory) InsertReservation(_ context.Context, r *Reservation) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := *r
	d.byKey[r.Key] = &c
	return nil
}

func (d *InMemory) UpsertLoyaltyAccount(_ context.Context, a *LoyaltyAccount) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := *a
	d.accounts[a.Number] = &c
	return nil
}

func (d *InMemory) ReservationCount(_ context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byKey), nil
}

func (d *InMemory) LoyaltyAccountCount(_ context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.accounts), nil
}

func (d *InMemory) SaveCallRecord(_ context.Context, rec *CallRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := *rec
	c.MenuPath = append([]string(nil), rec.MenuPath...)
	c.Inputs = append([]string(nil), rec.Inputs...)
	d.calls = append(d.calls, &c)
	return nil
}

func (d *InMemory) CallRecordCount(_ context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.calls), nil
}

func (d *InMemory) Close() error { return nil }
