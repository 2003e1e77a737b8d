package directory

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/saranya-muthuraj/ivrsim/internal/keypad"
)

// Directory is the external record collaborator of the call engine. The two
// mutating operations are atomic: seat counts for a flight are adjusted in
// the same transaction that changes or inserts the reservation, so two calls
// racing on the same flight can never lose an update.
type Directory interface {
	// Reservation looks up one reservation by its keypad lookup key.
	Reservation(ctx context.Context, key string) (*Reservation, error)
	// ReservationsByFlight returns every reservation on the flight code.
	ReservationsByFlight(ctx context.Context, flight string) ([]*Reservation, error)
	// ResolveFlightCode maps caller input to a known flight code, matching
	// either the code itself (case/whitespace-insensitive) or its keypad
	// digit encoding for values typed on the keypad.
	ResolveFlightCode(ctx context.Context, entered string) (string, error)
	// LoyaltyAccount looks up a Flying Returns account by number.
	LoyaltyAccount(ctx context.Context, number string) (*LoyaltyAccount, error)

	// CancelReservation marks the reservation cancelled and increments the
	// seat count on every reservation sharing its flight code.
	CancelReservation(ctx context.Context, key string) (*Reservation, error)
	// CreateBooking re-checks capacity, inserts a Confirmed reservation with
	// a fresh key, and decrements the seat count on every reservation
	// sharing the flight code. Returns ErrSoldOut when no seats remain.
	CreateBooking(ctx context.Context, flight, name string, age int, gender string) (*Reservation, error)

	// Seeding and archival.
	InsertReservation(ctx context.Context, r *Reservation) error
	UpsertLoyaltyAccount(ctx context.Context, a *LoyaltyAccount) error
	ReservationCount(ctx context.Context) (int, error)
	LoyaltyAccountCount(ctx context.Context) (int, error)
	SaveCallRecord(ctx context.Context, rec *CallRecord) error
	CallRecordCount(ctx context.Context) (int, error)

	Close() error
}

// New selects a backend by the shape of databaseURL, the same way the
// session store factory does.
func New(ctx context.Context, databaseURL string) (Directory, error) {
	u := strings.TrimSpace(databaseURL)
	switch {
	case u == "":
		return NewInMemory(), nil
	case strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://"):
		return NewPostgres(ctx, u)
	default:
		return NewSQLite(u)
	}
}

// NormalizeFlightCode uppercases and strips whitespace from caller input.
func NormalizeFlightCode(entered string) string {
	return strings.ToUpper(strings.Join(strings.Fields(entered), ""))
}

// matchFlight reports whether entered identifies code, either literally or
// as the keypad encoding of it.
func matchFlight(code, entered string) bool {
	if strings.EqualFold(code, entered) {
		return true
	}
	return keypad.Encode(code) == entered && entered != ""
}

// newBookingIdentity derives a display PNR and lookup key for a booking on
// flight: the airline prefix plus four random digits, keyed by its keypad
// encoding. Callers retry on key collision.
func newBookingIdentity(flight string) (display, key string) {
	prefix := flight
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	display = fmt.Sprintf("%s%04d", strings.ToUpper(prefix), rand.Intn(10000))
	return display, keypad.Encode(display)
}
