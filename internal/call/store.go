package call

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound means no session exists for the call id.
	ErrNotFound = errors.New("call not found")
	// ErrEnded means the session exists but has already been terminated.
	// Ended sessions are immutable and reject further turns.
	ErrEnded = errors.New("call already ended")
)

// Store persists call sessions. Get distinguishes an absent call from an
// ended one so the transport can answer 404 vs 409. Stores do not serialize
// turns; the engine holds a per-call lock around every read-modify-write.
type Store interface {
	Create(ctx context.Context, s *Session) error
	// Get returns the session when it is active, ErrNotFound when the id is
	// unknown, and ErrEnded when the call has already been terminated.
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, s *Session) error
	// End marks the session ended, appending note to the audit log.
	// Ending an already-ended session returns ErrEnded.
	End(ctx context.Context, id, note string) (*Session, error)
	// ExpireInactive ends every active session idle since before cutoff and
	// returns the sessions it ended.
	ExpireInactive(ctx context.Context, cutoff time.Time) ([]*Session, error)
	ActiveCount(ctx context.Context) (int, error)
	EndedCount(ctx context.Context) (int, error)
	Close() error
}

// NewStore selects a backend by the shape of databaseURL: empty picks the
// in-process store, postgres URLs pick PostgreSQL, anything else is treated
// as a SQLite file path.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	u := strings.TrimSpace(databaseURL)
	switch {
	case u == "":
		return NewInMemoryStore(), nil
	case strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://"):
		return NewPostgresStore(ctx, u)
	default:
		return NewSQLiteStore(u)
	}
}
