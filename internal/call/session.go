// Package call holds the per-call session state and the session stores.
package call

import (
	"time"

	"github.com/saranya-muthuraj/ivrsim/internal/menu"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// Session is the mutable state of one call. It is owned by the engine:
// turns for one call are serialized, and stores hand out copies.
type Session struct {
	ID           string `json:"call_id"`
	CallerNumber string `json:"caller_number"`
	Status       Status `json:"status"`

	CurrentMenu menu.ID   `json:"current_menu"`
	MenuPath    []menu.ID `json:"menu_path"`
	Inputs      []string  `json:"inputs"`
	InputBuffer string    `json:"input_buffer"`

	// Working memory carried between menus once a lookup succeeds.
	ActivePNR      string `json:"active_pnr,omitempty"`
	ActiveFFNumber string `json:"active_ff_number,omitempty"`

	// Booking wizard scratch.
	BookingFlight string `json:"booking_flight,omitempty"`
	BookingName   string `json:"booking_name,omitempty"`
	BookingAge    int    `json:"booking_age,omitempty"`
	BookingGender string `json:"booking_gender,omitempty"`

	StartedAt      time.Time `json:"start_time"`
	EndedAt        time.Time `json:"end_time,omitzero"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// Ended reports whether the session has been terminated.
func (s *Session) Ended() bool { return s.Status == StatusEnded }

// ClearScratch drops the cross-menu working memory. Called when the caller
// returns to the main menu.
func (s *Session) ClearScratch() {
	s.ActivePNR = ""
	s.ActiveFFNumber = ""
	s.BookingFlight = ""
	s.BookingName = ""
	s.BookingAge = 0
	s.BookingGender = ""
}

// Clone returns a deep copy so store internals never alias caller state.
func (s *Session) Clone() *Session {
	c := *s
	c.MenuPath = append([]menu.ID(nil), s.MenuPath...)
	c.Inputs = append([]string(nil), s.Inputs...)
	return &c
}
