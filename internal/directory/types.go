// Package directory is the record store behind the IVR: reservations,
// loyalty accounts, the shared seat inventory, and completed-call history.
package directory

import (
	"errors"
	"time"
)

// ReservationStatus values match what the IVR reads back to callers.
type ReservationStatus string

const (
	StatusConfirmed ReservationStatus = "Confirmed"
	StatusDelayed   ReservationStatus = "Delayed"
	StatusCancelled ReservationStatus = "Cancelled"
	StatusBoarding  ReservationStatus = "Boarding"
	StatusOnTime    ReservationStatus = "On Time"
)

// Reservation is one booking row. Key is the keypad encoding of DisplayPNR
// (AI1234 is keyed 241234) so a PNR spoken letter-by-letter and a PNR typed
// on the keypad resolve to the same record.
//
// SeatsAvailable belongs to the flight, not the row: every reservation
// sharing a flight code must hold the identical value, and the directory
// keeps that invariant on every cancellation and booking.
type Reservation struct {
	Key             string            `json:"pnr_key"`
	DisplayPNR      string            `json:"pnr_display"`
	Flight          string            `json:"flight"`
	Status          ReservationStatus `json:"status"`
	Route           string            `json:"route"`
	Time            string            `json:"time"`
	SeatsAvailable  int               `json:"seats_available"`
	PassengerName   string            `json:"passenger_name"`
	PassengerAge    int               `json:"passenger_age"`
	PassengerGender string            `json:"passenger_gender"`
}

// LoyaltyAccount is one Flying Returns account.
type LoyaltyAccount struct {
	Number string `json:"ff_number"`
	PIN    string `json:"-"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// CallRecord archives one completed call.
type CallRecord struct {
	CallID       string    `json:"call_id"`
	CallerNumber string    `json:"caller_number"`
	StartedAt    time.Time `json:"start_time"`
	EndedAt      time.Time `json:"end_time"`
	MenuPath     []string  `json:"menu_path"`
	Inputs       []string  `json:"inputs"`
}

var (
	// ErrNotFound covers absent reservations, flights and loyalty accounts.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyCancelled means the reservation was cancelled before this call.
	ErrAlreadyCancelled = errors.New("reservation already cancelled")
	// ErrSoldOut means the flight has no seats left.
	ErrSoldOut = errors.New("flight sold out")
)
