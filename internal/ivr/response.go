// Package ivr is the call-session state machine: it dispatches keypad
// and voice turns against the menu graph, runs the resolved actions
// against the record directory, and owns the session lifecycle.
package ivr

import (
	"github.com/saranya-muthuraj/ivrsim/internal/directory"
	"github.com/saranya-muthuraj/ivrsim/internal/menu"
)

// Status tags a turn response for the transport layer.
type Status string

const (
	StatusConnected    Status = "connected"
	StatusProcessed    Status = "processed"
	StatusCollecting   Status = "collecting"
	StatusInvalid      Status = "invalid"
	StatusPNRFound     Status = "pnr_found"
	StatusCallEnded    Status = "call_ended"
	StatusTransferring Status = "transferring"
)

// ActionHangup in the call_action field tells the transport to drop
// the channel after delivering the response.
const ActionHangup = "hangup"

// Response is the payload returned for every caller turn.
type Response struct {
	CallID       string                 `json:"call_id,omitempty"`
	Status       Status                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	Prompt       string                 `json:"prompt,omitempty"`
	CurrentMenu  menu.ID                `json:"current_menu,omitempty"`
	Collected    string                 `json:"collected,omitempty"`
	ValidOptions []string               `json:"valid_options,omitempty"`
	CallAction   string                 `json:"call_action,omitempty"`
	PNRInfo      *directory.Reservation `json:"pnr_info,omitempty"`
}

// Hangup reports whether the response terminates the call channel.
func (r *Response) Hangup() bool { return r.CallAction == ActionHangup }
