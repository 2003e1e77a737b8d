// Package menu holds the static IVR menu graph. The graph is configuration:
// it is built once at startup, validated, and never mutated by calls.
package menu

import (
	"errors"
	"fmt"
)

// ID names one menu in the graph.
type ID string

const (
	Main                  ID = "main"
	FlightStatusPNR       ID = "flight_status_pnr"
	ManageBookingPNR      ID = "manage_booking_pnr"
	ManageBookingOptions  ID = "manage_booking_options"
	Baggage               ID = "baggage"
	CheckInOptions        ID = "check_in_options"
	CheckInPNRForCheckin  ID = "check_in_pnr_for_checkin"
	CheckInPNRForBoarding ID = "check_in_pnr_for_boardingpass"
	BookFlight            ID = "book_flight"
	BookName              ID = "book_name"
	BookAge               ID = "book_age"
	BookGender            ID = "book_gender"
	BookConfirm           ID = "book_confirm"
	FrequentFlyerNumber   ID = "frequent_flyer_number"
	FrequentFlyerPIN      ID = "frequent_flyer_pin"
	FrequentFlyerOptions  ID = "frequent_flyer_options"
	SpecialAssistance     ID = "special_assistance"
	Refunds               ID = "refunds"
	RefundStatusPNR       ID = "refund_status_pnr"
	ReceiptPNR            ID = "receipt_pnr"
	OtherInquiries        ID = "other_inquiries"
)

// Trigger symbols with fixed meaning on data-collection menus.
const (
	TriggerSubmit = "#"
	TriggerBack   = "*"
)

// Action identifies what a resolved option does. Dispatch switches on these
// constants; no free-form action strings cross package boundaries.
type Action string

const (
	ActionGotoMenu       Action = "goto_menu"
	ActionEndCall        Action = "end_call"
	ActionTransferAgent  Action = "transfer_agent"
	ActionLookupStatus   Action = "lookup_pnr_status"
	ActionLookupManage   Action = "lookup_pnr_manage"
	ActionLookupCheckin  Action = "lookup_pnr_checkin"
	ActionLookupBoarding Action = "lookup_pnr_boardingpass"
	ActionLookupRefund   Action = "lookup_pnr_refund"
	ActionLookupReceipt  Action = "lookup_pnr_receipt"
	ActionCancelFlight   Action = "cancel_flight"
	ActionLookupFFNumber Action = "lookup_ff_number"
	ActionVerifyFFPIN    Action = "verify_ff_pin"
	ActionCheckFFPoints  Action = "check_ff_points"
	ActionLookupFlight   Action = "lookup_flight_for_booking"
	ActionSetAge         Action = "set_age_and_ask_gender"
	ActionSetGender      Action = "set_gender_and_confirm"
	ActionConfirmBooking Action = "confirm_booking"
)

// CanEndCall reports whether the action is able to terminate the call on
// its own. The manage, loyalty and booking-wizard lookups only move the
// session to another menu, so they do not count.
func (a Action) CanEndCall() bool {
	switch a {
	case ActionEndCall, ActionTransferAgent,
		ActionLookupStatus, ActionLookupCheckin, ActionLookupBoarding,
		ActionLookupRefund, ActionLookupReceipt,
		ActionCancelFlight, ActionCheckFFPoints, ActionConfirmBooking:
		return true
	}
	return false
}

// CollectKind classifies what a data-collection menu gathers.
type CollectKind string

const (
	CollectPNR        CollectKind = "pnr"
	CollectFFNumber   CollectKind = "ff_number"
	CollectPIN        CollectKind = "pin"
	CollectFlightCode CollectKind = "flight_code"
	CollectAge        CollectKind = "age"
	CollectName       CollectKind = "name"
)

// Length returns the required buffer length for fixed-length kinds, or 0
// when the value is variable-length (flight codes, ages) or free text.
func (k CollectKind) Length() int {
	switch k {
	case CollectPNR:
		return 6
	case CollectFFNumber:
		return 9
	case CollectPIN:
		return 4
	default:
		return 0
	}
}

// Edge is one option in a menu's transition table.
type Edge struct {
	Action  Action
	Target  ID     // goto_menu only
	Message string // read back when the option is accepted
	Gender  string // set_gender_and_confirm only
}

// Menu is one node of the graph.
type Menu struct {
	Prompt  string
	Options map[string]Edge
	Collect *CollectKind // nil for choice menus
}

// Collecting reports whether the menu gathers a multi-character value.
func (m *Menu) Collecting() bool { return m.Collect != nil }

// ErrUnknownMenu means a menu id is not in the graph. For reachable states
// this is a deployment defect, never a caller error.
var ErrUnknownMenu = errors.New("unknown menu")

// Graph is the immutable menu table.
type Graph struct {
	menus map[ID]*Menu
}

// Menu returns the node for id.
func (g *Graph) Menu(id ID) (*Menu, error) {
	m, ok := g.menus[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMenu, id)
	}
	return m, nil
}

// Prompt returns the prompt for id, empty if the id is unknown.
func (g *Graph) Prompt(id ID) string {
	if m, ok := g.menus[id]; ok {
		return m.Prompt
	}
	return ""
}

// Triggers lists the valid option symbols of id in a stable order.
func (g *Graph) Triggers(id ID) []string {
	m, ok := g.menus[id]
	if !ok {
		return nil
	}
	order := []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", TriggerSubmit, TriggerBack}
	out := make([]string, 0, len(m.Options))
	for _, t := range order {
		if _, ok := m.Options[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Has reports whether id exists.
func (g *Graph) Has(id ID) bool {
	_, ok := g.menus[id]
	return ok
}

// Validate checks that every edge target exists and that every menu has at
// least one way to end the call or return to main. It runs at startup so a
// bad graph can never surface mid-call.
func (g *Graph) Validate() error {
	if !g.Has(Main) {
		return fmt.Errorf("graph has no %q menu", Main)
	}
	for id, m := range g.menus {
		if len(m.Options) == 0 && (m.Collect == nil || *m.Collect != CollectName) {
			return fmt.Errorf("menu %q has no options", id)
		}
		escape := false
		for trig, e := range m.Options {
			if e.Action == ActionGotoMenu {
				if !g.Has(e.Target) {
					return fmt.Errorf("menu %q option %q targets %w %q", id, trig, ErrUnknownMenu, e.Target)
				}
				if e.Target == Main {
					escape = true
				}
				continue
			}
			if e.Action.CanEndCall() {
				escape = true
			}
		}
		if !escape {
			return fmt.Errorf("menu %q has no edge back to %q and no ending edge", id, Main)
		}
	}
	return nil
}
