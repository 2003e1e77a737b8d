package ivr

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/saranya-muthuraj/ivrsim/internal/call"
	"github.com/saranya-muthuraj/ivrsim/internal/directory"
	"github.com/saranya-muthuraj/ivrsim/internal/menu"
)

// perform runs the business logic behind a resolved menu option.
func (e *Engine) perform(ctx context.Context, sess *call.Session, against menu.ID, m *menu.Menu, edge menu.Edge) (*Response, error) {
	switch edge.Action {
	case menu.ActionGotoMenu:
		return e.gotoMenu(sess, m, edge.Target, edge.Message)

	case menu.ActionEndCall:
		return e.endCall(ctx, sess, StatusCallEnded, edge.Message,
			fmt.Sprintf("Call ended with message: %s", edge.Message))

	case menu.ActionTransferAgent:
		return e.endCall(ctx, sess, StatusTransferring, edge.Message,
			fmt.Sprintf("Transferred to agent: %s", edge.Message))

	case menu.ActionLookupStatus:
		r, resp, err := e.lookupReservation(ctx, sess)
		if r == nil {
			return resp, err
		}
		msg := fmt.Sprintf("Your PNR %s for %s: Flight %s from %s is %s. Scheduled time: %s. This call will now end.",
			r.DisplayPNR, r.PassengerName, r.Flight, r.Route, r.Status, r.Time)
		resp, err = e.endCall(ctx, sess, StatusPNRFound, msg,
			fmt.Sprintf("Looked up PNR status: %s", r.DisplayPNR))
		if resp != nil {
			resp.PNRInfo = r
		}
		return resp, err

	case menu.ActionLookupManage:
		r, resp, err := e.lookupReservation(ctx, sess)
		if r == nil {
			return resp, err
		}
		if r.Status == directory.StatusCancelled {
			return e.gotoMenu(sess, m, menu.Main,
				fmt.Sprintf("PNR %s is already marked as Cancelled. Returning to main menu.", r.DisplayPNR))
		}
		sess.ActivePNR = r.Key
		resp, err = e.gotoMenu(sess, m, menu.ManageBookingOptions,
			fmt.Sprintf("PNR %s found.", r.DisplayPNR))
		if resp != nil {
			resp.Prompt = fmt.Sprintf("PNR %s found. Say 'Change Flight' or 'Cancel Flight'. Or, press 1 to Change. Press 2 to Cancel. Press 0 to go back.", r.DisplayPNR)
		}
		return resp, err

	case menu.ActionLookupCheckin:
		r, resp, err := e.lookupReservation(ctx, sess)
		if r == nil {
			return resp, err
		}
		if r.Status == directory.StatusCancelled {
			return e.gotoMenu(sess, m, menu.Main,
				fmt.Sprintf("Cannot check in for cancelled PNR %s. Returning to main menu.", r.DisplayPNR))
		}
		return e.endCall(ctx, sess, StatusCallEnded,
			fmt.Sprintf("Check-in successful for PNR %s. A link has been sent to your phone. This call will now end.", r.DisplayPNR),
			fmt.Sprintf("Checked in PNR: %s", r.DisplayPNR))

	case menu.ActionLookupBoarding:
		r, resp, err := e.lookupReservation(ctx, sess)
		if r == nil {
			return resp, err
		}
		if r.Status == directory.StatusCancelled {
			return e.gotoMenu(sess, m, menu.Main,
				fmt.Sprintf("Cannot get a boarding pass for cancelled PNR %s. Returning to main menu.", r.DisplayPNR))
		}
		return e.endCall(ctx, sess, StatusCallEnded,
			fmt.Sprintf("Your boarding pass for PNR %s has been re-sent to your registered email. This call will now end.", r.DisplayPNR),
			fmt.Sprintf("Sent boarding pass for PNR: %s", r.DisplayPNR))

	case menu.ActionLookupRefund:
		r, resp, err := e.lookupReservation(ctx, sess)
		if r == nil {
			return resp, err
		}
		if r.Status == directory.StatusCancelled {
			return e.endCall(ctx, sess, StatusCallEnded,
				fmt.Sprintf("Your refund for PNR %s is in progress and will be credited within 7 business days. This call will now end.", r.DisplayPNR),
				fmt.Sprintf("Reported refund status for PNR: %s", r.DisplayPNR))
		}
		return e.gotoMenu(sess, m, menu.Main,
			fmt.Sprintf("PNR %s is not cancelled, so no refund is on file. Returning to main menu.", r.DisplayPNR))

	case menu.ActionLookupReceipt:
		r, resp, err := e.lookupReservation(ctx, sess)
		if r == nil {
			return resp, err
		}
		return e.endCall(ctx, sess, StatusCallEnded,
			fmt.Sprintf("A receipt for PNR %s has been sent to your registered email. This call will now end.", r.DisplayPNR),
			fmt.Sprintf("Sent receipt for PNR: %s", r.DisplayPNR))

	case menu.ActionCancelFlight:
		return e.cancelFlight(ctx, sess, m)

	case menu.ActionLookupFFNumber:
		number := sess.InputBuffer
		sess.InputBuffer = ""
		account, err := e.dir.LoyaltyAccount(ctx, number)
		if errors.Is(err, directory.ErrNotFound) {
			return e.invalidInput(sess,
				fmt.Sprintf("Sorry, Flying Returns number %s was not found. Please try again.", number)), nil
		}
		if err != nil {
			return nil, err
		}
		sess.ActiveFFNumber = account.Number
		return e.gotoMenu(sess, m, menu.FrequentFlyerPIN,
			fmt.Sprintf("Account %s found for %s.", account.Number, account.Name))

	case menu.ActionVerifyFFPIN:
		pin := sess.InputBuffer
		sess.InputBuffer = ""
		account, err := e.dir.LoyaltyAccount(ctx, sess.ActiveFFNumber)
		if err != nil && !errors.Is(err, directory.ErrNotFound) {
			return nil, err
		}
		// On a wrong PIN the account stays active so the caller can retry.
		if err != nil || account.PIN != pin {
			return e.invalidInput(sess, "Sorry, that PIN is incorrect. Please try again."), nil
		}
		return e.gotoMenu(sess, m, menu.FrequentFlyerOptions, "PIN verified.")

	case menu.ActionCheckFFPoints:
		account, err := e.dir.LoyaltyAccount(ctx, sess.ActiveFFNumber)
		if errors.Is(err, directory.ErrNotFound) {
			sess.ActiveFFNumber = ""
			return e.gotoMenu(sess, m, menu.Main,
				"An error occurred finding your account details. Returning to main menu.")
		}
		if err != nil {
			return nil, err
		}
		return e.endCall(ctx, sess, StatusCallEnded,
			fmt.Sprintf("Your Flying Returns balance for account %s is %s points. This call will now end.",
				account.Number, humanize.Comma(int64(account.Points))),
			fmt.Sprintf("Checked points for FF: %s", account.Number))

	case menu.ActionLookupFlight:
		return e.lookupFlightForBooking(ctx, sess, m)

	case menu.ActionSetAge:
		raw := sess.InputBuffer
		sess.InputBuffer = ""
		age, err := strconv.Atoi(raw)
		if err != nil || age < 1 || age > 119 {
			return e.invalidInput(sess, "Please enter a valid age between 1 and 119."), nil
		}
		sess.BookingAge = age
		return e.gotoMenu(sess, m, menu.BookGender, fmt.Sprintf("Age %d noted.", age))

	case menu.ActionSetGender:
		sess.BookingGender = edge.Gender
		resp, err := e.gotoMenu(sess, m, menu.BookConfirm,
			fmt.Sprintf("Booking flight %s for %s, age %d, gender %s.",
				sess.BookingFlight, sess.BookingName, sess.BookingAge, sess.BookingGender))
		return resp, err

	case menu.ActionConfirmBooking:
		return e.confirmBooking(ctx, sess, m)
	}

	return nil, fmt.Errorf("menu %q: unhandled action %q", against, edge.Action)
}

// lookupReservation submits the input buffer as a reservation key. A
// nil reservation means the caller was already answered, either with a
// not-found re-prompt or a directory failure.
func (e *Engine) lookupReservation(ctx context.Context, sess *call.Session) (*directory.Reservation, *Response, error) {
	entered := sess.InputBuffer
	sess.InputBuffer = ""
	r, err := e.dir.Reservation(ctx, entered)
	if errors.Is(err, directory.ErrNotFound) {
		return nil, e.invalidInput(sess,
			fmt.Sprintf("Sorry, PNR %s was not found. Please try again.", entered)), nil
	}
	if err != nil {
		return nil, nil, err
	}
	return r, nil, nil
}

func (e *Engine) cancelFlight(ctx context.Context, sess *call.Session, m *menu.Menu) (*Response, error) {
	if sess.ActivePNR == "" {
		return e.gotoMenu(sess, m, menu.Main,
			"An error occurred finding your PNR. Returning to main menu.")
	}
	r, err := e.dir.CancelReservation(ctx, sess.ActivePNR)
	switch {
	case errors.Is(err, directory.ErrAlreadyCancelled):
		return e.endCall(ctx, sess, StatusCallEnded,
			"Your flight is already cancelled. This call will now end.",
			fmt.Sprintf("Cancelled PNR: %s (already cancelled)", sess.ActivePNR))
	case errors.Is(err, directory.ErrNotFound):
		sess.ActivePNR = ""
		return e.gotoMenu(sess, m, menu.Main,
			"An error occurred finding your PNR. Returning to main menu.")
	case err != nil:
		return nil, err
	}
	return e.endCall(ctx, sess, StatusCallEnded,
		fmt.Sprintf("Your flight for PNR %s has been successfully cancelled. A confirmation email has been sent. This call will now end.", r.DisplayPNR),
		fmt.Sprintf("Cancelled PNR: %s", r.DisplayPNR))
}

func (e *Engine) lookupFlightForBooking(ctx context.Context, sess *call.Session, m *menu.Menu) (*Response, error) {
	entered := sess.InputBuffer
	sess.InputBuffer = ""
	flight, err := e.dir.ResolveFlightCode(ctx, entered)
	if errors.Is(err, directory.ErrNotFound) {
		e.metrics.BookingOutcomes.WithLabelValues("flight_not_found").Inc()
		return e.invalidInput(sess,
			fmt.Sprintf("Sorry, flight %s was not found. Please try again.", directory.NormalizeFlightCode(entered))), nil
	}
	if err != nil {
		return nil, err
	}
	rows, err := e.dir.ReservationsByFlight(ctx, flight)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].SeatsAvailable <= 0 {
		return e.invalidInput(sess,
			fmt.Sprintf("Sorry, flight %s has no seats available. Please try another flight.", flight)), nil
	}
	sess.BookingFlight = flight
	return e.gotoMenu(sess, m, menu.BookName,
		fmt.Sprintf("Flight %s found with %d seats available.", flight, rows[0].SeatsAvailable))
}

func (e *Engine) confirmBooking(ctx context.Context, sess *call.Session, m *menu.Menu) (*Response, error) {
	if sess.BookingFlight == "" || sess.BookingName == "" || sess.BookingAge == 0 || sess.BookingGender == "" {
		return e.gotoMenu(sess, m, menu.Main,
			"Some booking details are missing. Returning to main menu.")
	}
	r, err := e.dir.CreateBooking(ctx, sess.BookingFlight, sess.BookingName, sess.BookingAge, sess.BookingGender)
	switch {
	case errors.Is(err, directory.ErrSoldOut):
		e.metrics.BookingOutcomes.WithLabelValues("sold_out").Inc()
		return e.invalidInput(sess,
			fmt.Sprintf("Sorry, flight %s has sold out while you were on the line. Press 2 to return to the main menu.", sess.BookingFlight)), nil
	case errors.Is(err, directory.ErrNotFound):
		return e.gotoMenu(sess, m, menu.Main,
			"An error occurred finding that flight. Returning to main menu.")
	case err != nil:
		return nil, err
	}
	e.metrics.BookingOutcomes.WithLabelValues("confirmed").Inc()
	return e.endCall(ctx, sess, StatusCallEnded,
		fmt.Sprintf("Your booking on flight %s is confirmed. Your PNR is %s. A confirmation SMS has been sent. This call will now end.", r.Flight, r.DisplayPNR),
		fmt.Sprintf("Booked PNR: %s on flight %s", r.DisplayPNR, r.Flight))
}

// gotoMenu moves the session to target and re-issues that menu's prompt.
func (e *Engine) gotoMenu(sess *call.Session, from *menu.Menu, target menu.ID, message string) (*Response, error) {
	if !e.graph.Has(target) {
		return nil, fmt.Errorf("transition to %w %q", menu.ErrUnknownMenu, target)
	}
	if from.Collecting() {
		sess.InputBuffer = ""
	}
	sess.CurrentMenu = target
	sess.MenuPath = append(sess.MenuPath, target)
	if target == menu.Main {
		sess.ClearScratch()
	}
	return &Response{
		Status:      StatusProcessed,
		Message:     message,
		Prompt:      e.graph.Prompt(target),
		CurrentMenu: target,
	}, nil
}

// invalidInput answers a recoverable caller mistake: the buffer is
// cleared, the menu does not change, and its prompt is repeated.
func (e *Engine) invalidInput(sess *call.Session, message string) *Response {
	sess.InputBuffer = ""
	return &Response{
		Status:      StatusInvalid,
		Message:     message,
		Prompt:      e.graph.Prompt(sess.CurrentMenu),
		CurrentMenu: sess.CurrentMenu,
	}
}
