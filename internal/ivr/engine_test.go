package ivr

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/saranya-muthuraj/ivrsim/internal/call"
	"github.com/saranya-muthuraj/ivrsim/internal/directory"
	"github.com/saranya-muthuraj/ivrsim/internal/menu"
	"github.com/saranya-muthuraj/ivrsim/internal/observability"
)

// Prometheus instruments register globally, so the package shares one set.
var testMetrics = observability.NewMetrics("ivrsim_enginetest")

func newTestEngine(t *testing.T) (*Engine, directory.Directory) {
	t.Helper()
	ctx := context.Background()
	dir := directory.NewInMemory()
	if err := directory.EnsureSeed(ctx, dir); err != nil {
		t.Fatalf("EnsureSeed() error = %v", err)
	}
	e, err := New(menu.Airline(), call.NewInMemoryStore(), dir, testMetrics)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e, dir
}

func startCall(t *testing.T, e *Engine) string {
	t.Helper()
	resp, err := e.StartCall(context.Background(), "+911234567890")
	if err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}
	if resp.Status != StatusConnected || resp.CurrentMenu != menu.Main {
		t.Fatalf("StartCall() = %+v, want connected on main", resp)
	}
	return resp.CallID
}

func press(t *testing.T, e *Engine, id, digit string) *Response {
	t.Helper()
	resp, err := e.Keypress(context.Background(), id, digit, "")
	if err != nil {
		t.Fatalf("Keypress(%q) error = %v", digit, err)
	}
	return resp
}

func say(t *testing.T, e *Engine, id, text string) *Response {
	t.Helper()
	resp, err := e.Voice(context.Background(), id, text, "")
	if err != nil {
		t.Fatalf("Voice(%q) error = %v", text, err)
	}
	return resp
}

func TestStatusLookupByKeypad(t *testing.T) {
	e, _ := newTestEngine(t)
	id := startCall(t, e)

	resp := press(t, e, id, "1")
	if resp.Status != StatusProcessed || resp.CurrentMenu != menu.FlightStatusPNR {
		t.Fatalf("press 1 = %+v, want flight_status_pnr", resp)
	}

	for _, d := range []string{"2", "4", "1", "2", "3", "4"} {
		resp = press(t, e, id, d)
		if resp.Status != StatusCollecting {
			t.Fatalf("press %q = %+v, want collecting", d, resp)
		}
	}
	if resp.Collected != "241234" {
		t.Fatalf("collected = %q, want 241234", resp.Collected)
	}

	resp = press(t, e, id, "#")
	if resp.Status != StatusPNRFound || !resp.Hangup() {
		t.Fatalf("submit = %+v, want pnr_found with hangup", resp)
	}
	if !strings.Contains(resp.Message, "R. Kumar") || !strings.Contains(resp.Message, "AI1234") {
		t.Fatalf("message = %q, want passenger name and display PNR", resp.Message)
	}
	if resp.PNRInfo == nil || resp.PNRInfo.Flight != "AI101" {
		t.Fatalf("pnr_info = %+v", resp.PNRInfo)
	}

	// The call is gone now.
	if _, err := e.Keypress(context.Background(), id, "1", ""); !errors.Is(err, call.ErrEnded) {
		t.Fatalf("turn after end error = %v, want ErrEnded", err)
	}
}

func TestVoiceRoutesToManageBooking(t *testing.T) {
	e, _ := newTestEngine(t)
	id := startCall(t, e)

	resp := say(t, e, id, "I want to manage my booking")
	if resp.Status != StatusProcessed || resp.CurrentMenu != menu.ManageBookingPNR {
		t.Fatalf("voice = %+v, want manage_booking_pnr", resp)
	}
}

func TestVoiceHonorsClaimedMenu(t *testing.T) {
	e, _ := newTestEngine(t)
	id := startCall(t, e)

	// The caller's device believes it is already collecting a PNR, so the
	// transcript resolves against that menu even though the stored menu
	// is still main.
	resp, err := e.Voice(context.Background(), id, "my pnr is AI1234", menu.FlightStatusPNR)
	if err != nil {
		t.Fatalf("Voice() error = %v", err)
	}
	if resp.Status != StatusPNRFound || !resp.Hangup() {
		t.Fatalf("claimed-menu voice = %+v, want pnr_found", resp)
	}

	// An unknown claimed menu falls back to the stored one.
	id = startCall(t, e)
	resp, err = e.Voice(context.Background(), id, "baggage", "no_such_menu")
	if err != nil {
		t.Fatalf("Voice() error = %v", err)
	}
	if resp.CurrentMenu != menu.Baggage {
		t.Fatalf("fallback voice = %+v, want baggage", resp)
	}
}

func TestWrongLengthSubmitKeepsMenu(t *testing.T) {
	e, _ := newTestEngine(t)
	id := startCall(t, e)

	press(t, e, id, "1")
	for _, d := range []string{"1", "2", "3", "4", "5"} {
		press(t, e, id, d)
	}

	resp := press(t, e, id, "#")
	if resp.Status != StatusInvalid || resp.CurrentMenu != menu.FlightStatusPNR {
		t.Fatalf("short submit = %+v, want invalid on same menu", resp)
	}
	if !strings.Contains(resp.Message, "6") {
		t.Fatalf("message = %q, want required length", resp.Message)
	}

	// Buffer was cleared, so the next digit starts over.
	resp = press(t, e, id, "9")
	if resp.Collected != "9" {
		t.Fatalf("collected after clear = %q, want 9", resp.Collected)
	}
}

func TestInvalidOptionEchoesStoredMenu(t *testing.T) {
	e, _ := newTestEngine(t)
	id := startCall(t, e)

	press(t, e, id, "3") // baggage
	resp := press(t, e, id, "5")
	if resp.Status != StatusInvalid || resp.CurrentMenu != menu.Baggage {
		t.Fatalf("invalid option = %+v, want invalid on baggage", resp)
	}
	if len(resp.ValidOptions) == 0 {
		t.Fatalf("valid options missing: %+v", resp)
	}
}

func TestLoyaltyPINRetry(t *testing.T) {
	e, _ := newTestEngine(t)
	id := startCall(t, e)

	press(t, e, id, "6")
	for _, d := range strings.Split("111222333", "") {
		press(t, e, id, d)
	}
	resp := press(t, e, id, "#")
	if resp.Status != StatusProcessed || resp.CurrentMenu != menu.FrequentFlyerPIN {
		t.Fatalf("account submit = %+v, want frequent_flyer_pin", resp)
	}
	if !strings.Contains(resp.Message, "Saranya") {
		t.Fatalf("message = %q, want account holder name", resp.Message)
	}

	for _, d := range []string{"9", "9", "9", "9"} {
		press(t, e, id, d)
	}
	resp = press(t, e, id, "#")
	if resp.Status != StatusInvalid || resp.CurrentMenu != menu.FrequentFlyerPIN {
		t.Fatalf("wrong PIN = %+v, want invalid on PIN menu", resp)
	}

	// The account is still active, so the right PIN works on retry.
	for _, d := range []string{"1", "2", "3", "4"} {
		press(t, e, id, d)
	}
	resp = press(t, e, id, "#")
	if resp.Status != StatusProcessed || resp.CurrentMenu != menu.FrequentFlyerOptions {
		t.Fatalf("correct PIN = %+v, want frequent_flyer_options", resp)
	}

	resp = press(t, e, id, "1")
	if resp.Status != StatusCallEnded || !strings.Contains(resp.Message, "12,500") {
		t.Fatalf("points = %+v, want formatted balance", resp)
	}
}

func TestCancellationReleasesSeat(t *testing.T) {
	e, dir := newTestEngine(t)
	ctx := context.Background()
	id := startCall(t, e)

	before, err := dir.Reservation(ctx, "241234")
	if err != nil {
		t.Fatalf("Reservation() error = %v", err)
	}

	press(t, e, id, "2")
	for _, d := range strings.Split("241234", "") {
		press(t, e, id, d)
	}
	resp := press(t, e, id, "#")
	if resp.Status != StatusProcessed || resp.CurrentMenu != menu.ManageBookingOptions {
		t.Fatalf("manage lookup = %+v", resp)
	}

	resp = press(t, e, id, "2")
	if resp.Status != StatusCallEnded || !strings.Contains(resp.Message, "successfully cancelled") {
		t.Fatalf("cancel = %+v", resp)
	}

	after, err := dir.Reservation(ctx, "241234")
	if err != nil {
		t.Fatalf("Reservation() error = %v", err)
	}
	if after.Status != directory.StatusCancelled || after.SeatsAvailable != before.SeatsAvailable+1 {
		t.Fatalf("after cancel: %+v, want cancelled with one more seat", after)
	}
}

// driveToConfirm walks a fresh call to the booking confirmation menu.
func driveToConfirm(t *testing.T, e *Engine, flight string) string {
	t.Helper()
	id := startCall(t, e)
	press(t, e, id, "5")
	resp := say(t, e, id, "flight "+flight)
	if resp.CurrentMenu != menu.BookName {
		t.Fatalf("flight lookup = %+v, want book_name", resp)
	}
	resp = say(t, e, id, "my name is test caller")
	if resp.CurrentMenu != menu.BookAge {
		t.Fatalf("name = %+v, want book_age", resp)
	}
	for _, d := range []string{"3", "0"} {
		press(t, e, id, d)
	}
	resp = press(t, e, id, "#")
	if resp.CurrentMenu != menu.BookGender {
		t.Fatalf("age = %+v, want book_gender", resp)
	}
	resp = press(t, e, id, "1")
	if resp.CurrentMenu != menu.BookConfirm {
		t.Fatalf("gender = %+v, want book_confirm", resp)
	}
	return id
}

func TestBookingWizardConfirms(t *testing.T) {
	e, dir := newTestEngine(t)
	ctx := context.Background()

	id := driveToConfirm(t, e, "QF068")
	resp := press(t, e, id, "1")
	if resp.Status != StatusCallEnded || !strings.Contains(resp.Message, "Your PNR is QF") {
		t.Fatalf("confirm = %+v, want call_ended with new PNR", resp)
	}

	rows, err := dir.ReservationsByFlight(ctx, "QF068")
	if err != nil {
		t.Fatalf("ReservationsByFlight() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	for _, r := range rows {
		if r.SeatsAvailable != 44 {
			t.Fatalf("seats on %s = %d, want 44", r.Key, r.SeatsAvailable)
		}
	}
}

func TestConcurrentConfirmOnLastSeat(t *testing.T) {
	e, dir := newTestEngine(t)
	ctx := context.Background()
	if err := dir.InsertReservation(ctx, &directory.Reservation{
		Key: "111112", DisplayPNR: "ZZ1112", Flight: "ZZ900",
		Status: directory.StatusConfirmed, Route: "A to B", Time: "Today",
		SeatsAvailable: 1, PassengerName: "Seed", PassengerAge: 40, PassengerGender: "Male",
	}); err != nil {
		t.Fatalf("InsertReservation() error = %v", err)
	}

	first := driveToConfirm(t, e, "ZZ900")
	second := driveToConfirm(t, e, "ZZ900")

	var wg sync.WaitGroup
	results := make([]*Response, 2)
	for i, id := range []string{first, second} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			resp, err := e.Keypress(ctx, id, "1", "")
			if err != nil {
				t.Errorf("Keypress(confirm) error = %v", err)
				return
			}
			results[i] = resp
		}(i, id)
	}
	wg.Wait()

	var confirmed, soldOut int
	for _, resp := range results {
		switch {
		case resp == nil:
		case resp.Status == StatusCallEnded:
			confirmed++
		case resp.Status == StatusInvalid && strings.Contains(resp.Message, "sold out"):
			soldOut++
		default:
			t.Fatalf("unexpected result: %+v", resp)
		}
	}
	if confirmed != 1 || soldOut != 1 {
		t.Fatalf("confirmed=%d soldOut=%d, want exactly one of each", confirmed, soldOut)
	}

	rows, err := dir.ReservationsByFlight(ctx, "ZZ900")
	if err != nil {
		t.Fatalf("ReservationsByFlight() error = %v", err)
	}
	for _, r := range rows {
		if r.SeatsAvailable != 0 {
			t.Fatalf("final seats on %s = %d, want 0", r.Key, r.SeatsAvailable)
		}
	}
}

func TestHangupIsIdempotent(t *testing.T) {
	e, dir := newTestEngine(t)
	ctx := context.Background()
	id := startCall(t, e)

	resp, err := e.Hangup(ctx, id)
	if err != nil {
		t.Fatalf("Hangup() error = %v", err)
	}
	if resp.Status != StatusCallEnded || !resp.Hangup() {
		t.Fatalf("Hangup() = %+v", resp)
	}

	resp, err = e.Hangup(ctx, id)
	if err != nil {
		t.Fatalf("second Hangup() error = %v", err)
	}
	if resp.Status != StatusCallEnded {
		t.Fatalf("second Hangup() = %+v, want same outcome", resp)
	}

	// Exactly one archived record despite two hangups.
	n, err := dir.CallRecordCount(ctx)
	if err != nil || n != 1 {
		t.Fatalf("CallRecordCount() = %d, %v, want 1", n, err)
	}
}

func TestUnknownCall(t *testing.T) {
	e, _ := newTestEngine(t)
	if _, err := e.Keypress(context.Background(), "nope", "1", ""); !errors.Is(err, call.ErrNotFound) {
		t.Fatalf("Keypress(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestAgentTransferFromAnyMenu(t *testing.T) {
	e, _ := newTestEngine(t)
	id := startCall(t, e)

	press(t, e, id, "3")
	resp := say(t, e, id, "let me speak to an agent please")
	if resp.Status != StatusTransferring || !resp.Hangup() {
		t.Fatalf("agent = %+v, want transferring with hangup", resp)
	}
}

func TestVoiceNoIntentKeepsState(t *testing.T) {
	e, _ := newTestEngine(t)
	id := startCall(t, e)

	press(t, e, id, "1")
	resp := say(t, e, id, "uh no")
	if resp.Status != StatusInvalid || resp.CurrentMenu != menu.FlightStatusPNR {
		t.Fatalf("no intent = %+v, want invalid on flight_status_pnr", resp)
	}
	if !strings.Contains(resp.Message, "PNR") {
		t.Fatalf("message = %q, want PNR-specific clarification", resp.Message)
	}
}

func TestCancelledPNRCheckinRedirects(t *testing.T) {
	e, _ := newTestEngine(t)
	id := startCall(t, e)

	press(t, e, id, "4") // check-in options
	press(t, e, id, "1") // check in by PNR
	for _, d := range strings.Split("749876", "") {
		press(t, e, id, d)
	}
	resp := press(t, e, id, "#")
	if resp.Status != StatusProcessed || resp.CurrentMenu != menu.Main {
		t.Fatalf("cancelled check-in = %+v, want redirect to main", resp)
	}
	if !strings.Contains(resp.Message, "cancelled") {
		t.Fatalf("message = %q", resp.Message)
	}
}

func TestRefundStatusForCancelledPNR(t *testing.T) {
	e, _ := newTestEngine(t)
	id := startCall(t, e)

	press(t, e, id, "8") // refunds
	press(t, e, id, "1") // refund status
	for _, d := range strings.Split("749876", "") {
		press(t, e, id, d)
	}
	resp := press(t, e, id, "#")
	if resp.Status != StatusCallEnded || !strings.Contains(resp.Message, "refund") {
		t.Fatalf("refund status = %+v, want terminal refund message", resp)
	}
}
