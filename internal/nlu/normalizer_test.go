package nlu

import (
	"errors"
	"testing"

	"github.com/saranya-muthuraj/ivrsim/internal/menu"
)

func graph(t *testing.T) *menu.Graph {
	t.Helper()
	g := menu.Airline()
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	return g
}

func TestKeywordsOnMainMenu(t *testing.T) {
	g := graph(t)
	cases := []struct {
		text string
		want string
	}{
		{"what's the status of my flight", "1"},
		{"I want to manage my booking", "2"},
		{"I lost my bag", "3"},
		{"I'd like to check in please", "4"},
		{"book a new flight", "5"},
		{"frequent flyer points", "6"},
		{"I need a wheelchair", "7"},
		{"where is my refund", "8"},
		{"travelling with a pet", "9"},
	}
	for _, c := range cases {
		r, err := Normalize(g, menu.Main, c.text)
		if err != nil {
			t.Fatalf("Normalize(%q) error = %v", c.text, err)
		}
		if r.Trigger != c.want || r.Menu != menu.Main {
			t.Fatalf("Normalize(%q) = %+v, want trigger %q on main", c.text, r, c.want)
		}
	}
}

func TestAgentIsGlobal(t *testing.T) {
	g := graph(t)
	r, err := Normalize(g, menu.Baggage, "let me speak to an agent")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if r.Trigger != "0" || r.Menu != menu.Main {
		t.Fatalf("Normalize() = %+v, want 0 on main", r)
	}
}

func TestBackIsStarOffMain(t *testing.T) {
	g := graph(t)
	r, err := Normalize(g, menu.FlightStatusPNR, "go back")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if r.Trigger != menu.TriggerBack || r.Menu != menu.FlightStatusPNR {
		t.Fatalf("Normalize() = %+v, want * on flight_status_pnr", r)
	}

	// On main there is nowhere to go back to.
	if _, err := Normalize(g, menu.Main, "go back"); !errors.Is(err, ErrNoIntent) {
		t.Fatalf("Normalize(main, back) error = %v, want ErrNoIntent", err)
	}
}

func TestPNRExtraction(t *testing.T) {
	g := graph(t)
	cases := []struct {
		text string
		want string
	}{
		{"my pnr is AI1234", "241234"},
		{"a i one two three four", "241234"},
		{"it's 241234", "241234"},
		{"two four one two three four", "241234"},
	}
	for _, c := range cases {
		r, err := Normalize(g, menu.FlightStatusPNR, c.text)
		if err != nil {
			t.Fatalf("Normalize(%q) error = %v", c.text, err)
		}
		if r.Trigger != menu.TriggerSubmit || r.Fragment != c.want {
			t.Fatalf("Normalize(%q) = %+v, want submit of %q", c.text, r, c.want)
		}
	}
}

func TestFFNumberAndPINExtraction(t *testing.T) {
	g := graph(t)

	r, err := Normalize(g, menu.FrequentFlyerNumber, "my number is 111222333")
	if err != nil {
		t.Fatalf("Normalize(ff) error = %v", err)
	}
	if r.Trigger != menu.TriggerSubmit || r.Fragment != "111222333" {
		t.Fatalf("Normalize(ff) = %+v", r)
	}

	r, err = Normalize(g, menu.FrequentFlyerPIN, "one two three four")
	if err != nil {
		t.Fatalf("Normalize(pin) error = %v", err)
	}
	if r.Trigger != menu.TriggerSubmit || r.Fragment != "1234" {
		t.Fatalf("Normalize(pin) = %+v", r)
	}

	// Too few digits is not a PIN.
	if _, err := Normalize(g, menu.FrequentFlyerPIN, "one two three"); !errors.Is(err, ErrNoIntent) {
		t.Fatalf("Normalize(short pin) error = %v, want ErrNoIntent", err)
	}
}

func TestFlightCodeExtraction(t *testing.T) {
	g := graph(t)
	cases := []struct {
		text string
		want string
	}{
		{"flight AI101 please", "AI101"},
		{"a i one zero one", "AI101"},
		{"6e204", "6E204"},
	}
	for _, c := range cases {
		r, err := Normalize(g, menu.BookFlight, c.text)
		if err != nil {
			t.Fatalf("Normalize(%q) error = %v", c.text, err)
		}
		if r.Trigger != menu.TriggerSubmit || r.Fragment != c.want {
			t.Fatalf("Normalize(%q) = %+v, want %q", c.text, r, c.want)
		}
	}
}

func TestAgeExtractionBounds(t *testing.T) {
	g := graph(t)

	r, err := Normalize(g, menu.BookAge, "she is forty... 45 years old")
	if err != nil {
		t.Fatalf("Normalize(age) error = %v", err)
	}
	if r.Fragment != "45" {
		t.Fatalf("Normalize(age) = %+v, want 45", r)
	}

	if _, err := Normalize(g, menu.BookAge, "998"); !errors.Is(err, ErrNoIntent) {
		t.Fatalf("Normalize(age 998) error = %v, want ErrNoIntent", err)
	}
}

func TestNameExtraction(t *testing.T) {
	g := graph(t)
	r, err := Normalize(g, menu.BookName, "my name is ravi kumar")
	if err != nil {
		t.Fatalf("Normalize(name) error = %v", err)
	}
	if r.Trigger != menu.TriggerSubmit || r.Fragment != "Ravi Kumar" {
		t.Fatalf("Normalize(name) = %+v, want Ravi Kumar", r)
	}
}

func TestGenderAndConfirmKeywords(t *testing.T) {
	g := graph(t)

	r, err := Normalize(g, menu.BookGender, "female")
	if err != nil || r.Trigger != "2" {
		t.Fatalf("Normalize(female) = %+v, %v, want trigger 2", r, err)
	}
	r, err = Normalize(g, menu.BookGender, "male")
	if err != nil || r.Trigger != "1" {
		t.Fatalf("Normalize(male) = %+v, %v, want trigger 1", r, err)
	}

	r, err = Normalize(g, menu.BookConfirm, "yes confirm it")
	if err != nil || r.Trigger != "1" {
		t.Fatalf("Normalize(confirm) = %+v, %v, want trigger 1", r, err)
	}
}

func TestClarifyWording(t *testing.T) {
	g := graph(t)
	if msg := Clarify(g, menu.FlightStatusPNR); msg == "" || msg == Clarify(g, menu.Main) {
		t.Fatalf("PNR clarification should be specific, got %q", msg)
	}
	if msg := Clarify(g, menu.FrequentFlyerPIN); msg == Clarify(g, menu.FrequentFlyerNumber) {
		t.Fatalf("PIN and account clarifications should differ, got %q", msg)
	}
}

func TestNoIntent(t *testing.T) {
	g := graph(t)
	if _, err := Normalize(g, menu.Main, "the weather is nice"); !errors.Is(err, ErrNoIntent) {
		t.Fatalf("Normalize(noise) error = %v, want ErrNoIntent", err)
	}
}
