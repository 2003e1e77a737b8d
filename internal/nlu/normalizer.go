// Package nlu reduces free-form speech transcripts to the keypad
// triggers and buffered values the dial-tone state machine understands.
package nlu

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/saranya-muthuraj/ivrsim/internal/keypad"
	"github.com/saranya-muthuraj/ivrsim/internal/menu"
)

// ErrNoIntent means the transcript matched neither a structured
// extraction nor any keyword rule. The caller is re-prompted and no
// session state changes.
var ErrNoIntent = errors.New("no intent matched")

// Result is the keypad-equivalent of a transcript. Fragment, when set,
// is a complete value to load into the input buffer before dispatching
// Trigger. Menu is the menu the trigger dispatches against, which for
// global commands like "agent" may differ from the caller's current menu.
type Result struct {
	Trigger  string
	Fragment string
	Menu     menu.ID
}

var (
	pnrPattern    = regexp.MustCompile(`[a-z0-9]{6}`)
	ffPattern     = regexp.MustCompile(`[0-9]{9}`)
	pinPattern    = regexp.MustCompile(`[0-9]{4}`)
	agePattern    = regexp.MustCompile(`[0-9]{1,3}`)
	flightPattern = regexp.MustCompile(`[a-z0-9]{4,6}`)
)

var numberWords = map[string]string{
	"zero": "0", "oh": "0",
	"one": "1", "two": "2", "three": "3",
	"four": "4", "five": "5", "six": "6",
	"seven": "7", "eight": "8", "nine": "9",
}

// codeFiller covers the chatter around a spoken code ("my PNR is...",
// "go back please"). Single spoken letters are never in this set so
// phonetic entry like "a i one two three four" survives.
var codeFiller = map[string]bool{
	"my": true, "is": true, "the": true, "it": true, "its": true,
	"pnr": true, "number": true, "pin": true, "flight": true,
	"please": true, "back": true, "go": true, "main": true, "menu": true,
	"to": true, "want": true,
}

var nameFiller = map[string]bool{
	"my": true, "name": true, "is": true, "the": true, "please": true,
	"passenger": true, "passengers": true,
}

// Normalize maps a transcript heard on the given menu to a keypad
// trigger, optionally carrying an extracted value. Structured
// extraction for the menu's collected value is tried first, then
// global commands, then the menu's keyword table.
func Normalize(g *menu.Graph, current menu.ID, text string) (Result, error) {
	m, err := g.Menu(current)
	if err != nil {
		return Result{}, err
	}

	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return Result{}, ErrNoIntent
	}

	if m.Collecting() {
		if r, ok := extract(*m.Collect, current, lower); ok {
			return r, nil
		}
	}

	for _, gr := range globalRules {
		if strings.Contains(lower, gr.phrase) {
			return Result{Trigger: gr.trigger, Menu: menu.Main}, nil
		}
	}
	if current != menu.Main {
		for _, br := range backRules {
			if strings.Contains(lower, br.phrase) {
				return Result{Trigger: br.trigger, Menu: current}, nil
			}
		}
	}

	for _, lr := range menuRules[current] {
		if strings.Contains(lower, lr.phrase) {
			return Result{Trigger: lr.trigger, Menu: current}, nil
		}
	}

	return Result{}, ErrNoIntent
}

// Clarify is the re-prompt used when Normalize fails, worded for the
// value the menu is waiting on.
func Clarify(g *menu.Graph, current menu.ID) string {
	m, err := g.Menu(current)
	if err != nil || !m.Collecting() {
		return "I'm sorry, I didn't understand that. Please try again."
	}
	switch *m.Collect {
	case menu.CollectPNR:
		return "Sorry, I didn't catch that PNR. Please clearly say your 6-character PNR."
	case menu.CollectFFNumber:
		return "Sorry, I didn't catch that. Please say your 9-digit Flying Returns number."
	case menu.CollectPIN:
		return "Sorry, I didn't catch that PIN. Please say your 4-digit PIN."
	default:
		return "I'm sorry, I didn't understand that. Please try again."
	}
}

func extract(kind menu.CollectKind, current menu.ID, lower string) (Result, bool) {
	switch kind {
	case menu.CollectPNR:
		run := pnrPattern.FindString(squashCode(lower))
		if run == "" {
			return Result{}, false
		}
		return Result{Trigger: menu.TriggerSubmit, Fragment: keypad.Encode(run), Menu: current}, true

	case menu.CollectFFNumber:
		run := ffPattern.FindString(squashCode(lower))
		if run == "" {
			return Result{}, false
		}
		return Result{Trigger: menu.TriggerSubmit, Fragment: run, Menu: current}, true

	case menu.CollectPIN:
		run := pinPattern.FindString(squashCode(lower))
		if run == "" {
			return Result{}, false
		}
		return Result{Trigger: menu.TriggerSubmit, Fragment: run, Menu: current}, true

	case menu.CollectAge:
		run := agePattern.FindString(squashCode(lower))
		if run == "" {
			return Result{}, false
		}
		n, err := strconv.Atoi(run)
		if err != nil || n < 1 || n > 119 {
			return Result{}, false
		}
		return Result{Trigger: menu.TriggerSubmit, Fragment: run, Menu: current}, true

	case menu.CollectFlightCode:
		run := flightPattern.FindString(squashCode(lower))
		if run == "" || !strings.ContainsAny(run, "0123456789") {
			return Result{}, false
		}
		return Result{Trigger: menu.TriggerSubmit, Fragment: strings.ToUpper(run), Menu: current}, true

	case menu.CollectName:
		name := stripName(lower)
		if name == "" {
			return Result{}, false
		}
		return Result{Trigger: menu.TriggerSubmit, Fragment: titleCase(name), Menu: current}, true
	}
	return Result{}, false
}

// squashCode strips filler words, folds spoken number words to digits,
// and drops every remaining non-alphanumeric rune so length patterns
// can match across pauses and punctuation.
func squashCode(lower string) string {
	var b strings.Builder
	lower = strings.ReplaceAll(lower, "'", "")
	for _, word := range strings.Fields(lower) {
		if codeFiller[word] {
			continue
		}
		if d, ok := numberWords[word]; ok {
			b.WriteString(d)
			continue
		}
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

func stripName(lower string) string {
	var kept []string
	for _, word := range strings.Fields(lower) {
		if nameFiller[word] {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
