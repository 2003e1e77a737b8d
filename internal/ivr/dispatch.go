package ivr

import (
	"context"
	"fmt"

	"github.com/saranya-muthuraj/ivrsim/internal/call"
	"github.com/saranya-muthuraj/ivrsim/internal/menu"
)

// dispatch runs one trigger against the given menu. On data-collection
// menus digits accumulate in the input buffer; hash submits it, star
// backs out. Everything else resolves through the menu's option table.
//
// Caller mistakes come back as invalid/collecting responses with the
// session intact. Only an inconsistent menu graph returns an error.
func (e *Engine) dispatch(ctx context.Context, sess *call.Session, against menu.ID, trigger string) (*Response, error) {
	m, err := e.graph.Menu(against)
	if err != nil {
		return nil, fmt.Errorf("dispatch on %q: %w", against, err)
	}

	if m.Collecting() && isDigit(trigger) {
		sess.InputBuffer += trigger
		prompt := fmt.Sprintf("You entered %s. Continue entering.", trigger)
		if want := m.Collect.Length(); want > 0 && len(sess.InputBuffer) >= want {
			prompt = fmt.Sprintf("You entered %s. Press hash to submit.", trigger)
		}
		return &Response{
			Status:      StatusCollecting,
			Prompt:      prompt,
			Collected:   sess.InputBuffer,
			CurrentMenu: sess.CurrentMenu,
		}, nil
	}

	if m.Collecting() && trigger == menu.TriggerSubmit {
		if want := m.Collect.Length(); want > 0 && len(sess.InputBuffer) != want {
			got := len(sess.InputBuffer)
			sess.InputBuffer = ""
			return &Response{
				Status:      StatusInvalid,
				Message:     fmt.Sprintf("Please enter exactly %d characters. You entered %d.", want, got),
				Prompt:      e.graph.Prompt(sess.CurrentMenu),
				CurrentMenu: sess.CurrentMenu,
			}, nil
		}
	}

	edge, ok := m.Options[trigger]
	if !ok {
		return &Response{
			Status:       StatusInvalid,
			Message:      "Invalid option. Please try again.",
			Prompt:       e.graph.Prompt(sess.CurrentMenu),
			CurrentMenu:  sess.CurrentMenu,
			ValidOptions: e.graph.Triggers(sess.CurrentMenu),
		}, nil
	}

	// Buffered data digits stay out of the audit trail; only the
	// trigger that resolved an option is recorded.
	sess.Inputs = append(sess.Inputs, trigger)

	return e.perform(ctx, sess, against, m, edge)
}

func isDigit(trigger string) bool {
	return len(trigger) == 1 && trigger[0] >= '0' && trigger[0] <= '9'
}
