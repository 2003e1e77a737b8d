package ivr

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/saranya-muthuraj/ivrsim/internal/call"
	"github.com/saranya-muthuraj/ivrsim/internal/directory"
	"github.com/saranya-muthuraj/ivrsim/internal/menu"
	"github.com/saranya-muthuraj/ivrsim/internal/nlu"
	"github.com/saranya-muthuraj/ivrsim/internal/observability"
)

// Engine drives call sessions through the menu graph. Turns for one
// call are serialized with a keyed mutex so concurrent requests can
// never interleave on the same session.
type Engine struct {
	graph   *menu.Graph
	store   call.Store
	dir     directory.Directory
	locks   *call.KeyedMutex
	metrics *observability.Metrics
}

// New validates the menu graph once at startup. A graph that references
// a missing menu is a deployment defect and refuses to boot.
func New(graph *menu.Graph, store call.Store, dir directory.Directory, metrics *observability.Metrics) (*Engine, error) {
	if err := graph.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		graph:   graph,
		store:   store,
		dir:     dir,
		locks:   call.NewKeyedMutex(),
		metrics: metrics,
	}, nil
}

// StartCall creates a new session parked on the main menu.
func (e *Engine) StartCall(ctx context.Context, callerNumber string) (*Response, error) {
	now := time.Now().UTC()
	sess := &call.Session{
		ID:             uuid.NewString(),
		CallerNumber:   callerNumber,
		Status:         call.StatusActive,
		CurrentMenu:    menu.Main,
		MenuPath:       []menu.ID{menu.Main},
		StartedAt:      now,
		LastActivityAt: now,
	}
	if err := e.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	e.metrics.ActiveCalls.Inc()
	e.metrics.CallEvents.WithLabelValues("started").Inc()
	log.Printf("call %s started from %s", sess.ID, callerNumber)
	return &Response{
		CallID:      sess.ID,
		Status:      StatusConnected,
		Prompt:      e.graph.Prompt(menu.Main),
		CurrentMenu: menu.Main,
	}, nil
}

// Keypress processes one DTMF digit. claimed is the menu the caller's
// device believes it is on; it resolves the trigger when it names a
// real menu, but error responses always echo the session's stored menu.
func (e *Engine) Keypress(ctx context.Context, callID, digit string, claimed menu.ID) (*Response, error) {
	unlock := e.locks.Lock(callID)
	defer unlock()

	sess, err := e.store.Get(ctx, callID)
	if err != nil {
		return nil, err
	}

	against := sess.CurrentMenu
	if claimed != "" && e.graph.Has(claimed) {
		against = claimed
	}

	resp, err := e.dispatch(ctx, sess, against, digit)
	if err != nil {
		return nil, err
	}
	if err := e.finishTurn(ctx, sess); err != nil {
		return nil, err
	}
	e.metrics.Turns.WithLabelValues("dtmf", string(resp.Status)).Inc()
	resp.CallID = callID
	return resp, nil
}

// Voice processes one speech transcript by normalizing it to a keypad
// trigger, optionally pre-loading the input buffer with an extracted
// value, and dispatching like a keypress. claimed follows the same rule
// as Keypress: it sets the normalization context when it names a real
// menu, while error responses echo the session's stored menu.
func (e *Engine) Voice(ctx context.Context, callID, text string, claimed menu.ID) (*Response, error) {
	unlock := e.locks.Lock(callID)
	defer unlock()

	sess, err := e.store.Get(ctx, callID)
	if err != nil {
		return nil, err
	}

	against := sess.CurrentMenu
	if claimed != "" && e.graph.Has(claimed) {
		against = claimed
	}

	result, err := nlu.Normalize(e.graph, against, text)
	if errors.Is(err, nlu.ErrNoIntent) {
		resp := &Response{
			CallID:      callID,
			Status:      StatusInvalid,
			Message:     nlu.Clarify(e.graph, against),
			Prompt:      e.graph.Prompt(sess.CurrentMenu),
			CurrentMenu: sess.CurrentMenu,
		}
		e.metrics.Turns.WithLabelValues("voice", string(StatusInvalid)).Inc()
		return resp, nil
	}
	if err != nil {
		return nil, err
	}

	if result.Fragment != "" {
		if m, merr := e.graph.Menu(result.Menu); merr == nil && m.Collecting() && *m.Collect == menu.CollectName {
			resp, nerr := e.acceptName(sess, result.Fragment)
			if nerr != nil {
				return nil, nerr
			}
			if err := e.finishTurn(ctx, sess); err != nil {
				return nil, err
			}
			e.metrics.Turns.WithLabelValues("voice", string(resp.Status)).Inc()
			resp.CallID = callID
			return resp, nil
		}
		sess.InputBuffer = result.Fragment
	}

	resp, err := e.dispatch(ctx, sess, result.Menu, result.Trigger)
	if err != nil {
		return nil, err
	}
	if err := e.finishTurn(ctx, sess); err != nil {
		return nil, err
	}
	e.metrics.Turns.WithLabelValues("voice", string(resp.Status)).Inc()
	resp.CallID = callID
	return resp, nil
}

// acceptName stores the spoken passenger name and advances straight to
// age collection. The name menu has no keypad path.
func (e *Engine) acceptName(sess *call.Session, name string) (*Response, error) {
	sess.BookingName = name
	sess.Inputs = append(sess.Inputs, "name:"+name)
	from, err := e.graph.Menu(sess.CurrentMenu)
	if err != nil {
		return nil, err
	}
	return e.gotoMenu(sess, from, menu.BookAge, "Name noted as "+name+".")
}

// Hangup ends a call explicitly. Ending an already ended call reports
// the same outcome again instead of failing.
func (e *Engine) Hangup(ctx context.Context, callID string) (*Response, error) {
	unlock := e.locks.Lock(callID)
	defer unlock()

	sess, err := e.store.Get(ctx, callID)
	if errors.Is(err, call.ErrEnded) {
		return &Response{
			CallID:     callID,
			Status:     StatusCallEnded,
			Message:    "Call already ended.",
			CallAction: ActionHangup,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	resp, err := e.endCall(ctx, sess, StatusCallEnded, "Thank you for calling. Goodbye.", "Caller hung up")
	if err != nil {
		return nil, err
	}
	e.metrics.CallEvents.WithLabelValues("hangup").Inc()
	resp.CallID = callID
	return resp, nil
}

// finishTurn persists the session unless an action already closed it.
func (e *Engine) finishTurn(ctx context.Context, sess *call.Session) error {
	if sess.Ended() {
		return nil
	}
	sess.LastActivityAt = time.Now().UTC()
	return e.store.Update(ctx, sess)
}

// endCall persists pending session mutations, marks the session ended
// with an audit note, archives it to call history, and builds the
// terminal response.
func (e *Engine) endCall(ctx context.Context, sess *call.Session, status Status, message, note string) (*Response, error) {
	sess.LastActivityAt = time.Now().UTC()
	if err := e.store.Update(ctx, sess); err != nil {
		return nil, err
	}
	ended, err := e.store.End(ctx, sess.ID, note)
	if err != nil {
		return nil, err
	}
	sess.Status = call.StatusEnded
	sess.EndedAt = ended.EndedAt
	e.archive(ctx, ended)

	e.metrics.ActiveCalls.Dec()
	if status == StatusTransferring {
		e.metrics.CallEvents.WithLabelValues("transferred").Inc()
	} else {
		e.metrics.CallEvents.WithLabelValues("ended").Inc()
	}
	e.metrics.ObserveCallDuration(ended.EndedAt.Sub(ended.StartedAt))
	log.Printf("call %s ended: %s", sess.ID, note)

	return &Response{
		Status:      status,
		Message:     message,
		CurrentMenu: sess.CurrentMenu,
		CallAction:  ActionHangup,
	}, nil
}

func (e *Engine) archive(ctx context.Context, ended *call.Session) {
	path := make([]string, len(ended.MenuPath))
	for i, id := range ended.MenuPath {
		path[i] = string(id)
	}
	rec := &directory.CallRecord{
		CallID:       ended.ID,
		CallerNumber: ended.CallerNumber,
		StartedAt:    ended.StartedAt,
		EndedAt:      ended.EndedAt,
		MenuPath:     path,
		Inputs:       ended.Inputs,
	}
	if err := e.dir.SaveCallRecord(ctx, rec); err != nil {
		log.Printf("call %s: archiving failed: %v", ended.ID, err)
	}
}

// StartJanitor expires calls idle longer than maxIdle at the given
// interval until ctx is cancelled.
func (e *Engine) StartJanitor(ctx context.Context, interval, maxIdle time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.expireInactive(ctx, maxIdle)
			}
		}
	}()
}

func (e *Engine) expireInactive(ctx context.Context, maxIdle time.Duration) {
	cutoff := time.Now().UTC().Add(-maxIdle)
	expired, err := e.store.ExpireInactive(ctx, cutoff)
	if err != nil {
		log.Printf("janitor: %v", err)
		return
	}
	for _, sess := range expired {
		e.archive(ctx, sess)
		e.metrics.ActiveCalls.Dec()
		e.metrics.CallEvents.WithLabelValues("expired").Inc()
		e.metrics.ObserveCallDuration(sess.EndedAt.Sub(sess.StartedAt))
		log.Printf("call %s expired after inactivity", sess.ID)
	}
}
