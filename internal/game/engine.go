package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/holdemd/internal/randutil"
)

// Notifier receives the log entries committed by one dispatch together with
// the snapshot taken after they were applied. It is called from the engine
// loop, so it must not dispatch back into the same engine synchronously.
type Notifier func(entries []LogEntry, snap Snapshot)

// EngineConfig sets the timer durations for one table. A zero ActionTimeout
// disables the action clock, a zero NewHandDelay disables automatic redeals,
// and a zero StreetDelay advances streets inline with the round-ending event.
type EngineConfig struct {
	ActionTimeout time.Duration
	StreetDelay   time.Duration
	NewHandDelay  time.Duration
}

// DefaultEngineConfig returns the production timer durations.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ActionTimeout: 15 * time.Second,
		StreetDelay:   1200 * time.Millisecond,
		NewHandDelay:  5 * time.Second,
	}
}

type engineRequest struct {
	ev   Event
	view func(*Table)
	resp chan error
}

// Engine wraps a Table in a single-writer loop. Every mutation, timer arming
// and subscriber notification happens on that loop, so dispatchers from any
// goroutine see events applied in FIFO order, one at a time. Timer expiries
// re-enter through Dispatch like any other caller.
type Engine struct {
	table  *Table
	cfg    EngineConfig
	clock  quartz.Clock
	logger *log.Logger
	notify Notifier
	seed   func() int64

	requests chan engineRequest
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	// loop-owned, never touched outside run()
	timers       map[CountdownKind]*quartz.Timer
	armedHand    uint64
	armedPhase   Phase
	armedActor   int
	armedNewHand uint64 // hand number the pending newHand timer would start
}

// NewEngine starts the event loop for a table. The notifier may be nil.
func NewEngine(t *Table, cfg EngineConfig, clock quartz.Clock, logger *log.Logger, notify Notifier) *Engine {
	if clock == nil {
		clock = quartz.NewReal()
	}
	t.now = func() time.Time { return clock.Now() }
	e := &Engine{
		table:      t,
		cfg:        cfg,
		clock:      clock,
		logger:     logger.WithPrefix("engine").With("table", t.ID),
		notify:     notify,
		seed:       randutil.Seed,
		requests:   make(chan engineRequest, 64),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		timers:     make(map[CountdownKind]*quartz.Timer),
		armedActor: -1,
	}
	go e.run()
	return e
}

// ID returns the table's identifier.
func (e *Engine) ID() string {
	return e.table.ID
}

// Dispatch queues an event and blocks until it and everything derived from it
// have been applied and broadcast, or until the context is cancelled.
func (e *Engine) Dispatch(ctx context.Context, ev Event) error {
	req := engineRequest{ev: ev, resp: make(chan error, 1)}
	select {
	case e.requests <- req:
	case <-e.done:
		return ErrEngineClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.resp:
		return err
	case <-e.stopped:
		// The loop can exit between accepting this request and serving it;
		// a served response still wins over the shutdown.
		select {
		case err := <-req.resp:
			return err
		default:
			return ErrEngineClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// View runs a read-only function against the table on the engine loop.
func (e *Engine) View(ctx context.Context, fn func(*Table)) error {
	req := engineRequest{view: fn, resp: make(chan error, 1)}
	select {
	case e.requests <- req:
	case <-e.done:
		return ErrEngineClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.resp:
		return err
	case <-e.stopped:
		// The loop can exit between accepting this request and serving it;
		// a served response still wins over the shutdown.
		select {
		case err := <-req.resp:
			return err
		default:
			return ErrEngineClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot captures the table state through the engine loop.
func (e *Engine) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := e.View(ctx, func(t *Table) { snap = t.Snapshot() })
	return snap, err
}

// Close stops the loop. Requests already queued are drained to completion;
// armed timers are cancelled.
func (e *Engine) Close() {
	e.stopOnce.Do(func() { close(e.done) })
	<-e.stopped
}

func (e *Engine) run() {
	defer close(e.stopped)
	for {
		select {
		case req := <-e.requests:
			e.serve(req)
		case <-e.done:
			for {
				select {
				case req := <-e.requests:
					e.serve(req)
				default:
					for _, t := range e.timers {
						t.Stop()
					}
					return
				}
			}
		}
	}
}

func (e *Engine) serve(req engineRequest) {
	if req.view != nil {
		req.view(e.table)
		req.resp <- nil
		return
	}
	req.resp <- e.apply(req.ev)
}

func (e *Engine) apply(ev Event) error {
	mark := len(e.table.Log)

	err := e.table.Apply(ev)
	if errors.Is(err, errStaleTrigger) {
		e.logger.Debug("dropping stale timer trigger", "event", ev.EventType())
		return nil
	}
	if err != nil {
		if ev.EventType() == EventStartHand {
			// A scheduled redeal that could not start must not block the next
			// attempt once the table becomes startable again.
			e.armedNewHand = 0
		}
		return err
	}

	if e.cfg.StreetDelay == 0 {
		for e.table.pendingStreet != PhaseWaiting {
			e.table.dealNextStreet()
		}
	}

	if ierr := e.table.checkInvariants(); ierr != nil {
		e.logger.Error("table invariant violated, aborting hand",
			"event", ev.EventType(), "hand", e.table.HandNumber, "err", ierr)
		e.table.forceWaiting()
		for _, t := range e.timers {
			t.Stop()
		}
		e.armedActor = -1
		if e.notify != nil {
			e.notify(copyEntries(e.table.Log[mark:]), e.table.Snapshot())
		}
		return nil
	}

	e.armTimers()
	entries := copyEntries(e.table.Log[mark:])
	if e.notify != nil {
		e.notify(entries, e.table.Snapshot())
	}
	for _, le := range entries {
		if le.Event.EventType() == EventHandEnd {
			e.table.trimLog()
			break
		}
	}
	return nil
}

// armTimers reconciles the timers with the state left by the last apply. The
// CountdownStart announcing each arming is committed before the notifier
// runs, so no client can observe a state whose expiry it has not been told
// about.
func (e *Engine) armTimers() {
	t := e.table

	if t.pendingStreet != PhaseWaiting && e.cfg.StreetDelay > 0 {
		hand, street := t.HandNumber, t.pendingStreet
		e.arm(CountdownStreetDeal, e.cfg.StreetDelay,
			map[string]any{"street": street.String()},
			func() { e.fire(advanceStreet{HandNumber: hand, Street: street}) })
	}

	if t.Phase.Betting() && t.Actor != -1 && e.cfg.ActionTimeout > 0 {
		// Rearm only when the turn moved; a join or sit-out elsewhere at the
		// table must not reset the actor's clock.
		if e.armedHand != t.HandNumber || e.armedPhase != t.Phase || e.armedActor != t.Actor {
			e.armedHand, e.armedPhase, e.armedActor = t.HandNumber, t.Phase, t.Actor
			hand, seat := t.HandNumber, t.Actor
			e.arm(CountdownAction, e.cfg.ActionTimeout,
				map[string]any{"seat": seat, "playerId": t.Seats[seat].PlayerID},
				func() { e.fire(ActionTimeout{HandNumber: hand, Seat: seat}) })
		}
	} else {
		e.armedActor = -1
		if timer, ok := e.timers[CountdownAction]; ok {
			timer.Stop()
			delete(e.timers, CountdownAction)
		}
	}

	if t.Phase == PhaseWaiting && t.CanStartHand() && e.cfg.NewHandDelay > 0 &&
		e.armedNewHand != t.HandNumber+1 {
		e.armedNewHand = t.HandNumber + 1
		e.arm(CountdownNewHand, e.cfg.NewHandDelay, nil,
			func() { e.fire(StartHand{Seed: e.seed()}) })
	}
}

// arm replaces any prior timer of the same kind and logs the countdown.
func (e *Engine) arm(kind CountdownKind, d time.Duration, meta map[string]any, expire func()) {
	if timer, ok := e.timers[kind]; ok {
		timer.Stop()
	}
	e.timers[kind] = e.clock.AfterFunc(d, expire)
	e.table.appendDerived(CountdownStart{
		Kind:       kind,
		StartTime:  e.clock.Now(),
		DurationMs: d.Milliseconds(),
		Metadata:   meta,
	})
}

// fire dispatches a timer expiry from the timer's goroutine. Expiries that
// lost a race with a player action are validated and dropped inside Apply;
// anything else that fails here is not actionable.
func (e *Engine) fire(ev Event) {
	if err := e.Dispatch(context.Background(), ev); err != nil &&
		!errors.Is(err, ErrEngineClosed) && !errors.Is(err, ErrNotEnoughPlayers) {
		e.logger.Debug("timer dispatch rejected", "event", ev.EventType(), "err", err)
	}
}

func copyEntries(entries []LogEntry) []LogEntry {
	out := make([]LogEntry, len(entries))
	copy(out, entries)
	return out
}
