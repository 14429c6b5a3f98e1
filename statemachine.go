// Package statemachine provides a small, declarative finite state machine (FSM) engine for Go.
//
// Features:
//   - Open sets of state and event kinds; no central enum is needed.
//   - An ordered transition table with registration-time ambiguity checks.
//   - A queued dispatch loop with entry, run and exit callbacks per state.
//   - Exit states that park the machine for good.
//   - Self-posting of events from inside states through a revocable handle.
//   - Graph export in DOT and Mermaid.js syntax.
//
// Usage:
//
//	// Define your event and state kinds once, at package level.
//	var (
//		Started = statemachine.NewEventKind("Started")
//		Quitted = statemachine.NewEventKind("Quitted")
//
//		Start = statemachine.NewStateKind("Start", func() statemachine.State[Data] { return &startState{} })
//		Quit  = statemachine.NewExitKind[Data]("Quit", nil)
//	)
//
//	// Describe the machine and register its transitions.
//	m := statemachine.New(statemachine.Definition[Data]{
//		Name:    "Example",
//		Initial: Start,
//		Setup: func(b *statemachine.Builder[Data]) {
//			b.Transition().From(Start).On(Quitted).To(Quit)
//		},
//	})
//
//	// Enter the initial state, then feed events.
//	err := m.Start(ctx)
//	err = m.ProcessEvent(ctx, Quitted)
//
// A Machine is not safe for concurrent use. Start, AddEvent and ProcessEvent on one machine must be serialized by the
// caller.
package statemachine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Logger is the default logger used when none is provided.
var Logger = slog.Default()

// Definition describes a concrete machine: its name, the kind it starts in, the transitions it allows and how to create
// the data shared by the states of one run.
type Definition[D any] struct {
	Name    string
	Initial *StateKind[D]
	// Setup registers the transitions. It is called on every Start and for every graph export.
	Setup SetupFunc[D]
	// NewData creates the shared data for a run. Defaults to new(D).
	NewData func() *D
}

// Option configures a Machine.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	observer Observer
}

// WithLogger sets the logger for the machine.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver sets the observer notified by the dispatch loop.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// Machine runs a Definition. It owns the shared data, the current state, the live transition table and the queue of
// pending events.
type Machine[D any] struct {
	def      Definition[D]
	logger   *slog.Logger
	log      *slog.Logger
	observer Observer

	started    bool
	processing bool
	runID      string
	data       *D
	current    State[D]
	table      *Table[D]
	queue      []Event
	handle     *handle[D]
}

// New creates a machine for def. The machine does nothing until Start is called.
//
// It panics if def has no name, initial state or setup function.
func New[D any](def Definition[D], opts ...Option) *Machine[D] {
	if def.Name == "" {
		panic("machine name must not be empty")
	}
	if def.Initial == nil {
		panic("machine initial state must not be nil")
	}
	if def.Setup == nil {
		panic("machine setup function must not be nil")
	}
	if def.NewData == nil {
		def.NewData = func() *D { return new(D) }
	}

	o := options{logger: Logger, observer: NoopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}

	return &Machine[D]{
		def:      def,
		logger:   o.logger,
		log:      o.logger.With(slog.String("machine", def.Name)),
		observer: o.observer,
	}
}

// Start creates the run's data and the initial state, builds the transition table and calls OnEntry followed by Run on
// the initial state, both with the absent event. Calling Start again discards the previous run, including its pending
// events.
//
// Registration errors such as an *AmbiguousTransitionError are returned and leave the machine as it was.
func (m *Machine[D]) Start(ctx context.Context) error {
	if m.processing {
		return ErrReentrantProcess
	}

	table, err := newBuilder[D](m.def.Name).build(m.def.Setup)
	if err != nil {
		err = fmt.Errorf("setting up %s: %w", m.def.Name, err)
		m.observer.OnError(ctx, m.def.Name, m.runID, err)
		return err
	}

	if m.started {
		m.teardown()
	}

	m.table = table
	m.runID = uuid.NewString()
	m.log = m.logger.With(slog.String("machine", m.def.Name), slog.String("run_id", m.runID))
	m.data = m.def.NewData()
	m.handle = newHandle(m)
	m.current = m.def.Initial.create(m.data, m.handle)
	m.started = true

	m.processing = true
	defer func() { m.processing = false }()

	initial := m.def.Initial.Name()
	m.log.Debug("starting", "state", initial, "transitions", table.Len())

	if err := m.current.OnEntry(ctx, nil); err != nil {
		return m.fail(ctx, fmt.Errorf("entering state %s: %w", initial, err))
	}
	if m.def.Initial.Terminal() {
		m.log.Debug("initial state is an exit state, machine parked", "state", initial)
		m.observer.OnTerminate(ctx, m.def.Name, m.runID, initial)
		return nil
	}
	if err := m.current.Run(ctx, nil); err != nil {
		return m.fail(ctx, fmt.Errorf("running state %s: %w", initial, err))
	}

	m.observer.OnStart(ctx, m.def.Name, m.runID, initial)
	return nil
}

// AddEvent appends ev to the queue without processing it. It reports whether the event was queued: the absent event is
// never queued, and a machine parked in an exit state drops everything.
func (m *Machine[D]) AddEvent(ev Event) bool {
	if ev == nil {
		return false
	}
	if m.Terminated() {
		m.log.Debug("machine parked, dropping event", "event", eventName(ev))
		return false
	}
	m.queue = append(m.queue, ev)
	return true
}

// ProcessEvent queues ev, if not nil, and then drains the queue: every pending event is matched against the current
// state and its transition is taken, until the queue is empty or an exit state is entered. Events left in the queue
// when an exit state is entered are never consumed.
//
// When the queue is empty on entry, ProcessEvent instead runs the current state once with the absent event (an idle
// tick).
//
// A pending event without a matching transition aborts the drain with a *NoTransitionFoundError. The current state is
// left as it was and the remaining events stay queued.
func (m *Machine[D]) ProcessEvent(ctx context.Context, ev Event) error {
	if !m.started {
		return ErrNotStarted
	}
	if m.processing {
		return ErrReentrantProcess
	}

	m.AddEvent(ev)
	if m.Terminated() {
		return nil
	}

	m.processing = true
	defer func() { m.processing = false }()

	if len(m.queue) == 0 {
		return m.idle(ctx)
	}

	for len(m.queue) > 0 {
		next := m.queue[0]
		m.queue[0] = nil
		m.queue = m.queue[1:]

		parked, err := m.dispatch(ctx, next)
		if err != nil {
			return m.fail(ctx, err)
		}
		if parked {
			return nil
		}
	}
	return nil
}

func (m *Machine[D]) dispatch(ctx context.Context, ev Event) (bool, error) {
	from := KindOf(m.current)
	transition, ok := m.table.Match(m.current, ev)
	if !ok {
		return false, &NoTransitionFoundError{State: from.Name(), Event: ev.Kind().Name()}
	}

	step := Step{
		Machine: m.def.Name,
		RunID:   m.runID,
		From:    from.Name(),
		To:      transition.To.Name(),
		Event:   ev.Kind().Name(),
	}

	if transition.IsSelfLoop(m.current) {
		step.SelfLoop = true
		m.log.Debug("self-loop", "state", step.From, "event", step.Event)
	} else {
		if err := m.current.OnExit(ctx, ev); err != nil {
			return false, fmt.Errorf("leaving state %s: %w", step.From, err)
		}
		m.current = transition.To.create(m.data, m.handle)
		m.log.Debug("transition", "from", step.From, "to", step.To, "event", step.Event)

		if err := m.current.OnEntry(ctx, ev); err != nil {
			return false, fmt.Errorf("entering state %s: %w", step.To, err)
		}
		if transition.IsTerminal() {
			m.log.Debug("entered exit state, machine parked", "state", step.To, "pending", len(m.queue))
			m.observer.OnStep(ctx, step)
			m.observer.OnTerminate(ctx, m.def.Name, m.runID, step.To)
			return true, nil
		}
	}

	if err := m.current.Run(ctx, ev); err != nil {
		return false, fmt.Errorf("running state %s: %w", step.To, err)
	}
	m.observer.OnStep(ctx, step)
	return false, nil
}

func (m *Machine[D]) idle(ctx context.Context) error {
	state := KindOf(m.current).Name()
	m.log.Debug("idle tick", "state", state)
	if err := m.current.Run(ctx, nil); err != nil {
		return m.fail(ctx, fmt.Errorf("running state %s: %w", state, err))
	}
	m.observer.OnStep(ctx, Step{
		Machine: m.def.Name,
		RunID:   m.runID,
		From:    state,
		To:      state,
		Idle:    true,
	})
	return nil
}

func (m *Machine[D]) fail(ctx context.Context, err error) error {
	m.log.Debug("processing failed", "error", err)
	m.observer.OnError(ctx, m.def.Name, m.runID, err)
	return err
}

// Close tears the machine down: the current state, the shared data and all pending events are dropped, and states
// still holding a reference can no longer post events. Start may be called again afterwards.
func (m *Machine[D]) Close() error {
	if m.processing {
		return ErrReentrantProcess
	}
	if m.started {
		m.log.Debug("closing", "pending", len(m.queue))
	}
	m.teardown()
	return nil
}

func (m *Machine[D]) teardown() {
	m.handle.revoke()
	m.handle = nil
	m.current = nil
	m.data = nil
	m.table = nil
	m.queue = nil
	m.started = false
}

// Name returns the machine's name.
func (m *Machine[D]) Name() string { return m.def.Name }

// Initial returns the kind the machine starts in.
func (m *Machine[D]) Initial() *StateKind[D] { return m.def.Initial }

// RunID returns the identifier of the current run, assigned by Start.
func (m *Machine[D]) RunID() string { return m.runID }

// Current returns the current state, or nil if the machine is not started.
func (m *Machine[D]) Current() State[D] { return m.current }

// CurrentKind returns the kind of the current state, or nil if the machine is not started.
func (m *Machine[D]) CurrentKind() *StateKind[D] { return KindOf(m.current) }

// Data returns the data shared by the states of the current run, or nil if the machine is not started.
func (m *Machine[D]) Data() *D { return m.data }

// Terminated reports whether the machine is parked in an exit state.
func (m *Machine[D]) Terminated() bool { return KindOf(m.current).Terminal() }

// Pending returns the number of queued events.
func (m *Machine[D]) Pending() int { return len(m.queue) }

// CanProcess reports whether the current state has a transition for ev. It does not queue or dispatch anything.
func (m *Machine[D]) CanProcess(ev Event) bool {
	if !m.started || m.Terminated() {
		return false
	}
	_, ok := m.table.Match(m.current, ev)
	return ok
}

// Transitions returns the live transition table in insertion order, or nil if the machine is not started.
func (m *Machine[D]) Transitions() []Transition[D] {
	if m.table == nil {
		return nil
	}
	return m.table.Transitions()
}
