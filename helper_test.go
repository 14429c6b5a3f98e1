package statemachine

import (
	"context"
	"errors"
)

type optional[A any] struct {
	value A
	valid bool
}

type result[A any] struct {
	optional optional[A]
	panicked bool
}

// unarySupplierFunc is a function that doesn't take any arguments and returns a value of type R.
type unarySupplierFunc[R any] func() R

func tryUnarySupplier[R any](supply unarySupplierFunc[R]) (res result[R]) {
	defer func() {
		if r := recover(); r != nil {
			res.panicked = true
		}
	}()
	got := supply()
	res.optional = optional[R]{value: got, valid: true}
	return
}

/* ---------------------------------------------------------------------------------------------------------------- */
/*                                                   Test fixtures                                                  */
/* ---------------------------------------------------------------------------------------------------------------- */

var errBoom = errors.New("boom")

// data records every callback so tests can assert the exact call order.
type data struct {
	calls []string
	// hooks run after a callback was recorded, keyed by e.g. "A.Run".
	hooks map[string]func(s *recordingState, ev Event) error
}

func (d *data) record(call string) { d.calls = append(d.calls, call) }

type recordingState struct {
	Base[data]
}

func newRecordingState() State[data] { return &recordingState{} }

func (s *recordingState) callback(ctx context.Context, name string, ev Event) error {
	call := s.Kind().Name() + "." + name
	s.Data().record(call + "(" + eventName(ev) + ")")
	if hook, ok := s.Data().hooks[call]; ok {
		return hook(s, ev)
	}
	return nil
}

func (s *recordingState) OnEntry(ctx context.Context, ev Event) error {
	return s.callback(ctx, "OnEntry", ev)
}

func (s *recordingState) Run(ctx context.Context, ev Event) error {
	return s.callback(ctx, "Run", ev)
}

func (s *recordingState) OnExit(ctx context.Context, ev Event) error {
	return s.callback(ctx, "OnExit", ev)
}

type recordingExit struct {
	Exit[data]
}

func (s *recordingExit) OnEntry(ctx context.Context, ev Event) error {
	s.Data().record(s.Kind().Name() + ".OnEntry(" + eventName(ev) + ")")
	return nil
}

func (s *recordingExit) Run(ctx context.Context, ev Event) error {
	s.Data().record(s.Kind().Name() + ".Run(" + eventName(ev) + ")")
	return nil
}

var (
	evGo      = NewEventKind("go")
	evBack    = NewEventKind("back")
	evStay    = NewEventKind("stay")
	evQuit    = NewEventKind("quit")
	evUnknown = NewEventKind("unknown")

	stateA    = NewStateKind("A", newRecordingState)
	stateB    = NewStateKind("B", newRecordingState)
	stateQuit = NewExitKind("Quit", func() State[data] { return &recordingExit{} })
)

// payloadEvent is an event kind with payload fields.
type payloadEvent struct {
	amount int
}

func (payloadEvent) Kind() *EventKind { return evGo }

func setupAB(b *Builder[data]) {
	b.Transition().From(stateA).On(evGo).To(stateB)
	b.Transition().From(stateB).On(evBack).To(stateA)
	b.Transition().From(stateA).On(evStay).To(stateA)
	b.Transition().From(stateA).On(evQuit).To(stateQuit)
	b.Transition().From(stateB).On(evQuit).To(stateQuit)
}

// newTestMachine returns a machine over setupAB whose data uses the given hooks.
func newTestMachine(hooks map[string]func(s *recordingState, ev Event) error, opts ...Option) *Machine[data] {
	return New(Definition[data]{
		Name:    "Test",
		Initial: stateA,
		Setup:   setupAB,
		NewData: func() *data { return &data{hooks: hooks} },
	}, opts...)
}
