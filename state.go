package statemachine

import (
	"context"
	"weak"
)

// State is a unit of behavior of a state machine. A new State value is created every time its kind is entered and
// dropped when it is left, so a state never sees values from an earlier visit except through the shared data.
//
// Implementations embed Base (or Exit for terminal kinds) and provide Run:
//
//	type countState struct {
//		statemachine.Base[counting]
//	}
//
//	func (s *countState) Run(ctx context.Context, ev statemachine.Event) error {
//		s.Data().Counter++
//		return nil
//	}
//
// The ev argument is nil for the bootstrap calls made by Start and for idle ticks.
type State[D any] interface {
	OnEntry(ctx context.Context, ev Event) error
	Run(ctx context.Context, ev Event) error
	OnExit(ctx context.Context, ev Event) error

	base() *Base[D]
}

// Base carries what the engine injects into every state: the kind it was created for, the run's shared data and a
// revocable handle to the owning machine. The zero value is unbound; the engine binds it before the first callback.
type Base[D any] struct {
	kind   *StateKind[D]
	data   *D
	handle *handle[D]
}

// OnEntry does nothing. Override it to act when the state is entered.
func (b *Base[D]) OnEntry(context.Context, Event) error { return nil }

// OnExit does nothing. Override it to act when the state is left.
func (b *Base[D]) OnExit(context.Context, Event) error { return nil }

// Kind returns the kind this state was created for.
func (b *Base[D]) Kind() *StateKind[D] { return b.kind }

// Data returns the data shared by all states of the current run.
func (b *Base[D]) Data() *D { return b.data }

// Post appends ev to the owning machine's queue. It does not process the event; events posted from inside a callback
// are consumed later in the same drain, or by the next ProcessEvent call.
//
// Post reports whether the event was queued. Posting after the machine was closed (or collected) is a no-op.
func (b *Base[D]) Post(ev Event) bool {
	m := b.handle.machine()
	if m == nil {
		Logger.Debug("dropping self-posted event after teardown", "event", eventName(ev))
		return false
	}
	return m.AddEvent(ev)
}

func (b *Base[D]) base() *Base[D] { return b }

func (b *Base[D]) bind(kind *StateKind[D], data *D, h *handle[D]) {
	b.kind = kind
	b.data = data
	b.handle = h
}

// Exit is the base for terminal states. Its Run is never invoked by the engine.
type Exit[D any] struct {
	Base[D]
}

// Run does nothing; the engine parks the machine before Run would be called on an exit state.
func (e *Exit[D]) Run(context.Context, Event) error { return nil }

// StateKind describes a state variant: its name, whether it is terminal, and how to create a fresh instance. Kinds are
// compared by identity.
type StateKind[D any] struct {
	name     string
	terminal bool
	factory  func() State[D]
}

// NewStateKind creates an ordinary state kind. It panics if name is empty or factory is nil.
func NewStateKind[D any](name string, factory func() State[D]) *StateKind[D] {
	if name == "" {
		panic("state kind name must not be empty")
	}
	if factory == nil {
		panic("state kind factory must not be nil")
	}
	return &StateKind[D]{name: name, factory: factory}
}

// NewExitKind creates a terminal state kind. Entering it parks the machine for good: Run is never called and no
// transition leaves it. A nil factory creates a bare Exit state.
func NewExitKind[D any](name string, factory func() State[D]) *StateKind[D] {
	if name == "" {
		panic("state kind name must not be empty")
	}
	if factory == nil {
		factory = func() State[D] { return &Exit[D]{} }
	}
	return &StateKind[D]{name: name, terminal: true, factory: factory}
}

// Name returns the human-readable name of the kind.
func (k *StateKind[D]) Name() string {
	if k == nil {
		return "<nil>"
	}
	return k.name
}

// Terminal reports whether the kind is an exit kind.
func (k *StateKind[D]) Terminal() bool { return k != nil && k.terminal }

// String implements fmt.Stringer.
func (k *StateKind[D]) String() string { return k.Name() }

func (k *StateKind[D]) create(data *D, h *handle[D]) State[D] {
	s := k.factory()
	if s == nil {
		panic("state kind " + k.name + " factory returned nil")
	}
	s.base().bind(k, data, h)
	return s
}

// KindOf returns the kind of s, or nil if s is nil.
func KindOf[D any](s State[D]) *StateKind[D] {
	if s == nil {
		return nil
	}
	return s.base().kind
}

// handle is a state's non-owning reference to its machine. It is revoked when the machine is closed or restarted
// and never keeps the machine alive.
type handle[D any] struct {
	ptr     weak.Pointer[Machine[D]]
	revoked bool
}

func newHandle[D any](m *Machine[D]) *handle[D] {
	return &handle[D]{ptr: weak.Make(m)}
}

func (h *handle[D]) machine() *Machine[D] {
	if h == nil || h.revoked {
		return nil
	}
	return h.ptr.Value()
}

func (h *handle[D]) revoke() {
	if h != nil {
		h.revoked = true
	}
}
