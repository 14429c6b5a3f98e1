package statemachine

// Transition binds a source state kind and an event kind to a target state kind. Transitions are immutable values.
type Transition[D any] struct {
	From  *StateKind[D]
	To    *StateKind[D]
	Event *EventKind
}

// CanFire reports whether the transition applies to the current state and event. The absent event never matches.
func (t Transition[D]) CanFire(current State[D], ev Event) bool {
	if current == nil || ev == nil {
		return false
	}
	return ev.Kind() == t.Event && KindOf(current) == t.From
}

// IsSelfLoop reports whether taking the transition keeps the current state. Self-loops only run the current state,
// without exit or entry callbacks.
func (t Transition[D]) IsSelfLoop(current State[D]) bool {
	return KindOf(current) == t.To
}

// IsTerminal reports whether the transition leads into an exit state.
func (t Transition[D]) IsTerminal() bool {
	return t.To.Terminal()
}

// String returns a description such as "Start -(Started)-> Count".
func (t Transition[D]) String() string {
	return t.From.Name() + " -(" + t.Event.Name() + ")-> " + t.To.Name()
}

// Table is an ordered set of transitions. Insertion order decides match priority and the edge order of exported
// graphs.
type Table[D any] struct {
	name        string
	transitions []Transition[D]
}

// NewTable creates an empty table. The name is used in error messages.
func NewTable[D any](name string) *Table[D] {
	return &Table[D]{name: name}
}

// Add appends t after checking it against every registered transition. A transition that shares source state and event
// with a registered one but has a different target is rejected with an *AmbiguousTransitionError. On error the table is
// left unchanged.
func (tb *Table[D]) Add(t Transition[D]) error {
	if t.From == nil || t.To == nil || t.Event == nil {
		return ErrInvalidTransition
	}
	if t.From.Terminal() {
		return ErrTerminalSource
	}
	for _, existing := range tb.transitions {
		if existing.From == t.From && existing.Event == t.Event && existing.To != t.To {
			return &AmbiguousTransitionError{
				Machine:  tb.name,
				From:     t.From.Name(),
				Event:    t.Event.Name(),
				To:       t.To.Name(),
				Existing: existing.To.Name(),
			}
		}
	}
	tb.transitions = append(tb.transitions, t)
	return nil
}

// Match returns the first transition, in insertion order, that can fire for the current state and event.
func (tb *Table[D]) Match(current State[D], ev Event) (Transition[D], bool) {
	for _, t := range tb.transitions {
		if t.CanFire(current, ev) {
			return t, true
		}
	}
	return Transition[D]{}, false
}

// Len returns the number of registered transitions.
func (tb *Table[D]) Len() int { return len(tb.transitions) }

// Transitions returns a copy of the registered transitions in insertion order.
func (tb *Table[D]) Transitions() []Transition[D] {
	out := make([]Transition[D], len(tb.transitions))
	copy(out, tb.transitions)
	return out
}
