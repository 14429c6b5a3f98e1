package statemachine

// EventKind identifies an event variant. Kinds are compared by identity, so two kinds created with the same name are
// still distinct. Create one per variant at package level:
//
//	var Started = statemachine.NewEventKind("Started")
type EventKind struct {
	name string
}

// NewEventKind creates a new event kind with the given human-readable name. It panics if name is empty.
func NewEventKind(name string) *EventKind {
	if name == "" {
		panic("event kind name must not be empty")
	}
	return &EventKind{name: name}
}

// Name returns the human-readable name of the event kind.
func (k *EventKind) Name() string {
	if k == nil {
		return "<nil>"
	}
	return k.name
}

// Kind makes a bare *EventKind usable as an Event without payload.
func (k *EventKind) Kind() *EventKind { return k }

// String implements fmt.Stringer.
func (k *EventKind) String() string { return k.Name() }

// Event is a message consumed by the state machine. Implementations may carry any payload fields; the engine only
// looks at the kind.
//
// A nil Event is the absent event. It is passed to OnEntry and Run during Start and on idle ticks, and never matches a
// transition.
type Event interface {
	Kind() *EventKind
}

// Is reports whether ev is of the given kind. The absent event is of no kind.
func Is(ev Event, kind *EventKind) bool {
	if ev == nil || kind == nil {
		return false
	}
	return ev.Kind() == kind
}

func eventName(ev Event) string {
	if ev == nil {
		return "<none>"
	}
	return ev.Kind().Name()
}
