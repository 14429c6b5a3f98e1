package statemachine

// SetupFunc registers the transitions of a machine definition. It is called by Start to build the live table, and
// again by the graph exporters to build a scratch table.
type SetupFunc[D any] func(b *Builder[D])

// Builder collects transitions into a Table. Registration stops at the first error; later calls are ignored and the
// error is reported by Err.
type Builder[D any] struct {
	table *Table[D]
	err   error

	// Enables reporting transition definitions that were started with Transition() but never finished with To().
	numTransitionDefinitionsStarted   int
	numTransitionDefinitionsCompleted int
}

func newBuilder[D any](name string) *Builder[D] {
	return &Builder[D]{table: NewTable[D](name)}
}

// Transition begins the definition of a new transition:
//
//	b.Transition().From(Start).On(Started).To(Count)
func (b *Builder[D]) Transition() *transitionBuilder[D] {
	b.numTransitionDefinitionsStarted++
	return &transitionBuilder[D]{b: b}
}

// Add registers the transition from -> to on event.
func (b *Builder[D]) Add(from, to *StateKind[D], event *EventKind) error {
	if b.err != nil {
		return b.err
	}
	if err := b.table.Add(Transition[D]{From: from, To: to, Event: event}); err != nil {
		b.err = err
		return err
	}
	return nil
}

// Err returns the first registration error, or ErrIncompleteTransition if a transition definition was left
// unfinished.
func (b *Builder[D]) Err() error {
	if b.err != nil {
		return b.err
	}
	if b.numTransitionDefinitionsStarted != b.numTransitionDefinitionsCompleted {
		return ErrIncompleteTransition
	}
	return nil
}

func (b *Builder[D]) build(setup SetupFunc[D]) (*Table[D], error) {
	setup(b)
	if err := b.Err(); err != nil {
		return nil, err
	}
	return b.table, nil
}

type transitionBuilder[D any] struct {
	b *Builder[D]
}

// From sets the source state for the transition.
func (tb *transitionBuilder[D]) From(state *StateKind[D]) *transitionFromBuilder[D] {
	return &transitionFromBuilder[D]{
		b:    tb.b,
		from: state,
	}
}

type transitionFromBuilder[D any] struct {
	b    *Builder[D]
	from *StateKind[D]
}

// On sets the event for the transition.
func (fb *transitionFromBuilder[D]) On(event *EventKind) *transitionOnBuilder[D] {
	return &transitionOnBuilder[D]{
		b:     fb.b,
		from:  fb.from,
		event: event,
	}
}

type transitionOnBuilder[D any] struct {
	b     *Builder[D]
	from  *StateKind[D]
	event *EventKind
}

// To sets the target state and registers the transition. The returned error is also recorded on the Builder.
func (ob *transitionOnBuilder[D]) To(state *StateKind[D]) error {
	ob.b.numTransitionDefinitionsCompleted++
	return ob.b.Add(ob.from, state, ob.event)
}
