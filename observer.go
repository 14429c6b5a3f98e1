package statemachine

import "context"

// Step describes one unit of work done by the dispatch loop.
type Step struct {
	Machine string
	RunID   string
	From    string
	To      string
	Event   string // empty for idle ticks
	// SelfLoop is set when the transition kept the current state.
	SelfLoop bool
	// Idle is set for ProcessEvent calls that found the queue empty and only ran the current state.
	Idle bool
}

// Observer receives callbacks from the dispatch loop for logging and metrics.
//
// Callbacks run synchronously inside Start and ProcessEvent; implementations should return quickly and must not call
// back into the machine.
type Observer interface {
	// OnStart is called after the initial state was entered and run.
	OnStart(ctx context.Context, machine, runID, state string)
	// OnStep is called after a transition or idle tick completed.
	OnStep(ctx context.Context, step Step)
	// OnTerminate is called when the machine entered an exit state.
	OnTerminate(ctx context.Context, machine, runID, state string)
	// OnError is called when Start or ProcessEvent is about to return an error.
	OnError(ctx context.Context, machine, runID string, err error)
}

// NoopObserver is an Observer that does nothing. It is the default.
type NoopObserver struct{}

func (NoopObserver) OnStart(context.Context, string, string, string)     {}
func (NoopObserver) OnStep(context.Context, Step)                        {}
func (NoopObserver) OnTerminate(context.Context, string, string, string) {}
func (NoopObserver) OnError(context.Context, string, string, error)      {}

// CompositeObserver fans out callbacks to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards callbacks to each non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnStart(ctx context.Context, machine, runID, state string) {
	for _, o := range c.observers {
		o.OnStart(ctx, machine, runID, state)
	}
}

func (c *CompositeObserver) OnStep(ctx context.Context, step Step) {
	for _, o := range c.observers {
		o.OnStep(ctx, step)
	}
}

func (c *CompositeObserver) OnTerminate(ctx context.Context, machine, runID, state string) {
	for _, o := range c.observers {
		o.OnTerminate(ctx, machine, runID, state)
	}
}

func (c *CompositeObserver) OnError(ctx context.Context, machine, runID string, err error) {
	for _, o := range c.observers {
		o.OnError(ctx, machine, runID, err)
	}
}
