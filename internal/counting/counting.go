// Package counting is the worked example of the engine: a three-state counter that starts itself, counts on every run
// of its Count state and stops for good on Quitted.
package counting

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fuersten/statemachine"
)

// DefaultName is the machine name used when none is configured.
const DefaultName = "CountingSM"

// Data is shared by the states of one run.
type Data struct {
	Counter int
	Log     zerolog.Logger
}

var (
	Started = statemachine.NewEventKind("Started")
	Stopped = statemachine.NewEventKind("Stopped")
	Quitted = statemachine.NewEventKind("Quitted")

	Start = statemachine.NewStateKind("Start", func() statemachine.State[Data] { return &startState{} })
	Count = statemachine.NewStateKind("Count", func() statemachine.State[Data] { return &countState{} })
	Stop  = statemachine.NewStateKind("Stop", func() statemachine.State[Data] { return &stopState{} })
	Quit  = statemachine.NewExitKind("Quit", func() statemachine.State[Data] { return &quitState{} })
)

// Setup registers the counter's transitions.
func Setup(b *statemachine.Builder[Data]) {
	b.Transition().From(Start).On(Started).To(Count)
	b.Transition().From(Count).On(Stopped).To(Stop)
	b.Transition().From(Stop).On(Started).To(Count)
	b.Transition().From(Start).On(Quitted).To(Quit)
	b.Transition().From(Count).On(Quitted).To(Quit)
	b.Transition().From(Stop).On(Quitted).To(Quit)
}

// New returns an unstarted counting machine. Lifecycle callbacks are written to log.
func New(name string, log zerolog.Logger, opts ...statemachine.Option) *statemachine.Machine[Data] {
	if name == "" {
		name = DefaultName
	}
	return statemachine.New(statemachine.Definition[Data]{
		Name:    name,
		Initial: Start,
		Setup:   Setup,
		NewData: func() *Data { return &Data{Log: log} },
	}, opts...)
}

// Scenario starts m and feeds it the reference sequence: Stopped, Started, an idle tick, Stopped, Quitted and a final
// idle tick. It returns the final counter, which is 3.
func Scenario(ctx context.Context, m *statemachine.Machine[Data]) (int, error) {
	if err := m.Start(ctx); err != nil {
		return 0, fmt.Errorf("starting %s: %w", m.Name(), err)
	}
	for i, ev := range []statemachine.Event{Stopped, Started, nil, Stopped, Quitted, nil} {
		if err := m.ProcessEvent(ctx, ev); err != nil {
			return m.Data().Counter, fmt.Errorf("processing step %d: %w", i+1, err)
		}
	}
	return m.Data().Counter, nil
}

func trace(s *statemachine.Base[Data], callback string, ev statemachine.Event) {
	e := s.Data().Log.Info().Str("state", s.Kind().Name())
	if ev != nil {
		e = e.Str("event", ev.Kind().Name())
	}
	e.Msg(callback)
}

type startState struct {
	statemachine.Base[Data]
}

func (s *startState) OnEntry(_ context.Context, ev statemachine.Event) error {
	trace(&s.Base, "onEntry", ev)
	return nil
}

// Run asks the machine to start counting.
func (s *startState) Run(_ context.Context, ev statemachine.Event) error {
	trace(&s.Base, "run", ev)
	s.Post(Started)
	return nil
}

func (s *startState) OnExit(_ context.Context, ev statemachine.Event) error {
	trace(&s.Base, "onExit", ev)
	return nil
}

type countState struct {
	statemachine.Base[Data]
}

func (s *countState) OnEntry(_ context.Context, ev statemachine.Event) error {
	trace(&s.Base, "onEntry", ev)
	return nil
}

func (s *countState) Run(_ context.Context, ev statemachine.Event) error {
	s.Data().Counter++
	trace(&s.Base, "run", ev)
	return nil
}

func (s *countState) OnExit(_ context.Context, ev statemachine.Event) error {
	trace(&s.Base, "onExit", ev)
	return nil
}

type stopState struct {
	statemachine.Base[Data]
}

func (s *stopState) OnEntry(_ context.Context, ev statemachine.Event) error {
	trace(&s.Base, "onEntry", ev)
	return nil
}

func (s *stopState) Run(_ context.Context, ev statemachine.Event) error {
	trace(&s.Base, "run", ev)
	return nil
}

func (s *stopState) OnExit(_ context.Context, ev statemachine.Event) error {
	trace(&s.Base, "onExit", ev)
	return nil
}

type quitState struct {
	statemachine.Exit[Data]
}

func (s *quitState) OnEntry(_ context.Context, ev statemachine.Event) error {
	trace(&s.Base, "onEntry", ev)
	return nil
}
