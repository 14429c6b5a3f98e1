// Package tracing records state machine runs as OpenTelemetry spans: one span per run, with a span event for every
// transition, self-loop and idle tick.
package tracing

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/fuersten/statemachine"
)

const (
	instrumentation = "github.com/fuersten/statemachine"

	runSpan   = "statemachine.run"
	setupSpan = "statemachine.setup"
)

// Observer is a statemachine.Observer that turns runs into spans.
type Observer struct {
	tracer trace.Tracer

	mu   sync.Mutex
	runs map[string]trace.Span
}

var _ statemachine.Observer = (*Observer)(nil)

// NewObserver creates an Observer using a tracer from tp.
func NewObserver(tp trace.TracerProvider) *Observer {
	return &Observer{
		tracer: tp.Tracer(instrumentation),
		runs:   make(map[string]trace.Span),
	}
}

// NewStdoutProvider returns a tracer provider that writes finished spans to w as JSON.
func NewStdoutProvider(w io.Writer, serviceName, serviceVersion string) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", serviceVersion),
	)

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSyncer(exporter),
	), nil
}

func (o *Observer) OnStart(ctx context.Context, machine, runID, state string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.startRun(ctx, machine, runID, state)
}

func (o *Observer) OnStep(_ context.Context, step statemachine.Step) {
	o.mu.Lock()
	defer o.mu.Unlock()

	span, ok := o.runs[step.RunID]
	if !ok {
		return
	}

	name := "transition"
	switch {
	case step.Idle:
		name = "idle"
	case step.SelfLoop:
		name = "self_loop"
	}
	attrs := []attribute.KeyValue{
		attribute.String("state.from", step.From),
		attribute.String("state.to", step.To),
	}
	if step.Event != "" {
		attrs = append(attrs, attribute.String("event", step.Event))
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

func (o *Observer) OnTerminate(ctx context.Context, machine, runID, state string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	span, ok := o.runs[runID]
	if !ok {
		// The initial state was an exit state, so OnStart was never called.
		span = o.startRun(ctx, machine, runID, state)
	}
	span.SetAttributes(attribute.String("state.final", state))
	span.SetStatus(codes.Ok, "")
	span.End()
	delete(o.runs, runID)
}

func (o *Observer) OnError(ctx context.Context, machine, runID string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	span, ok := o.runs[runID]
	if !ok {
		_, span = o.tracer.Start(ctx, setupSpan, trace.WithAttributes(attribute.String("machine", machine)))
		defer span.End()
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// End ends the spans of runs that never reached an exit state.
func (o *Observer) End() {
	o.mu.Lock()
	defer o.mu.Unlock()

	for runID, span := range o.runs {
		span.End()
		delete(o.runs, runID)
	}
}

func (o *Observer) startRun(ctx context.Context, machine, runID, state string) trace.Span {
	_, span := o.tracer.Start(ctx, runSpan, trace.WithAttributes(
		attribute.String("machine", machine),
		attribute.String("run.id", runID),
		attribute.String("state.initial", state),
	))
	o.runs[runID] = span
	return span
}
