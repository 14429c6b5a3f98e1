package commands

import (
	"fmt"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/fuersten/statemachine"
	"github.com/fuersten/statemachine/internal/counting"
	"github.com/fuersten/statemachine/internal/logging"
	"github.com/fuersten/statemachine/internal/metrics"
	"github.com/fuersten/statemachine/internal/tracing"
)

func newRunCommand(a *app) *cobra.Command {
	var withMetrics, withTrace bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the counting scenario",
		Long: `Run starts the counting machine and feeds it Stopped, Started, an idle tick,
Stopped, Quitted and a final idle tick. Every state callback is logged and the
final counter is printed.`,
		Example: `  # Run with JSON logs
  countingsm run --log-format json

  # Print the Prometheus counters after the run
  countingsm run --metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("metrics") {
				a.cfg.Metrics = withMetrics
			}
			if cmd.Flags().Changed("trace") {
				a.cfg.Trace = withTrace
			}

			opts := []statemachine.Option{
				statemachine.WithLogger(logging.NewSlog(cmd.ErrOrStderr(), a.cfg.LogLevel, a.cfg.LogFormat)),
			}
			var obs *metrics.Observer
			if a.cfg.Metrics {
				obs = metrics.NewObserver()
			}
			var spans *tracing.Observer
			if a.cfg.Trace {
				tp, err := tracing.NewStdoutProvider(cmd.ErrOrStderr(), "countingsm", a.version)
				if err != nil {
					return err
				}
				defer func() { _ = tp.Shutdown(cmd.Context()) }()
				spans = tracing.NewObserver(tp)
				defer spans.End()
			}
			if obs != nil || spans != nil {
				opts = append(opts, statemachine.WithObserver(statemachine.NewCompositeObserver(observers(obs, spans)...)))
			}

			m := counting.New(a.cfg.Name, a.log, opts...)
			defer func() { _ = m.Close() }()

			counter, err := counting.Scenario(cmd.Context(), m)
			if err != nil {
				return err
			}

			a.log.Info().
				Str("machine", m.Name()).
				Str("run_id", m.RunID()).
				Int("counter", counter).
				Msg("Scenario finished")
			fmt.Fprintf(cmd.OutOrStdout(), "Counter: %d\n", counter)

			if obs == nil {
				return nil
			}
			families, err := obs.Registry().Gather()
			if err != nil {
				return fmt.Errorf("gathering metrics: %w", err)
			}
			for _, mf := range families {
				if _, err := expfmt.MetricFamilyToText(cmd.OutOrStdout(), mf); err != nil {
					return fmt.Errorf("writing metrics: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withMetrics, "metrics", false, "print Prometheus counters after the run")
	cmd.Flags().BoolVar(&withTrace, "trace", false, "export the run as OpenTelemetry spans to stderr")

	return cmd
}

// observers drops nil pointers so they do not reach NewCompositeObserver as non-nil interfaces.
func observers(m *metrics.Observer, t *tracing.Observer) []statemachine.Observer {
	var out []statemachine.Observer
	if m != nil {
		out = append(out, m)
	}
	if t != nil {
		out = append(out, t)
	}
	return out
}
