package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fuersten/statemachine/internal/counting"
)

func newGraphCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the transition graph",
		Example: `  # Render with Graphviz
  countingsm graph | dot -Tpng -o counting.png

  # Mermaid state diagram
  countingsm graph --format mermaid`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := counting.New(a.cfg.Name, zerolog.Nop())

			var (
				out string
				err error
			)
			switch format {
			case "dot":
				out, err = m.GenerateDOT()
			case "mermaid":
				out, err = m.MermaidDiagram()
			default:
				return fmt.Errorf("unknown graph format %q, want dot or mermaid", format)
			}
			if err != nil {
				return err
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format (dot, mermaid)")

	return cmd
}
