package cli

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/zap/pkg/build"
	"github.com/matzehuels/zap/pkg/depgraph"
)

// depgraphCommand creates the depgraph command.
func (c *CLI) depgraphCommand() *cobra.Command {
	var (
		format string
		output string
		opts   depgraph.Options
	)

	cmd := &cobra.Command{
		Use:   "depgraph [labels...]",
		Short: "Print the rule dependency graph",
		Long: `Print the dependency graph of the given targets, or of every rule.

Edges point from a rule to the rules it depends on. --reduce drops edges that
are implied by a longer path, which keeps large graphs readable.`,
		Example: `  zap depgraph | dot -Tpng > deps.png
  zap depgraph //app:hello --format svg -o deps.svg
  zap depgraph --format json --reduce`,
		ValidArgsFunction: c.completeLabels,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(depgraph.Formats, format) {
				return fmt.Errorf("invalid format %q: must be one of %s", format, strings.Join(depgraph.Formats, ", "))
			}

			s, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			targets, err := s.targets(args)
			if err != nil {
				return err
			}
			bc, err := s.context("", c.Logger)
			if err != nil {
				return err
			}

			g, err := build.NewRunner(nil, nil, c.Logger).Graph(bc, targets)
			if err != nil {
				return err
			}
			data, err := depgraph.Render(cmd.Context(), g, format, opts)
			if err != nil {
				return err
			}

			if output == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Wrote %d rules, %d edges", g.NodeCount(), g.EdgeCount())
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", depgraph.FormatDOT, "output format: "+strings.Join(depgraph.Formats, ", "))
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&opts.Reduce, "reduce", false, "apply transitive reduction")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "include level and metadata in node labels (dot, svg)")
	return cmd
}
