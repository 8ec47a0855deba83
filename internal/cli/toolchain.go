package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/zap/pkg/label"
)

// toolchainCommand creates the toolchain command.
func (c *CLI) toolchainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toolchain",
		Short: "Inspect and fetch toolchains",
	}

	cmd.AddCommand(c.toolchainListCommand())
	cmd.AddCommand(c.toolchainFetchCommand())

	return cmd
}

// toolchainListCommand creates the "toolchain list" subcommand.
func (c *CLI) toolchainListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List declared toolchains and whether they are ready",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context())
			if err != nil {
				return err
			}

			tcs := s.mgr.Toolchains()
			if len(tcs) == 0 {
				printInfo("No toolchains declared")
				return nil
			}

			def := s.ws.DefaultToolchain()
			var rows [][]string
			for _, tc := range tcs {
				name := tc.Name().String()
				if tc.Name() == def {
					name += " (default)"
				}
				ready := StyleWarning.Render("no")
				if tc.Ready() {
					ready = StyleSuccess.Render("yes")
				}
				rows = append(rows, []string{name, tc.Rule().Compiler(), tc.Archive().URL(), ready})
			}
			printTable([]string{"Toolchain", "Compiler", "Archive", "Ready"}, rows)
			return nil
		},
	}
}

// toolchainFetchCommand creates the "toolchain fetch" subcommand.
func (c *CLI) toolchainFetchCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "fetch [labels...]",
		Short:             "Download and unpack toolchains",
		Long:              `Download, verify and unpack the named toolchains, or every declared toolchain.`,
		ValidArgsFunction: c.completeLabels,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			labels, err := s.targets(args)
			if err != nil {
				return err
			}
			n := len(labels)
			if n == 0 {
				n = len(s.mgr.Toolchains())
			}
			if n == 0 {
				printInfo("No toolchains declared")
				return nil
			}
			return c.acquire(cmd.Context(), s, labels, n)
		},
	}
}

// acquire fetches the given toolchains (all when labels is empty) behind a
// spinner. n is the number reported on success.
func (c *CLI) acquire(ctx context.Context, s *session, labels []label.Label, n int) error {
	if c.quiet {
		return s.mgr.Acquire(ctx, labels)
	}

	spinner := newSpinnerWithContext(ctx, "Fetching toolchains...")
	spinner.Start()
	start := time.Now()
	if err := s.mgr.Acquire(ctx, labels); err != nil {
		spinner.StopWithError("Toolchain fetch failed")
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("%d toolchain(s) ready %s", n, elapsed(start)))
	return nil
}
