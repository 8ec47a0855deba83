package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/zap/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
// Running it without a subcommand builds every rule in the workspace.
func (c *CLI) RootCommand() *cobra.Command {
	var opts buildOptions

	root := &cobra.Command{
		Use:   appName,
		Short: "zap builds workspaces of libraries and binaries with pinned toolchains",
		Long: `zap is a build tool. It reads BUILD.hcl rule scripts from a workspace,
downloads the toolchains they name, and builds the requested targets and their
dependencies in order, skipping work whose inputs have not changed.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.SetLogLevel(c.logLevel())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBuild(cmd.Context(), nil, opts)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVarP(&c.quiet, "quiet", "q", false, "only log warnings and errors")
	root.PersistentFlags().StringVarP(&c.dir, "dir", "C", "", "look for the workspace starting at `dir`")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")
	opts.register(root)

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	root.AddCommand(c.depgraphCommand())
	root.AddCommand(c.rulesCommand())
	root.AddCommand(c.targetCommand())
	root.AddCommand(c.toolchainCommand())
	root.AddCommand(c.workspaceCommand())

	return root
}
