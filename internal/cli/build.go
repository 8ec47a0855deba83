package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/zap/pkg/build"
	"github.com/matzehuels/zap/pkg/label"
	"github.com/matzehuels/zap/pkg/rule"
)

// buildOptions are shared by `zap` and `zap build`.
type buildOptions struct {
	jobs    int
	noCache bool
	output  string
	run     string
	offline bool
}

func (o *buildOptions) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&o.jobs, "jobs", "j", 0, "rules to build in parallel (default from workspace.toml)")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "rebuild every rule, ignoring cached fingerprints")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output directory (default from workspace.toml)")
	cmd.Flags().StringVar(&o.run, "run", "", "run this binary after building")
	cmd.Flags().BoolVar(&o.offline, "offline", false, "do not fetch missing toolchains")
}

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	var opts buildOptions
	cmd := &cobra.Command{
		Use:   "build [labels...]",
		Short: "Build targets and their dependencies",
		Long: `Build the given targets, or every rule when none are given.

Labels may be absolute (//lib:util) or relative to the current directory's
package (:util or util). Rules whose inputs, dependencies and toolchain are
unchanged since the last build are skipped.`,
		Example: `  zap build
  zap build //app:hello --run //app:hello
  zap build -j 8 --no-cache`,
		ValidArgsFunction: c.completeLabels,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBuild(cmd.Context(), args, opts)
		},
	}
	opts.register(cmd)
	return cmd
}

func (c *CLI) runBuild(ctx context.Context, args []string, opts buildOptions) error {
	s, err := c.open(ctx)
	if err != nil {
		return err
	}

	targets, err := s.targets(args)
	if err != nil {
		return err
	}
	var runTarget label.Label
	if opts.run != "" {
		if runTarget, err = label.Resolve(s.pkg(), opts.run); err != nil {
			return err
		}
		if len(targets) == 0 {
			targets = []label.Label{runTarget}
		}
	}

	bc, err := s.context(opts.output, c.Logger)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(s, opts.noCache, opts.jobs)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	if !opts.offline {
		if err := c.fetchMissing(ctx, s, bc, targets); err != nil {
			return err
		}
	}

	res, err := runner.Build(ctx, bc, targets)
	if err != nil {
		return err
	}
	if !c.quiet {
		printBuildResult(res, c.verbose)
	}

	if !runTarget.IsZero() {
		return runner.Run(ctx, bc, runTarget)
	}
	return nil
}

// fetchMissing acquires the registered toolchains the targets build with
// that are not unpacked yet.
func (c *CLI) fetchMissing(ctx context.Context, s *session, bc *build.Context, targets []label.Label) error {
	rules, err := bc.Closure(targets)
	if err != nil {
		return err
	}

	seen := make(map[label.Label]bool)
	var missing []label.Label
	for _, r := range rules {
		if r.Kind() == rule.KindToolchain {
			continue
		}
		l := bc.ToolchainLabel(r)
		if l.IsZero() || seen[l] {
			continue
		}
		seen[l] = true
		if tc, ok := s.mgr.Get(l); ok && !tc.Ready() {
			missing = append(missing, l)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	return c.acquire(ctx, s, missing, len(missing))
}

func printBuildResult(res *build.Result, verbose bool) {
	built, cached := res.Count(build.StatusBuilt), res.Count(build.StatusCached)
	printSuccess("Built %d rule(s) %s", len(res.Rules), StyleDim.Render("("+res.Duration.Round(time.Millisecond).String()+")"))
	printStats(built, cached)
	if !verbose {
		return
	}
	for _, l := range res.Order {
		rr := res.Rules[l]
		printRuleStatus(string(rr.Status), l.String(), rr.Duration)
	}
	printDetail("build %s", res.BuildID)
}
