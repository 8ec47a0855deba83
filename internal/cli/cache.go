package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/zap/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the build and toolchain cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheListCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var toolchains bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget build fingerprints so every rule rebuilds",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.workspace()
			if err != nil {
				return err
			}

			dir := ws.BuildCacheDir()
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
			} else {
				fc, err := cache.NewFileCache(dir)
				if err != nil {
					return err
				}
				entries, err := fc.Entries(cmd.Context())
				if err != nil {
					return fmt.Errorf("list cache: %w", err)
				}
				if err := fc.Clear(cmd.Context()); err != nil {
					return fmt.Errorf("clear cache: %w", err)
				}
				printSuccess("Cleared %d cached entries", len(entries))
				printDetail("Directory: %s", dir)
			}

			if toolchains {
				if err := os.RemoveAll(ws.ToolchainDir()); err != nil {
					return fmt.Errorf("remove toolchains: %w", err)
				}
				printSuccess("Removed downloaded toolchains")
				printDetail("Directory: %s", ws.ToolchainDir())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&toolchains, "toolchains", false, "also delete downloaded toolchains")
	return cmd
}

// cacheListCommand creates the "cache list" subcommand.
func (c *CLI) cacheListCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached rule fingerprints for this workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.workspace()
			if err != nil {
				return err
			}
			fc, err := cache.NewFileCache(ws.BuildCacheDir())
			if err != nil {
				return err
			}
			entries, err := fc.Entries(cmd.Context())
			if err != nil {
				return fmt.Errorf("list cache: %w", err)
			}

			scope := cache.WorkspaceScope(ws.Root)
			var rows [][]string
			for _, e := range entries {
				if !all && !strings.HasPrefix(e.Key, scope) {
					continue
				}
				key := e.Key
				if !all {
					key = strings.TrimPrefix(key, scope+"rule:")
				}
				rows = append(rows, []string{key, fmt.Sprintf("%d B", e.Size), e.CreatedAt.Local().Format(time.DateTime)})
			}
			if len(rows) == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printTable([]string{"Key", "Size", "Stored"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include entries of other workspaces")
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.workspace()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ws.CacheDir())
			return nil
		},
	}
}
