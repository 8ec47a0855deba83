package cli

import (
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/zap/pkg/rule"
	"github.com/matzehuels/zap/pkg/workspace"
)

// workspaceCommand creates the workspace command.
func (c *CLI) workspaceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "workspace",
		Short: "Show the current workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context())
			if err != nil {
				return err
			}

			counts := make(map[rule.Kind]int)
			for _, r := range s.loaded.Rules {
				counts[r.Kind()]++
			}

			ws := s.ws
			printInfo("%s", StyleTitle.Render(ws.Name()))
			printKeyValue("root", ws.Root)
			printKeyValue("config", filepath.Join(ws.Root, workspace.ConfigFile))
			printKeyValue("toolchain", valueOr(ws.DefaultToolchain().String(), "—"))
			printKeyValue("output", ws.OutputDir())
			printKeyValue("cache", ws.CacheDir())
			printKeyValue("jobs", strconv.Itoa(ws.Config.Jobs))
			printKeyValue("files", strconv.Itoa(len(s.loaded.Files)))
			printKeyValue("libraries", strconv.Itoa(counts[rule.KindLibrary]))
			printKeyValue("binaries", strconv.Itoa(counts[rule.KindBinary]))
			printKeyValue("toolchains", strconv.Itoa(counts[rule.KindToolchain]))

			if len(s.loaded.Rules) == 0 {
				printNextStep("Declare rules in", workspace.BuildFile)
			} else {
				printNextStep("Build everything with", appName)
			}
			return nil
		},
	}
}
