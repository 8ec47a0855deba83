package cli

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/zap/pkg/build"
	"github.com/matzehuels/zap/pkg/errors"
	"github.com/matzehuels/zap/pkg/label"
	"github.com/matzehuels/zap/pkg/rule"
)

// targetCommand creates the target command.
func (c *CLI) targetCommand() *cobra.Command {
	var pick bool

	cmd := &cobra.Command{
		Use:   "target [label]",
		Short: "List targets or describe one",
		Long: `Without arguments, list every rule in the workspace. With a label, describe
that rule: its sources, dependencies, toolchain and declared outputs.`,
		Example: `  zap target
  zap target //app:hello
  zap target --pick`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeLabels,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			bc, err := s.context("", c.Logger)
			if err != nil {
				return err
			}

			switch {
			case pick:
				l, ok, err := pickTarget(bc)
				if err != nil || !ok {
					return err
				}
				return describeTarget(bc, l)
			case len(args) == 1:
				l, err := label.Resolve(s.pkg(), args[0])
				if err != nil {
					return err
				}
				return describeTarget(bc, l)
			}

			rows := targetRows(bc)
			if len(rows) == 0 {
				printInfo("No targets in %s", s.ws.Root)
				printNextStep("Declare one in", "BUILD.hcl")
				return nil
			}
			table := make([][]string, len(rows))
			for i, r := range rows {
				table[i] = []string{r.Label, string(r.Kind), r.Toolchain, strconv.Itoa(r.Deps)}
			}
			printTable([]string{"Label", "Kind", "Toolchain", "Deps"}, table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&pick, "pick", false, "choose a target interactively")
	return cmd
}

// targetRows lists every rule in declaration order.
func targetRows(bc *build.Context) []targetRow {
	var rows []targetRow
	for _, r := range bc.Rules() {
		row := targetRow{
			Label: r.Name().String(),
			Kind:  r.Kind(),
			Deps:  len(r.Dependencies()),
		}
		if r.Kind() != rule.KindToolchain {
			row.Toolchain = bc.ToolchainLabel(r).String()
		}
		rows = append(rows, row)
	}
	return rows
}

// pickTarget runs the interactive selector. ok is false when the user quit.
func pickTarget(bc *build.Context) (label.Label, bool, error) {
	rows := targetRows(bc)
	if len(rows) == 0 {
		printInfo("No targets to pick from")
		return "", false, nil
	}
	final, err := tea.NewProgram(NewTargetListModel(rows)).Run()
	if err != nil {
		return "", false, fmt.Errorf("target picker: %w", err)
	}
	m, ok := final.(TargetListModel)
	if !ok || m.Selected == nil {
		return "", false, nil
	}
	return label.Label(m.Selected.Label), true, nil
}

// describeTarget prints everything known about a single rule.
func describeTarget(bc *build.Context, l label.Label) error {
	r, ok := bc.Rule(l)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "no rule named %s", l)
	}

	printInfo("%s", StyleTitle.Render(l.String()))
	printKeyValue("kind", string(r.Kind()))

	if tc, ok := r.(rule.Toolchain); ok {
		printKeyValue("compiler", tc.Compiler())
		printKeyValue("runtime", valueOr(tc.Runtime(), "—"))
		printKeyValue("object ext", tc.ObjectExt())
		printList("args", tc.Args())
		return nil
	}

	printList("sources", rule.Sources(r))
	printList("headers", rule.Headers(r))
	printList("deps", label.Strings(r.Dependencies()))
	printKeyValue("toolchain", valueOr(bc.ToolchainLabel(r).String(), "—"))
	if b, ok := r.(rule.Binary); ok {
		printKeyValue("main", b.Main())
		printList("args", b.Args())
	}

	var outputs []string
	for _, art := range r.Outputs(bc.For(r)) {
		outputs = append(outputs, art.PassThrough()...)
		outputs = append(outputs, art.Derived()...)
	}
	printList("outputs", outputs)
	return nil
}

func valueOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
