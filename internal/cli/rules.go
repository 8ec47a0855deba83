package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/zap/pkg/rule"
)

// ruleField documents one BUILD.hcl attribute.
type ruleField struct {
	name     string
	typ      string
	required bool
	doc      string
}

type ruleKind struct {
	kind   rule.Kind
	doc    string
	fields []ruleField
}

// ruleKinds is the attribute reference printed by `zap rules`. It mirrors
// the block schemas decoded by the workspace loader.
var ruleKinds = []ruleKind{
	{
		kind: rule.KindLibrary,
		doc:  "Compiles sources into objects that dependents link against.",
		fields: []ruleField{
			{"sources", "list(string)", false, "files to compile, relative to the package"},
			{"headers", "list(string)", false, "files copied to the output tree and put on the include path"},
			{"deps", "list(label)", false, "rules whose outputs this rule needs"},
			{"toolchain", "label", false, "toolchain to compile with (default: workspace toolchain)"},
		},
	},
	{
		kind: rule.KindBinary,
		doc:  "A library with an entry point that `zap build --run` can execute.",
		fields: []ruleField{
			{"sources", "list(string)", true, "files to compile; the first names the default entry"},
			{"headers", "list(string)", false, "files copied to the output tree and put on the include path"},
			{"deps", "list(label)", false, "rules whose outputs this rule needs"},
			{"toolchain", "label", false, "toolchain to compile and run with"},
			{"main", "string", false, "entry module (default: stem of the first source)"},
			{"args", "list(string)", false, "arguments passed to the entry point"},
		},
	},
	{
		kind: "archive",
		doc:  "A standalone payload that toolchains with the same label unpack.",
		fields: []ruleField{
			{"url", "string", true, "download location"},
			{"sha1", "string", true, "hex digest of the downloaded file"},
			{"prefix", "string", false, "directory inside the archive holding the payload"},
		},
	},
	{
		kind: rule.KindToolchain,
		doc:  "A compiler and runtime unpacked from an archive.",
		fields: []ruleField{
			{"compiler", "string", true, "compiler path inside the unpacked archive"},
			{"runtime", "string", false, "runtime path inside the unpacked archive"},
			{"object_ext", "string", false, "object file extension (default: " + rule.DefaultObjectExt + ")"},
			{"args", "list(string)", false, "arguments passed to every compiler invocation"},
			{"output_flag", "string", false, "flag naming the output directory (default: -o)"},
			{"include_flag", "string", false, "flag adding a header directory (default: -I)"},
			{"path_flag", "string", false, "flag adding an object directory (default: -pa)"},
			{"archive", "block", false, "url, sha1 and prefix of the payload"},
		},
	},
}

// rulesCommand creates the rules command.
func (c *CLI) rulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rules [kind]",
		Short: "Describe the rule kinds available in BUILD.hcl",
		Args:  cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			var kinds []string
			for _, k := range ruleKinds {
				kinds = append(kinds, string(k.kind))
			}
			return kinds, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for i, k := range ruleKinds {
					if i > 0 {
						fmt.Fprintln(out)
					}
					printRuleKind(k)
				}
				return nil
			}
			for _, k := range ruleKinds {
				if string(k.kind) == args[0] {
					printRuleKind(k)
					return nil
				}
			}
			return fmt.Errorf("unknown rule kind %q", args[0])
		},
	}
}

func printRuleKind(k ruleKind) {
	printInfo("%s %s", StyleTitle.Render(string(k.kind)), StyleDim.Render(k.doc))
	rows := make([][]string, len(k.fields))
	for i, f := range k.fields {
		req := ""
		if f.required {
			req = "yes"
		}
		rows[i] = []string{f.name, f.typ, req, f.doc}
	}
	printTable([]string{"Attribute", "Type", "Required", "Description"}, rows)
}
