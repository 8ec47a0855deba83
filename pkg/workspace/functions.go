package workspace

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// functions returns the functions available to a BUILD.hcl in dir.
func functions(dir string) map[string]function.Function {
	return map[string]function.Function{
		"glob": globFunc(dir),
	}
}

// globFunc matches shell patterns relative to dir and returns the sorted,
// deduplicated, dir-relative matches. Directories are skipped.
//
//	sources = glob("src/*.erl", "gen/*.erl")
func globFunc(dir string) function.Function {
	return function.New(&function.Spec{
		Description: "Returns the files in the package matching the given patterns.",
		VarParam: &function.Parameter{
			Name: "patterns",
			Type: cty.String,
		},
		Type: function.StaticReturnType(cty.List(cty.String)),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			matches, err := glob(dir, args)
			if err != nil {
				return cty.NilVal, err
			}
			if len(matches) == 0 {
				return cty.ListValEmpty(cty.String), nil
			}
			vals := make([]cty.Value, len(matches))
			for i, m := range matches {
				vals[i] = cty.StringVal(m)
			}
			return cty.ListVal(vals), nil
		},
	})
}

func glob(dir string, patterns []cty.Value) ([]string, error) {
	var out []string
	for i, p := range patterns {
		found, err := filepath.Glob(filepath.Join(dir, p.AsString()))
		if err != nil {
			return nil, function.NewArgErrorf(i, "invalid pattern %q: %s", p.AsString(), err)
		}
		for _, f := range found {
			if isDir(f) {
				continue
			}
			rel, err := filepath.Rel(dir, f)
			if err != nil {
				return nil, err
			}
			out = append(out, filepath.ToSlash(rel))
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
