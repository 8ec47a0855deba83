// Package label defines the identifiers that key rules, toolchains and
// archives in every registry.
//
// A label is an absolute, hierarchical name of the form
//
//	//pkg/path:name
//
// where pkg/path is the workspace-relative directory holding the BUILD file
// and name identifies the rule inside it. The short form //pkg/path names the
// rule whose name equals the last path segment. Labels are plain values: they
// are compared, copied and used as map keys freely.
package label

import (
	"slices"
	"strings"
	"unicode"

	"github.com/matzehuels/zap/pkg/errors"
)

// Label is an absolute rule identifier. The zero value is not a valid label.
type Label string

const prefix = "//"

// Parse parses an absolute label. Both //pkg:name and //pkg are accepted;
// the result is always in the canonical //pkg:name form.
func Parse(s string) (Label, error) {
	if !strings.HasPrefix(s, prefix) {
		return "", errors.New(errors.ErrCodeInvalidLabel, "label must start with //: %q", s)
	}
	return parse("", strings.TrimPrefix(s, prefix), s)
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Label {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

// Resolve interprets s relative to the package pkg. Accepted forms:
//
//	//other/pkg:name  absolute
//	:name             rule in pkg
//	name              rule in pkg
func Resolve(pkg, s string) (Label, error) {
	switch {
	case strings.HasPrefix(s, prefix):
		return Parse(s)
	case strings.HasPrefix(s, ":"):
		return parse(pkg, s, s)
	default:
		return parse(pkg, ":"+s, s)
	}
}

// New builds a label from a package path and rule name.
func New(pkg, name string) (Label, error) {
	return parse(pkg, ":"+name, prefix+pkg+":"+name)
}

func parse(pkg, rest, orig string) (Label, error) {
	if orig == "" || rest == "" {
		return "", errors.New(errors.ErrCodeInvalidLabel, "label cannot be empty")
	}
	for _, r := range orig {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", errors.New(errors.ErrCodeInvalidLabel, "label contains whitespace: %q", orig)
		}
	}

	path, name := pkg, ""
	if i := strings.LastIndex(rest, ":"); i >= 0 {
		if i > 0 {
			path = rest[:i]
		}
		name = rest[i+1:]
	} else {
		path = rest
		name = rest[strings.LastIndex(rest, "/")+1:]
	}
	path = strings.Trim(path, "/")

	if name == "" {
		return "", errors.New(errors.ErrCodeInvalidLabel, "label has no name: %q", orig)
	}
	if strings.ContainsAny(name, "/:") {
		return "", errors.New(errors.ErrCodeInvalidLabel, "invalid rule name in %q", orig)
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == ".." || seg == "." {
			return "", errors.New(errors.ErrCodeInvalidLabel, "label path cannot contain %q: %q", seg, orig)
		}
	}
	if strings.Contains(path, ":") {
		return "", errors.New(errors.ErrCodeInvalidLabel, "label has more than one ':': %q", orig)
	}
	return Label(prefix + path + ":" + name), nil
}

// String returns the canonical form.
func (l Label) String() string { return string(l) }

// Package returns the workspace-relative package path (may be empty for the root package).
func (l Label) Package() string {
	s := strings.TrimPrefix(string(l), prefix)
	if i := strings.LastIndex(s, ":"); i >= 0 {
		return s[:i]
	}
	return s
}

// Name returns the rule name within its package.
func (l Label) Name() string {
	s := string(l)
	if i := strings.LastIndex(s, ":"); i >= 0 {
		return s[i+1:]
	}
	return s[strings.LastIndex(s, "/")+1:]
}

// IsZero reports whether l is the empty label.
func (l Label) IsZero() bool { return l == "" }

// Compare orders labels lexicographically by package, then by name.
func Compare(a, b Label) int {
	if c := strings.Compare(a.Package(), b.Package()); c != 0 {
		return c
	}
	return strings.Compare(a.Name(), b.Name())
}

// Sort sorts labels in place using Compare.
func Sort(ls []Label) {
	slices.SortFunc(ls, Compare)
}

// Strings converts labels to their string forms, preserving order.
func Strings(ls []Label) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.String()
	}
	return out
}
