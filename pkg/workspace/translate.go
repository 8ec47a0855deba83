package workspace

import (
	"path"

	"github.com/matzehuels/zap/pkg/archive"
	"github.com/matzehuels/zap/pkg/errors"
	"github.com/matzehuels/zap/pkg/label"
	"github.com/matzehuels/zap/pkg/rule"
)

// translator turns decoded blocks of one file into rules, resolving labels
// and paths against the file's package.
type translator struct {
	pkg  string
	file string
}

func (t translator) translate(root *fileRoot) (decl, error) {
	d := decl{file: t.file}

	for _, b := range root.Libraries {
		name, err := t.name(b.Name)
		if err != nil {
			return decl{}, err
		}
		common, err := t.common(name, b.Sources, b.Headers, b.Deps, b.Toolchain)
		if err != nil {
			return decl{}, err
		}
		d.rules = append(d.rules, rule.NewLibrary(name).
			WithSources(common.sources).
			WithHeaders(common.headers).
			WithDependencies(common.deps).
			WithToolchain(common.toolchain))
	}

	for _, b := range root.Binaries {
		name, err := t.name(b.Name)
		if err != nil {
			return decl{}, err
		}
		common, err := t.common(name, b.Sources, b.Headers, b.Deps, b.Toolchain)
		if err != nil {
			return decl{}, err
		}
		d.rules = append(d.rules, rule.NewBinary(name).
			WithSources(common.sources).
			WithHeaders(common.headers).
			WithDependencies(common.deps).
			WithToolchain(common.toolchain).
			WithMain(b.Main).
			WithArgs(b.Args))
	}

	for _, b := range root.Toolchains {
		name, err := t.name(b.Name)
		if err != nil {
			return decl{}, err
		}
		tc := rule.NewToolchain(name).
			WithCompiler(b.Compiler).
			WithRuntime(b.Runtime).
			WithObjectExt(b.ObjectExt).
			WithArgs(b.Args).
			WithFlags(b.OutputFlag, b.IncludeFlag, b.PathFlag)
		d.rules = append(d.rules, tc)
		d.toolchains = append(d.toolchains, tc)

		if b.Archive != nil {
			a, err := t.archive(name, b.Archive.URL, b.Archive.SHA1, b.Archive.Prefix)
			if err != nil {
				return decl{}, err
			}
			d.archives = append(d.archives, a)
		}
	}

	for _, b := range root.Archives {
		name, err := t.name(b.Name)
		if err != nil {
			return decl{}, err
		}
		a, err := t.archive(name, b.URL, b.SHA1, b.Prefix)
		if err != nil {
			return decl{}, err
		}
		d.archives = append(d.archives, a)
	}

	return d, nil
}

type commonAttrs struct {
	sources   []string
	headers   []string
	deps      []label.Label
	toolchain label.Label
}

func (t translator) common(name label.Label, sources, headers, deps []string, tc string) (commonAttrs, error) {
	var c commonAttrs
	var err error
	if c.sources, err = t.paths(name, sources); err != nil {
		return c, err
	}
	if c.headers, err = t.paths(name, headers); err != nil {
		return c, err
	}
	for _, s := range deps {
		dep, err := label.Resolve(t.pkg, s)
		if err != nil {
			return c, errors.Wrap(errors.ErrCodeInvalidLabel, err, "%s: dependency of %s", t.file, name)
		}
		c.deps = append(c.deps, dep)
	}
	if tc != "" {
		if c.toolchain, err = label.Resolve(t.pkg, tc); err != nil {
			return c, errors.Wrap(errors.ErrCodeInvalidLabel, err, "%s: toolchain of %s", t.file, name)
		}
	}
	return c, nil
}

func (t translator) name(s string) (label.Label, error) {
	l, err := label.New(t.pkg, s)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidLabel, err, "%s", t.file)
	}
	return l, nil
}

// paths makes package-relative paths workspace-relative.
func (t translator) paths(owner label.Label, in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, p := range in {
		if err := errors.ValidatePath(p); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "%s: %s", t.file, owner)
		}
		out = append(out, path.Join(t.pkg, p))
	}
	return out, nil
}

func (t translator) archive(name label.Label, url, sha1, prefix string) (archive.Archive, error) {
	a := archive.New(name).WithURL(url).WithSHA1(sha1).WithPrefix(prefix)
	if err := a.Validate(); err != nil {
		return archive.Archive{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", t.file)
	}
	return a, nil
}
