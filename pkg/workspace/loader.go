package workspace

import (
	"context"
	"io/fs"
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/zap/pkg/archive"
	"github.com/matzehuels/zap/pkg/errors"
	"github.com/matzehuels/zap/pkg/label"
	"github.com/matzehuels/zap/pkg/rule"
	"github.com/matzehuels/zap/pkg/toolchain"
)

// fileRoot decodes every top-level block a BUILD.hcl may contain.
type fileRoot struct {
	Libraries  []*libraryBlock   `hcl:"library,block"`
	Binaries   []*binaryBlock    `hcl:"binary,block"`
	Toolchains []*toolchainBlock `hcl:"toolchain,block"`
	Archives   []*archiveBlock   `hcl:"archive,block"`
	Remain     hcl.Body          `hcl:",remain"`
}

type libraryBlock struct {
	Name      string   `hcl:"name,label"`
	Sources   []string `hcl:"sources,optional"`
	Headers   []string `hcl:"headers,optional"`
	Deps      []string `hcl:"deps,optional"`
	Toolchain string   `hcl:"toolchain,optional"`
}

type binaryBlock struct {
	Name      string   `hcl:"name,label"`
	Sources   []string `hcl:"sources,optional"`
	Headers   []string `hcl:"headers,optional"`
	Deps      []string `hcl:"deps,optional"`
	Toolchain string   `hcl:"toolchain,optional"`
	Main      string   `hcl:"main,optional"`
	Args      []string `hcl:"args,optional"`
}

type toolchainBlock struct {
	Name        string        `hcl:"name,label"`
	Compiler    string        `hcl:"compiler"`
	Runtime     string        `hcl:"runtime,optional"`
	ObjectExt   string        `hcl:"object_ext,optional"`
	Args        []string      `hcl:"args,optional"`
	OutputFlag  string        `hcl:"output_flag,optional"`
	IncludeFlag string        `hcl:"include_flag,optional"`
	PathFlag    string        `hcl:"path_flag,optional"`
	Archive     *archiveAttrs `hcl:"archive,block"`
}

type archiveBlock struct {
	Name   string `hcl:"name,label"`
	URL    string `hcl:"url"`
	SHA1   string `hcl:"sha1"`
	Prefix string `hcl:"prefix,optional"`
}

type archiveAttrs struct {
	URL    string `hcl:"url"`
	SHA1   string `hcl:"sha1"`
	Prefix string `hcl:"prefix,optional"`
}

// Loaded is the result of evaluating every rule script in a workspace.
type Loaded struct {
	Rules      []rule.Rule
	Archives   []archive.Archive
	Toolchains []rule.Toolchain
	Files      []string // workspace-relative BUILD.hcl paths, sorted
}

// decl is what one BUILD.hcl contributes.
type decl struct {
	file       string
	rules      []rule.Rule
	archives   []archive.Archive
	toolchains []rule.Toolchain
}

// Load opens the workspace containing root, evaluates its rule scripts and
// registers the declared archives and toolchains into mgr.
func Load(ctx context.Context, root string, mgr *toolchain.Manager) (*Workspace, *Loaded, error) {
	w, err := Open(root)
	if err != nil {
		return nil, nil, err
	}
	loaded, err := w.Load(ctx, mgr, nil)
	if err != nil {
		return nil, nil, err
	}
	return w, loaded, nil
}

// Load evaluates every BUILD.hcl under the workspace. Files are parsed
// concurrently; registration into mgr happens afterwards in file order,
// archives before toolchains. A nil mgr skips registration.
func (w *Workspace) Load(ctx context.Context, mgr *toolchain.Manager, logger *log.Logger) (*Loaded, error) {
	if logger == nil {
		logger = log.Default()
	}

	files, err := w.discover()
	if err != nil {
		return nil, err
	}
	logger.Debug("discovered build files", "count", len(files))

	decls := make([]decl, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, err := w.loadFile(rel)
			if err != nil {
				return err
			}
			decls[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	loaded, err := merge(decls)
	if err != nil {
		return nil, err
	}
	loaded.Files = files

	if mgr != nil {
		for _, a := range loaded.Archives {
			mgr.RegisterArchive(a.WithCacheRoot(w.ToolchainDir()))
		}
		for _, tc := range loaded.Toolchains {
			mgr.RegisterToolchain(tc, w.ToolchainDir())
		}
	}

	logger.Debug("workspace loaded",
		"files", len(files),
		"rules", len(loaded.Rules),
		"archives", len(loaded.Archives),
		"toolchains", len(loaded.Toolchains))
	return loaded, nil
}

// discover returns workspace-relative BUILD.hcl paths, skipping hidden
// directories and the output directory.
func (w *Workspace) discover() ([]string, error) {
	out := w.OutputDir()
	var files []string
	err := filepath.WalkDir(w.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != w.Root && (strings.HasPrefix(d.Name(), ".") || p == out) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == BuildFile {
			rel, err := filepath.Rel(w.Root, p)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "scan workspace %s", w.Root)
	}
	slices.Sort(files)
	return files, nil
}

// loadFile parses and decodes one BUILD.hcl. hclparse.Parser is not safe for
// concurrent use, so each file gets its own.
func (w *Workspace) loadFile(rel string) (decl, error) {
	pkg := path.Dir(rel)
	if pkg == "." {
		pkg = ""
	}
	abs := filepath.Join(w.Root, filepath.FromSlash(rel))

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(abs)
	if diags.HasErrors() {
		return decl{}, errors.Wrap(errors.ErrCodeInvalidConfig, diags, "failed to parse %s", rel)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, w.evalContext(pkg), &root)
	if diags.HasErrors() {
		return decl{}, errors.Wrap(errors.ErrCodeInvalidConfig, diags, "failed to decode %s", rel)
	}

	t := translator{pkg: pkg, file: rel}
	return t.translate(&root)
}

func (w *Workspace) evalContext(pkg string) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"package":   cty.StringVal(pkg),
			"workspace": cty.StringVal(w.Name()),
		},
		Functions: functions(filepath.Join(w.Root, filepath.FromSlash(pkg))),
	}
}

// merge concatenates per-file declarations in file order and rejects
// duplicate labels. Archives live in their own namespace since an archive
// shares its label with the toolchain it backs.
func merge(decls []decl) (*Loaded, error) {
	loaded := &Loaded{}
	ruleFiles := make(map[label.Label]string)
	archiveFiles := make(map[label.Label]string)

	for _, d := range decls {
		for _, r := range d.rules {
			if prev, ok := ruleFiles[r.Name()]; ok {
				return nil, errors.New(errors.ErrCodeDuplicate, "rule %s declared in %s and %s", r.Name(), prev, d.file)
			}
			ruleFiles[r.Name()] = d.file
			loaded.Rules = append(loaded.Rules, r)
		}
		for _, a := range d.archives {
			if prev, ok := archiveFiles[a.Name()]; ok {
				return nil, errors.New(errors.ErrCodeDuplicate, "archive %s declared in %s and %s", a.Name(), prev, d.file)
			}
			archiveFiles[a.Name()] = d.file
			loaded.Archives = append(loaded.Archives, a)
		}
		loaded.Toolchains = append(loaded.Toolchains, d.toolchains...)
	}
	return loaded, nil
}
