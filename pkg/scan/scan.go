package scan

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/drips-network/gardener/pkg/diag"
	"github.com/drips-network/gardener/pkg/errors"
)

// File is one scanned file.
type File struct {
	Path     string // repository-relative, slash-separated, symlinks resolved
	Abs      string // absolute location on disk
	Language string // empty for manifests that are not source files
	Size     int64
}

// Result is the outcome of a scan. Files and Manifests are sorted by Path.
type Result struct {
	Root       string
	Files      []File
	Manifests  []File
	Submodules map[string]string // submodule path -> declared URL
	Truncated  bool              // MaxFiles was reached
}

// Options controls a scan.
type Options struct {
	// Languages maps a file extension including the dot to a language tag.
	Languages map[string]string

	// ManifestPatterns are path.Match patterns applied to base names.
	ManifestPatterns []string

	// IgnoreDirs are directory base names that are never entered.
	IgnoreDirs []string

	MaxFiles      int
	MaxFileSize   int64 // <= 0 disables the check
	MaxPathLength int
	MaxDepth      int // <= 0 disables the check

	Logger *log.Logger
	Diags  *diag.Collector
}

type walker struct {
	ctx      context.Context
	opts     Options
	root     string // resolved root
	ignored  map[string]bool
	rules    ignoreStack
	seen     map[string]bool
	count    int
	limitHit bool
	result   *Result
}

// Scan walks root and returns the source files and manifests under it.
func Scan(ctx context.Context, root string, opts Options) (*Result, error) {
	if opts.MaxFiles <= 0 {
		return nil, errors.New(errors.ErrCodeResourceLimit, "max_files must be positive, got %d", opts.MaxFiles)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stderr)
	}

	resolved, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}

	w := &walker{
		ctx:     ctx,
		opts:    opts,
		root:    resolved,
		ignored: make(map[string]bool, len(opts.IgnoreDirs)+1),
		seen:    make(map[string]bool),
		result:  &Result{Root: resolved, Submodules: map[string]string{}},
	}
	w.ignored[".git"] = true
	for _, d := range opts.IgnoreDirs {
		w.ignored[d] = true
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRootUnreadable, err, "cannot read root %s", root)
	}
	if err := w.dir(resolved, "", entries, 0, map[string]bool{resolved: true}); err != nil {
		return nil, err
	}

	if subs, err := ParseGitmodules(filepath.Join(resolved, ".gitmodules")); err != nil {
		opts.Diags.Addf(diag.InvalidManifest, ".gitmodules", "%v", err)
	} else {
		w.result.Submodules = subs
	}

	byPath := func(a, b File) int { return strings.Compare(a.Path, b.Path) }
	slices.SortFunc(w.result.Files, byPath)
	slices.SortFunc(w.result.Manifests, byPath)
	w.result.Truncated = w.limitHit
	return w.result, nil
}

func resolveRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeRootNotFound, err, "invalid root %s", root)
	}
	info, err := os.Stat(abs)
	switch {
	case os.IsNotExist(err):
		return "", errors.New(errors.ErrCodeRootNotFound, "root %s does not exist", root)
	case err != nil:
		return "", errors.Wrap(errors.ErrCodeRootUnreadable, err, "cannot stat root %s", root)
	case !info.IsDir():
		return "", errors.New(errors.ErrCodeRootNotFound, "root %s is not a directory", root)
	}
	dir, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeRootUnreadable, err, "cannot resolve root %s", root)
	}
	return dir, nil
}

// dir processes the entries of one directory. abs is the resolved directory,
// rel its repository-relative path as reached by the walk, and chain holds
// the resolved directories from the root down to abs.
func (w *walker) dir(abs, rel string, entries []fs.DirEntry, depth int, chain map[string]bool) error {
	if err := w.ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeCancelled, err, "scan cancelled")
	}

	pushed := w.rules.push(abs, rel)
	if pushed {
		defer w.rules.pop()
	}

	for _, e := range entries {
		if w.limitHit {
			return nil
		}
		name := e.Name()
		childRel := path.Join(rel, name)
		childAbs := filepath.Join(abs, name)

		if err := errors.ValidateRelPath(childRel, w.opts.MaxPathLength); err != nil {
			w.opts.Diags.Addf(diag.PathRejected, childRel, "%s", errors.UserMessage(err))
			continue
		}

		mode := e.Type()
		isDir := e.IsDir()
		target := childAbs
		if mode&fs.ModeSymlink != 0 {
			resolved, info, ok := w.followLink(childAbs, childRel)
			if !ok {
				continue
			}
			target = resolved
			isDir = info.IsDir()
		}

		if isDir {
			if w.ignored[name] || w.rules.match(childRel, true) {
				continue
			}
			if chain[target] {
				w.opts.Diags.Addf(diag.SymlinkSkipped, childRel, "link cycle back to %s", w.relOf(target))
				continue
			}
			if err := w.subdir(target, childRel, depth+1, chain); err != nil {
				return err
			}
			continue
		}

		if !mode.IsRegular() && mode&fs.ModeSymlink == 0 {
			continue
		}
		if w.rules.match(childRel, false) {
			continue
		}
		w.file(target, childRel)
	}
	return nil
}

func (w *walker) subdir(abs, rel string, depth int, chain map[string]bool) error {
	if w.opts.MaxDepth > 0 && depth > w.opts.MaxDepth {
		w.opts.Diags.Addf(diag.ResourceLimit, rel, "directory depth exceeds %d", w.opts.MaxDepth)
		return nil
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		w.opts.Diags.Addf(diag.SkippedFile, rel, "unreadable directory: %v", err)
		return nil
	}
	chain[abs] = true
	defer delete(chain, abs)
	return w.dir(abs, rel, entries, depth, chain)
}

// followLink resolves a symbolic link and checks that it stays under the
// root.
func (w *walker) followLink(abs, rel string) (string, fs.FileInfo, bool) {
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		w.opts.Diags.Addf(diag.SymlinkSkipped, rel, "unresolvable link: %v", err)
		return "", nil, false
	}
	if !w.within(resolved) {
		w.opts.Diags.Addf(diag.PathRejected, rel, "link target escapes the repository root")
		return "", nil, false
	}
	info, err := os.Stat(resolved)
	if err != nil {
		w.opts.Diags.Addf(diag.SymlinkSkipped, rel, "unreadable link target: %v", err)
		return "", nil, false
	}
	return resolved, info, true
}

func (w *walker) within(p string) bool {
	r, err := filepath.Rel(w.root, p)
	if err != nil {
		return false
	}
	return r == "." || (r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator)))
}

func (w *walker) relOf(p string) string {
	r, err := filepath.Rel(w.root, p)
	if err != nil || r == "." {
		return "."
	}
	return filepath.ToSlash(r)
}

func (w *walker) file(abs, rel string) {
	name := path.Base(rel)
	manifest := w.isManifest(name)
	lang := w.opts.Languages[strings.ToLower(filepath.Ext(name))]
	if !manifest && lang == "" {
		return
	}

	canonical := w.relOf(abs)
	if w.seen[canonical] {
		w.opts.Logger.Debug("duplicate path", "path", rel, "canonical", canonical)
		return
	}
	w.seen[canonical] = true

	info, err := os.Stat(abs)
	if err != nil {
		w.opts.Diags.Addf(diag.SkippedFile, canonical, "cannot stat: %v", err)
		return
	}
	if w.opts.MaxFileSize > 0 && info.Size() > w.opts.MaxFileSize {
		w.opts.Diags.Addf(diag.SkippedFile, canonical, "size %d exceeds limit %d", info.Size(), w.opts.MaxFileSize)
		return
	}
	f, err := os.Open(abs)
	if err != nil {
		w.opts.Diags.Addf(diag.SkippedFile, canonical, "unreadable: %v", err)
		return
	}
	f.Close()

	if w.count >= w.opts.MaxFiles {
		w.limitHit = true
		w.opts.Diags.Addf(diag.ResourceLimit, canonical, "max_files limit of %d reached, remaining files skipped", w.opts.MaxFiles)
		return
	}
	w.count++

	entry := File{Path: canonical, Abs: abs, Language: lang, Size: info.Size()}
	if manifest {
		w.result.Manifests = append(w.result.Manifests, entry)
	}
	if lang != "" {
		w.result.Files = append(w.result.Files, entry)
	}
}

func (w *walker) isManifest(name string) bool {
	for _, p := range w.opts.ManifestPatterns {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	return false
}
