// Package discover finds lockfiles below a root directory.
package discover

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/matzehuels/lockscan/pkg/errors"
	"github.com/matzehuels/lockscan/pkg/lockfile"
)

// installDir is never descended into: lockfiles inside it belong to
// installed packages, not to the projects being scanned.
const installDir = "node_modules"

// Options narrows discovery.
type Options struct {
	Formats []lockfile.Format // lockfile kinds to look for (default: all)
	Exclude []string          // extra doublestar patterns, relative to root
}

// Lockfiles returns the absolute paths of every lockfile below root whose
// path does not cross a node_modules directory. Results are sorted so that
// runs over the same tree are repeatable. An empty result is not an error.
func Lockfiles(root string, opts Options) ([]string, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "working directory")
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", root)
	}
	if err := errors.ValidateRoot(abs); err != nil {
		return nil, err
	}

	for _, p := range opts.Exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "invalid exclude pattern %q", p)
		}
	}

	rels, err := walk(os.DirFS(abs), Pattern(opts.Formats...), opts.Exclude)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "search %s", abs)
	}

	paths := make([]string, len(rels))
	for i, rel := range rels {
		paths[i] = filepath.Join(abs, filepath.FromSlash(rel))
	}
	sort.Strings(paths)
	return paths, nil
}

// walk returns the slash-separated paths of regular files in fsys that
// match pattern. node_modules directories and directories matching an
// exclude pattern are pruned without being read. Symlinks are not followed.
func walk(fsys fs.FS, pattern string, exclude []string) ([]string, error) {
	var matches []string
	err := fs.WalkDir(fsys, ".", func(rel string, d fs.DirEntry, err error) error {
		if err != nil {
			if rel == "." {
				return err
			}
			// Unreadable entries below the root are skipped.
			return nil
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if d.Name() == installDir || excluded(rel, exclude) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || excluded(rel, exclude) {
			return nil
		}
		if ok, _ := doublestar.Match(pattern, rel); ok {
			matches = append(matches, rel)
		}
		return nil
	})
	return matches, err
}

// Pattern builds the doublestar pattern matching the given lockfile kinds.
func Pattern(formats ...lockfile.Format) string {
	if len(formats) == 0 {
		formats = lockfile.Formats()
	}
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		if !slices.Contains(names, string(f)) {
			names = append(names, string(f))
		}
	}
	if len(names) == 1 {
		return "**/" + names[0]
	}
	return "**/{" + strings.Join(names, ",") + "}"
}

func excluded(rel string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
