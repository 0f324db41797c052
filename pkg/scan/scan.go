package scan

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lockscan/pkg/discover"
	"github.com/matzehuels/lockscan/pkg/errors"
	"github.com/matzehuels/lockscan/pkg/lockfile"
	"github.com/matzehuels/lockscan/pkg/manifest"
	"github.com/matzehuels/lockscan/pkg/observability"
)

// Options configures a scan.
type Options struct {
	Logger   *log.Logger             // Destination for skip/warning messages (default: discard)
	Hooks    observability.ScanHooks // Event sink (default: no-op)
	Discover discover.Options        // Formats and exclude patterns for discovery

	// Lockfiles finds lockfiles below a root (default: discover.Lockfiles).
	Lockfiles func(root string, opts discover.Options) ([]string, error)
	// ReadManifest loads a package.json (default: manifest.Load).
	ReadManifest func(path string) (manifest.Manifest, error)
}

// WithDefaults returns a copy of Options with nil collaborators replaced.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	opts.Hooks = observability.OrNoop(opts.Hooks)
	if opts.Lockfiles == nil {
		opts.Lockfiles = discover.Lockfiles
	}
	if opts.ReadManifest == nil {
		opts.ReadManifest = manifest.Load
	}
	return opts
}

// LockResult is the inventory of a single lockfile.
type LockResult struct {
	Format       lockfile.Format       `json:"format"`
	Dependencies []lockfile.Dependency `json:"dependencyList"`
	Versions     lockfile.VersionMap   `json:"dependencyMap"`
}

// ProjectResult is the inventory of one lockfile correlated with the
// package.json next to it.
type ProjectResult struct {
	ProjectName        string                `json:"projectName"`
	ProjectRoot        string                `json:"projectRootPath"`
	ManifestPath       string                `json:"packageManifestPath"`
	LockfilePath       string                `json:"lockFilePath"`
	Format             lockfile.Format       `json:"format"`
	DependencyNames    []string              `json:"directDependencyNames"`
	DevDependencyNames []string              `json:"directDevDependencyNames"`
	FirstLevel         FirstLevel            `json:"firstLevelDependencyMap"`
	Dependencies       []lockfile.Dependency `json:"dependencyList"`
	Versions           lockfile.VersionMap   `json:"dependencyMap"`
}

// ResultSet holds one ProjectResult per successfully parsed lockfile, in
// discovery order.
type ResultSet []ProjectResult

// ParseSingleLockFile reads and parses one lockfile. Files whose name is not
// a known lockfile name yield an empty result. Read failures, malformed
// content and parser panics are returned as errors.
func ParseSingleLockFile(path string, opts Options) (*LockResult, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}
	opts.WithDefaults().Logger.Debug("parsing lockfile", "path", path, "bytes", len(data))
	return Parse(lockfile.Detect(path), data)
}

// Parse decodes lockfile content of the given format and aggregates it.
// Unknown formats yield an empty result.
func Parse(format lockfile.Format, data []byte) (*LockResult, error) {
	parser, ok := lockfile.ParserFor(format)
	if !ok {
		return &LockResult{
			Format:       format,
			Dependencies: []lockfile.Dependency{},
			Versions:     lockfile.VersionMap{},
		}, nil
	}
	return ParseWith(parser, data)
}

// ParseWith runs parser over data and aggregates the result. A panic inside
// the parser is returned as an INTERNAL_ERROR.
func ParseWith(parser lockfile.Parser, data []byte) (res *LockResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, errors.New(errors.ErrCodeInternal, "%s parser panicked: %v", parser.Format(), r)
		}
	}()

	list, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	return &LockResult{
		Format:       parser.Format(),
		Dependencies: list,
		Versions:     lockfile.MergeVersions(list),
	}, nil
}

// ParseLockFiles scans root (the working directory when empty) and returns
// one result per parseable lockfile. The error is non-nil only when
// discovery itself fails; finding no lockfiles yields an empty set.
func ParseLockFiles(root string, opts Options) (ResultSet, error) {
	opts = opts.WithDefaults()
	ctx := context.Background()
	start := time.Now()

	root, err := absRoot(root)
	if err != nil {
		return nil, err
	}

	paths, err := opts.Lockfiles(root, opts.Discover)
	if err != nil {
		return nil, err
	}

	opts.Hooks.OnScanStart(ctx, root, len(paths))
	if len(paths) == 0 {
		opts.Logger.WithPrefix("discover").Info("no lockfiles found", "root", root)
	}

	skipLog := opts.Logger.WithPrefix("lockfile")
	results := make(ResultSet, 0, len(paths))
	for _, path := range paths {
		parseStart := time.Now()
		res, err := parseProject(path, opts)
		if err != nil {
			skipLog.Error("skipping lockfile", "path", path, "err", errors.UserMessage(err))
			opts.Hooks.OnLockfileSkipped(ctx, path, err)
			continue
		}
		opts.Hooks.OnLockfileParsed(ctx, path, len(res.Dependencies), time.Since(parseStart))
		results = append(results, *res)
	}

	opts.Hooks.OnScanComplete(ctx, root, len(results), time.Since(start))
	return results, nil
}

func parseProject(path string, opts Options) (*ProjectResult, error) {
	manifestPath := manifest.PathFor(path)
	m, err := opts.ReadManifest(manifestPath)
	if err != nil {
		l := opts.Logger.WithPrefix("manifest")
		if errors.Is(err, errors.ErrCodeFileNotFound) {
			l.Debug("no manifest", "path", manifestPath)
		} else {
			l.Warn("ignoring manifest", "path", manifestPath, "err", errors.UserMessage(err))
		}
		m = manifest.Empty()
	}

	lock, err := ParseSingleLockFile(path, opts)
	if err != nil {
		return nil, err
	}

	return &ProjectResult{
		ProjectName:        m.Name,
		ProjectRoot:        filepath.Dir(path),
		ManifestPath:       manifestPath,
		LockfilePath:       path,
		Format:             lock.Format,
		DependencyNames:    nonNil(m.Dependencies),
		DevDependencyNames: nonNil(m.DevDependencies),
		FirstLevel:         Correlate(lock.Versions, m.Names()),
		Dependencies:       lock.Dependencies,
		Versions:           lock.Versions,
	}, nil
}

func absRoot(root string) (string, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "working directory")
		}
		return wd, nil
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", root)
	}
	return abs, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
