// Package manifest reads the first-level dependency declarations of a
// package.json file.
//
// Only dependency names are extracted; version ranges are ignored because
// resolved versions come from the lockfile next to the manifest.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/matzehuels/lockscan/pkg/errors"
)

// FileName is the manifest file expected next to every lockfile.
const FileName = "package.json"

// Manifest holds the declared dependencies of one project.
type Manifest struct {
	Name            string   `json:"name"`
	Dependencies    []string `json:"dependencies"`
	DevDependencies []string `json:"devDependencies"`
}

// Empty returns a manifest with every field set to its empty value.
func Empty() Manifest {
	return Manifest{Dependencies: []string{}, DevDependencies: []string{}}
}

// Names returns the runtime and dev dependency names, runtime first,
// without duplicates.
func (m Manifest) Names() []string {
	seen := make(map[string]bool, len(m.Dependencies)+len(m.DevDependencies))
	names := make([]string, 0, len(m.Dependencies)+len(m.DevDependencies))
	for _, list := range [][]string{m.Dependencies, m.DevDependencies} {
		for _, name := range list {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// PathFor returns the manifest path that belongs to a lockfile.
func PathFor(lockfilePath string) string {
	return filepath.Join(filepath.Dir(lockfilePath), FileName)
}

// Load reads and decodes the manifest at path. A missing file yields an
// error with code FILE_NOT_FOUND; undecodable content yields
// INVALID_MANIFEST.
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Empty(), errors.Wrap(errors.ErrCodeFileNotFound, err, "no %s", FileName)
	}
	if err != nil {
		return Empty(), errors.Wrap(errors.ErrCodeInvalidManifest, err, "read %s", path)
	}
	return Parse(data)
}

// Parse decodes package.json content. Dependency names keep their
// declaration order.
func Parse(data []byte) (Manifest, error) {
	var pkg packageFile
	if err := json.Unmarshal(data, &pkg); err != nil {
		return Empty(), errors.Wrap(errors.ErrCodeInvalidManifest, err, "decode %s", FileName)
	}
	return Manifest{
		Name:            pkg.Name,
		Dependencies:    keys(pkg.Dependencies),
		DevDependencies: keys(pkg.DevDependencies),
	}, nil
}

// declarations maps dependency names to their ranges in document order.
type declarations = orderedmap.OrderedMap[string, json.RawMessage]

type packageFile struct {
	Name            string        `json:"name"`
	Version         string        `json:"version"`
	Dependencies    *declarations `json:"dependencies"`
	DevDependencies *declarations `json:"devDependencies"`
}

// keys returns the names of d in declaration order; a missing or null
// section yields an empty slice.
func keys(d *declarations) []string {
	if d == nil {
		return []string{}
	}
	names := make([]string, 0, d.Len())
	for pair := d.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}
