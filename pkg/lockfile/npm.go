package lockfile

import (
	"encoding/json"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/matzehuels/lockscan/pkg/errors"
)

// installDir prefixes every installed package path in the packages map.
const installDir = "node_modules/"

// NpmLock parses package-lock.json files.
//
// Lockfile versions 2 and 3 are read from the "packages" map, keyed by
// install path. Only paths rooted under node_modules/ are kept and the
// prefix is stripped, so nested installs such as
// "node_modules/a/node_modules/b" surface under the name
// "a/node_modules/b". Version 1 lockfiles, which have no "packages" map,
// are read from the top-level "dependencies" map instead.
type NpmLock struct{}

func (NpmLock) Format() Format            { return FormatNpm }
func (NpmLock) Supports(name string) bool { return name == string(FormatNpm) }

func (NpmLock) Parse(data []byte) ([]Dependency, error) {
	var lock npmLockFile
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedLockfile, err, "decode %s", FormatNpm)
	}

	switch {
	case lock.Packages != nil:
		return packagesList(lock.Packages)
	case lock.Dependencies != nil:
		return dependenciesList(lock.Dependencies)
	default:
		return nil, errors.Malformed("%s has neither packages nor dependencies", FormatNpm)
	}
}

// entries keeps the document order of a JSON object.
type entries = orderedmap.OrderedMap[string, json.RawMessage]

type npmLockFile struct {
	Packages     *entries `json:"packages"`
	Dependencies *entries `json:"dependencies"`
}

type npmPackage struct {
	Version *string `json:"version"`
	Link    bool    `json:"link"`
}

func packagesList(pkgs *entries) ([]Dependency, error) {
	list := make([]Dependency, 0, pkgs.Len())
	for pair := pkgs.Oldest(); pair != nil; pair = pair.Next() {
		// "" is the project itself; other keys outside node_modules are
		// workspace folders.
		if !strings.HasPrefix(pair.Key, installDir) {
			continue
		}
		entry, err := decodeNpmPackage(pair.Key, pair.Value)
		if err != nil {
			return nil, err
		}
		if entry.Link {
			continue
		}
		name := strings.TrimPrefix(pair.Key, installDir)
		dep, err := npmDependency(pair.Key, name, entry)
		if err != nil {
			return nil, err
		}
		list = append(list, dep)
	}
	return list, nil
}

func dependenciesList(deps *entries) ([]Dependency, error) {
	list := make([]Dependency, 0, deps.Len())
	for pair := deps.Oldest(); pair != nil; pair = pair.Next() {
		entry, err := decodeNpmPackage(pair.Key, pair.Value)
		if err != nil {
			return nil, err
		}
		dep, err := npmDependency(pair.Key, pair.Key, entry)
		if err != nil {
			return nil, err
		}
		list = append(list, dep)
	}
	return list, nil
}

func decodeNpmPackage(key string, raw json.RawMessage) (npmPackage, error) {
	var entry npmPackage
	if err := json.Unmarshal(raw, &entry); err != nil {
		return entry, errors.Wrap(errors.ErrCodeMalformedLockfile, err, "entry %q", key)
	}
	return entry, nil
}

func npmDependency(key, name string, entry npmPackage) (Dependency, error) {
	if err := errors.ValidateDependencyName(name); err != nil {
		return Dependency{}, errors.Wrap(errors.ErrCodeMalformedLockfile, err, "entry %q", key)
	}
	if entry.Version == nil {
		return Dependency{}, errors.Malformed("entry %q has no version", key)
	}
	return NewDependency(name, *entry.Version), nil
}
