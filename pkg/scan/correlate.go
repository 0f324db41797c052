package scan

import (
	"bytes"
	"encoding/json"

	"github.com/matzehuels/lockscan/pkg/lockfile"
)

// DirectDependency is a manifest-declared package with every version the
// lockfile holds for it.
type DirectDependency struct {
	Name     string
	Versions []string
}

// FirstLevel is the part of a VersionMap restricted to manifest-declared
// names. It keeps the declaration order of the manifest and encodes as a
// JSON object in that order.
type FirstLevel []DirectDependency

// Correlate intersects m with the given name lists. Entries follow the
// order of the lists; names repeated across lists appear once, and names
// absent from m are omitted.
func Correlate(m lockfile.VersionMap, names ...[]string) FirstLevel {
	seen := make(map[string]bool)
	out := FirstLevel{}
	for _, list := range names {
		for _, name := range list {
			if seen[name] {
				continue
			}
			seen[name] = true
			if versions, ok := m[name]; ok {
				out = append(out, DirectDependency{Name: name, Versions: versions})
			}
		}
	}
	return out
}

// Names returns the dependency names in order.
func (f FirstLevel) Names() []string {
	names := make([]string, len(f))
	for i, d := range f {
		names[i] = d.Name
	}
	return names
}

// Get returns the versions recorded for name.
func (f FirstLevel) Get(name string) ([]string, bool) {
	for _, d := range f {
		if d.Name == name {
			return d.Versions, true
		}
	}
	return nil, false
}

// Map converts f to an unordered VersionMap.
func (f FirstLevel) Map() lockfile.VersionMap {
	m := make(lockfile.VersionMap, len(f))
	for _, d := range f {
		m[d.Name] = d.Versions
	}
	return m
}

// MarshalJSON encodes f as an object whose keys keep f's order.
func (f FirstLevel) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(d.Name)
		if err != nil {
			return nil, err
		}
		versions := d.Versions
		if versions == nil {
			versions = []string{}
		}
		value, err := json.Marshal(versions)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
