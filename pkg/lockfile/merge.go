package lockfile

// Dedupe collapses entries that share a unique key. Each surviving entry
// keeps the position of its first occurrence; the stored value is the last
// one seen, which is equivalent since equal keys carry equal pairs.
// Dedupe is idempotent.
func Dedupe(list []Dependency) []Dependency {
	index := make(map[string]int, len(list))
	out := make([]Dependency, 0, len(list))
	for _, d := range list {
		key := d.UniqueKey
		if key == "" {
			key = d.Name + d.Version
		}
		if i, ok := index[key]; ok {
			out[i] = d
			continue
		}
		index[key] = len(out)
		out = append(out, d)
	}
	return out
}

// MergeVersions groups list by name. Versions are appended in list order
// without further filtering: inputs coming from the parsers are already
// unique per name and version.
func MergeVersions(list []Dependency) VersionMap {
	m := make(VersionMap)
	for _, d := range list {
		m[d.Name] = append(m[d.Name], d.Version)
	}
	return m
}
