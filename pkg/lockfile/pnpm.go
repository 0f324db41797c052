package lockfile

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/lockscan/pkg/errors"
)

// PnpmLock parses pnpm-lock.yaml files.
//
// Lockfiles before version 6 key packages as "/name/version", optionally
// followed by "_peerSuffix". Version 6 and later key them as
// "/name@version(peer...)" (v6) or "name@version(peer...)" (v9). Peer
// suffixes are discarded in both schemes so that one installed version maps
// to one entry.
type PnpmLock struct{}

func (PnpmLock) Format() Format            { return FormatPnpm }
func (PnpmLock) Supports(name string) bool { return name == string(FormatPnpm) }

func (PnpmLock) Parse(data []byte) ([]Dependency, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedLockfile, err, "decode %s", FormatPnpm)
	}
	root, err := documentMapping(&doc, FormatPnpm)
	if err != nil {
		return nil, err
	}

	packages := mappingValue(root, "packages")
	if packages == nil || packages.Tag == "!!null" {
		return []Dependency{}, nil
	}
	if packages.Kind != yaml.MappingNode {
		return nil, errors.Malformed("%s: packages is not a mapping", FormatPnpm)
	}

	split := splitLegacyKey
	if v := mappingValue(root, "lockfileVersion"); v != nil && lockfileMajor(v.Value) >= 6 {
		split = splitModernKey
	}

	seen := make(map[string]bool)
	list := make([]Dependency, 0, len(packages.Content)/2)
	for i := 0; i < len(packages.Content); i += 2 {
		name, version, ok := split(packages.Content[i].Value)
		if !ok {
			continue
		}
		dep := NewDependency(name, version)
		if seen[dep.UniqueKey] {
			continue
		}
		seen[dep.UniqueKey] = true
		list = append(list, dep)
	}
	return list, nil
}

// splitLegacyKey decodes "/name/version[_peer]". The name may itself
// contain '/', so the split happens at the last one.
func splitLegacyKey(key string) (name, version string, ok bool) {
	rest, found := strings.CutPrefix(key, "/")
	if !found {
		return "", "", false
	}
	rest, _, _ = strings.Cut(rest, "_")
	i := strings.LastIndex(rest, "/")
	if i <= 0 {
		return "", "", false
	}
	return rest[:i], rest[i+1:], true
}

// splitModernKey decodes "[/]name@version[(peer)...]".
func splitModernKey(key string) (name, version string, ok bool) {
	rest := strings.TrimPrefix(key, "/")
	rest, _, _ = strings.Cut(rest, "(")
	i := strings.LastIndex(rest, "@")
	if i <= 0 {
		return "", "", false
	}
	return rest[:i], rest[i+1:], true
}

// lockfileMajor extracts the major number of a lockfileVersion such as
// 5.4 or '6.0'. Unparseable versions count as 0.
func lockfileMajor(v string) int {
	major, _, _ := strings.Cut(strings.TrimSpace(v), ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return 0
	}
	return n
}

// mappingValue returns the value node stored under key, or nil.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}
