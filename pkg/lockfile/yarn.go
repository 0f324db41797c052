package lockfile

import (
	"bufio"
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/lockscan/pkg/errors"
)

// YarnLock parses yarn.lock files.
//
// Classic (v1) lockfiles use Yarn's own block syntax and are decoded by a
// line-oriented parser. Berry (v2+) lockfiles carry a __metadata entry and
// are plain YAML. In both, every "name@range" descriptor of a block header
// becomes one entry; entries resolving to the same name and version are
// collapsed.
type YarnLock struct{}

func (YarnLock) Format() Format            { return FormatYarn }
func (YarnLock) Supports(name string) bool { return name == string(FormatYarn) }

func (YarnLock) Parse(data []byte) ([]Dependency, error) {
	decode := decodeYarnClassic
	if isBerry(data) {
		decode = decodeYarnBerry
	}
	entries, err := decode(data)
	if err != nil {
		return nil, err
	}

	list := make([]Dependency, 0, len(entries))
	for _, e := range entries {
		name := descriptorName(e.Descriptor)
		if name == "" {
			continue
		}
		list = append(list, NewDependency(name, e.Version))
	}
	return Dedupe(list), nil
}

// yarnEntry is one descriptor of a lockfile block with the resolution
// shared by all descriptors of that block.
type yarnEntry struct {
	Descriptor string
	Version    string
	Resolved   string
	Integrity  string
}

// descriptorName returns everything before the last '@' of a
// "name@range" descriptor. Scoped names start with '@', so the first '@'
// can never be the split point. Descriptors without a usable '@' yield "".
func descriptorName(descriptor string) string {
	i := strings.LastIndex(descriptor, "@")
	if i <= 0 {
		return ""
	}
	return descriptor[:i]
}

func isBerry(data []byte) bool {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "__metadata:") || strings.HasPrefix(line, `"__metadata":`) {
			return true
		}
	}
	return false
}

type berryEntry struct {
	Version    string `yaml:"version"`
	Resolution string `yaml:"resolution"`
	Checksum   string `yaml:"checksum"`
}

func decodeYarnBerry(data []byte) ([]yarnEntry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedLockfile, err, "decode %s", FormatYarn)
	}
	root, err := documentMapping(&doc, FormatYarn)
	if err != nil {
		return nil, err
	}

	var entries []yarnEntry
	for i := 0; i+1 < len(root.Content); i += 2 {
		header := root.Content[i].Value
		if header == "__metadata" {
			continue
		}
		var be berryEntry
		if err := root.Content[i+1].Decode(&be); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedLockfile, err, "entry %q", header)
		}
		if be.Version == "" {
			return nil, errors.Malformed("entry %q has no version", header)
		}
		descriptors, err := splitHeader(header)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedLockfile, err, "entry %q", header)
		}
		for _, d := range descriptors {
			entries = append(entries, yarnEntry{
				Descriptor: d,
				Version:    be.Version,
				Resolved:   be.Resolution,
				Integrity:  be.Checksum,
			})
		}
	}
	return entries, nil
}

// documentMapping returns the top-level mapping of a decoded YAML document.
func documentMapping(doc *yaml.Node, f Format) (*yaml.Node, error) {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.Malformed("%s is empty", f)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.Malformed("%s: top level is not a mapping", f)
	}
	return root, nil
}
