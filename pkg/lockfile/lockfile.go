package lockfile

import (
	"path/filepath"
	"sort"
	"strings"
)

// Format identifies a lockfile kind by its file name.
type Format string

const (
	FormatUnknown Format = ""
	FormatNpm     Format = "package-lock.json"
	FormatYarn    Format = "yarn.lock"
	FormatPnpm    Format = "pnpm-lock.yaml"
)

// Formats returns every recognized lockfile kind.
func Formats() []Format {
	return []Format{FormatNpm, FormatYarn, FormatPnpm}
}

// Detect classifies path by its base name, asking each registered parser
// whether it handles that name. Names other than the three lockfile names
// yield FormatUnknown.
func Detect(path string) Format {
	base := filepath.Base(path)
	for _, f := range Formats() {
		if parsers[f].Supports(base) {
			return f
		}
	}
	return FormatUnknown
}

// managers maps package manager names to the lockfile they write.
var managers = map[string]Format{
	"npm":  FormatNpm,
	"yarn": FormatYarn,
	"pnpm": FormatPnpm,
}

// ParseFormat maps a lockfile name or a package manager name ("npm",
// "yarn", "pnpm") to its Format. ok is false for anything else.
func ParseFormat(name string) (f Format, ok bool) {
	if f, ok := managers[strings.ToLower(name)]; ok {
		return f, true
	}
	f = Detect(name)
	return f, f != FormatUnknown
}

// Dependency is one resolved package entry of a lockfile.
type Dependency struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	UniqueKey string `json:"uniqueKey"` // name + version, used for deduplication only
}

// NewDependency builds a Dependency with its unique key filled in.
func NewDependency(name, version string) Dependency {
	return Dependency{Name: name, Version: version, UniqueKey: name + version}
}

// VersionMap maps a package name to every version found for it.
type VersionMap map[string][]string

// Names returns the package names in lexical order.
func (m VersionMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parser decodes the raw content of one lockfile format.
type Parser interface {
	// Format returns the lockfile kind handled by this parser.
	Format() Format
	// Supports reports whether this parser handles the given file name.
	Supports(filename string) bool
	// Parse decodes data into a flat dependency list.
	Parse(data []byte) ([]Dependency, error)
}

var parsers = map[Format]Parser{
	FormatNpm:  NpmLock{},
	FormatYarn: YarnLock{},
	FormatPnpm: PnpmLock{},
}

// ParserFor returns the parser registered for f.
func ParserFor(f Format) (Parser, bool) {
	p, ok := parsers[f]
	return p, ok
}
