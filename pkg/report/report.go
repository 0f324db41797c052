// Package report encodes scan results for output.
//
// A [Report] wraps a [scan.ResultSet] with an identifier, the generation
// time and the scanned root. It is written either as indented JSON
// ([Report.WriteJSON]) or as a plain-text table ([Report.WriteText]).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"

	"github.com/matzehuels/lockscan/pkg/buildinfo"
	"github.com/matzehuels/lockscan/pkg/errors"
	"github.com/matzehuels/lockscan/pkg/lockfile"
	"github.com/matzehuels/lockscan/pkg/scan"
)

// Format selects the encoding used by [Write].
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat validates a report format name. The empty string selects JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatText:
		return FormatText, nil
	}
	return "", errors.New(errors.ErrCodeInvalidConfig, "unknown report format %q (want json or text)", s)
}

// Options controls report construction.
type Options struct {
	// FirstLevelOnly drops the full dependency list and map from every
	// project, keeping only manifest-declared packages.
	FirstLevelOnly bool

	// Now returns the generation time (default: time.Now).
	Now func() time.Time
}

// Project is one entry of a report.
type Project struct {
	scan.ProjectResult

	Dependencies []lockfile.Dependency `json:"dependencyList,omitempty"`
	Versions     lockfile.VersionMap   `json:"dependencyMap,omitempty"`
}

// Report is the serialized form of a scan.
type Report struct {
	ID          uuid.UUID `json:"id"`
	Generator   string    `json:"generator"`
	GeneratedAt time.Time `json:"generatedAt"`
	Root        string    `json:"root"`
	Projects    []Project `json:"projects"`
}

// New builds a report for results scanned below root.
func New(root string, results scan.ResultSet, opts Options) *Report {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	projects := make([]Project, len(results))
	for i, r := range results {
		p := Project{ProjectResult: r}
		if !opts.FirstLevelOnly {
			p.Dependencies = r.Dependencies
			p.Versions = r.Versions
		}
		projects[i] = p
	}

	return &Report{
		ID:          uuid.New(),
		Generator:   buildinfo.Generator(),
		GeneratedAt: now().UTC(),
		Root:        root,
		Projects:    projects,
	}
}

// Write encodes r to w in the given format.
func Write(r *Report, w io.Writer, f Format) error {
	switch f {
	case FormatText:
		return r.WriteText(w)
	case FormatJSON, "":
		return r.WriteJSON(w)
	}
	return errors.New(errors.ErrCodeInvalidConfig, "unknown report format %q", f)
}

// WriteJSON encodes r as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	return encodeJSON(w, r)
}

// WriteText writes a table with one row per project followed by a totals line.
func (r *Report) WriteText(w io.Writer) error {
	rows := make([][]string, 0, len(r.Projects))
	total := 0
	for _, p := range r.Projects {
		name := p.ProjectName
		if name == "" {
			name = "-"
		}
		total += len(p.ProjectResult.Dependencies)
		rows = append(rows, []string{
			name,
			string(p.Format),
			strconv.Itoa(len(p.ProjectResult.Versions)),
			strconv.Itoa(len(p.FirstLevel)),
			p.LockfilePath,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Project", "Format", "Packages", "Direct", "Lockfile").
		Rows(rows...)

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d projects, %d dependencies\n", len(r.Projects), total)
	return err
}

// Export writes r to the file at path in the given format, replacing any
// existing file.
func Export(r *Report, path string, f Format) error {
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	if err := Write(r, out, f); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}

// WriteLockResult encodes the result of parsing a single lockfile.
func WriteLockResult(w io.Writer, res *scan.LockResult) error {
	return encodeJSON(w, res)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
