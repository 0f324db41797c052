package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/lockscan/pkg/errors"
)

const testLock = `{
  "name": "app",
  "lockfileVersion": 3,
  "packages": {
    "": {"name": "app"},
    "node_modules/a": {"version": "1.0.0"},
    "node_modules/b": {"version": "2.0.0"}
  }
}`

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr, logs bytes.Buffer
	c := New(&logs, LogInfo)
	c.Out = &stdout
	root := c.RootCommand()
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String() + logs.String(), err
}

type reportJSON struct {
	ID       string `json:"id"`
	Root     string `json:"root"`
	Projects []struct {
		ProjectName  string              `json:"projectName"`
		LockfilePath string              `json:"lockFilePath"`
		FirstLevel   map[string][]string `json:"firstLevelDependencyMap"`
		Versions     map[string][]string `json:"dependencyMap"`
	} `json:"projects"`
}

func TestScanCommandJSON(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "package-lock.json"), testLock)
	writeTestFile(t, filepath.Join(dir, "package.json"), `{"name": "app", "dependencies": {"a": "^1.0.0"}}`)

	stdout, stderr, err := execute(t, "scan", dir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	var rep reportJSON
	if err := json.Unmarshal([]byte(stdout), &rep); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, stdout)
	}
	if len(rep.Projects) != 1 {
		t.Fatalf("got %d projects, want 1", len(rep.Projects))
	}
	p := rep.Projects[0]
	if p.ProjectName != "app" {
		t.Errorf("projectName = %q, want app", p.ProjectName)
	}
	if got := p.FirstLevel["a"]; len(got) != 1 || got[0] != "1.0.0" {
		t.Errorf("firstLevel[a] = %v, want [1.0.0]", got)
	}
	if _, ok := p.FirstLevel["b"]; ok {
		t.Error("b is transitive and must not be first-level")
	}
	if len(p.Versions) != 2 {
		t.Errorf("dependencyMap has %d entries, want 2", len(p.Versions))
	}
	if !strings.Contains(stderr, "package-lock.json") {
		t.Errorf("status output should list the lockfile, got %q", stderr)
	}
}

func TestScanCommandNoLockfiles(t *testing.T) {
	dir := t.TempDir()

	stdout, stderr, err := execute(t, "scan", dir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if stdout != "" {
		t.Errorf("no report expected, got %q", stdout)
	}
	if !strings.Contains(stderr, "No lockfiles found") {
		t.Errorf("stderr = %q, want informational message", stderr)
	}
}

func TestScanCommandSkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "good", "package-lock.json"), testLock)
	writeTestFile(t, filepath.Join(dir, "bad", "pnpm-lock.yaml"), "packages: [")

	stdout, stderr, err := execute(t, "scan", dir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	var rep reportJSON
	if err := json.Unmarshal([]byte(stdout), &rep); err != nil {
		t.Fatal(err)
	}
	if len(rep.Projects) != 1 {
		t.Fatalf("got %d projects, want 1", len(rep.Projects))
	}
	if !strings.Contains(stderr, filepath.Join(dir, "bad", "pnpm-lock.yaml")) {
		t.Errorf("stderr should name the skipped lockfile, got %q", stderr)
	}
}

func TestScanCommandConfig(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "app", "package-lock.json"), testLock)
	writeTestFile(t, filepath.Join(dir, "legacy", "old", "package-lock.json"), testLock)
	writeTestFile(t, filepath.Join(dir, configFileName), `
exclude = ["legacy/**"]
format = "text"
`)

	stdout, _, err := execute(t, "scan", dir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !strings.Contains(stdout, filepath.Join(dir, "app", "package-lock.json")) {
		t.Errorf("text report should list app lockfile:\n%s", stdout)
	}
	if strings.Contains(stdout, "legacy") {
		t.Errorf("excluded lockfile in report:\n%s", stdout)
	}
	if !strings.Contains(stdout, "1 projects") {
		t.Errorf("text report should end with totals:\n%s", stdout)
	}
}

func TestScanCommandFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "package-lock.json"), testLock)
	writeTestFile(t, filepath.Join(dir, "yarn.lock"), "left-pad@^1.0.0:\n  version \"1.3.0\"\n")
	writeTestFile(t, filepath.Join(dir, configFileName), `format = "text"`)

	out := filepath.Join(t.TempDir(), "report.json")
	_, stderr, err := execute(t, "scan", dir, "--format", "json", "--formats", "yarn", "-o", out, "--first-level-only")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var rep reportJSON
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatalf("report is not JSON: %v", err)
	}
	if len(rep.Projects) != 1 || !strings.HasSuffix(rep.Projects[0].LockfilePath, "yarn.lock") {
		t.Fatalf("want only the yarn lockfile, got %+v", rep.Projects)
	}
	if rep.Projects[0].Versions != nil {
		t.Error("--first-level-only should drop dependencyMap")
	}
	if !strings.Contains(stderr, out) {
		t.Errorf("status output should name the report file, got %q", stderr)
	}
}

func TestScanCommandInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config string
		args   []string
	}{
		{"unknown key", `colour = "red"`, nil},
		{"bad toml", `exclude = [`, nil},
		{"unknown format", `formats = ["bun"]`, nil},
		{"unknown report format", `format = "xml"`, nil},
		{"bad exclude pattern", `exclude = ["[unclosed"]`, nil},
		{"bad flag value", ``, []string{"--format", "yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeTestFile(t, filepath.Join(dir, "package-lock.json"), testLock)
			writeTestFile(t, filepath.Join(dir, configFileName), tt.config)

			_, _, err := execute(t, append([]string{"scan", dir}, tt.args...)...)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("got %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestScanCommandMissingRoot(t *testing.T) {
	_, _, err := execute(t, "scan", filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("got %v, want FILE_NOT_FOUND", err)
	}
}

func TestFileCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "package-lock.json")
	writeTestFile(t, path, testLock)

	stdout, _, err := execute(t, "file", path)
	if err != nil {
		t.Fatalf("file: %v", err)
	}

	var res struct {
		Format string              `json:"format"`
		List   []map[string]string `json:"dependencyList"`
		Map    map[string][]string `json:"dependencyMap"`
	}
	if err := json.Unmarshal([]byte(stdout), &res); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if res.Format != "package-lock.json" || len(res.List) != 2 || len(res.Map) != 2 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestFileCommandUnknownName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bun.lockb")
	writeTestFile(t, path, "binary")

	stdout, stderr, err := execute(t, "file", path)
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	if !strings.Contains(stderr, "not a recognized lockfile name") {
		t.Errorf("stderr = %q, want warning", stderr)
	}
	if !strings.Contains(stdout, `"dependencyList": []`) {
		t.Errorf("want empty result, got %s", stdout)
	}
}

func TestFileCommandMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yarn.lock")
	writeTestFile(t, path, "left-pad@^1.0.0:\n  resolved \"x\"\n")

	_, _, err := execute(t, "file", path)
	if !errors.Is(err, errors.ErrCodeMalformedLockfile) {
		t.Errorf("got %v, want MALFORMED_LOCKFILE", err)
	}
}

func TestVersionFlag(t *testing.T) {
	stdout, _, err := execute(t, "--version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout, appName+" ") {
		t.Errorf("version output = %q", stdout)
	}
}

func TestScanCommandTextReportToFile(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "package-lock.json"), testLock)

	out := filepath.Join(t.TempDir(), "inventory.txt")
	stdout, _, err := execute(t, "scan", dir, "--format", "text", "--output", out)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if stdout != "" {
		t.Errorf("report should go to the file only, stdout = %q", stdout)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "1 projects, 2 dependencies") {
		t.Errorf("text report missing totals:\n%s", data)
	}
}
