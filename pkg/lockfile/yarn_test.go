package lockfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/lockscan/pkg/errors"
)

const yarnClassic = `# THIS IS AN AUTOGENERATED FILE. DO NOT EDIT THIS FILE DIRECTLY.
# yarn lockfile v1


"@scope/pkg@^2.0.0":
  version "2.0.1"
  resolved "https://registry.yarnpkg.com/@scope/pkg/-/pkg-2.0.1.tgz#abc"
  integrity sha512-aaaa==
  dependencies:
    pkg "^1.0.0"

pkg@^1.0.0, pkg@^1.1.0:
  version "1.2.0"
  resolved "https://registry.yarnpkg.com/pkg/-/pkg-1.2.0.tgz#def"
  integrity sha512-bbbb==

pkg@^2.0.0:
  version "2.3.0"
  optionalDependencies:
    "@scope/pkg" "^2.0.0"
`

func TestYarnLock_ParseClassic(t *testing.T) {
	list, err := YarnLock{}.Parse([]byte(yarnClassic))
	require.NoError(t, err)

	assert.Equal(t, []Dependency{
		NewDependency("@scope/pkg", "2.0.1"),
		NewDependency("pkg", "1.2.0"),
		NewDependency("pkg", "2.3.0"),
	}, list)

	assert.Equal(t, VersionMap{
		"@scope/pkg": {"2.0.1"},
		"pkg":        {"1.2.0", "2.3.0"},
	}, MergeVersions(list))
}

func TestYarnLock_RangesCollapse(t *testing.T) {
	content := `"pkg@^1.0.0", "pkg@^1.1.0":
  version "1.2.0"
`
	list, err := YarnLock{}.Parse([]byte(content))
	require.NoError(t, err)
	assert.Equal(t, []Dependency{NewDependency("pkg", "1.2.0")}, list)
	assert.Equal(t, list, Dedupe(list))
}

func TestYarnLock_DuplicateBlocks(t *testing.T) {
	content := `pkg@^1.0.0:
  version "1.2.0"

pkg@~1.2.0:
  version "1.2.0"
`
	list, err := YarnLock{}.Parse([]byte(content))
	require.NoError(t, err)
	assert.Equal(t, []Dependency{NewDependency("pkg", "1.2.0")}, list)
}

func TestYarnLock_ParseBerry(t *testing.T) {
	content := `# This file is generated by running "yarn install" inside your project.

__metadata:
  version: 6
  cacheKey: 8

"@babel/core@npm:^7.0.0, @babel/core@npm:^7.1.0":
  version: 7.22.5
  resolution: "@babel/core@npm:7.22.5"
  checksum: abc
  languageName: node
  linkType: hard

"lodash@npm:^4.17.21":
  version: 4.17.21
  resolution: "lodash@npm:4.17.21"
`
	list, err := YarnLock{}.Parse([]byte(content))
	require.NoError(t, err)

	assert.Equal(t, []Dependency{
		NewDependency("@babel/core", "7.22.5"),
		NewDependency("lodash", "4.17.21"),
	}, list)
}

func TestDescriptorName(t *testing.T) {
	tests := []struct {
		descriptor string
		want       string
	}{
		{"lodash@^4.0.0", "lodash"},
		{"@scope/pkg@^2.0.0", "@scope/pkg"},
		{"@babel/core@npm:^7.0.0", "@babel/core"},
		{"@scope/pkg", ""},
		{"noversion", ""},
	}

	for _, tt := range tests {
		t.Run(tt.descriptor, func(t *testing.T) {
			assert.Equal(t, tt.want, descriptorName(tt.descriptor))
		})
	}
}

func TestSplitHeader(t *testing.T) {
	tests := []struct {
		header  string
		want    []string
		wantErr bool
	}{
		{`lodash@^4.0.0`, []string{"lodash@^4.0.0"}, false},
		{`"a@^1", "a@^2"`, []string{"a@^1", "a@^2"}, false},
		{`a@^1, a@^2`, []string{"a@^1", "a@^2"}, false},
		{`"a@>= 1.0.0 < 2"`, []string{"a@>= 1.0.0 < 2"}, false},
		{`"a@^1" "a@^2"`, nil, true},
		{`"a@^1`, nil, true},
		{`a@^1,,a@^2`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := splitHeader(tt.header)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestYarnLock_ParseMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"header without colon", "pkg@^1.0.0\n  version \"1.0.0\"\n"},
		{"field before header", "  version \"1.0.0\"\n"},
		{"missing version", "pkg@^1.0.0:\n  resolved \"x\"\n"},
		{"unterminated quote", "\"pkg@^1.0.0:\n  version \"1.0.0\"\n"},
		{"bad indentation", "pkg@^1.0.0:\n    version \"1.0.0\"\n  resolved \"x\"\n"},
		{"field without value", "pkg@^1.0.0:\n  version\n"},
		{"berry not a mapping", "__metadata:\n  version: 6\n\"a@npm:^1\": [1, 2]\n"},
		{"berry missing version", "__metadata:\n  version: 6\n\"a@npm:^1\":\n  resolution: x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := YarnLock{}.Parse([]byte(tt.content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeMalformedLockfile), "got %v", err)
		})
	}
}

func TestYarnLock_ParseEmpty(t *testing.T) {
	list, err := YarnLock{}.Parse([]byte("# yarn lockfile v1\n\n"))
	require.NoError(t, err)
	assert.Empty(t, list)
}
