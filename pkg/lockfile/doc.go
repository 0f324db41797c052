// Package lockfile decodes JavaScript package-manager lockfiles into a flat,
// normalized dependency inventory.
//
// # Overview
//
// Three structurally incompatible formats are supported:
//
//   - package-lock.json (npm, lockfile versions 1, 2 and 3)
//   - yarn.lock (Yarn classic, plus Yarn berry which is YAML)
//   - pnpm-lock.yaml (pnpm, legacy "/name/version" keys and the
//     "name@version(peer)" keys of lockfile version 6 and later)
//
// Each format is handled by a [Parser]. [Detect] classifies a path by its
// base name and [ParserFor] returns the matching parser:
//
//	f := lockfile.Detect("web/yarn.lock")
//	p, ok := lockfile.ParserFor(f)
//	list, err := p.Parse(data)
//
// Every parser produces a list of [Dependency] values holding the raw
// version string found in the lockfile. No semver parsing or range
// resolution is done.
//
// # Aggregation
//
// [Dedupe] collapses entries sharing a unique key (name + version) and
// [MergeVersions] groups a list into a [VersionMap] of name to all
// versions found, in first-seen order.
//
// # Errors
//
// Content that cannot be decoded, or decodes to an unexpected shape, is
// reported as an error carrying [errors.ErrCodeMalformedLockfile].
//
// [errors.ErrCodeMalformedLockfile]: github.com/matzehuels/lockscan/pkg/errors.ErrCodeMalformedLockfile
package lockfile
