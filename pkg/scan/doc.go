// Package scan turns a directory tree of JavaScript projects into a
// per-project dependency inventory.
//
// # Overview
//
// [ParseLockFiles] discovers every package-lock.json, yarn.lock and
// pnpm-lock.yaml below a root, and for each one:
//
//  1. Reads the sibling package.json (missing or invalid manifests count as empty)
//  2. Parses the lockfile with the matching [lockfile.Parser]
//  3. Groups the entries into a [lockfile.VersionMap]
//  4. Correlates the map with the manifest's declared names ([Correlate])
//
// Lockfiles are processed one at a time in discovery order. A lockfile that
// fails to parse is logged and left out of the [ResultSet]; it never aborts
// the run.
//
// [ParseSingleLockFile] runs steps 2 and 3 for one file.
//
// # Collaborators
//
// Discovery and manifest reading are replaceable through [Options], which
// also carries the logger and [observability.ScanHooks]. Nothing in this
// package writes to a process-global logger.
//
// [lockfile.Parser]: github.com/matzehuels/lockscan/pkg/lockfile.Parser
// [lockfile.VersionMap]: github.com/matzehuels/lockscan/pkg/lockfile.VersionMap
// [observability.ScanHooks]: github.com/matzehuels/lockscan/pkg/observability.ScanHooks
package scan
