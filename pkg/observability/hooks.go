// Package observability provides hooks for instrumenting lockfile scans.
//
// Hooks are passed explicitly to the code that emits events (see
// scan.Options.Hooks); there is no process-wide registry. The no-op
// implementation is used when nothing is supplied.
//
// # Usage
//
//	type counter struct{ observability.NoopScanHooks; skipped int }
//
//	func (c *counter) OnLockfileSkipped(ctx context.Context, path string, err error) {
//	    c.skipped++
//	}
//
//	results, err := scan.ParseLockFiles(root, scan.Options{Hooks: &counter{}})
package observability

import (
	"context"
	"time"
)

// =============================================================================
// Scan Hooks
// =============================================================================

// ScanHooks receives events from a lockfile scan.
type ScanHooks interface {
	// OnScanStart records the start of a scan with the number of lockfiles found.
	OnScanStart(ctx context.Context, root string, lockfiles int)

	// OnLockfileParsed records a lockfile that produced a result.
	OnLockfileParsed(ctx context.Context, path string, dependencies int, duration time.Duration)

	// OnLockfileSkipped records a lockfile excluded because it failed to parse.
	OnLockfileSkipped(ctx context.Context, path string, err error)

	// OnScanComplete records the end of a scan.
	OnScanComplete(ctx context.Context, root string, projects int, duration time.Duration)
}

// =============================================================================
// No-op Implementation
// =============================================================================

// NoopScanHooks is a no-op implementation of ScanHooks.
type NoopScanHooks struct{}

func (NoopScanHooks) OnScanStart(context.Context, string, int)                     {}
func (NoopScanHooks) OnLockfileParsed(context.Context, string, int, time.Duration) {}
func (NoopScanHooks) OnLockfileSkipped(context.Context, string, error)             {}
func (NoopScanHooks) OnScanComplete(context.Context, string, int, time.Duration)   {}

// OrNoop returns h, or NoopScanHooks when h is nil.
func OrNoop(h ScanHooks) ScanHooks {
	if h == nil {
		return NoopScanHooks{}
	}
	return h
}

// =============================================================================
// Aggregating Implementation
// =============================================================================

// Stats is a ScanHooks implementation that tallies scan events.
// It is not safe for concurrent use; scans are sequential.
type Stats struct {
	NoopScanHooks

	Found        int
	Parsed       int
	Skipped      int
	Dependencies int
	Elapsed      time.Duration
	Failures     map[string]error
}

func (s *Stats) OnScanStart(_ context.Context, _ string, lockfiles int) {
	s.Found = lockfiles
}

func (s *Stats) OnLockfileParsed(_ context.Context, _ string, dependencies int, _ time.Duration) {
	s.Parsed++
	s.Dependencies += dependencies
}

func (s *Stats) OnLockfileSkipped(_ context.Context, path string, err error) {
	s.Skipped++
	if s.Failures == nil {
		s.Failures = make(map[string]error)
	}
	s.Failures[path] = err
}

func (s *Stats) OnScanComplete(_ context.Context, _ string, _ int, duration time.Duration) {
	s.Elapsed = duration
}
