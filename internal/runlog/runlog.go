// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runlog persists RunResults in an append-only log. Each Append is
// durable before it returns, so an interrupted run loses at most the calls
// that were in flight.
package runlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/pdiddy/reliability-bench/pkg/types"
)

// ErrCorruptLog is returned when a record other than a torn final line
// cannot be decoded.
var ErrCorruptLog = errors.New("corrupt result log")

// Log is an append-only store of RunResults. Append is safe for concurrent use.
type Log interface {
	// Append durably writes one record.
	Append(ctx context.Context, r types.RunResult) error

	// Records returns every record in append order.
	Records(ctx context.Context) ([]types.RunResult, error)

	Close() error
}

// Open opens (creating if needed) the log at path with the given backend.
func Open(ctx context.Context, backend types.LogBackend, path string, logger *slog.Logger) (Log, error) {
	switch backend {
	case types.LogJSONL, "":
		return OpenJSONL(path, logger)
	case types.LogSQLite:
		return OpenSQLite(ctx, path)
	}
	return nil, fmt.Errorf("unknown log backend %q", backend)
}

// Effective reduces records to one entry per condition: the earliest
// successful record when one exists, otherwise the latest failure. The
// result is sorted by condition.
func Effective(records []types.RunResult) []types.RunResult {
	byKey := make(map[string]types.RunResult, len(records))
	for _, r := range records {
		key := r.Key()
		prev, seen := byKey[key]
		switch {
		case !seen:
			byKey[key] = r
		case prev.Completed():
			// First success wins; later duplicates are ignored.
		default:
			byKey[key] = r
		}
	}

	out := make([]types.RunResult, 0, len(byKey))
	for _, r := range byKey {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b types.RunResult) int {
		return types.CompareConditions(a.Condition, b.Condition)
	})
	return out
}

// CompletedKeys returns the condition keys that have a successful record.
func CompletedKeys(records []types.RunResult) map[string]bool {
	done := make(map[string]bool)
	for _, r := range records {
		if r.Completed() {
			done[r.Key()] = true
		}
	}
	return done
}
