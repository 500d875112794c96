// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runlog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/pdiddy/reliability-bench/pkg/types"
)

// JSONLLog stores one JSON record per line. Every Append is a single write
// of a complete line followed by fsync.
type JSONLLog struct {
	mu      sync.Mutex
	f       *os.File
	path    string
	records []types.RunResult
}

// OpenJSONL loads the existing log at path and opens it for appending.
// A torn final line left by a crash mid-write is truncated away.
func OpenJSONL(path string, logger *slog.Logger) (*JSONLLog, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating results directory: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading result log %s: %w", path, err)
	}

	records, validLen, err := decodeLines(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if validLen < len(data) {
		logger.Warn("truncating torn final record in result log",
			"path", path,
			"bytes", len(data)-validLen)
		if err := os.Truncate(path, int64(validLen)); err != nil {
			return nil, fmt.Errorf("repairing result log %s: %w", path, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening result log %s: %w", path, err)
	}
	if validLen > 0 && validLen == len(data) && data[validLen-1] != '\n' {
		if _, err := f.Write([]byte{'\n'}); err != nil {
			f.Close()
			return nil, fmt.Errorf("terminating final record in %s: %w", path, err)
		}
	}
	return &JSONLLog{f: f, path: path, records: records}, nil
}

// decodeLines parses newline-terminated records and returns them with the
// length of the valid prefix. Only an unterminated final line that does not
// decode may be dropped; any other bad line is ErrCorruptLog.
func decodeLines(data []byte) ([]types.RunResult, int, error) {
	var records []types.RunResult
	offset := 0
	lineNum := 0
	for offset < len(data) {
		lineNum++
		end := bytes.IndexByte(data[offset:], '\n')
		if end < 0 {
			// Unterminated tail. Keep it only if it is a whole record.
			var r types.RunResult
			if err := json.Unmarshal(bytes.TrimSpace(data[offset:]), &r); err == nil {
				return append(records, r), len(data), nil
			}
			return records, offset, nil
		}
		line := bytes.TrimSpace(data[offset : offset+end])
		offset += end + 1
		if len(line) == 0 {
			continue
		}
		var r types.RunResult
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, 0, fmt.Errorf("%w: line %d: %v", ErrCorruptLog, lineNum, err)
		}
		records = append(records, r)
	}
	return records, offset, nil
}

// Append writes r as one line and syncs it to disk.
func (l *JSONLLog) Append(_ context.Context, r types.RunResult) error {
	line, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding result %s: %w", r.Condition, err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.f.Write(line); err != nil {
		return fmt.Errorf("writing result %s: %w", r.Condition, err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("syncing result log: %w", err)
	}
	l.records = append(l.records, r)
	return nil
}

// Records returns a copy of every record in append order.
func (l *JSONLLog) Records(_ context.Context) ([]types.RunResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.records), nil
}

// Path returns the file backing the log.
func (l *JSONLLog) Path() string { return l.path }

// Close closes the underlying file.
func (l *JSONLLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
