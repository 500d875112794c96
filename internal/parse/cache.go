// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pdiddy/reliability-bench/internal/atomicfile"
	"github.com/pdiddy/reliability-bench/pkg/types"
)

// cacheHeader is the first line of a parsed-results cache file.
type cacheHeader struct {
	ParserVersion string `json:"parser_version"`
	Fingerprint   string `json:"fingerprint"`
	Results       int    `json:"results"`
}

// Fingerprint identifies the inputs of a parse: the parser version, the
// unknown tokens and every successful record's condition and response.
func (p *Parser) Fingerprint(records []types.RunResult) string {
	h := sha256.New()
	fmt.Fprintf(h, "v%s\x00%s\x00", Version, strings.Join(p.tokens, "\x1f"))
	for _, r := range records {
		if !r.Completed() {
			continue
		}
		h.Write([]byte(r.Key()))
		h.Write([]byte{0})
		h.Write([]byte(r.RawResponse))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

// WriteCache writes results to path as JSONL behind a header line.
func WriteCache(path, fingerprint string, results []types.ParsedResult) error {
	return atomicfile.Write(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		if err := enc.Encode(cacheHeader{ParserVersion: Version, Fingerprint: fingerprint, Results: len(results)}); err != nil {
			return err
		}
		for _, r := range results {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadCache loads the cache at path. It reports false, without error, when
// the file is missing or was written by another parser version or for
// other inputs.
func ReadCache(path, fingerprint string) ([]types.ParsedResult, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading parse cache: %w", err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if !scanner.Scan() {
		return nil, false, nil
	}
	var header cacheHeader
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil {
		return nil, false, nil
	}
	if header.ParserVersion != Version || header.Fingerprint != fingerprint {
		return nil, false, nil
	}

	results := make([]types.ParsedResult, 0, header.Results)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var r types.ParsedResult
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, false, fmt.Errorf("decoding parse cache %s: %w", path, err)
		}
		results = append(results, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, false, fmt.Errorf("scanning parse cache: %w", err)
	}
	if len(results) != header.Results {
		return nil, false, nil
	}
	return results, true, nil
}

// Cached returns the parsed results for records, reusing the cache at path
// when it matches and rewriting it otherwise. An empty path disables
// caching.
func (p *Parser) Cached(path string, records []types.RunResult, logger *slog.Logger) ([]types.ParsedResult, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if path == "" {
		return p.ParseAll(records), nil
	}

	fp := p.Fingerprint(records)
	cached, ok, err := ReadCache(path, fp)
	if err != nil {
		return nil, err
	}
	if ok {
		logger.Debug("using parse cache", "path", path, "results", len(cached))
		return cached, nil
	}

	results := p.ParseAll(records)
	if err := WriteCache(path, fp, results); err != nil {
		return nil, fmt.Errorf("writing parse cache: %w", err)
	}
	logger.Debug("wrote parse cache", "path", path, "results", len(results))
	return results, nil
}
