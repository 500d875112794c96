// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset loads and validates the fixed set of question records.
// Records are read once at startup and never mutated afterwards.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/reliability-bench/pkg/types"
)

// Store holds the validated question records in dataset order.
type Store struct {
	questions []types.QuestionRecord
	byID      map[string]int
}

// Load reads a dataset file. Files ending in .yaml or .yml hold a YAML list
// of records; anything else is read as JSONL, one record per line. Every
// record is checked against the question schema and ids must be unique.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", path, err)
	}

	var raws []map[string]any
	var records []types.QuestionRecord
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raws, records, err = decodeYAML(data)
	default:
		raws, records, err = decodeJSONL(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing dataset %s: %w", path, err)
	}

	return New(raws, records)
}

// New validates records and builds a Store. raws are the undecoded forms of
// the same records used for schema validation; pass nil to validate the
// typed records only.
func New(raws []map[string]any, records []types.QuestionRecord) (*Store, error) {
	collector := &issueCollector{}
	if len(records) == 0 {
		collector.add("questions", "must include at least one entry")
	}

	sch, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	byID := make(map[string]int, len(records))
	for i, rec := range records {
		prefix := fmt.Sprintf("questions[%d]", i)
		raw := recordMap(rec)
		if raws != nil {
			raw = raws[i]
		}
		violations, err := validateRecord(sch, raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", prefix, err)
		}
		for _, v := range violations {
			collector.add(prefix, v)
		}

		rec.ID = strings.TrimSpace(rec.ID)
		if rec.ID == "" {
			continue
		}
		if first, dup := byID[rec.ID]; dup {
			collector.add(prefix+".id", fmt.Sprintf("duplicate id %q (first at questions[%d])", rec.ID, first))
			continue
		}
		byID[rec.ID] = i
		records[i] = rec
	}

	if err := collector.result(); err != nil {
		return nil, err
	}

	return &Store{questions: records, byID: byID}, nil
}

// Questions returns a copy of the records in dataset order.
func (s *Store) Questions() []types.QuestionRecord {
	out := make([]types.QuestionRecord, len(s.questions))
	copy(out, s.questions)
	return out
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (types.QuestionRecord, bool) {
	i, ok := s.byID[id]
	if !ok {
		return types.QuestionRecord{}, false
	}
	return s.questions[i], true
}

// Len returns the number of questions.
func (s *Store) Len() int {
	return len(s.questions)
}

// Summary counts questions per category, difficulty, and answer type.
type Summary struct {
	Total        int                      `json:"total" yaml:"total"`
	Categories   map[types.Category]int   `json:"categories" yaml:"categories"`
	Difficulties map[types.Difficulty]int `json:"difficulties" yaml:"difficulties"`
	AnswerTypes  map[types.AnswerType]int `json:"answer_types" yaml:"answer_types"`
}

// Summary returns per-field counts over the dataset.
func (s *Store) Summary() Summary {
	sum := Summary{
		Total:        len(s.questions),
		Categories:   map[types.Category]int{},
		Difficulties: map[types.Difficulty]int{},
		AnswerTypes:  map[types.AnswerType]int{},
	}
	for _, q := range s.questions {
		sum.Categories[q.Category]++
		sum.Difficulties[q.Difficulty]++
		sum.AnswerTypes[q.AnswerType]++
	}
	return sum
}

// SortedKeys returns the keys of a count map in lexical order.
func SortedKeys[K ~string](m map[K]int) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func decodeJSONL(data []byte) ([]map[string]any, []types.QuestionRecord, error) {
	var raws []map[string]any
	var records []types.QuestionRecord

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var raw map[string]any
		rawDec := json.NewDecoder(bytes.NewReader(line))
		rawDec.UseNumber()
		if err := rawDec.Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		// Numeric answers are stored as their literal text.
		if n, ok := raw["answer"].(json.Number); ok {
			raw["answer"] = n.String()
			fixed, err := json.Marshal(raw)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			line = fixed
		}

		var rec types.QuestionRecord
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&rec); err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		raws = append(raws, raw)
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return raws, records, nil
}

func decodeYAML(data []byte) ([]map[string]any, []types.QuestionRecord, error) {
	var raws []map[string]any
	if err := yaml.Unmarshal(data, &raws); err != nil {
		return nil, nil, err
	}
	if len(raws) == 0 {
		return nil, nil, nil
	}

	var records []types.QuestionRecord
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&records); err != nil {
		return nil, nil, err
	}
	return raws, records, nil
}

// recordMap converts a typed record to the map form the schema validates.
func recordMap(rec types.QuestionRecord) map[string]any {
	return map[string]any{
		"id":          rec.ID,
		"category":    string(rec.Category),
		"difficulty":  string(rec.Difficulty),
		"question":    rec.Question,
		"answer":      rec.Answer,
		"answer_type": string(rec.AnswerType),
	}
}
