// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// questionSchema is the JSON schema every dataset record must satisfy.
const questionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "category", "difficulty", "question", "answer", "answer_type"],
  "additionalProperties": false,
  "properties": {
    "id":          {"type": "string", "minLength": 1},
    "category":    {"type": "string", "enum": ["arithmetic", "logic", "multi_step"]},
    "difficulty":  {"type": "string", "enum": ["easy", "medium", "hard"]},
    "question":    {"type": "string", "minLength": 1},
    "answer":      {"type": ["string", "number"], "minLength": 1},
    "answer_type": {"type": "string", "enum": ["numeric", "text"]}
  }
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(questionSchema))
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compiling question schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// validateRecord returns one message per schema violation.
func validateRecord(sch *gojsonschema.Schema, raw map[string]any) ([]string, error) {
	result, err := sch.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("validating record: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return msgs, nil
}

// Issue captures one validation problem in the dataset.
type Issue struct {
	Field   string
	Message string
}

// ValidationError reports every issue found in a dataset.
type ValidationError struct {
	Issues []Issue
}

// Error returns a readable message for validation failures.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return ""
	}
	parts := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return fmt.Sprintf("dataset validation failed: %s", strings.Join(parts, "; "))
}

type issueCollector struct {
	issues []Issue
}

func (c *issueCollector) add(field, message string) {
	c.issues = append(c.issues, Issue{Field: field, Message: message})
}

func (c *issueCollector) result() error {
	if len(c.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: c.issues}
}
