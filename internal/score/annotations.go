// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/reliability-bench/pkg/types"
)

// Annotation assigns a failure mode to one condition by hand.
type Annotation struct {
	types.Condition `yaml:",inline"`

	FailureMode types.FailureMode `yaml:"failure_mode"`
	Note        string            `yaml:"note,omitempty"`
}

// annotationFile is the on-disk layout of an annotations file.
type annotationFile struct {
	Annotations []Annotation `yaml:"annotations"`
}

// LoadAnnotations reads a YAML annotations file and returns the failure
// modes keyed by condition. An empty path yields no annotations.
func LoadAnnotations(path string) (map[string]types.FailureMode, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading annotations: %w", err)
	}

	var file annotationFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding annotations %s: %w", path, err)
	}

	out := make(map[string]types.FailureMode, len(file.Annotations))
	var errs []error
	for i, a := range file.Annotations {
		switch a.FailureMode {
		case types.FailureNone, types.FailureFormatting, types.FailureUnknown,
			types.FailureIncorrect, types.FailureOverconfident:
		default:
			errs = append(errs, fmt.Errorf("annotations[%d]: unknown failure_mode %q", i, a.FailureMode))
			continue
		}
		if a.QuestionID == "" {
			errs = append(errs, fmt.Errorf("annotations[%d]: question_id is required", i))
			continue
		}
		out[a.Key()] = a.FailureMode
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}
