// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/reliability-bench/internal/metrics"
	"github.com/pdiddy/reliability-bench/pkg/types"
)

func sampleDocument() Document {
	temp := 0.7
	return Document{
		GeneratedAt:             time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Model:                   "gemini-2.0-flash",
		OverconfidenceThreshold: 80,
		Report: metrics.Report{
			Overall: types.MetricSummary{Total: 10, Correct: 8, Accuracy: 0.8, AccuracyCI: types.Interval{Low: 0.49, High: 0.94}},
			ByCondition: []types.MetricSummary{{
				Group:    types.GroupKey{PromptType: types.PromptDirect, Temperature: &temp},
				Total:    10,
				Correct:  8,
				Accuracy: 0.8,
				FlipRate: 0.5,
			}},
			ByCategory:   []types.MetricSummary{{Group: types.GroupKey{Category: types.CategoryLogic}, Total: 10}},
			ByDifficulty: []types.MetricSummary{{Group: types.GroupKey{Difficulty: types.DifficultyHard}, Total: 10}},
		},
	}
}

func TestWriteAllFormats(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "report")
	paths, err := Write(dir, sampleDocument())
	require.NoError(t, err)
	require.Len(t, paths, 3)

	data, err := os.ReadFile(filepath.Join(dir, YAMLFile))
	require.NoError(t, err)
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	assert.Equal(t, "gemini-2.0-flash", fromYAML["model"])
	assert.Contains(t, fromYAML, "by_condition", "report fields are inlined")

	data, err = os.ReadFile(filepath.Join(dir, JSONFile))
	require.NoError(t, err)
	var fromJSON Document
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	assert.Equal(t, 8, fromJSON.Overall.Correct)
	require.Len(t, fromJSON.ByCondition, 1)
	require.NotNil(t, fromJSON.ByCondition[0].Group.Temperature)
	assert.Equal(t, 0.7, *fromJSON.ByCondition[0].Group.Temperature)

	data, err = os.ReadFile(filepath.Join(dir, MarkdownFile))
	require.NoError(t, err)
	md := string(data)
	assert.Contains(t, md, "# Reliability report")
	assert.Contains(t, md, "| direct t=0.7 | 10 | 80.0% |")
	assert.Contains(t, md, "| logic |")
	assert.Contains(t, md, "| hard |")
}

func TestMarkdownEmptyGroups(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Markdown(&buf, Document{}))
	assert.Contains(t, buf.String(), "_no results_")
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, sampleDocument().Report))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "condition"))
	assert.True(t, strings.HasPrefix(lines[1], "direct t=0.7"))
	assert.Contains(t, lines[1], "50.0%")
	assert.True(t, strings.HasPrefix(lines[2], "all"))
}

func TestConditionLabel(t *testing.T) {
	zero := 0.0
	assert.Equal(t, "step_by_step t=0", ConditionLabel(types.MetricSummary{
		Group: types.GroupKey{PromptType: types.PromptStepByStep, Temperature: &zero},
	}))
	assert.Equal(t, "direct", ConditionLabel(types.MetricSummary{Group: types.GroupKey{PromptType: types.PromptDirect}}))
}
