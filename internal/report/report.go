// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report exports a metrics report as YAML, JSON, and Markdown, and
// renders the condition table printed after analysis.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/reliability-bench/internal/atomicfile"
	"github.com/pdiddy/reliability-bench/internal/metrics"
	"github.com/pdiddy/reliability-bench/pkg/types"
)

// File names written into the report directory.
const (
	YAMLFile     = "metrics.yaml"
	JSONFile     = "metrics.json"
	MarkdownFile = "report.md"
)

// Document is the exported form of one analysis.
type Document struct {
	GeneratedAt             time.Time `json:"generated_at" yaml:"generated_at"`
	Model                   string    `json:"model,omitempty" yaml:"model,omitempty"`
	OverconfidenceThreshold int       `json:"overconfidence_threshold" yaml:"overconfidence_threshold"`

	metrics.Report `yaml:",inline"`
}

// Write stores doc as metrics.yaml, metrics.json, and report.md under dir
// and returns the paths written.
func Write(dir string, doc Document) ([]string, error) {
	yamlData, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshaling YAML: %w", err)
	}
	jsonData, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}

	outputs := []struct {
		name  string
		write func(io.Writer) error
	}{
		{YAMLFile, writeBytes(yamlData)},
		{JSONFile, writeBytes(append(jsonData, '\n'))},
		{MarkdownFile, func(w io.Writer) error { return Markdown(w, doc) }},
	}

	paths := make([]string, 0, len(outputs))
	for _, o := range outputs {
		path := filepath.Join(dir, o.name)
		if err := atomicfile.Write(path, o.write); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeBytes(data []byte) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}
}

// Markdown renders doc as a human-readable report.
func Markdown(w io.Writer, doc Document) error {
	var b strings.Builder
	b.WriteString("# Reliability report\n\n")
	if doc.Model != "" {
		fmt.Fprintf(&b, "- Model: `%s`\n", doc.Model)
	}
	fmt.Fprintf(&b, "- Generated: %s\n", doc.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Scored responses: %d\n", doc.Overall.Total)
	fmt.Fprintf(&b, "- Overconfidence threshold: %d\n\n", doc.OverconfidenceThreshold)

	b.WriteString("## Overall\n\n")
	writeMarkdownTable(&b, "Group", []types.MetricSummary{doc.Overall}, func(types.MetricSummary) string { return "all" })

	b.WriteString("\n## By prompt type and temperature\n\n")
	writeMarkdownTable(&b, "Condition", doc.ByCondition, ConditionLabel)

	b.WriteString("\n## By category\n\n")
	writeMarkdownTable(&b, "Category", doc.ByCategory, func(s types.MetricSummary) string { return string(s.Group.Category) })

	b.WriteString("\n## By difficulty\n\n")
	writeMarkdownTable(&b, "Difficulty", doc.ByDifficulty, func(s types.MetricSummary) string { return string(s.Group.Difficulty) })

	_, err := io.WriteString(w, b.String())
	return err
}

var columns = []string{"n", "accuracy", "95% CI", "disagree", "flip", "ECE", "overconf", "unknown", "format fail", "mean conf"}

func writeMarkdownTable(b *strings.Builder, first string, rows []types.MetricSummary, label func(types.MetricSummary) string) {
	if len(rows) == 0 {
		b.WriteString("_no results_\n")
		return
	}
	fmt.Fprintf(b, "| %s | %s |\n", first, strings.Join(columns, " | "))
	b.WriteString("|---" + strings.Repeat("|---:", len(columns)) + "|\n")
	for _, s := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", label(s), strings.Join(cells(s), " | "))
	}
}

// Table prints one row per (prompt type, temperature) group.
func Table(w io.Writer, rep metrics.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "condition\t%s\n", strings.Join(columns, "\t"))
	for _, s := range rep.ByCondition {
		fmt.Fprintf(tw, "%s\t%s\n", ConditionLabel(s), strings.Join(cells(s), "\t"))
	}
	fmt.Fprintf(tw, "all\t%s\n", strings.Join(cells(rep.Overall), "\t"))
	return tw.Flush()
}

// ConditionLabel names a by-condition group, e.g. "direct t=0.7".
func ConditionLabel(s types.MetricSummary) string {
	if s.Group.Temperature == nil {
		return string(s.Group.PromptType)
	}
	return fmt.Sprintf("%s t=%s", s.Group.PromptType, types.FormatTemperature(*s.Group.Temperature))
}

func cells(s types.MetricSummary) []string {
	return []string{
		fmt.Sprintf("%d", s.Total),
		pct(s.Accuracy),
		fmt.Sprintf("[%s, %s]", pct(s.AccuracyCI.Low), pct(s.AccuracyCI.High)),
		pct(s.DisagreementRate),
		pct(s.FlipRate),
		fmt.Sprintf("%.3f", s.ECE),
		pct(s.OverconfidenceRate),
		pct(s.UnknownRate),
		pct(s.FormattingFailureRate),
		fmt.Sprintf("%.1f", s.MeanConfidence),
	}
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}
