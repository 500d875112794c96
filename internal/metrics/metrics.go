// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics aggregates scored results into reliability metrics.
// Every function is pure over its input.
package metrics

import (
	"cmp"
	"math"
	"slices"
	"strconv"

	"github.com/pdiddy/reliability-bench/internal/score"
	"github.com/pdiddy/reliability-bench/pkg/types"
)

// Z is the normal quantile of the 95% Wilson score interval.
const Z = 1.96

// calibrationBuckets is the number of equal-width confidence buckets.
const calibrationBuckets = 10

// Report holds every grouping of one scored result set.
type Report struct {
	Overall      types.MetricSummary   `json:"overall" yaml:"overall"`
	ByCondition  []types.MetricSummary `json:"by_condition" yaml:"by_condition"`
	ByCategory   []types.MetricSummary `json:"by_category" yaml:"by_category"`
	ByDifficulty []types.MetricSummary `json:"by_difficulty" yaml:"by_difficulty"`
}

// Compute builds the full report. threshold <= 0 uses
// types.DefaultOverconfidenceThreshold.
func Compute(results []types.ScoredResult, threshold int) Report {
	return Report{
		Overall:      Summarize(types.GroupKey{}, results, threshold),
		ByCondition:  ByCondition(results, threshold),
		ByCategory:   ByCategory(results, threshold),
		ByDifficulty: ByDifficulty(results, threshold),
	}
}

// ByCondition groups by (prompt type, temperature), ordered by prompt type
// then temperature.
func ByCondition(results []types.ScoredResult, threshold int) []types.MetricSummary {
	type key struct {
		pt   types.PromptType
		temp float64
	}
	groups := make(map[key][]types.ScoredResult)
	for _, r := range results {
		k := key{r.PromptType, r.Temperature}
		groups[k] = append(groups[k], r)
	}

	keys := make([]key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b key) int {
		if c := cmp.Compare(a.pt, b.pt); c != 0 {
			return c
		}
		return cmp.Compare(a.temp, b.temp)
	})

	out := make([]types.MetricSummary, 0, len(keys))
	for _, k := range keys {
		temp := k.temp
		out = append(out, Summarize(types.GroupKey{PromptType: k.pt, Temperature: &temp}, groups[k], threshold))
	}
	return out
}

// ByCategory groups by question category.
func ByCategory(results []types.ScoredResult, threshold int) []types.MetricSummary {
	return groupBy(results, threshold, func(r types.ScoredResult) types.GroupKey {
		return types.GroupKey{Category: r.Category}
	}, func(g types.GroupKey) string { return string(g.Category) })
}

// ByDifficulty groups by question difficulty.
func ByDifficulty(results []types.ScoredResult, threshold int) []types.MetricSummary {
	return groupBy(results, threshold, func(r types.ScoredResult) types.GroupKey {
		return types.GroupKey{Difficulty: r.Difficulty}
	}, func(g types.GroupKey) string { return string(g.Difficulty) })
}

func groupBy(results []types.ScoredResult, threshold int, keyOf func(types.ScoredResult) types.GroupKey, label func(types.GroupKey) string) []types.MetricSummary {
	groups := make(map[string][]types.ScoredResult)
	keys := make(map[string]types.GroupKey)
	for _, r := range results {
		k := keyOf(r)
		l := label(k)
		groups[l] = append(groups[l], r)
		keys[l] = k
	}
	labels := make([]string, 0, len(groups))
	for l := range groups {
		labels = append(labels, l)
	}
	slices.Sort(labels)

	out := make([]types.MetricSummary, 0, len(labels))
	for _, l := range labels {
		out = append(out, Summarize(keys[l], groups[l], threshold))
	}
	return out
}

// Summarize computes every metric over results as one group.
func Summarize(group types.GroupKey, results []types.ScoredResult, threshold int) types.MetricSummary {
	if threshold <= 0 {
		threshold = types.DefaultOverconfidenceThreshold
	}
	s := types.MetricSummary{Group: group, Total: len(results)}
	if len(results) == 0 {
		return s
	}

	var unknown, formatting, withConf, confSum, wrongWithConf, overconfident int
	for _, r := range results {
		if r.Correct {
			s.Correct++
		}
		if r.Unknown {
			unknown++
		}
		if r.FormattingFailure {
			formatting++
		}
		if r.Confidence != nil {
			withConf++
			confSum += *r.Confidence
			if !r.Correct {
				wrongWithConf++
				if *r.Confidence >= threshold {
					overconfident++
				}
			}
		}
	}

	n := float64(len(results))
	s.Accuracy = float64(s.Correct) / n
	s.AccuracyCI = Wilson(s.Correct, len(results), Z)
	s.UnknownRate = float64(unknown) / n
	s.FormattingFailureRate = float64(formatting) / n
	if withConf > 0 {
		s.MeanConfidence = float64(confSum) / float64(withConf)
	}
	s.OverconfidenceRate = ratio(overconfident, wrongWithConf)
	s.ECE = ECE(results)

	cells, disagree, flip := Consistency(results)
	s.Cells = cells
	s.DisagreementRate = ratio(disagree, cells)
	s.FlipRate = ratio(flip, cells)
	return s
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Wilson returns the Wilson score interval for successes out of n trials.
func Wilson(successes, n int, z float64) types.Interval {
	if n <= 0 {
		return types.Interval{}
	}
	nf := float64(n)
	p := float64(successes) / nf
	z2 := z * z
	denom := 1 + z2/nf
	center := (p + z2/(2*nf)) / denom
	half := z * math.Sqrt(p*(1-p)/nf+z2/(4*nf*nf)) / denom
	return types.Interval{
		Low:  math.Max(0, center-half),
		High: math.Min(1, center+half),
	}
}

// ECE is the expected calibration error over ten equal-width confidence
// buckets. Results without a reported confidence are excluded; a
// confidence of 100 falls in the top bucket.
func ECE(results []types.ScoredResult) float64 {
	var (
		count   [calibrationBuckets]int
		confSum [calibrationBuckets]float64
		correct [calibrationBuckets]int
		total   int
	)
	for _, r := range results {
		if r.Confidence == nil {
			continue
		}
		c := *r.Confidence
		b := min(max(c*calibrationBuckets/100, 0), calibrationBuckets-1)
		count[b]++
		confSum[b] += float64(c) / 100
		if r.Correct {
			correct[b]++
		}
		total++
	}
	if total == 0 {
		return 0
	}

	var ece float64
	for b := range calibrationBuckets {
		if count[b] == 0 {
			continue
		}
		n := float64(count[b])
		gap := math.Abs(confSum[b]/n - float64(correct[b])/n)
		ece += n / float64(total) * gap
	}
	return ece
}

// Consistency counts the (question, prompt type, temperature) cells in
// results, the cells whose repetitions gave more than one distinct answer,
// and the cells with both a correct and an incorrect repetition.
func Consistency(results []types.ScoredResult) (cells, disagreeing, flipping int) {
	type cellState struct {
		answers   map[string]bool
		correct   bool
		incorrect bool
	}
	byCell := make(map[types.Cell]*cellState)
	for _, r := range results {
		c := r.Cell()
		st, ok := byCell[c]
		if !ok {
			st = &cellState{answers: make(map[string]bool)}
			byCell[c] = st
		}
		st.answers[answerKey(r)] = true
		if r.Correct {
			st.correct = true
		} else {
			st.incorrect = true
		}
	}

	for _, st := range byCell {
		if len(st.answers) > 1 {
			disagreeing++
		}
		if st.correct && st.incorrect {
			flipping++
		}
	}
	return len(byCell), disagreeing, flipping
}

// answerKey normalizes an answer so that "42", "42.0" and "$42" agree. A
// missing answer and an explicit decline are distinct values.
func answerKey(r types.ScoredResult) string {
	switch r.AnswerState {
	case types.AnswerAbsent, "":
		if r.Answer == "" {
			return "absent:"
		}
	case types.AnswerDeclined:
		return "declined:"
	}
	if v, ok := score.NormalizeNumeric(r.Answer); ok {
		return "n:" + strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "t:" + score.NormalizeText(r.Answer)
}
