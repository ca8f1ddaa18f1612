package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/meetsync/scorecard-engine/internal/evaluator"
)

const (
	strengthThreshold    = 80.0
	improvementThreshold = 50.0
	maxHighlights        = 3
)

type aggregation struct {
	overallScore    float64
	strengths       []string
	improvements    []string
	recommendations []string
}

// aggregate combines criterion scores into the overall weighted score and the
// derived highlight lists. Only scored criteria contribute; their weights are
// renormalized to sum to 1 so an errored criterion degrades coverage without
// silently dragging the score down. All criteria errored is a run failure.
func aggregate(scores []evaluator.CriterionScore) (aggregation, error) {
	scored := make([]evaluator.CriterionScore, 0, len(scores))
	var totalWeight float64
	for _, cs := range scores {
		if cs.Status == evaluator.StatusScored && cs.Score != nil {
			scored = append(scored, cs)
			totalWeight += cs.Weight
		}
	}
	if len(scored) == 0 || totalWeight <= 0 {
		return aggregation{}, ErrAllCriteriaUnscored
	}

	var agg aggregation
	for _, cs := range scored {
		agg.overallScore += *cs.Score * (cs.Weight / totalWeight)
	}

	strengths := filterByScore(scored, func(s float64) bool { return s >= strengthThreshold })
	sort.SliceStable(strengths, func(i, j int) bool { return *strengths[i].Score > *strengths[j].Score })

	improvements := filterByScore(scored, func(s float64) bool { return s <= improvementThreshold })
	sort.SliceStable(improvements, func(i, j int) bool { return *improvements[i].Score < *improvements[j].Score })

	agg.strengths = criterionNames(strengths, maxHighlights)
	agg.improvements = criterionNames(improvements, maxHighlights)

	// Recommendations are deterministic templates over the improvement
	// criteria, so the aggregation stays reproducible for a fixed input set.
	for i, cs := range improvements {
		if i >= maxHighlights {
			break
		}
		agg.recommendations = append(agg.recommendations, recommendation(cs))
	}

	return agg, nil
}

func filterByScore(scores []evaluator.CriterionScore, keep func(float64) bool) []evaluator.CriterionScore {
	out := make([]evaluator.CriterionScore, 0, len(scores))
	for _, cs := range scores {
		if keep(*cs.Score) {
			out = append(out, cs)
		}
	}
	return out
}

func criterionNames(scores []evaluator.CriterionScore, limit int) []string {
	names := make([]string, 0, limit)
	for i, cs := range scores {
		if i >= limit {
			break
		}
		names = append(names, cs.CriterionName)
	}
	return names
}

func recommendation(cs evaluator.CriterionScore) string {
	feedback := firstSentence(cs.Feedback)
	if feedback == "" {
		return fmt.Sprintf("Focus on improving %s in upcoming calls.", strings.ToLower(cs.CriterionName))
	}
	return fmt.Sprintf("Work on %s: %s", strings.ToLower(cs.CriterionName), feedback)
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, sep := range []string{". ", "! ", "? "} {
		if i := strings.Index(s, sep); i >= 0 {
			return s[:i+1]
		}
	}
	return s
}
