package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetsync/scorecard-engine/internal/evaluator"
)

func scored(id, name string, score, weight float64, feedback string) evaluator.CriterionScore {
	return evaluator.CriterionScore{
		CriterionID:   id,
		CriterionName: name,
		Score:         &score,
		Weight:        weight,
		Feedback:      feedback,
		Status:        evaluator.StatusScored,
	}
}

func errored(id, name string, weight float64) evaluator.CriterionScore {
	return evaluator.CriterionScore{
		CriterionID:   id,
		CriterionName: name,
		Weight:        weight,
		Status:        evaluator.StatusError,
		Err:           "judge returned status 503",
	}
}

func TestAggregate_WeightedOverall(t *testing.T) {
	scores := []evaluator.CriterionScore{
		scored("c-1", "Discovery", 90, 0.5, "Strong open questions throughout."),
		scored("c-2", "Objection Handling", 40, 0.3, "Objections were deflected, not addressed. Try acknowledging first."),
		scored("c-3", "Next Steps", 70, 0.2, "Next steps agreed but no owner assigned."),
	}

	agg, err := aggregate(scores)

	require.NoError(t, err)
	assert.InDelta(t, 71.0, agg.overallScore, 1e-9)
	assert.Equal(t, []string{"Discovery"}, agg.strengths)
	assert.Equal(t, []string{"Objection Handling"}, agg.improvements)
	require.Len(t, agg.recommendations, 1)
	assert.Equal(t, "Work on objection handling: Objections were deflected, not addressed.", agg.recommendations[0])
}

func TestAggregate_RenormalizesOverScoredOnly(t *testing.T) {
	scores := []evaluator.CriterionScore{
		scored("c-1", "Discovery", 90, 0.5, ""),
		errored("c-2", "Objection Handling", 0.3),
		scored("c-3", "Next Steps", 70, 0.2, ""),
	}

	agg, err := aggregate(scores)

	require.NoError(t, err)
	// (0.5*90 + 0.2*70) / 0.7
	assert.InDelta(t, 84.2857, agg.overallScore, 1e-3)
	assert.NotContains(t, agg.improvements, "Objection Handling")
}

func TestAggregate_AllErrored(t *testing.T) {
	scores := []evaluator.CriterionScore{
		errored("c-1", "Discovery", 0.5),
		errored("c-2", "Next Steps", 0.5),
	}

	_, err := aggregate(scores)

	require.ErrorIs(t, err, ErrAllCriteriaUnscored)
}

func TestAggregate_Empty(t *testing.T) {
	_, err := aggregate(nil)
	require.ErrorIs(t, err, ErrAllCriteriaUnscored)
}

func TestAggregate_HighlightOrderingAndCaps(t *testing.T) {
	scores := []evaluator.CriterionScore{
		scored("c-1", "A", 95, 0.1, ""),
		scored("c-2", "B", 85, 0.1, ""),
		scored("c-3", "C", 88, 0.1, ""),
		scored("c-4", "D", 91, 0.1, ""),
		scored("c-5", "E", 30, 0.2, ""),
		scored("c-6", "F", 45, 0.1, ""),
		scored("c-7", "G", 10, 0.1, ""),
		scored("c-8", "H", 50, 0.2, ""),
	}

	agg, err := aggregate(scores)

	require.NoError(t, err)
	// Strengths: top 3 by score, descending; the fourth qualifier is cut.
	assert.Equal(t, []string{"A", "D", "C"}, agg.strengths)
	// Improvements: bottom 3 by score, ascending.
	assert.Equal(t, []string{"G", "E", "F"}, agg.improvements)
	assert.Len(t, agg.recommendations, 3)
}

func TestAggregate_BoundaryScores(t *testing.T) {
	scores := []evaluator.CriterionScore{
		scored("c-1", "At Strength Threshold", 80, 0.5, ""),
		scored("c-2", "At Improvement Threshold", 50, 0.5, ""),
	}

	agg, err := aggregate(scores)

	require.NoError(t, err)
	assert.Equal(t, []string{"At Strength Threshold"}, agg.strengths)
	assert.Equal(t, []string{"At Improvement Threshold"}, agg.improvements)
}

func TestRecommendation_Deterministic(t *testing.T) {
	withFeedback := scored("c-1", "Closing", 40, 0.5,
		"The close was rushed. Budget was never confirmed.")
	assert.Equal(t, "Work on closing: The close was rushed.", recommendation(withFeedback))

	noFeedback := scored("c-2", "Closing", 40, 0.5, "")
	assert.Equal(t, "Focus on improving closing in upcoming calls.", recommendation(noFeedback))

	// Same input, same output.
	for i := 0; i < 3; i++ {
		assert.Equal(t, recommendation(withFeedback), recommendation(withFeedback))
	}
}
