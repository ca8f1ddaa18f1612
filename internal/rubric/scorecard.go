package rubric

import (
	"errors"
	"fmt"
	"math"
)

// WeightEpsilon is the tolerance within which criterion weights must sum to 1.
const WeightEpsilon = 1e-6

var (
	// ErrInvalidCriteriaWeights means the scorecard's weights cannot be
	// normalized, e.g. a criterion has weight <= 0 or there are no criteria.
	ErrInvalidCriteriaWeights = errors.New("invalid criteria weights")
)

// ScoringCriterion is one weighted dimension of a scorecard. EvaluationPrompt
// is the instruction handed to the judgment capability for this dimension.
type ScoringCriterion struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Description      string  `json:"description,omitempty"`
	Weight           float64 `json:"weight"`
	Category         string  `json:"category,omitempty"`
	EvaluationPrompt string  `json:"evaluation_prompt"`
}

// Scorecard is a named set of weighted scoring criteria. Scorecards are
// immutable once referenced by a result; edits create a new scorecard ID.
type Scorecard struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Criteria    []ScoringCriterion `json:"criteria"`
	IsActive    bool               `json:"is_active"`

	// AutoNormalized is set when the stored weights did not sum to 1 and were
	// proportionally rescaled at load time.
	AutoNormalized bool `json:"auto_normalized,omitempty"`
}

// Normalize enforces the weight-sum invariant at load time. Weights must each
// be positive; if their sum deviates from 1.0 by more than WeightEpsilon they
// are rescaled proportionally and the scorecard is flagged AutoNormalized.
func (s *Scorecard) Normalize() error {
	if len(s.Criteria) == 0 {
		return fmt.Errorf("%w: scorecard %q has no criteria", ErrInvalidCriteriaWeights, s.ID)
	}

	var sum float64
	for _, c := range s.Criteria {
		if c.Weight <= 0 {
			return fmt.Errorf("%w: criterion %q has weight %v", ErrInvalidCriteriaWeights, c.ID, c.Weight)
		}
		sum += c.Weight
	}

	if math.Abs(sum-1.0) <= WeightEpsilon {
		return nil
	}

	for i := range s.Criteria {
		s.Criteria[i].Weight /= sum
	}
	s.AutoNormalized = true
	return nil
}

// WeightSum returns the current sum of criterion weights.
func (s *Scorecard) WeightSum() float64 {
	var sum float64
	for _, c := range s.Criteria {
		sum += c.Weight
	}
	return sum
}
