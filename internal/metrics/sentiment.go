package metrics

import (
	"strings"
)

// scoreSentiment rates a piece of text on a [-1,1] scale using a small
// valence lexicon. It is intentionally simple: the trend computation only
// needs a consistent scorer, not an accurate one, and any fixed lexicon keeps
// Compute deterministic. Negation within two tokens of a valence word flips
// its sign ("not great" reads negative).
func scoreSentiment(text string) float64 {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return 0
	}

	var sum float64
	var hits int
	for i, f := range fields {
		w := strings.Trim(f, ".,!?;:'\"()")
		v, ok := valenceLexicon[w]
		if !ok {
			continue
		}
		if negatedBefore(fields, i) {
			v = -v
		}
		sum += v
		hits++
	}
	if hits == 0 {
		return 0
	}

	score := sum / float64(hits)
	if score > 1 {
		return 1
	}
	if score < -1 {
		return -1
	}
	return score
}

func negatedBefore(fields []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-2; j-- {
		w := strings.Trim(fields[j], ".,!?;:'\"()")
		if _, ok := negators[w]; ok {
			return true
		}
	}
	return false
}

var negators = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "hardly": {}, "barely": {},
	"isn't": {}, "wasn't": {}, "don't": {}, "doesn't": {}, "didn't": {},
	"can't": {}, "won't": {}, "wouldn't": {},
}

// valenceLexicon holds word valences on a [-1,1] scale, weighted roughly by
// strength. Skewed toward vocabulary common in business calls.
var valenceLexicon = map[string]float64{
	// positive
	"good": 0.5, "great": 0.8, "excellent": 1.0, "amazing": 0.9,
	"awesome": 0.9, "fantastic": 0.9, "perfect": 0.9, "love": 0.8,
	"like": 0.3, "helpful": 0.6, "happy": 0.7, "glad": 0.6,
	"excited": 0.8, "interesting": 0.5, "useful": 0.5, "valuable": 0.6,
	"impressive": 0.7, "easy": 0.4, "clear": 0.4, "better": 0.4,
	"best": 0.7, "yes": 0.3, "definitely": 0.5, "absolutely": 0.6,
	"agree": 0.5, "thanks": 0.6, "thank": 0.6, "appreciate": 0.7,
	"works": 0.3, "solved": 0.6, "win": 0.6, "success": 0.7,

	// negative
	"bad": -0.5, "terrible": -0.9, "awful": -0.9, "horrible": -0.9,
	"hate": -0.8, "poor": -0.5, "problem": -0.4, "problems": -0.4,
	"issue": -0.3, "issues": -0.3, "difficult": -0.5, "hard": -0.4,
	"confusing": -0.5, "confused": -0.5, "unclear": -0.4, "worried": -0.6,
	"concern": -0.4, "concerned": -0.5, "frustrating": -0.7,
	"frustrated": -0.7, "disappointed": -0.7, "annoying": -0.6,
	"expensive": -0.4, "slow": -0.4, "broken": -0.6, "fail": -0.6,
	"failed": -0.6, "wrong": -0.5, "worse": -0.5, "worst": -0.8,
	"unfortunately": -0.5, "risk": -0.3, "blocker": -0.6, "churn": -0.5,
}
