package models

// ResultRow is the storage shape of a completed evaluation. The nested
// collections (criteria scores, strengths, improvements, recommendations,
// metrics) are stored as JSON columns.
type ResultRow struct {
	ID              string
	MeetingID       string
	ScorecardID     string
	OverallScore    float64
	CriteriaScores  string
	Strengths       string
	Improvements    string
	Recommendations string
	Metrics         string
	GeneratedAt     string
}
