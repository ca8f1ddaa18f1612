package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/meetsync/scorecard-engine/internal/repository/models"
)

// ResultRepository stores completed evaluations. Results are keyed by
// (meeting_id, scorecard_id); a later run for the same key overwrites the
// earlier one.
type ResultRepository struct {
	db *sql.DB
}

func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// UpsertResult writes a result, replacing any previous run for the same key.
func (r *ResultRepository) UpsertResult(ctx context.Context, row models.ResultRow) error {
	const stmt = `
		INSERT INTO scorecard_results
			(id, meeting_id, scorecard_id, overall_score, criteria_scores,
			 strengths, improvements, recommendations, metrics, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (meeting_id, scorecard_id) DO UPDATE SET
			id = excluded.id,
			overall_score = excluded.overall_score,
			criteria_scores = excluded.criteria_scores,
			strengths = excluded.strengths,
			improvements = excluded.improvements,
			recommendations = excluded.recommendations,
			metrics = excluded.metrics,
			generated_at = excluded.generated_at
	`

	_, err := r.db.ExecContext(ctx, stmt,
		row.ID, row.MeetingID, row.ScorecardID, row.OverallScore,
		row.CriteriaScores, row.Strengths, row.Improvements,
		row.Recommendations, row.Metrics, row.GeneratedAt)
	if err != nil {
		return fmt.Errorf("upsert result: %w", err)
	}
	return nil
}

// GetResult fetches the stored result for a (meeting, scorecard) pair.
func (r *ResultRepository) GetResult(ctx context.Context, meetingID, scorecardID string) (models.ResultRow, error) {
	const query = `
		SELECT id, meeting_id, scorecard_id, overall_score, criteria_scores,
		       strengths, improvements, recommendations, metrics, generated_at
		FROM scorecard_results
		WHERE meeting_id = ? AND scorecard_id = ?
	`

	var row models.ResultRow
	err := r.db.QueryRowContext(ctx, query, meetingID, scorecardID).Scan(
		&row.ID, &row.MeetingID, &row.ScorecardID, &row.OverallScore,
		&row.CriteriaScores, &row.Strengths, &row.Improvements,
		&row.Recommendations, &row.Metrics, &row.GeneratedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ResultRow{}, fmt.Errorf("%w: result for meeting %q scorecard %q", ErrNotFound, meetingID, scorecardID)
		}
		return models.ResultRow{}, fmt.Errorf("query GetResult: %w", err)
	}
	return row, nil
}
