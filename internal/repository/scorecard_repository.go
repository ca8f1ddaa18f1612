package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/meetsync/scorecard-engine/internal/rubric"
)

// ScorecardRepository stores scorecards and their weighted criteria.
// Scorecards are treated as immutable once written; rubric edits create new
// scorecard IDs upstream.
type ScorecardRepository struct {
	db *sql.DB
}

func NewScorecardRepository(db *sql.DB) *ScorecardRepository {
	return &ScorecardRepository{db: db}
}

// GetScorecard loads a scorecard with its criteria in authoring order.
// Weights are returned as stored; normalization happens in the engine.
func (r *ScorecardRepository) GetScorecard(ctx context.Context, id string) (rubric.Scorecard, error) {
	const header = `
		SELECT id, name, description, is_active
		FROM scorecards
		WHERE id = ?
	`

	var sc rubric.Scorecard
	err := r.db.QueryRowContext(ctx, header, id).Scan(&sc.ID, &sc.Name, &sc.Description, &sc.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rubric.Scorecard{}, fmt.Errorf("%w: scorecard %q", ErrNotFound, id)
		}
		return rubric.Scorecard{}, fmt.Errorf("query GetScorecard: %w", err)
	}

	const criteria = `
		SELECT id, name, description, weight, category, evaluation_prompt
		FROM scoring_criteria
		WHERE scorecard_id = ?
		ORDER BY position, id
	`

	rows, err := r.db.QueryContext(ctx, criteria, id)
	if err != nil {
		return rubric.Scorecard{}, fmt.Errorf("query GetScorecard criteria: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c rubric.ScoringCriterion
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Weight, &c.Category, &c.EvaluationPrompt); err != nil {
			return rubric.Scorecard{}, fmt.Errorf("scan GetScorecard criterion: %w", err)
		}
		sc.Criteria = append(sc.Criteria, c)
	}
	if err := rows.Err(); err != nil {
		return rubric.Scorecard{}, fmt.Errorf("iterate GetScorecard criteria: %w", err)
	}

	return sc, nil
}

// ListScorecards returns all scorecard headers, active first.
func (r *ScorecardRepository) ListScorecards(ctx context.Context) ([]rubric.Scorecard, error) {
	const query = `
		SELECT id, name, description, is_active
		FROM scorecards
		ORDER BY is_active DESC, name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ListScorecards: %w", err)
	}
	defer rows.Close()

	var out []rubric.Scorecard
	for rows.Next() {
		var sc rubric.Scorecard
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.Description, &sc.IsActive); err != nil {
			return nil, fmt.Errorf("scan ListScorecards row: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ListScorecards: %w", err)
	}
	return out, nil
}

// CreateScorecard writes a scorecard and its criteria in one transaction.
func (r *ScorecardRepository) CreateScorecard(ctx context.Context, sc rubric.Scorecard) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin CreateScorecard: %w", err)
	}
	defer tx.Rollback()

	const header = `
		INSERT INTO scorecards (id, name, description, is_active)
		VALUES (?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, header, sc.ID, sc.Name, sc.Description, sc.IsActive); err != nil {
		return fmt.Errorf("insert scorecard: %w", err)
	}

	const criterion = `
		INSERT INTO scoring_criteria (id, scorecard_id, name, description, weight, category, evaluation_prompt, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, c := range sc.Criteria {
		if _, err := tx.ExecContext(ctx, criterion, c.ID, sc.ID, c.Name, c.Description, c.Weight, c.Category, c.EvaluationPrompt, i); err != nil {
			return fmt.Errorf("insert criterion %q: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit CreateScorecard: %w", err)
	}
	return nil
}
