package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/meetsync/scorecard-engine/internal/evaluator"
	"github.com/meetsync/scorecard-engine/internal/metrics"
	"github.com/meetsync/scorecard-engine/internal/repository/models"
)

// ScorecardResult is the complete output of one evaluation run, keyed by
// (MeetingID, ScorecardID). A later run with the same key overwrites it.
type ScorecardResult struct {
	ID              string                     `json:"id"`
	MeetingID       string                     `json:"meeting_id"`
	ScorecardID     string                     `json:"scorecard_id"`
	OverallScore    float64                    `json:"overall_score"`
	CriteriaScores  []evaluator.CriterionScore `json:"criteria_scores"`
	Strengths       []string                   `json:"strengths"`
	Improvements    []string                   `json:"improvements"`
	Recommendations []string                   `json:"recommendations"`
	Metrics         metrics.CallMetrics        `json:"metrics"`
	GeneratedAt     time.Time                  `json:"generated_at"`
}

// EvaluateRequest asks for the scorecard evaluation of one meeting.
type EvaluateRequest struct {
	MeetingID   string
	ScorecardID string
	// ForceRefresh invalidates a completed result and re-runs the evaluation.
	ForceRefresh bool
	// Timeout bounds the whole run; zero means the service default.
	Timeout time.Duration
}

func resultToRow(res *ScorecardResult) (models.ResultRow, error) {
	scores, err := json.Marshal(res.CriteriaScores)
	if err != nil {
		return models.ResultRow{}, fmt.Errorf("marshal criteria scores: %w", err)
	}
	strengths, err := json.Marshal(res.Strengths)
	if err != nil {
		return models.ResultRow{}, fmt.Errorf("marshal strengths: %w", err)
	}
	improvements, err := json.Marshal(res.Improvements)
	if err != nil {
		return models.ResultRow{}, fmt.Errorf("marshal improvements: %w", err)
	}
	recommendations, err := json.Marshal(res.Recommendations)
	if err != nil {
		return models.ResultRow{}, fmt.Errorf("marshal recommendations: %w", err)
	}
	m, err := json.Marshal(res.Metrics)
	if err != nil {
		return models.ResultRow{}, fmt.Errorf("marshal metrics: %w", err)
	}

	return models.ResultRow{
		ID:              res.ID,
		MeetingID:       res.MeetingID,
		ScorecardID:     res.ScorecardID,
		OverallScore:    res.OverallScore,
		CriteriaScores:  string(scores),
		Strengths:       string(strengths),
		Improvements:    string(improvements),
		Recommendations: string(recommendations),
		Metrics:         string(m),
		GeneratedAt:     res.GeneratedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

func resultFromRow(row models.ResultRow) (*ScorecardResult, error) {
	res := &ScorecardResult{
		ID:           row.ID,
		MeetingID:    row.MeetingID,
		ScorecardID:  row.ScorecardID,
		OverallScore: row.OverallScore,
	}

	if err := json.Unmarshal([]byte(row.CriteriaScores), &res.CriteriaScores); err != nil {
		return nil, fmt.Errorf("unmarshal criteria scores: %w", err)
	}
	if err := json.Unmarshal([]byte(row.Strengths), &res.Strengths); err != nil {
		return nil, fmt.Errorf("unmarshal strengths: %w", err)
	}
	if err := json.Unmarshal([]byte(row.Improvements), &res.Improvements); err != nil {
		return nil, fmt.Errorf("unmarshal improvements: %w", err)
	}
	if err := json.Unmarshal([]byte(row.Recommendations), &res.Recommendations); err != nil {
		return nil, fmt.Errorf("unmarshal recommendations: %w", err)
	}
	if err := json.Unmarshal([]byte(row.Metrics), &res.Metrics); err != nil {
		return nil, fmt.Errorf("unmarshal metrics: %w", err)
	}

	generatedAt, err := time.Parse(time.RFC3339Nano, row.GeneratedAt)
	if err != nil {
		return nil, fmt.Errorf("parse generated_at: %w", err)
	}
	res.GeneratedAt = generatedAt
	return res, nil
}
