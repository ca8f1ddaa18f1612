package service

import (
	"context"
	"time"

	"github.com/meetsync/scorecard-engine/internal/evaluator"
	"github.com/meetsync/scorecard-engine/internal/metrics"
	"github.com/meetsync/scorecard-engine/internal/repository/models"
	"github.com/meetsync/scorecard-engine/internal/rubric"
	"github.com/meetsync/scorecard-engine/internal/transcript"
)

// TranscriptRepository is the upstream transcript source.
type TranscriptRepository interface {
	GetTranscript(ctx context.Context, meetingID string) (transcript.Transcript, error)
}

// ScorecardRepository is the rubric source.
type ScorecardRepository interface {
	GetScorecard(ctx context.Context, id string) (rubric.Scorecard, error)
}

// ResultRepository persists completed evaluations.
type ResultRepository interface {
	UpsertResult(ctx context.Context, row models.ResultRow) error
	GetResult(ctx context.Context, meetingID, scorecardID string) (models.ResultRow, error)
}

// CriterionEvaluator scores one criterion; implementations must isolate
// failures into the returned CriterionScore rather than erroring.
type CriterionEvaluator interface {
	Evaluate(ctx context.Context, t transcript.Transcript, c rubric.ScoringCriterion, m metrics.CallMetrics) evaluator.CriterionScore
}

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}
