package mocks

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meetsync/scorecard-engine/internal/evaluator"
	"github.com/meetsync/scorecard-engine/internal/metrics"
	"github.com/meetsync/scorecard-engine/internal/rubric"
	"github.com/meetsync/scorecard-engine/internal/transcript"
)

// MockEvaluator is a function-field mock of the criterion evaluator.
type MockEvaluator struct {
	EvaluateFunc func(ctx context.Context, t transcript.Transcript, c rubric.ScoringCriterion, m metrics.CallMetrics) evaluator.CriterionScore
}

func (m *MockEvaluator) Evaluate(ctx context.Context, t transcript.Transcript, c rubric.ScoringCriterion, cm metrics.CallMetrics) evaluator.CriterionScore {
	if m.EvaluateFunc != nil {
		return m.EvaluateFunc(ctx, t, c, cm)
	}
	return evaluator.CriterionScore{CriterionID: c.ID, Status: evaluator.StatusUnscored}
}

// MockCacher is a function-field mock of the cache. Get defaults to a miss.
type MockCacher struct {
	GetFunc   func(ctx context.Context, key string, dest any) error
	SetFunc   func(ctx context.Context, key string, value any, expiration time.Duration) error
	CloseFunc func() error
}

func (m *MockCacher) Get(ctx context.Context, key string, dest any) error {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key, dest)
	}
	return redis.Nil
}

func (m *MockCacher) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	return nil
}

func (m *MockCacher) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
