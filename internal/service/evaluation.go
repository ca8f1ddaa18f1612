package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/meetsync/scorecard-engine/internal/evaluator"
	"github.com/meetsync/scorecard-engine/internal/metrics"
	"github.com/meetsync/scorecard-engine/internal/repository"
	"github.com/meetsync/scorecard-engine/internal/rubric"
	"github.com/meetsync/scorecard-engine/internal/transcript"
)

var (
	// ErrTranscriptUnavailable means no transcript exists for the meeting.
	// Fatal for the run; the engine does not retry it.
	ErrTranscriptUnavailable = errors.New("transcript unavailable")

	// ErrScorecardNotFound means the referenced scorecard does not exist.
	ErrScorecardNotFound = errors.New("scorecard not found")

	// ErrAllCriteriaUnscored means every criterion errored, so no overall
	// score can be produced.
	ErrAllCriteriaUnscored = errors.New("all criteria unscored")

	// ErrResultNotFound means no completed evaluation exists for the key.
	ErrResultNotFound = errors.New("scorecard result not found")

	// ErrStorageFailure wraps repository errors.
	ErrStorageFailure = errors.New("storage failure")
)

const (
	defaultEvalTimeout = 60 * time.Second
	defaultCacheTTL    = 10 * time.Minute
	persistTimeout     = 5 * time.Second

	resultKeyPrefix = "scorecard:result"
)

// EvaluationService is the engine's entrypoint: it turns a meeting transcript
// and a scorecard into a cached ScorecardResult.
type EvaluationService struct {
	transcripts TranscriptRepository
	scorecards  ScorecardRepository
	results     ResultRepository
	evaluator   CriterionEvaluator
	cache       Cacher

	coord      *coordinator
	sfGroup    singleflight.Group
	logger     *zap.Logger
	metricsCfg metrics.Config
	timeout    time.Duration
	cacheTTL   time.Duration
}

type ServiceOption func(*EvaluationService)

// WithEvaluationTimeout overrides the default 60s whole-run deadline.
func WithEvaluationTimeout(d time.Duration) ServiceOption {
	return func(s *EvaluationService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithCacheTTL(d time.Duration) ServiceOption {
	return func(s *EvaluationService) {
		if d > 0 {
			s.cacheTTL = d
		}
	}
}

func WithMetricsConfig(cfg metrics.Config) ServiceOption {
	return func(s *EvaluationService) { s.metricsCfg = cfg }
}

// NewEvaluationService wires the engine. Repositories and the evaluator must
// not be nil; cache may be nil, in which case only the in-process result
// cache applies.
func NewEvaluationService(
	transcripts TranscriptRepository,
	scorecards ScorecardRepository,
	results ResultRepository,
	ev CriterionEvaluator,
	cache Cacher,
	logger *zap.Logger,
	opts ...ServiceOption,
) *EvaluationService {
	if transcripts == nil || scorecards == nil || results == nil {
		panic("repositories must not be nil")
	}
	if ev == nil {
		panic("evaluator must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}

	s := &EvaluationService{
		transcripts: transcripts,
		scorecards:  scorecards,
		results:     results,
		evaluator:   ev,
		cache:       cache,
		coord:       newCoordinator(),
		logger:      logger.Named("evaluation"),
		metricsCfg:  metrics.DefaultConfig(),
		timeout:     defaultEvalTimeout,
		cacheTTL:    defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func resultKey(meetingID, scorecardID string) string {
	return fmt.Sprintf("%s:%s:%s", resultKeyPrefix, meetingID, scorecardID)
}

// Evaluate runs (or attaches to, or serves from cache) the evaluation for one
// (meeting, scorecard) pair. Concurrent callers for the same key share a
// single run and receive the same result.
func (s *EvaluationService) Evaluate(ctx context.Context, req EvaluateRequest) (*ScorecardResult, error) {
	if req.MeetingID == "" || req.ScorecardID == "" {
		return nil, fmt.Errorf("meeting id and scorecard id are required")
	}

	key := evalKey{meetingID: req.MeetingID, scorecardID: req.ScorecardID}
	return s.coord.do(ctx, key, req.ForceRefresh, func() (*ScorecardResult, error) {
		return s.runEvaluation(req)
	})
}

// runEvaluation executes one full evaluation. It runs under its own deadline,
// detached from the first caller's context, so attached waiters are not
// failed by one caller hanging up.
func (s *EvaluationService) runEvaluation(req EvaluateRequest) (*ScorecardResult, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = s.timeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	started := time.Now()

	tr, err := s.transcripts.GetTranscript(ctx, req.MeetingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: meeting %q", ErrTranscriptUnavailable, req.MeetingID)
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if tr.Empty() {
		return nil, fmt.Errorf("%w: meeting %q has an empty transcript", ErrTranscriptUnavailable, req.MeetingID)
	}

	sc, err := s.scorecards.GetScorecard(ctx, req.ScorecardID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrScorecardNotFound, req.ScorecardID)
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if err := sc.Normalize(); err != nil {
		return nil, err
	}
	if sc.AutoNormalized {
		s.logger.Warn("scorecard weights auto-normalized",
			zap.String("scorecard_id", sc.ID))
	}

	m := metrics.Compute(tr, s.metricsCfg)

	scores := s.evaluateCriteria(ctx, tr, sc.Criteria, m)

	agg, err := aggregate(scores)
	if err != nil {
		return nil, fmt.Errorf("%w: scorecard %q", err, sc.ID)
	}

	result := &ScorecardResult{
		ID:              uuid.NewString(),
		MeetingID:       req.MeetingID,
		ScorecardID:     req.ScorecardID,
		OverallScore:    agg.overallScore,
		CriteriaScores:  scores,
		Strengths:       agg.strengths,
		Improvements:    agg.improvements,
		Recommendations: agg.recommendations,
		Metrics:         m,
		GeneratedAt:     time.Now().UTC(),
	}

	s.persist(result)

	s.logger.Info("evaluation completed",
		zap.String("meeting_id", req.MeetingID),
		zap.String("scorecard_id", req.ScorecardID),
		zap.Float64("overall_score", result.OverallScore),
		zap.Int("criteria", len(scores)),
		zap.Int("errored", countErrored(scores)),
		zap.Duration("took", time.Since(started)))

	return result, nil
}

// evaluateCriteria fans out one evaluation per criterion and joins them. No
// ordering is assumed between criteria; the slice is indexed so results land
// in place. When the run deadline expires mid-flight the evaluator marks the
// unfinished criteria as errored ("timeout") and aggregation proceeds with
// whatever completed.
func (s *EvaluationService) evaluateCriteria(ctx context.Context, tr transcript.Transcript, criteria []rubric.ScoringCriterion, m metrics.CallMetrics) []evaluator.CriterionScore {
	scores := make([]evaluator.CriterionScore, len(criteria))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range criteria {
		g.Go(func() error {
			scores[i] = s.evaluator.Evaluate(gctx, tr, c, m)
			return nil
		})
	}
	// Evaluators never return errors; Wait only joins the fan-out.
	_ = g.Wait()

	return scores
}

func countErrored(scores []evaluator.CriterionScore) int {
	n := 0
	for _, cs := range scores {
		if cs.Status != evaluator.StatusScored {
			n++
		}
	}
	return n
}

// persist writes the result through to storage and the shared cache. Both
// writes get fresh, short deadlines: the run context may already be near or
// past its own. Persistence failure is logged, not fatal; the caller still
// receives the computed result.
func (s *EvaluationService) persist(result *ScorecardResult) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	row, err := resultToRow(result)
	if err != nil {
		s.logger.Error("failed to encode result", zap.Error(err))
		return
	}
	if err := s.results.UpsertResult(ctx, row); err != nil {
		s.logger.Error("failed to persist result",
			zap.String("meeting_id", result.MeetingID),
			zap.String("scorecard_id", result.ScorecardID),
			zap.Error(err))
	}

	if s.cache != nil {
		key := resultKey(result.MeetingID, result.ScorecardID)
		if err := s.cache.Set(ctx, key, result, ttlJitter(s.cacheTTL)); err != nil {
			s.logger.Warn("failed to cache result", zap.String("key", key), zap.Error(err))
		}
	}
}

// GetResult retrieves a completed evaluation by key without triggering a run:
// in-process cache first, then the shared cache, then storage (read-through).
func (s *EvaluationService) GetResult(ctx context.Context, meetingID, scorecardID string) (*ScorecardResult, error) {
	if res, ok := s.coord.cached(evalKey{meetingID: meetingID, scorecardID: scorecardID}); ok {
		return res, nil
	}

	key := resultKey(meetingID, scorecardID)
	return findAndCache(ctx, s.cache, &s.sfGroup, key, s.cacheTTL, s.logger, func(fetchCtx context.Context) (*ScorecardResult, error) {
		row, err := s.results.GetResult(fetchCtx, meetingID, scorecardID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: meeting %q scorecard %q", ErrResultNotFound, meetingID, scorecardID)
			}
			return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}
		return resultFromRow(row)
	})
}

// Metrics computes call metrics for a meeting without running an evaluation.
func (s *EvaluationService) Metrics(ctx context.Context, meetingID string) (metrics.CallMetrics, error) {
	tr, err := s.transcripts.GetTranscript(ctx, meetingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return metrics.CallMetrics{}, fmt.Errorf("%w: meeting %q", ErrTranscriptUnavailable, meetingID)
		}
		return metrics.CallMetrics{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return metrics.Compute(tr, s.metricsCfg), nil
}
