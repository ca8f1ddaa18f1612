package app

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/meetsync/scorecard-engine/internal/config"
	"github.com/meetsync/scorecard-engine/internal/evaluator"
	"github.com/meetsync/scorecard-engine/internal/judge"
	"github.com/meetsync/scorecard-engine/internal/repository"
	"github.com/meetsync/scorecard-engine/internal/service"
	"github.com/meetsync/scorecard-engine/pkg/cache"
	dbbuilder "github.com/meetsync/scorecard-engine/pkg/database"
)

// App owns the wired engine and its infrastructure handles.
type App struct {
	Logger      *zap.Logger
	DB          *sql.DB
	Cache       service.Cacher
	Evaluation  *service.EvaluationService
	Transcripts *repository.TranscriptRepository
	Scorecards  *repository.ScorecardRepository
}

// NewApp wires storage, cache, judge, evaluator, and the evaluation service.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	dbPool, err := dbbuilder.New(
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(cfg.DBPath),
	)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	if err := repository.Migrate(ctx, dbPool); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("database migrate failed: %w", err)
	}
	logger.Info("Database pool initialized", zap.String("path", cfg.DBPath))

	var cacheClient service.Cacher
	if cfg.RedisAddr != "" {
		redisCache, err := cache.New(ctx, cache.WithAddress(cfg.RedisAddr))
		if err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("cache init failed: %w", err)
		}
		cacheClient = redisCache
		logger.Info("Cache client initialized", zap.String("addr", cfg.RedisAddr))
	} else {
		cacheClient = cache.NewMemory()
		logger.Info("Using in-process cache (no REDIS_ADDR configured)")
	}

	transcriptRepo := repository.NewTranscriptRepository(dbPool)
	scorecardRepo := repository.NewScorecardRepository(dbPool)
	resultRepo := repository.NewResultRepository(dbPool)

	judgeClient := judge.NewHTTPJudge(cfg.JudgeEndpoint, logger,
		judge.WithAPIKey(cfg.JudgeAPIKey),
		judge.WithModel(cfg.JudgeModel),
	)

	criterionEvaluator := evaluator.New(judgeClient, logger)

	evaluationService := service.NewEvaluationService(
		transcriptRepo, scorecardRepo, resultRepo,
		criterionEvaluator, cacheClient, logger,
		service.WithEvaluationTimeout(cfg.EvaluationTimeout),
		service.WithCacheTTL(cfg.ResultCacheTTL),
	)

	return &App{
		Logger:      logger,
		DB:          dbPool,
		Cache:       cacheClient,
		Evaluation:  evaluationService,
		Transcripts: transcriptRepo,
		Scorecards:  scorecardRepo,
	}, nil
}

// Close releases infrastructure handles.
func (a *App) Close() {
	if err := a.Cache.Close(); err != nil {
		a.Logger.Error("cache shutdown error", zap.Error(err))
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("database shutdown error", zap.Error(err))
	}
	_ = a.Logger.Sync()
}
