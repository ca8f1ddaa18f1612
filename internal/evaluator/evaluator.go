// Package evaluator scores a transcript against a single criterion by
// delegating to the injected judgment capability. Failures are isolated: a
// criterion that cannot be scored yields a CriterionScore with StatusError
// and never an error return, so one bad criterion cannot sink a run.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/meetsync/scorecard-engine/internal/judge"
	"github.com/meetsync/scorecard-engine/internal/metrics"
	"github.com/meetsync/scorecard-engine/internal/rubric"
	"github.com/meetsync/scorecard-engine/internal/transcript"
)

// Status describes the outcome of a single criterion evaluation.
type Status string

const (
	StatusScored   Status = "scored"
	StatusUnscored Status = "unscored"
	StatusError    Status = "error"
)

// CriterionScore is the per-criterion result. Score is nil unless
// Status == StatusScored.
type CriterionScore struct {
	CriterionID   string   `json:"criterion_id"`
	CriterionName string   `json:"criterion_name"`
	Score         *float64 `json:"score,omitempty"`
	Feedback      string   `json:"feedback,omitempty"`
	Examples      []string `json:"examples,omitempty"`
	Weight        float64  `json:"weight"`
	Status        Status   `json:"status"`

	// Attempts and Err carry failure context for observability.
	Attempts int    `json:"attempts,omitempty"`
	Err      string `json:"error,omitempty"`
}

// RetryConfig controls the transient-failure retry loop.
type RetryConfig struct {
	MaxRetries int           // retries after the initial attempt
	BaseDelay  time.Duration // first backoff delay
	Factor     float64       // backoff multiplier per retry
	MaxDelay   time.Duration // backoff cap
	Jitter     bool
}

// DefaultRetryConfig matches the documented policy: up to 3 retries with
// exponential backoff, base 500ms, factor 2, capped at 4s, jittered.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		Factor:     2.0,
		MaxDelay:   4 * time.Second,
		Jitter:     true,
	}
}

const (
	defaultMaxExcerptChars = 24000
	maxExamples            = 3
)

// Evaluator runs criterion evaluations against a judge.
type Evaluator struct {
	judge           judge.Judge
	retry           RetryConfig
	maxExcerptChars int
	logger          *zap.Logger
}

type Option func(*Evaluator)

func WithRetryConfig(cfg RetryConfig) Option {
	return func(e *Evaluator) { e.retry = cfg }
}

func WithMaxExcerptChars(n int) Option {
	return func(e *Evaluator) { e.maxExcerptChars = n }
}

// New creates an Evaluator. The judge must not be nil.
func New(j judge.Judge, logger *zap.Logger, opts ...Option) *Evaluator {
	if j == nil {
		panic("judge must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Evaluator{
		judge:           j,
		retry:           DefaultRetryConfig(),
		maxExcerptChars: defaultMaxExcerptChars,
		logger:          logger.Named("evaluator"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate scores the transcript against one criterion. It always returns a
// CriterionScore; judge failures after retry exhaustion, invalid verdicts,
// and deadline expiry all land as StatusError with a nil score.
func (e *Evaluator) Evaluate(ctx context.Context, t transcript.Transcript, c rubric.ScoringCriterion, m metrics.CallMetrics) CriterionScore {
	cs := CriterionScore{
		CriterionID:   c.ID,
		CriterionName: c.Name,
		Weight:        c.Weight,
		Status:        StatusUnscored,
	}

	req := judge.Request{
		CriterionPrompt:   c.EvaluationPrompt,
		TranscriptExcerpt: excerpt(t, e.maxExcerptChars),
		MetricsContext:    metricsContext(m),
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			cs.Status = StatusError
			cs.Attempts = attempt
			cs.Err = deadlineReason(err)
			return cs
		}

		cs.Attempts = attempt + 1
		resp, err := e.judge.Score(ctx, req)
		if err == nil {
			if verr := validateScore(resp.Score); verr != nil {
				e.logger.Warn("judge verdict rejected",
					zap.String("criterion_id", c.ID),
					zap.Error(verr))
				cs.Status = StatusError
				cs.Err = verr.Error()
				return cs
			}
			score := resp.Score
			cs.Score = &score
			cs.Feedback = strings.TrimSpace(resp.Feedback)
			cs.Examples = resp.Examples
			if len(cs.Examples) > maxExamples {
				cs.Examples = cs.Examples[:maxExamples]
			}
			cs.Status = StatusScored
			return cs
		}

		lastErr = err
		if !judge.IsTransient(err) || attempt >= e.retry.MaxRetries {
			break
		}

		delay := e.backoff(attempt)
		e.logger.Warn("judge call failed, retrying",
			zap.String("criterion_id", c.ID),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			cs.Status = StatusError
			cs.Err = deadlineReason(ctx.Err())
			return cs
		case <-time.After(delay):
		}
	}

	e.logger.Error("criterion evaluation failed",
		zap.String("criterion_id", c.ID),
		zap.Int("attempts", cs.Attempts),
		zap.Error(lastErr))

	cs.Status = StatusError
	cs.Err = lastErr.Error()
	return cs
}

func (e *Evaluator) backoff(attempt int) time.Duration {
	delay := time.Duration(float64(e.retry.BaseDelay) * math.Pow(e.retry.Factor, float64(attempt)))
	if delay > e.retry.MaxDelay {
		delay = e.retry.MaxDelay
	}
	if e.retry.Jitter && delay/10 > 0 {
		delay += time.Duration(rand.Int63n(int64(delay / 10)))
	}
	return delay
}

func validateScore(score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return errors.New("judge score is not a finite number")
	}
	if score < 0 || score > 100 {
		return fmt.Errorf("judge score %v outside [0,100]", score)
	}
	return nil
}

func deadlineReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return err.Error()
}

// excerpt bounds the transcript text handed to the judge. Oversized
// transcripts keep their head and tail, which carry the opening and the
// close of the call, with an elision marker between. Cut points back off to
// rune boundaries so the excerpt is always valid UTF-8.
func excerpt(t transcript.Transcript, maxChars int) string {
	text := t.Text()
	if len(text) <= maxChars {
		return text
	}
	head := maxChars * 2 / 3
	for head > 0 && !utf8.RuneStart(text[head]) {
		head--
	}
	start := len(text) - (maxChars - maxChars*2/3)
	for start < len(text) && !utf8.RuneStart(text[start]) {
		start++
	}
	return text[:head] + "\n[... transcript truncated ...]\n" + text[start:]
}

func metricsContext(m metrics.CallMetrics) string {
	if m.Degraded {
		return ""
	}
	ratio := "undefined"
	if !m.TalkRatioUndefined {
		ratio = fmt.Sprintf("%.2f", m.TalkToListenRatio)
	}
	return fmt.Sprintf(
		"talk-to-listen ratio: %s; questions: %d (%d open-ended); interruptions: %d; longest monologue: %ds; engagement: %.0f/100",
		ratio, m.QuestionCount, m.OpenEndedQuestions, m.InterruptionCount,
		m.LongestMonologueMs/1000, m.EngagementScore)
}
