// Package judge defines the external judgment capability the engine depends
// on for qualitative scoring, and an HTTP implementation targeting an
// OpenAI-style chat-completions endpoint. The engine treats the capability as
// opaque: any implementation that honors the request/response contract can be
// injected, which keeps the metrics and aggregation logic unit-testable with
// a deterministic stub.
package judge

import (
	"context"
	"errors"
	"fmt"
)

// Request carries everything the capability needs to score one criterion.
// MetricsContext is supporting context only, never the scored subject.
type Request struct {
	CriterionPrompt   string `json:"criterion_prompt"`
	TranscriptExcerpt string `json:"transcript_excerpt"`
	MetricsContext    string `json:"metrics_context,omitempty"`
}

// Response is the capability's verdict for one criterion.
type Response struct {
	// Score must be in [0,100]; the evaluator rejects anything else.
	Score    float64  `json:"score"`
	Feedback string   `json:"feedback"`
	// Examples are up to three quoted spans from the transcript supporting
	// the verdict.
	Examples []string `json:"examples,omitempty"`
}

// Judge is the judgment capability contract.
type Judge interface {
	Score(ctx context.Context, req Request) (Response, error)
}

// ErrTransient classifies failures worth retrying: timeouts, rate limits,
// upstream 5xx. Implementations wrap such errors with it.
var ErrTransient = errors.New("transient judge failure")

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

func transientf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTransient, fmt.Sprintf(format, args...))
}
