package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const systemPrompt = `You are an expert conversation coach scoring one dimension of a recorded meeting.
Evaluate the transcript strictly against the criterion you are given.
Respond with a JSON object with exactly these keys:
- "score": number between 0 and 100
- "feedback": one or two sentences of concrete feedback
- "examples": array of 0 to 3 short quotes from the transcript supporting your verdict`

// HTTPJudge calls an OpenAI-compatible chat-completions endpoint and parses
// the model's JSON verdict. Retry policy lives in the evaluator; this client
// only classifies failures as transient or not.
type HTTPJudge struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	logger   *zap.Logger
}

type HTTPOption func(*HTTPJudge)

func WithAPIKey(key string) HTTPOption {
	return func(j *HTTPJudge) { j.apiKey = key }
}

func WithModel(model string) HTTPOption {
	return func(j *HTTPJudge) { j.model = model }
}

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(j *HTTPJudge) { j.client = c }
}

func WithRequestTimeout(d time.Duration) HTTPOption {
	return func(j *HTTPJudge) { j.client.Timeout = d }
}

// NewHTTPJudge creates a judge client for the given chat-completions endpoint.
func NewHTTPJudge(endpoint string, logger *zap.Logger, opts ...HTTPOption) *HTTPJudge {
	if logger == nil {
		logger = zap.NewNop()
	}
	j := &HTTPJudge{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    "gpt-4o-mini",
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger.Named("judge"),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Score implements Judge over HTTP.
func (j *HTTPJudge) Score(ctx context.Context, req Request) (Response, error) {
	body := chatRequest{
		Model: j.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(req)},
		},
		Temperature: 0.2,
		MaxTokens:   800,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("marshal judge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		j.endpoint+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("build judge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if j.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+j.apiKey)
	}

	resp, err := j.client.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return Response{}, transientf("judge request timed out: %v", err)
		}
		return Response{}, fmt.Errorf("judge request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Response{}, transientf("read judge response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		if isRetryableStatus(resp.StatusCode) {
			return Response{}, transientf("judge returned status %d", resp.StatusCode)
		}
		return Response{}, fmt.Errorf("judge returned status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var chat chatResponse
	if err := json.Unmarshal(raw, &chat); err != nil {
		return Response{}, fmt.Errorf("decode judge response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return Response{}, fmt.Errorf("judge response has no choices")
	}

	verdict, err := parseVerdict(chat.Choices[0].Message.Content)
	if err != nil {
		return Response{}, err
	}

	j.logger.Debug("judge verdict",
		zap.Float64("score", verdict.Score),
		zap.Int("examples", len(verdict.Examples)))

	return verdict, nil
}

func buildUserPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Criterion:\n")
	b.WriteString(req.CriterionPrompt)
	if req.MetricsContext != "" {
		b.WriteString("\n\nCall statistics (context only, do not score these):\n")
		b.WriteString(req.MetricsContext)
	}
	b.WriteString("\n\nTranscript:\n")
	b.WriteString(req.TranscriptExcerpt)
	return b.String()
}

// parseVerdict decodes the model's JSON verdict, tolerating markdown fences
// around the object.
func parseVerdict(content string) (Response, error) {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	var verdict Response
	if err := json.Unmarshal([]byte(trimmed), &verdict); err != nil {
		return Response{}, fmt.Errorf("parse judge verdict: %w", err)
	}
	return verdict, nil
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return code >= 500
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
