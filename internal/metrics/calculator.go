package metrics

import (
	"math"
	"sort"
	"strings"

	"github.com/meetsync/scorecard-engine/internal/transcript"
)

// SentimentTrend describes how sentiment moved between the first and last
// thirds of the conversation.
type SentimentTrend string

const (
	TrendImproving SentimentTrend = "improving"
	TrendDeclining SentimentTrend = "declining"
	TrendStable    SentimentTrend = "stable"
)

// CallMetrics are objective, rule-derived statistics about a conversation's
// structure. They are computed purely from the transcript; no external
// judgment is involved, and repeated calls on the same transcript always
// produce identical output.
type CallMetrics struct {
	// TalkToListenRatio is host talk time divided by participant talk time.
	// When the participant never speaks the ratio is undefined rather than
	// infinite: the value is 0 and TalkRatioUndefined is set.
	TalkToListenRatio  float64 `json:"talk_to_listen_ratio"`
	TalkRatioUndefined bool    `json:"talk_ratio_undefined,omitempty"`

	QuestionCount      int `json:"question_count"`
	OpenEndedQuestions int `json:"open_ended_questions"`
	ClosedQuestions    int `json:"closed_questions"`

	InterruptionCount     int   `json:"interruption_count"`
	AverageResponseTimeMs int64 `json:"average_response_time_ms"`
	LongestMonologueMs    int64 `json:"longest_monologue_ms"`

	EngagementScore float64        `json:"engagement_score"`
	SentimentTrend  SentimentTrend `json:"sentiment_trend"`

	FillerWordCount int      `json:"filler_word_count"`
	FillerWords     []string `json:"filler_words,omitempty"`
	PaceWpm         int      `json:"pace_wpm"`

	// Degraded marks the sentinel result returned for an empty or one-sided
	// transcript. All numeric fields are zero and the trend is "stable".
	Degraded bool `json:"degraded,omitempty"`
}

// Config holds the tunable constants of the calculator. The defaults are
// policy choices, not contracts; callers may override any of them.
type Config struct {
	// InterruptionGraceMs is how far into another speaker's utterance an
	// overlap must reach before it counts as an interruption.
	InterruptionGraceMs int64
	// BackchannelMaxWords: overlapping utterances with fewer words than this
	// ("yeah", "right") are treated as backchannel, not interruption.
	BackchannelMaxWords int
	// SameTurnGapMs is the largest silence between two utterances of one
	// speaker that still counts as the same monologue turn.
	SameTurnGapMs int64
	// SentimentTrendThreshold is the minimum first-vs-last-third delta, on a
	// [-1,1] scale, required to call the trend improving or declining.
	SentimentTrendThreshold float64

	// Engagement composite weighting. Each component is normalized to [0,1]
	// and the score is monotonic in each input.
	TurnRateCap        float64 // turns per minute treated as full marks
	QuestionDensityCap float64 // questions per 100 words treated as full marks
	TurnRateWeight     float64
	QuestionWeight     float64
	InterruptionWeight float64
}

// DefaultConfig returns the calculator defaults.
func DefaultConfig() Config {
	return Config{
		InterruptionGraceMs:     250,
		BackchannelMaxWords:     3,
		SameTurnGapMs:           1500,
		SentimentTrendThreshold: 0.1,
		TurnRateCap:             6.0,
		QuestionDensityCap:      4.0,
		TurnRateWeight:          0.4,
		QuestionWeight:          0.3,
		InterruptionWeight:      0.3,
	}
}

// interrogative markers: an utterance starting with one of these counts as a
// question even without a trailing "?".
var interrogativeMarkers = map[string]struct{}{
	"who": {}, "what": {}, "when": {}, "where": {}, "why": {}, "how": {},
	"do": {}, "did": {}, "does": {}, "can": {}, "could": {}, "would": {},
	"is": {}, "are": {},
}

// open-ended question openers. Single-word entries must match the whole first
// word; multi-word entries are matched as prefixes.
var openEndedPrefixes = []string{"what", "how", "why", "tell me", "describe", "walk me through"}

// fillerLexicon mirrors the filler words the product flags in coaching views.
var fillerLexicon = []string{"um", "uh", "like", "you know", "actually", "basically", "literally"}

// Compute derives CallMetrics from a transcript. It never fails: an empty
// transcript or one with fewer than two distinct speakers is valid but
// uninformative input and yields the degraded sentinel result.
func Compute(t transcript.Transcript, cfg Config) CallMetrics {
	if t.Empty() || t.SpeakerCount() < 2 {
		return CallMetrics{SentimentTrend: TrendStable, Degraded: true}
	}

	m := CallMetrics{SentimentTrend: TrendStable}

	var hostMs, participantMs int64
	for _, u := range t.Utterances {
		switch u.Role {
		case transcript.RoleHost:
			hostMs += u.DurationMs()
		case transcript.RoleParticipant:
			participantMs += u.DurationMs()
		}
	}
	if participantMs > 0 {
		m.TalkToListenRatio = float64(hostMs) / float64(participantMs)
	} else {
		m.TalkRatioUndefined = true
	}

	m.QuestionCount, m.OpenEndedQuestions = countQuestions(t.Utterances)
	m.ClosedQuestions = m.QuestionCount - m.OpenEndedQuestions

	m.InterruptionCount = countInterruptions(t.Utterances, cfg)
	m.AverageResponseTimeMs = averageResponseTime(t.Utterances)
	m.LongestMonologueMs = longestMonologue(t.Utterances, cfg)

	m.FillerWordCount, m.FillerWords = countFillers(t.Utterances)
	if span := t.SpanMs(); span > 0 {
		m.PaceWpm = int(float64(t.WordCount()) / (float64(span) / 60000.0))
	}

	m.EngagementScore = engagementScore(t, m, cfg)
	m.SentimentTrend = sentimentTrend(t.Utterances, cfg.SentimentTrendThreshold)

	return m
}

// classifyQuestion reports whether an utterance is a question and, if so,
// whether it is open-ended. The classification is a lexical heuristic: a
// trailing "?" or a leading interrogative marker makes a question, and only
// the documented openers make it open-ended. Rhetorical closers such as
// "Right?" are classified as closed questions; this is a known limitation of
// the heuristic, not a defect to patch with further guesses.
func classifyQuestion(text string) (isQuestion, openEnded bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false, false
	}
	lower := strings.ToLower(trimmed)

	if strings.HasSuffix(trimmed, "?") {
		isQuestion = true
	}
	fields := strings.Fields(lower)
	first := strings.Trim(fields[0], ".,!?;:'\"")
	if _, ok := interrogativeMarkers[first]; ok {
		isQuestion = true
	}
	if !isQuestion {
		return false, false
	}
	for _, p := range openEndedPrefixes {
		if strings.Contains(p, " ") {
			if strings.HasPrefix(lower, p) {
				return true, true
			}
		} else if first == p {
			return true, true
		}
	}
	return true, false
}

func countQuestions(utts []transcript.Utterance) (total, open int) {
	for _, u := range utts {
		q, o := classifyQuestion(u.Text)
		if q {
			total++
		}
		if o {
			open++
		}
	}
	return total, open
}

// countInterruptions counts utterances that start while another speaker's
// earlier utterance is still in progress, beyond the grace window. The overlap
// check runs against the latest end seen per other speaker, not just the
// immediately preceding utterance, so a short backchannel in between cannot
// mask a real cut-in. Short backchannel tokens themselves are excluded.
func countInterruptions(utts []transcript.Utterance, cfg Config) int {
	count := 0
	lastEnd := make(map[string]int64, 4)
	for i, cur := range utts {
		if i > 0 && cur.WordCount() >= cfg.BackchannelMaxWords {
			for speaker, end := range lastEnd {
				if speaker == cur.SpeakerID {
					continue
				}
				if cur.StartOffsetMs < end-cfg.InterruptionGraceMs {
					count++
					break
				}
			}
		}
		if cur.EndOffsetMs > lastEnd[cur.SpeakerID] {
			lastEnd[cur.SpeakerID] = cur.EndOffsetMs
		}
	}
	return count
}

// averageResponseTime averages the gap between a question and the next
// utterance by a different speaker. Overlapping answers clamp to zero.
func averageResponseTime(utts []transcript.Utterance) int64 {
	var sum int64
	var n int
	for i := 0; i < len(utts)-1; i++ {
		q, next := utts[i], utts[i+1]
		if isQ, _ := classifyQuestion(q.Text); !isQ {
			continue
		}
		if next.SpeakerID == q.SpeakerID {
			continue
		}
		gap := next.StartOffsetMs - q.EndOffsetMs
		if gap < 0 {
			gap = 0
		}
		sum += gap
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / int64(n)
}

// longestMonologue finds, per speaker, the longest contiguous run of that
// speaker's utterances separated by gaps below the same-turn threshold, and
// returns the maximum summed speech duration across all runs.
func longestMonologue(utts []transcript.Utterance, cfg Config) int64 {
	var longest, run int64
	for i, u := range utts {
		if i == 0 || u.SpeakerID != utts[i-1].SpeakerID ||
			u.StartOffsetMs-utts[i-1].EndOffsetMs >= cfg.SameTurnGapMs {
			run = 0
		}
		run += u.DurationMs()
		if run > longest {
			longest = run
		}
	}
	return longest
}

func countFillers(utts []transcript.Utterance) (int, []string) {
	counts := make(map[string]int, len(fillerLexicon))
	total := 0
	for _, u := range utts {
		lower := strings.ToLower(u.Text)
		for _, fw := range fillerLexicon {
			if n := countWordOccurrences(lower, fw); n > 0 {
				counts[fw] += n
				total += n
			}
		}
	}
	detected := make([]string, 0, len(counts))
	for fw := range counts {
		detected = append(detected, fw)
	}
	sort.Strings(detected)
	return total, detected
}

// countWordOccurrences counts whole-word occurrences of phrase in text.
// Both arguments must already be lowercased.
func countWordOccurrences(text, phrase string) int {
	count := 0
	for idx := 0; ; {
		i := strings.Index(text[idx:], phrase)
		if i < 0 {
			break
		}
		start := idx + i
		end := start + len(phrase)
		if boundary(text, start-1) && boundary(text, end) {
			count++
		}
		idx = end
	}
	return count
}

func boundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	c := text[i]
	return !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9')
}

// engagementScore combines turn-taking frequency, question density, and the
// inverse of the interruption rate into a 0-100 composite. Each component is
// capped and normalized so the score is monotonic in each input.
func engagementScore(t transcript.Transcript, m CallMetrics, cfg Config) float64 {
	spanMin := float64(t.SpanMs()) / 60000.0
	if spanMin <= 0 {
		return 0
	}

	turns := 1
	for i := 1; i < len(t.Utterances); i++ {
		if t.Utterances[i].SpeakerID != t.Utterances[i-1].SpeakerID {
			turns++
		}
	}
	turnRate := math.Min(float64(turns)/spanMin/cfg.TurnRateCap, 1.0)

	var questionDensity float64
	if words := t.WordCount(); words > 0 {
		per100 := float64(m.QuestionCount) / (float64(words) / 100.0)
		questionDensity = math.Min(per100/cfg.QuestionDensityCap, 1.0)
	}

	// 1/(1+rate) decreases monotonically with the interruption rate.
	interruptionInverse := 1.0 / (1.0 + float64(m.InterruptionCount)/spanMin)

	score := 100.0 * (cfg.TurnRateWeight*turnRate +
		cfg.QuestionWeight*questionDensity +
		cfg.InterruptionWeight*interruptionInverse)

	return math.Round(score*10) / 10
}

// sentimentTrend splits the transcript into first and last thirds by
// utterance count and compares their lexicon sentiment scores.
func sentimentTrend(utts []transcript.Utterance, threshold float64) SentimentTrend {
	n := len(utts)
	third := n / 3
	if third == 0 {
		third = 1
	}
	first := scoreUtterances(utts[:third])
	last := scoreUtterances(utts[n-third:])

	switch {
	case last-first > threshold:
		return TrendImproving
	case first-last > threshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func scoreUtterances(utts []transcript.Utterance) float64 {
	if len(utts) == 0 {
		return 0
	}
	var sum float64
	for _, u := range utts {
		sum += scoreSentiment(u.Text)
	}
	return sum / float64(len(utts))
}
