package transcript

import (
	"strings"
)

// Role identifies which side of the conversation a speaker belongs to.
type Role string

const (
	RoleHost        Role = "host"
	RoleParticipant Role = "participant"
	RoleUnknown     Role = "unknown"
)

// Utterance is a single diarized, timestamped span of speech. Utterances from
// different speakers may overlap in time; an overlap indicates an interruption.
type Utterance struct {
	SpeakerID     string `json:"speaker_id"`
	Role          Role   `json:"role"`
	StartOffsetMs int64  `json:"start_offset_ms"`
	EndOffsetMs   int64  `json:"end_offset_ms"`
	Text          string `json:"text"`
}

// DurationMs returns the utterance length, never negative.
func (u Utterance) DurationMs() int64 {
	if u.EndOffsetMs < u.StartOffsetMs {
		return 0
	}
	return u.EndOffsetMs - u.StartOffsetMs
}

// WordCount returns the number of whitespace-separated tokens in the text.
func (u Utterance) WordCount() int {
	return len(strings.Fields(u.Text))
}

// Transcript is the ordered utterance sequence for one meeting, produced by
// the upstream transcription service. The engine only reads it.
type Transcript struct {
	MeetingID  string      `json:"meeting_id"`
	Utterances []Utterance `json:"utterances"`
}

// Empty reports whether the transcript carries no utterances.
func (t Transcript) Empty() bool {
	return len(t.Utterances) == 0
}

// SpeakerCount returns the number of distinct speaker IDs.
func (t Transcript) SpeakerCount() int {
	seen := make(map[string]struct{}, 4)
	for _, u := range t.Utterances {
		seen[u.SpeakerID] = struct{}{}
	}
	return len(seen)
}

// SpanMs returns the elapsed time from the first utterance start to the last
// utterance end.
func (t Transcript) SpanMs() int64 {
	if len(t.Utterances) == 0 {
		return 0
	}
	var end int64
	for _, u := range t.Utterances {
		if u.EndOffsetMs > end {
			end = u.EndOffsetMs
		}
	}
	span := end - t.Utterances[0].StartOffsetMs
	if span < 0 {
		return 0
	}
	return span
}

// WordCount returns the total word count across all utterances.
func (t Transcript) WordCount() int {
	total := 0
	for _, u := range t.Utterances {
		total += u.WordCount()
	}
	return total
}

// Text renders the transcript as speaker-labeled lines, the form handed to
// the judgment capability.
func (t Transcript) Text() string {
	var b strings.Builder
	for _, u := range t.Utterances {
		b.WriteString(u.SpeakerID)
		b.WriteString(" (")
		b.WriteString(string(u.Role))
		b.WriteString("): ")
		b.WriteString(u.Text)
		b.WriteByte('\n')
	}
	return b.String()
}
