package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUtterance_DurationMs(t *testing.T) {
	assert.Equal(t, int64(4000), Utterance{StartOffsetMs: 1000, EndOffsetMs: 5000}.DurationMs())
	// Malformed timestamps clamp to zero instead of going negative.
	assert.Equal(t, int64(0), Utterance{StartOffsetMs: 5000, EndOffsetMs: 1000}.DurationMs())
}

func TestUtterance_WordCount(t *testing.T) {
	assert.Equal(t, 0, Utterance{Text: "   "}.WordCount())
	assert.Equal(t, 3, Utterance{Text: "  yeah,  totally agree "}.WordCount())
}

func TestTranscript_Aggregates(t *testing.T) {
	tr := Transcript{
		MeetingID: "m-1",
		Utterances: []Utterance{
			{SpeakerID: "host", Role: RoleHost, StartOffsetMs: 1000, EndOffsetMs: 5000, Text: "Thanks for joining today"},
			{SpeakerID: "guest", Role: RoleParticipant, StartOffsetMs: 5500, EndOffsetMs: 9000, Text: "Happy to be here"},
			{SpeakerID: "host", Role: RoleHost, StartOffsetMs: 9500, EndOffsetMs: 12000, Text: "Great"},
		},
	}

	assert.False(t, tr.Empty())
	assert.Equal(t, 2, tr.SpeakerCount())
	assert.Equal(t, int64(11_000), tr.SpanMs())
	assert.Equal(t, 9, tr.WordCount())

	text := tr.Text()
	assert.Contains(t, text, "host (host): Thanks for joining today\n")
	assert.Contains(t, text, "guest (participant): Happy to be here\n")
}

func TestTranscript_Empty(t *testing.T) {
	tr := Transcript{MeetingID: "m-1"}

	assert.True(t, tr.Empty())
	assert.Equal(t, 0, tr.SpeakerCount())
	assert.Equal(t, int64(0), tr.SpanMs())
	assert.Equal(t, "", tr.Text())
}
