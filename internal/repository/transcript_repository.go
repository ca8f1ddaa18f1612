package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/meetsync/scorecard-engine/internal/transcript"
)

// TranscriptRepository reads and writes diarized utterances. The engine only
// reads; the write path exists for ingestion and seeding.
type TranscriptRepository struct {
	db *sql.DB
}

func NewTranscriptRepository(db *sql.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// GetTranscript fetches the ordered utterance sequence for a meeting.
// Returns ErrNotFound when the meeting has no utterances at all.
func (r *TranscriptRepository) GetTranscript(ctx context.Context, meetingID string) (transcript.Transcript, error) {
	const query = `
		SELECT speaker_id, role, start_offset_ms, end_offset_ms, text
		FROM transcript_utterances
		WHERE meeting_id = ?
		ORDER BY start_offset_ms, id
	`

	rows, err := r.db.QueryContext(ctx, query, meetingID)
	if err != nil {
		return transcript.Transcript{}, fmt.Errorf("query GetTranscript: %w", err)
	}
	defer rows.Close()

	t := transcript.Transcript{MeetingID: meetingID}
	for rows.Next() {
		var u transcript.Utterance
		var role string
		if err := rows.Scan(&u.SpeakerID, &role, &u.StartOffsetMs, &u.EndOffsetMs, &u.Text); err != nil {
			return transcript.Transcript{}, fmt.Errorf("scan GetTranscript row: %w", err)
		}
		u.Role = transcript.Role(role)
		t.Utterances = append(t.Utterances, u)
	}
	if err := rows.Err(); err != nil {
		return transcript.Transcript{}, fmt.Errorf("iterate GetTranscript: %w", err)
	}

	if len(t.Utterances) == 0 {
		return transcript.Transcript{}, fmt.Errorf("%w: transcript for meeting %q", ErrNotFound, meetingID)
	}
	return t, nil
}

// InsertUtterances appends a batch of utterances for a meeting in one
// transaction.
func (r *TranscriptRepository) InsertUtterances(ctx context.Context, meetingID string, utts []transcript.Utterance) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin InsertUtterances: %w", err)
	}
	defer tx.Rollback()

	const stmt = `
		INSERT INTO transcript_utterances (meeting_id, speaker_id, role, start_offset_ms, end_offset_ms, text)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for _, u := range utts {
		if _, err := tx.ExecContext(ctx, stmt, meetingID, u.SpeakerID, string(u.Role), u.StartOffsetMs, u.EndOffsetMs, u.Text); err != nil {
			return fmt.Errorf("insert utterance: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit InsertUtterances: %w", err)
	}
	return nil
}
