package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when the requested entity does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS transcript_utterances (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	meeting_id TEXT NOT NULL,
	speaker_id TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'unknown',
	start_offset_ms INTEGER NOT NULL,
	end_offset_ms INTEGER NOT NULL,
	text TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_utterances_meeting
	ON transcript_utterances (meeting_id, start_offset_ms);

CREATE TABLE IF NOT EXISTS scorecards (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	is_active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS scoring_criteria (
	id TEXT PRIMARY KEY,
	scorecard_id TEXT NOT NULL REFERENCES scorecards(id),
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	weight REAL NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	evaluation_prompt TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_criteria_scorecard
	ON scoring_criteria (scorecard_id, position);

CREATE TABLE IF NOT EXISTS scorecard_results (
	id TEXT NOT NULL,
	meeting_id TEXT NOT NULL,
	scorecard_id TEXT NOT NULL,
	overall_score REAL NOT NULL,
	criteria_scores TEXT NOT NULL,
	strengths TEXT NOT NULL,
	improvements TEXT NOT NULL,
	recommendations TEXT NOT NULL,
	metrics TEXT NOT NULL,
	generated_at TEXT NOT NULL,
	PRIMARY KEY (meeting_id, scorecard_id)
);
`

// Migrate creates the engine's tables if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
