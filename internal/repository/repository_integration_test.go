package repository

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetsync/scorecard-engine/internal/repository/models"
	"github.com/meetsync/scorecard-engine/internal/rubric"
	"github.com/meetsync/scorecard-engine/internal/transcript"
	dbbuilder "github.com/meetsync/scorecard-engine/pkg/database"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// A single connection keeps the in-memory database alive and shared.
	db, err := dbbuilder.New(
		dbbuilder.WithDataSource(":memory:"),
		dbbuilder.WithMaxOpenConns(1),
		dbbuilder.WithMaxIdleConns(1),
	)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func TestTranscriptRepository_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewTranscriptRepository(db)
	ctx := context.Background()

	utts := []transcript.Utterance{
		{SpeakerID: "host", Role: transcript.RoleHost, StartOffsetMs: 0, EndOffsetMs: 5_000, Text: "Thanks for joining."},
		{SpeakerID: "guest", Role: transcript.RoleParticipant, StartOffsetMs: 5_500, EndOffsetMs: 9_000, Text: "Glad to be here."},
	}
	require.NoError(t, repo.InsertUtterances(ctx, "m-1", utts))

	got, err := repo.GetTranscript(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, "m-1", got.MeetingID)
	require.Len(t, got.Utterances, 2)
	assert.Equal(t, utts, got.Utterances)
}

func TestTranscriptRepository_OrdersByStartOffset(t *testing.T) {
	db := newTestDB(t)
	repo := NewTranscriptRepository(db)
	ctx := context.Background()

	// Inserted out of order; reads must come back chronological.
	utts := []transcript.Utterance{
		{SpeakerID: "guest", Role: transcript.RoleParticipant, StartOffsetMs: 8_000, EndOffsetMs: 10_000, Text: "Later."},
		{SpeakerID: "host", Role: transcript.RoleHost, StartOffsetMs: 0, EndOffsetMs: 4_000, Text: "Earlier."},
	}
	require.NoError(t, repo.InsertUtterances(ctx, "m-1", utts))

	got, err := repo.GetTranscript(ctx, "m-1")
	require.NoError(t, err)
	require.Len(t, got.Utterances, 2)
	assert.Equal(t, "Earlier.", got.Utterances[0].Text)
	assert.Equal(t, "Later.", got.Utterances[1].Text)
}

func TestTranscriptRepository_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewTranscriptRepository(db)

	_, err := repo.GetTranscript(context.Background(), "m-missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestScorecardRepository_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewScorecardRepository(db)
	ctx := context.Background()

	sc := rubric.Scorecard{
		ID:          "sc-1",
		Name:        "Sales Call Scorecard",
		Description: "Weekly coaching rubric",
		IsActive:    true,
		Criteria: []rubric.ScoringCriterion{
			{ID: "c-1", Name: "Discovery", Description: "Quality of discovery", Weight: 0.6, Category: "questions", EvaluationPrompt: "Assess discovery."},
			{ID: "c-2", Name: "Next Steps", Weight: 0.4, EvaluationPrompt: "Assess next steps."},
		},
	}
	require.NoError(t, repo.CreateScorecard(ctx, sc))

	got, err := repo.GetScorecard(ctx, "sc-1")
	require.NoError(t, err)
	assert.Equal(t, sc, got)
}

func TestScorecardRepository_CriteriaKeepAuthoringOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewScorecardRepository(db)
	ctx := context.Background()

	sc := rubric.Scorecard{
		ID:       "sc-1",
		Name:     "Ordering",
		IsActive: true,
		Criteria: []rubric.ScoringCriterion{
			{ID: "z-last-id", Name: "First", Weight: 0.5, EvaluationPrompt: "p"},
			{ID: "a-first-id", Name: "Second", Weight: 0.5, EvaluationPrompt: "p"},
		},
	}
	require.NoError(t, repo.CreateScorecard(ctx, sc))

	got, err := repo.GetScorecard(ctx, "sc-1")
	require.NoError(t, err)
	require.Len(t, got.Criteria, 2)
	assert.Equal(t, "First", got.Criteria[0].Name)
	assert.Equal(t, "Second", got.Criteria[1].Name)
}

func TestScorecardRepository_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewScorecardRepository(db)

	_, err := repo.GetScorecard(context.Background(), "sc-missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestScorecardRepository_ListActiveFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewScorecardRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateScorecard(ctx, rubric.Scorecard{ID: "sc-a", Name: "Archived", IsActive: false}))
	require.NoError(t, repo.CreateScorecard(ctx, rubric.Scorecard{ID: "sc-b", Name: "Current", IsActive: true}))

	got, err := repo.ListScorecards(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Current", got[0].Name)
	assert.Equal(t, "Archived", got[1].Name)
}

func TestResultRepository_UpsertOverwrites(t *testing.T) {
	db := newTestDB(t)
	repo := NewResultRepository(db)
	ctx := context.Background()

	first := models.ResultRow{
		ID:              "res-1",
		MeetingID:       "m-1",
		ScorecardID:     "sc-1",
		OverallScore:    71,
		CriteriaScores:  `[]`,
		Strengths:       `["Discovery"]`,
		Improvements:    `[]`,
		Recommendations: `[]`,
		Metrics:         `{}`,
		GeneratedAt:     "2026-08-30T12:00:00Z",
	}
	require.NoError(t, repo.UpsertResult(ctx, first))

	second := first
	second.ID = "res-2"
	second.OverallScore = 84.5
	second.GeneratedAt = "2026-08-30T13:00:00Z"
	require.NoError(t, repo.UpsertResult(ctx, second))

	got, err := repo.GetResult(ctx, "m-1", "sc-1")
	require.NoError(t, err)
	assert.Equal(t, second, got)

	// The earlier run is gone, not shadowed.
	var count int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM scorecard_results WHERE meeting_id = ? AND scorecard_id = ?`,
		"m-1", "sc-1").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestResultRepository_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewResultRepository(db)

	_, err := repo.GetResult(context.Background(), "m-1", "sc-missing")
	require.ErrorIs(t, err, ErrNotFound)
}
