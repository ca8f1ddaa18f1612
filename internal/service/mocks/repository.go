package mocks

import (
	"context"
	"errors"

	"github.com/meetsync/scorecard-engine/internal/repository/models"
	"github.com/meetsync/scorecard-engine/internal/rubric"
	"github.com/meetsync/scorecard-engine/internal/transcript"
)

// MockTranscriptRepository is a function-field mock of the transcript source
// for testing the service layer.
type MockTranscriptRepository struct {
	GetTranscriptFunc func(ctx context.Context, meetingID string) (transcript.Transcript, error)
}

func (m *MockTranscriptRepository) GetTranscript(ctx context.Context, meetingID string) (transcript.Transcript, error) {
	if m.GetTranscriptFunc != nil {
		return m.GetTranscriptFunc(ctx, meetingID)
	}
	return transcript.Transcript{}, errors.New("GetTranscriptFunc not implemented")
}

// MockScorecardRepository is a function-field mock of the rubric source.
type MockScorecardRepository struct {
	GetScorecardFunc func(ctx context.Context, id string) (rubric.Scorecard, error)
}

func (m *MockScorecardRepository) GetScorecard(ctx context.Context, id string) (rubric.Scorecard, error) {
	if m.GetScorecardFunc != nil {
		return m.GetScorecardFunc(ctx, id)
	}
	return rubric.Scorecard{}, errors.New("GetScorecardFunc not implemented")
}

// MockResultRepository is a function-field mock of the result store.
type MockResultRepository struct {
	UpsertResultFunc func(ctx context.Context, row models.ResultRow) error
	GetResultFunc    func(ctx context.Context, meetingID, scorecardID string) (models.ResultRow, error)
}

func (m *MockResultRepository) UpsertResult(ctx context.Context, row models.ResultRow) error {
	if m.UpsertResultFunc != nil {
		return m.UpsertResultFunc(ctx, row)
	}
	return nil
}

func (m *MockResultRepository) GetResult(ctx context.Context, meetingID, scorecardID string) (models.ResultRow, error) {
	if m.GetResultFunc != nil {
		return m.GetResultFunc(ctx, meetingID, scorecardID)
	}
	return models.ResultRow{}, errors.New("GetResultFunc not implemented")
}
