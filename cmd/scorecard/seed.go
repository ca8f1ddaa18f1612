package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/meetsync/scorecard-engine/internal/app"
	"github.com/meetsync/scorecard-engine/internal/rubric"
	"github.com/meetsync/scorecard-engine/internal/transcript"
)

func newSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the schema and seed a demo scorecard and transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Scorecards.CreateScorecard(ctx, demoScorecard()); err != nil {
					return err
				}
				if err := a.Transcripts.InsertUtterances(ctx, "demo-meeting", demoUtterances()); err != nil {
					return err
				}
				a.Logger.Info("seeded demo scorecard and transcript")
				return nil
			})
		},
	}
	return cmd
}

func demoScorecard() rubric.Scorecard {
	return rubric.Scorecard{
		ID:          "sales-call-v1",
		Name:        "Sales Call Scorecard",
		Description: "Default rubric for discovery and demo calls",
		IsActive:    true,
		Criteria: []rubric.ScoringCriterion{
			{
				ID:               "discovery",
				Name:             "Discovery Quality",
				Weight:           0.35,
				Category:         "process",
				EvaluationPrompt: "How well did the host uncover the participant's goals, pains, and constraints through open-ended questions?",
			},
			{
				ID:               "listening",
				Name:             "Active Listening",
				Weight:           0.25,
				Category:         "communication",
				EvaluationPrompt: "Did the host let the participant finish, acknowledge their points, and build on their answers?",
			},
			{
				ID:               "value",
				Name:             "Value Articulation",
				Weight:           0.25,
				Category:         "content",
				EvaluationPrompt: "Was the product's value tied concretely to needs the participant expressed on this call?",
			},
			{
				ID:               "next-steps",
				Name:             "Next Steps",
				Weight:           0.15,
				Category:         "process",
				EvaluationPrompt: "Did the call end with specific, mutually agreed next steps and owners?",
			},
		},
	}
}

func demoUtterances() []transcript.Utterance {
	return []transcript.Utterance{
		{SpeakerID: "alex", Role: transcript.RoleHost, StartOffsetMs: 0, EndOffsetMs: 9000, Text: "Thanks for making time today. What are the biggest challenges your team is facing right now?"},
		{SpeakerID: "sam", Role: transcript.RoleParticipant, StartOffsetMs: 9600, EndOffsetMs: 32000, Text: "Honestly, our reporting is a mess. We spend two days every month stitching spreadsheets together, and by the time it's done the numbers are stale."},
		{SpeakerID: "alex", Role: transcript.RoleHost, StartOffsetMs: 32800, EndOffsetMs: 41000, Text: "Walk me through what that monthly process looks like end to end?"},
		{SpeakerID: "sam", Role: transcript.RoleParticipant, StartOffsetMs: 41900, EndOffsetMs: 70000, Text: "Each regional lead exports their own numbers, then an analyst merges them. Version conflicts everywhere. It's frustrating and the team hates it."},
		{SpeakerID: "alex", Role: transcript.RoleHost, StartOffsetMs: 70700, EndOffsetMs: 88000, Text: "That matches what we hear a lot. Our pipeline pulls those regional sources directly, so the merge step disappears entirely."},
		{SpeakerID: "sam", Role: transcript.RoleParticipant, StartOffsetMs: 88700, EndOffsetMs: 96000, Text: "That would be a huge win for us. How long does onboarding usually take?"},
		{SpeakerID: "alex", Role: transcript.RoleHost, StartOffsetMs: 96500, EndOffsetMs: 112000, Text: "Two weeks for a setup like yours. Can we book a technical session with your analyst for Thursday to scope the sources?"},
		{SpeakerID: "sam", Role: transcript.RoleParticipant, StartOffsetMs: 112600, EndOffsetMs: 118000, Text: "Thursday works. I'll send the invite and loop in our analyst."},
	}
}
