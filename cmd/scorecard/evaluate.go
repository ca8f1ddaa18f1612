package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/meetsync/scorecard-engine/internal/app"
	"github.com/meetsync/scorecard-engine/internal/service"
)

func newEvaluateCommand() *cobra.Command {
	var (
		meetingID   string
		scorecardID string
		force       bool
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a meeting transcript against a scorecard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				result, err := a.Evaluation.Evaluate(ctx, service.EvaluateRequest{
					MeetingID:    meetingID,
					ScorecardID:  scorecardID,
					ForceRefresh: force,
					Timeout:      timeout,
				})
				if err != nil {
					return err
				}
				return printJSON(result)
			})
		},
	}

	cmd.Flags().StringVar(&meetingID, "meeting", "", "meeting ID (required)")
	cmd.Flags().StringVar(&scorecardID, "scorecard", "", "scorecard ID (required)")
	cmd.Flags().BoolVar(&force, "force", false, "re-evaluate even if a cached result exists")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "evaluation deadline (default 60s)")
	_ = cmd.MarkFlagRequired("meeting")
	_ = cmd.MarkFlagRequired("scorecard")

	return cmd
}
