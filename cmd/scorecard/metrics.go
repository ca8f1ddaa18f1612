package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/meetsync/scorecard-engine/internal/app"
)

func newMetricsCommand() *cobra.Command {
	var meetingID string

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Compute objective call metrics for a meeting transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				m, err := a.Evaluation.Metrics(ctx, meetingID)
				if err != nil {
					return err
				}
				return printJSON(m)
			})
		},
	}

	cmd.Flags().StringVar(&meetingID, "meeting", "", "meeting ID (required)")
	_ = cmd.MarkFlagRequired("meeting")

	return cmd
}
