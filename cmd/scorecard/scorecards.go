package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/meetsync/scorecard-engine/internal/app"
)

func newScorecardsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scorecards",
		Short: "List available scorecards",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				cards, err := a.Scorecards.ListScorecards(ctx)
				if err != nil {
					return err
				}
				return printJSON(cards)
			})
		},
	}
	return cmd
}
