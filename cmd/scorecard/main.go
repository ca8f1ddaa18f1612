// Command scorecard runs the coaching scorecard evaluation engine from the
// command line: evaluate a meeting against a rubric, inspect call metrics,
// list rubrics, or seed a local database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/mattn/go-sqlite3"
	"github.com/meetsync/scorecard-engine/internal/app"
	"github.com/meetsync/scorecard-engine/internal/config"
)

func main() {
	_ = godotenv.Load(".env")

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "scorecard",
		Short:         "Coaching scorecard evaluation engine",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		newEvaluateCommand(),
		newMetricsCommand(),
		newScorecardsCommand(),
		newSeedCommand(),
	)
	return root
}

// withApp bootstraps config, logger, and the wired application, and tears
// them down after fn returns.
func withApp(ctx context.Context, fn func(ctx context.Context, a *app.App) error) error {
	cfg := config.LoadFromEnv()

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	application, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", zap.Error(err))
		return err
	}
	defer application.Close()

	return fn(ctx, application)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
