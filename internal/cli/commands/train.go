package commands

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/propsage/propsage/internal/trainer"
)

// NewTrainCommand creates the train command.
func NewTrainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the price model from the raw listings CSV",
		Long: `Clean the raw listings dataset, fit the gradient-boosted price model,
and publish the model bundle for serving.

Each run is recorded in the training-run history database.`,
		Example: `  # Train with the configured dataset
  propsage train

  # Train from a specific CSV
  propsage train --data-path data/listings_2026.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTrain(cmd)
		},
	}
	return cmd
}

func runTrain(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg

	tr, err := trainer.New(trainer.Config{
		OutputDir:   cfg.ModelDir,
		StatePath:   cfg.StatePath,
		Environment: cfg.Environment,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = tr.Close() }()

	res, err := tr.Train(cmd.Context(), cfg.DataPath)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Training complete. Model published to %s\n\n", res.BundlePath)
	fmt.Fprintf(out, "Dataset: %d raw rows, %d after cleaning (%d removed)\n",
		res.Stats.OriginalRows, res.Stats.CleanedRows, res.Stats.RowsRemoved)
	fmt.Fprintf(out, "Split: %d train / %d test rows, %d boosting stages\n\n",
		res.TrainRows, res.TestRows, res.Stages)

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Metric", "Train", "Test"})
	t.AppendRows([]table.Row{
		{"R2", res.TrainMetrics.R2, res.TestMetrics.R2},
		{"RMSE", res.TrainMetrics.RMSE, res.TestMetrics.RMSE},
		{"MAE", res.TrainMetrics.MAE, res.TestMetrics.MAE},
		{"MAPE %", res.TrainMetrics.MAPE, res.TestMetrics.MAPE},
		{"Median AE", res.TrainMetrics.MedianAE, res.TestMetrics.MedianAE},
	})
	t.Render()

	fmt.Fprintln(out, "\nFeature importance:")
	type pair struct {
		name  string
		value float64
	}
	pairs := make([]pair, 0, len(res.FeatureImportance))
	for name, value := range res.FeatureImportance {
		pairs = append(pairs, pair{name, value})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].value > pairs[j].value })
	for _, p := range pairs {
		fmt.Fprintf(out, "  %-18s %.4f\n", p.name, p.value)
	}

	if res.RunID != "" {
		fmt.Fprintf(out, "\nRecorded as run %s\n", res.RunID)
	}
	return nil
}
