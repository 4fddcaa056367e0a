package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/propsage/propsage/internal/state"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show training-run history",
		Long: `Show recent training runs recorded in the run history database,
newest first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRuns(cmd)
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of runs to show")
	return cmd
}

func runRuns(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)

	store := state.NewSQLiteStore(cmdCtx.Logger)
	if err := store.Open(cmdCtx.Cfg.StatePath); err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	if err := store.Migrate(); err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Env", "Status", "Rows", "Test R2", "Started"})
	for _, run := range runs {
		rows := ""
		if run.CleanedRows > 0 {
			rows = formatRows(run.CleanedRows, run.OriginalRows)
		}
		t.AppendRow(table.Row{
			shortID(run.ID),
			run.Environment,
			run.Status,
			rows,
			run.TestR2,
			run.StartedAt.Local().Format(time.DateTime),
		})
	}
	t.Render()
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatRows(cleaned, original int) string {
	return fmt.Sprintf("%d/%d", cleaned, original)
}
