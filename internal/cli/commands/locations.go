package commands

import (
	"encoding/json"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewLocationsCommand creates the locations command.
func NewLocationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locations",
		Short: "List the locations the trained model can price",
		Long: `List the Navi Mumbai locations present in the trained model, with
the price statistics captured at training time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLocations(cmd)
		},
	}
	cmd.Flags().Bool("json", false, "Output locations as JSON")
	return cmd
}

func runLocations(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)

	eng, err := loadEngine(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}

	names, stats, err := eng.Locations()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		payload := make([]map[string]any, 0, len(names))
		for _, name := range names {
			st := stats[name]
			payload = append(payload, map[string]any{
				"name":               name,
				"data_points":        st.Count,
				"mean_price":         st.MeanPrice,
				"median_price":       st.MedianPrice,
				"avg_price_per_sqft": st.AvgPricePerSqft,
			})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Location", "Listings", "Median Price", "Mean Price", "Avg ₹/sqft"})
	for _, name := range names {
		st := stats[name]
		t.AppendRow(table.Row{name, st.Count, st.MedianPrice, st.MeanPrice, st.AvgPricePerSqft})
	}
	t.Render()
	return nil
}
