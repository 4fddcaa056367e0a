package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/propsage/propsage/internal/engine"
)

// NewPredictCommand creates the predict command.
func NewPredictCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict a property price from the command line",
		Long: `Generate a price estimate for a single property using the trained
model bundle, without going through the HTTP API.`,
		Example: `  # Estimate a 2 BHK in Kharghar
  propsage predict --location Kharghar --area 1050 --bhk 2 --bathrooms 2 \
    --floor 5 --total-floors 15 --age 4

  # Machine-readable output
  propsage predict --location Vashi --area 900 --bhk 2 --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPredict(cmd)
		},
	}

	cmd.Flags().String("location", "", "Property location (required)")
	cmd.Flags().Float64("area", 0, "Carpet area in square feet (required)")
	cmd.Flags().Int("bhk", 2, "Number of bedrooms")
	cmd.Flags().Int("bathrooms", 2, "Number of bathrooms")
	cmd.Flags().Int("floor", 0, "Floor the unit is on")
	cmd.Flags().Int("total-floors", 10, "Total floors in the building")
	cmd.Flags().Float64("age", 0, "Age of the property in years")
	cmd.Flags().Bool("parking", true, "Has parking")
	cmd.Flags().Bool("lift", true, "Has a lift")
	cmd.Flags().Bool("json", false, "Output the prediction as JSON")
	_ = cmd.MarkFlagRequired("location")
	_ = cmd.MarkFlagRequired("area")
	return cmd
}

func runPredict(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)

	eng, err := loadEngine(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	input := engine.PropertyInput{}
	input.Location, _ = flags.GetString("location")
	input.AreaSqft, _ = flags.GetFloat64("area")
	input.BHK, _ = flags.GetInt("bhk")
	input.Bathrooms, _ = flags.GetInt("bathrooms")
	input.Floor, _ = flags.GetInt("floor")
	input.TotalFloors, _ = flags.GetInt("total-floors")
	input.AgeOfProperty, _ = flags.GetFloat64("age")
	input.Parking, _ = flags.GetBool("parking")
	input.Lift, _ = flags.GetBool("lift")

	pred, err := eng.Predict(input)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := flags.GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(pred)
	}

	fmt.Fprintf(out, "Estimated price: ₹%.0f\n", pred.PredictedPrice)
	fmt.Fprintf(out, "Range:           ₹%.0f - ₹%.0f\n", pred.PriceRange.Low, pred.PriceRange.High)
	fmt.Fprintf(out, "Confidence:      %.2f\n", pred.Confidence)
	fmt.Fprintf(out, "Price per sqft:  ₹%.0f\n", pred.PricePerSqft)
	if ctx := pred.LocationContext; ctx != nil {
		fmt.Fprintf(out, "\n%s market context (%d listings):\n", pred.Input.Location, ctx.Count)
		fmt.Fprintf(out, "  median ₹%.0f, mean ₹%.0f, ₹%.0f/sqft on average\n",
			ctx.MedianPrice, ctx.MeanPrice, ctx.AvgPricePerSqft)
	}
	return nil
}
