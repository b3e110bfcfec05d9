package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	apperrors "binomial-pricer/internal/errors"
	"binomial-pricer/internal/payoff"
	"binomial-pricer/internal/plot"
)

// addPayoffCommands adds payoff analysis commands.
func addPayoffCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newPayoffCmd(app))
}

// PayoffPoint is one row of a payoff table.
type PayoffPoint struct {
	Price  float64 `json:"price"`
	Value  float64 `json:"value"`
	Profit float64 `json:"profit"`
}

// PayoffReport is the JSON form of the payoff command.
type PayoffReport struct {
	Position string         `json:"position"`
	Notation string         `json:"notation"`
	Cost     float64        `json:"cost"`
	Range    payoff.Range   `json:"range"`
	Plotted  payoff.Range   `json:"plotted"`
	Points   []PayoffPoint  `json:"points"`
	Legs     []PayoffReport `json:"legs,omitempty"`
}

// resolvePosition reads positions from args, or from the library when
// --from is set.
func (a *App) resolvePosition(cmd *cobra.Command, args []string) (payoff.Position, error) {
	from, _ := cmd.Flags().GetString("from")
	switch {
	case from != "" && len(args) > 0:
		return nil, apperrors.NewInvalidArgument("from", from, "cannot be combined with positional positions")
	case from != "":
		s, err := a.Store()
		if err != nil {
			return nil, err
		}
		saved, err := s.GetPortfolio(cmd.Context(), from)
		if err != nil {
			return nil, err
		}
		return saved.Position()
	case len(args) == 0:
		return nil, apperrors.NewInvalidArgument("position", nil, "give at least one position or --from NAME")
	}
	return payoff.ParseAll(args)
}

func newPayoffCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payoff [positions...]",
		Short: "Tabulate or plot the payoff of a position at expiry",
		Long: `Evaluate the value and profit of a position at expiry.

Positions use the notation put:K, call:K, put:K@PREMIUM, short(...) and
portfolio(a,b,...). Several arguments are combined into one portfolio.`,
		Example: `  pricer payoff put:90 call:110
  pricer payoff 'short(call:100@5)' --at 90,100,110
  pricer payoff put:95@2 'short(put:85@0.5)' --plot spread.png --profit
  pricer payoff --from straddle`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)

			pos, err := app.resolvePosition(cmd, args)
			if err != nil {
				return err
			}

			rng, err := pos.RangeOfInterest()
			if err != nil {
				return err
			}
			plotted := rng.Padded()

			prices, err := payoffPrices(cmd, plotted)
			if err != nil {
				return err
			}

			var written string
			if path, _ := cmd.Flags().GetString("plot"); path != "" {
				profit, _ := cmd.Flags().GetBool("profit")
				opts := plot.Options{
					Samples: app.samples(cmd),
					Width:   vg.Length(app.Config.Output.PlotWidth) * vg.Inch,
					Height:  vg.Length(app.Config.Output.PlotHeight) * vg.Inch,
					Profit:  profit,
				}
				target, err := app.outputPath(path)
				if err != nil {
					return err
				}
				if err := plot.Save(pos, opts, target); err != nil {
					return err
				}
				written = target
			}

			report := buildPayoffReport(pos, rng, plotted, prices)

			if output.IsJSON() {
				return output.JSON(report)
			}

			displayPayoff(output, pos, report)
			if written != "" {
				output.Dim("Wrote %s", written)
			}
			return nil
		},
	}

	cmd.Flags().String("from", "", "load a position saved with 'portfolio save'")
	cmd.Flags().Float64Slice("at", nil, "evaluate at these stock prices")
	cmd.Flags().Int("rows", 11, "evenly spaced rows across the plotted range")
	cmd.Flags().Int("samples", 0, "plot sample points (default from config)")
	cmd.Flags().String("plot", "", "save a payoff diagram (png, svg, pdf, ...)")
	cmd.Flags().Bool("profit", false, "plot profit instead of value")

	return cmd
}

func (a *App) samples(cmd *cobra.Command) int {
	if cmd.Flags().Changed("samples") {
		n, _ := cmd.Flags().GetInt("samples")
		return n
	}
	return a.Config.Output.Samples
}

func payoffPrices(cmd *cobra.Command, r payoff.Range) ([]float64, error) {
	if cmd.Flags().Changed("at") {
		return cmd.Flags().GetFloat64Slice("at")
	}
	rows, _ := cmd.Flags().GetInt("rows")
	return payoff.Grid(r, rows)
}

func buildPayoffReport(pos payoff.Position, rng, plotted payoff.Range, prices []float64) PayoffReport {
	report := PayoffReport{
		Position: pos.String(),
		Notation: payoff.Format(pos),
		Cost:     pos.Cost(),
		Range:    rng,
		Plotted:  plotted,
		Points:   make([]PayoffPoint, len(prices)),
	}
	values := payoff.Values(pos, prices)
	profits := payoff.Profits(pos, prices)
	for i, x := range prices {
		report.Points[i] = PayoffPoint{Price: x, Value: values[i], Profit: profits[i]}
	}

	for _, leg := range plot.Constituents(pos) {
		legRange, err := leg.RangeOfInterest()
		if err != nil {
			continue
		}
		report.Legs = append(report.Legs, buildPayoffReport(leg, legRange, plotted, prices))
	}
	return report
}

func displayPayoff(output *Output, pos payoff.Position, report PayoffReport) {
	lines := []string{
		fmt.Sprintf("Notation:  %s", report.Notation),
		fmt.Sprintf("Net cost:  %s", output.Signed(report.Cost)),
		fmt.Sprintf("Strikes:   %s", FormatRange(report.Range)),
		fmt.Sprintf("Plotted:   %s", FormatRange(report.Plotted)),
	}
	if strike, ok := pos.Strike(); ok {
		lines = append(lines, fmt.Sprintf("Strike:    %s", FormatPrice(strike)))
	}
	output.Box(pos.String(), lines)
	output.Println()

	headers := []string{"PRICE", "VALUE", "PROFIT"}
	for _, leg := range report.Legs {
		headers = append(headers, TruncateString(leg.Position, 24))
	}
	table := NewTable(output, headers...)
	for i, pt := range report.Points {
		row := []string{FormatPrice(pt.Price), FormatValue(pt.Value), output.Signed(pt.Profit)}
		for _, leg := range report.Legs {
			row = append(row, FormatValue(leg.Points[i].Value))
		}
		table.AddRow(row...)
	}
	table.Render()
}
