package cli

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"binomial-pricer/internal/config"
	apperrors "binomial-pricer/internal/errors"
	"binomial-pricer/internal/graph"
	"binomial-pricer/internal/lattice"
	"binomial-pricer/internal/logging"
	"binomial-pricer/internal/payoff"
)

// addPricingCommands adds lattice pricing commands.
func addPricingCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newPriceCmd(app))
	rootCmd.AddCommand(newLadderCmd(app))
}

// addLatticeFlags registers the flags shared by price and ladder. Unset
// flags fall back to the [pricing] config section.
func addLatticeFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("spot", 0, "current stock price (required)")
	cmd.Flags().StringP("type", "t", "put", "option type: put or call")
	cmd.Flags().Float64P("rate", "r", 0, "risk-free rate per period")
	cmd.Flags().Float64P("up", "u", 0, "up factor per period")
	cmd.Flags().Float64P("down", "d", 0, "down factor per period")
	cmd.Flags().IntP("periods", "n", 0, "number of periods")
	cmd.Flags().StringP("method", "m", "", "replicating, risk-neutral or both")
	_ = cmd.MarkFlagRequired("spot")
}

// latticeInputs resolves the shared flags against the config.
func (a *App) latticeInputs(cmd *cobra.Command) (lattice.Params, []lattice.Strategy, error) {
	flags := cmd.Flags()
	pc := a.Config.Pricing

	spot, _ := flags.GetFloat64("spot")
	typ, _ := flags.GetString("type")
	kind, err := payoff.ParseKind(typ)
	if err != nil {
		return lattice.Params{}, nil, err
	}

	params := lattice.Params{
		Spot:    spot,
		Kind:    kind,
		Rate:    pc.Rate,
		Up:      pc.Up,
		Down:    pc.Down,
		Periods: pc.Periods,
	}
	if flags.Changed("rate") {
		params.Rate, _ = flags.GetFloat64("rate")
	}
	if flags.Changed("up") {
		params.Up, _ = flags.GetFloat64("up")
	}
	if flags.Changed("down") {
		params.Down, _ = flags.GetFloat64("down")
	}
	if flags.Changed("periods") {
		params.Periods, _ = flags.GetInt("periods")
	}
	if params.Periods > pc.MaxPeriods {
		return lattice.Params{}, nil, apperrors.NewInvalidArgument("periods", params.Periods,
			fmt.Sprintf("exceeds pricing.max_periods (%d)", pc.MaxPeriods))
	}

	method := pc.Method
	if flags.Changed("method") {
		method, _ = flags.GetString("method")
	}
	strategies, err := config.ParseMethod(method)
	if err != nil {
		return lattice.Params{}, nil, err
	}
	return params, strategies, nil
}

// outputPath places relative paths under the configured output directory.
func (a *App) outputPath(path string) (string, error) {
	if !filepath.IsAbs(path) && a.Config.Output.Dir != "" {
		path = filepath.Join(a.Config.Output.Dir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	return path, nil
}

// suffixPath inserts "-suffix" before the extension of path.
func suffixPath(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + suffix + ext
}

func (a *App) writeFile(path string, write func(io.Writer) error) (string, error) {
	path, err := a.outputPath(path)
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := write(f); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

func newPriceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a European option on a binomial lattice",
		Long: `Price a European put or call on a recombining binomial lattice.

The replicating method holds x units of stock and B in bonds at every node;
the risk-neutral method discounts the expected value under the probability p.
Use --method both to price with both and check that they agree.`,
		Example: `  pricer price --spot 100 --strike 100 --rate 0.05 --up 1.1 --down 0.9 --periods 1
  pricer price --spot 100 --strike 110 -t call -n 50 -m both
  pricer price --spot 100 --strike 100 -n 3 --tree --dot lattice.dot`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			logger := logging.FromContext(cmd.Context())

			params, strategies, err := app.latticeInputs(cmd)
			if err != nil {
				return err
			}
			params.Strike, _ = cmd.Flags().GetFloat64("strike")

			var results []*lattice.Result
			var comparison *lattice.Comparison
			if len(strategies) == 2 {
				comparison, err = lattice.Compare(cmd.Context(), params)
				if err != nil {
					return err
				}
				results = []*lattice.Result{comparison.Replicating, comparison.RiskNeutral}
				if !comparison.Consistent {
					logger.Warn().Float64("abs_diff", comparison.AbsDiff).Msg("Strategies disagree beyond tolerance")
				}
			} else {
				res, err := lattice.NewPricer(strategies[0]).Price(cmd.Context(), params)
				if err != nil {
					return err
				}
				results = []*lattice.Result{res}
			}

			written, err := app.exportResults(cmd, results)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				if comparison != nil {
					return output.JSON(comparison)
				}
				return output.JSON(results[0])
			}

			showTree, _ := cmd.Flags().GetBool("tree")
			displayPricing(output, params, results, comparison, showTree)
			for _, path := range written {
				output.Dim("Wrote %s", path)
			}
			return nil
		},
	}

	addLatticeFlags(cmd)
	cmd.Flags().Float64P("strike", "k", 0, "strike price (required)")
	cmd.Flags().String("dot", "", "write the lattice as a Graphviz DOT file")
	cmd.Flags().String("csv", "", "write the evaluated nodes as CSV")
	cmd.Flags().String("graph-csv", "", "write the lattice edges as CSV")
	cmd.Flags().Bool("tree", false, "print every node of the lattice")
	_ = cmd.MarkFlagRequired("strike")

	return cmd
}

// exportResults writes the files requested by --dot, --csv and --graph-csv.
// With several results each file gets a method suffix.
func (a *App) exportResults(cmd *cobra.Command, results []*lattice.Result) ([]string, error) {
	exports := []struct {
		flag  string
		write func(io.Writer, *lattice.Result) error
	}{
		{"dot", func(w io.Writer, r *lattice.Result) error { return graph.WriteDOT(w, r.Graph) }},
		{"csv", lattice.WriteNodesCSV},
		{"graph-csv", func(w io.Writer, r *lattice.Result) error { return graph.WriteEdgesCSV(w, r.Graph) }},
	}

	var written []string
	for _, e := range exports {
		path, _ := cmd.Flags().GetString(e.flag)
		if path == "" {
			continue
		}
		for _, res := range results {
			target := path
			if len(results) > 1 {
				target = suffixPath(path, res.Strategy.String())
			}
			res := res
			out, err := a.writeFile(target, func(w io.Writer) error { return e.write(w, res) })
			if err != nil {
				return nil, apperrors.Wrapf(err, "writing --%s", e.flag)
			}
			written = append(written, out)
		}
	}
	return written, nil
}

func displayPricing(output *Output, params lattice.Params, results []*lattice.Result, cmp *lattice.Comparison, tree bool) {
	opt := payoff.NewPut(params.Strike, 0)
	if params.Kind == payoff.Call {
		opt = payoff.NewCall(params.Strike, 0)
	}

	output.Bold("%s", opt.String())
	output.Printf("  Spot %s, %d period(s), r = %g, u = %g, d = %g\n",
		FormatPrice(params.Spot), params.Periods, params.Rate, params.Up, params.Down)
	output.Println()

	table := NewTable(output, "METHOD", "VALUE", "NODES", "ELAPSED")
	for _, r := range results {
		table.AddRow(r.Strategy.String(), output.Cyan(FormatValue(r.Value)), FormatCount(r.Evaluations), FormatDuration(r.Elapsed))
	}
	table.Render()

	if cmp != nil {
		output.Println()
		if cmp.Consistent {
			output.Success("✓ Methods agree (|Δ| = %.3g)", cmp.AbsDiff)
		} else {
			output.Warning("⚠ Methods differ by %.3g (%s)", cmp.AbsDiff, FormatPercent(cmp.RelDiff))
		}
	}

	root := results[0].Root()
	if params.Periods > 0 {
		output.Println()
		switch results[0].Strategy {
		case lattice.Replicating:
			output.Printf("  Hedge at t=0: x = %.6g shares, B = %s in bonds\n", root.Hedge, FormatValue(root.Bond))
		case lattice.RiskNeutral:
			output.Printf("  Risk-neutral up probability: p = %.6g\n", root.Prob)
		}
	}

	if tree {
		output.Println()
		displayTree(output, results[0])
	}
}

// displayTree prints the lattice one period at a time.
func displayTree(output *Output, r *lattice.Result) {
	headers := []string{"PERIOD", "ID", "STOCK", "VALUE"}
	switch r.Strategy {
	case lattice.Replicating:
		headers = append(headers, "X", "B")
	case lattice.RiskNeutral:
		headers = append(headers, "P")
	}

	table := NewTable(output, headers...)
	for period := 0; period <= r.Params.Periods; period++ {
		for _, n := range r.Layer(period) {
			row := []string{fmt.Sprintf("%d", n.Period), n.ID, FormatPrice(n.Price), FormatValue(n.Value)}
			if !n.Leaf {
				switch r.Strategy {
				case lattice.Replicating:
					row = append(row, fmt.Sprintf("%.4g", n.Hedge), FormatValue(n.Bond))
				case lattice.RiskNeutral:
					row = append(row, fmt.Sprintf("%.4g", n.Prob))
				}
			}
			table.AddRow(row...)
		}
	}
	table.Render()
}

func newLadderCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ladder",
		Short: "Price one option across a range of strikes",
		Long: `Price the same lattice at many strikes concurrently.

Strikes are given either as a list with --strikes or as a range with
--from, --to and --step. Each strike is an independent pricing call.`,
		Example: `  pricer ladder --spot 100 --strikes 90,95,100,105,110 -n 20
  pricer ladder --spot 100 --from 80 --to 120 --step 2.5 -t call -m both`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)

			base, strategies, err := app.latticeInputs(cmd)
			if err != nil {
				return err
			}
			strikes, err := ladderStrikes(cmd)
			if err != nil {
				return err
			}

			workers := app.Config.Pricing.Workers
			if cmd.Flags().Changed("workers") {
				workers, _ = cmd.Flags().GetInt("workers")
			}

			ladders := make(map[string][]lattice.LadderRow, len(strategies))
			for _, s := range strategies {
				rows, err := lattice.NewPricer(s).Ladder(cmd.Context(), base, strikes, workers)
				if err != nil {
					return err
				}
				ladders[s.String()] = rows
			}

			var written []string
			if path, _ := cmd.Flags().GetString("csv"); path != "" {
				for _, s := range strategies {
					target := path
					if len(strategies) > 1 {
						target = suffixPath(path, s.String())
					}
					rows := ladders[s.String()]
					out, err := app.writeFile(target, func(w io.Writer) error { return lattice.WriteLadderCSV(w, rows) })
					if err != nil {
						return apperrors.Wrap(err, "writing --csv")
					}
					written = append(written, out)
				}
			}

			if output.IsJSON() {
				return output.JSON(ladders)
			}

			headers := []string{"STRIKE"}
			for _, s := range strategies {
				headers = append(headers, strings.ToUpper(s.String()))
			}
			table := NewTable(output, headers...)
			for i, k := range strikes {
				row := []string{FormatPrice(k)}
				for _, s := range strategies {
					row = append(row, FormatValue(ladders[s.String()][i].Value))
				}
				table.AddRow(row...)
			}
			output.Bold("%s ladder, spot %s, %d period(s)", base.Kind, FormatPrice(base.Spot), base.Periods)
			table.Render()
			for _, path := range written {
				output.Dim("Wrote %s", path)
			}
			return nil
		},
	}

	addLatticeFlags(cmd)
	cmd.Flags().Float64Slice("strikes", nil, "comma-separated strikes")
	cmd.Flags().Float64("from", 0, "first strike of a range")
	cmd.Flags().Float64("to", 0, "last strike of a range")
	cmd.Flags().Float64("step", 0, "strike spacing of a range")
	cmd.Flags().Int("workers", 0, "concurrent pricing calls (default from config)")
	cmd.Flags().String("csv", "", "write the ladder as CSV")

	return cmd
}

// maxLadderStrikes bounds --from/--to/--step expansion.
const maxLadderStrikes = 10000

func ladderStrikes(cmd *cobra.Command) ([]float64, error) {
	flags := cmd.Flags()
	if flags.Changed("strikes") {
		strikes, _ := flags.GetFloat64Slice("strikes")
		return strikes, nil
	}
	if !flags.Changed("from") || !flags.Changed("to") || !flags.Changed("step") {
		return nil, apperrors.NewInvalidArgument("strikes", nil, "give --strikes or all of --from, --to and --step")
	}

	from, _ := flags.GetFloat64("from")
	to, _ := flags.GetFloat64("to")
	step, _ := flags.GetFloat64("step")
	for _, f := range []struct {
		name  string
		value float64
	}{{"from", from}, {"to", to}, {"step", step}} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return nil, apperrors.NewInvalidArgument(f.name, f.value, "must be a finite number")
		}
	}
	if step <= 0 || to < from {
		return nil, apperrors.NewInvalidArgument("step", step, "need step > 0 and to >= from")
	}

	n := int(math.Floor((to-from)/step+1e-9)) + 1
	if n > maxLadderStrikes {
		return nil, apperrors.NewInvalidArgument("step", step, fmt.Sprintf("range expands to more than %d strikes", maxLadderStrikes))
	}
	if n == 1 {
		return []float64{from}, nil
	}
	return floats.Span(make([]float64, n), from, from+float64(n-1)*step), nil
}
