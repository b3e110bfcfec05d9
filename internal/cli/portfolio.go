package cli

import (
	"github.com/spf13/cobra"

	"binomial-pricer/internal/payoff"
	"binomial-pricer/internal/store"
)

// addPortfolioCommands adds the position library commands.
func addPortfolioCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:     "portfolio",
		Aliases: []string{"pf"},
		Short:   "Manage saved positions",
		Long:    "Save, list, show and delete named positions in the local library.",
	}

	cmd.AddCommand(newPortfolioSaveCmd(app))
	cmd.AddCommand(newPortfolioListCmd(app))
	cmd.AddCommand(newPortfolioShowCmd(app))
	cmd.AddCommand(newPortfolioDeleteCmd(app))

	rootCmd.AddCommand(cmd)
}

func newPortfolioSaveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save NAME POSITION...",
		Short: "Save a position under a name",
		Example: `  pricer portfolio save straddle put:100@4 call:100@5 -D "long vol"
  pricer portfolio save covered 'short(call:110@2)'`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)

			pos, err := payoff.ParseAll(args[1:])
			if err != nil {
				return err
			}
			description, _ := cmd.Flags().GetString("description")

			s, err := app.Store()
			if err != nil {
				return err
			}
			saved, err := s.SavePortfolio(cmd.Context(), args[0], pos, description)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(saved)
			}
			output.Success("✓ Saved %s: %s", saved.Name, saved.Notation)
			return nil
		},
	}
	cmd.Flags().StringP("description", "D", "", "free-form description")
	return cmd
}

func newPortfolioListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved positions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)

			prefix, _ := cmd.Flags().GetString("prefix")
			limit, _ := cmd.Flags().GetInt("limit")

			s, err := app.Store()
			if err != nil {
				return err
			}
			list, err := s.ListPortfolios(cmd.Context(), store.PortfolioFilter{Prefix: prefix, Limit: limit})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				if list == nil {
					list = []store.SavedPortfolio{}
				}
				return output.JSON(list)
			}
			if len(list) == 0 {
				output.Dim("No saved positions")
				return nil
			}

			table := NewTable(output, "NAME", "POSITION", "UPDATED", "DESCRIPTION")
			for _, p := range list {
				table.AddRow(p.Name, TruncateString(p.Notation, 48), p.UpdatedAt.Local().Format("2006-01-02 15:04"), TruncateString(p.Description, 32))
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().String("prefix", "", "only names starting with this prefix")
	cmd.Flags().Int("limit", 0, "maximum number of entries")
	return cmd
}

func newPortfolioShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show a saved position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)

			s, err := app.Store()
			if err != nil {
				return err
			}
			saved, err := s.GetPortfolio(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			pos, err := saved.Position()
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(struct {
					*store.SavedPortfolio
					Position string  `json:"position"`
					Cost     float64 `json:"cost"`
				}{saved, pos.String(), pos.Cost()})
			}

			lines := []string{
				"Notation:  " + saved.Notation,
				"Position:  " + pos.String(),
				"Net cost:  " + output.Signed(pos.Cost()),
				"Updated:   " + saved.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
			}
			if rng, err := pos.RangeOfInterest(); err == nil {
				lines = append(lines, "Strikes:   "+FormatRange(rng))
			}
			if saved.Description != "" {
				lines = append(lines, "", saved.Description)
			}
			output.Box(saved.Name, lines)
			return nil
		},
	}
}

func newPortfolioDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete NAME",
		Aliases: []string{"rm"},
		Short:   "Delete a saved position",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)

			s, err := app.Store()
			if err != nil {
				return err
			}
			if err := s.DeletePortfolio(cmd.Context(), args[0]); err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": args[0]})
			}
			output.Success("✓ Deleted %s", args[0])
			return nil
		},
	}
}
