package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// addHelpCommands adds documentation commands.
func addHelpCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newExamplesCmd(app))
}

type example struct {
	title    string
	commands []string
}

var examples = []example{
	{
		title: "Price a One-Period Put",
		commands: []string{
			"pricer price --spot 100 --strike 100 -r 0.05 -u 1.1 -d 0.9 -n 1",
			"pricer price --spot 100 --strike 100 -n 1 --tree   # Show x and B at every node",
		},
	},
	{
		title: "Check Both Methods Agree",
		commands: []string{
			"pricer price --spot 100 --strike 105 -t call -n 200 -m both",
		},
	},
	{
		title: "Export the Lattice",
		commands: []string{
			"pricer price --spot 100 --strike 100 -n 4 --dot lattice.dot   # Graphviz",
			"dot -Tpng lattice.dot -o lattice.png",
			"pricer price --spot 100 --strike 100 -n 4 --csv nodes.csv",
		},
	},
	{
		title: "Strike Ladder",
		commands: []string{
			"pricer ladder --spot 100 --from 80 --to 120 --step 5 -n 50",
			"pricer ladder --spot 100 --strikes 95,100,105 -m both --csv ladder.csv",
		},
	},
	{
		title: "Payoff Diagrams",
		commands: []string{
			"pricer payoff put:90 call:110                  # Strangle table",
			"pricer payoff 'short(call:100@5)' --at 90,100,110",
			"pricer payoff put:100@4 call:100@5 --plot straddle.png --profit",
		},
	},
	{
		title: "Position Library",
		commands: []string{
			"pricer portfolio save straddle put:100@4 call:100@5",
			"pricer portfolio list",
			"pricer payoff --from straddle --plot straddle.svg",
			"pricer portfolio delete straddle",
		},
	},
}

func newExamplesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)

			for _, ex := range examples {
				output.Bold(ex.title)
				for _, c := range ex.commands {
					parts := strings.SplitN(c, "#", 2)
					if len(parts) == 2 {
						output.Printf("  %s %s\n", output.Cyan(strings.TrimSpace(parts[0])), output.DimText(strings.TrimSpace(parts[1])))
					} else {
						output.Printf("  %s\n", output.Cyan(c))
					}
				}
				output.Println()
			}
			return nil
		},
	}
}
