package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Binomial Pricer Configuration

[pricing]
# Per-period risk-free rate
rate = 0.05
# Up and down factors applied to the stock each period (up > down > 0)
up = 1.1
down = 0.9
# Default number of periods when --periods is omitted
periods = 1
# Pricing method: "replicating", "risk-neutral" or "both"
method = "replicating"
# Largest lattice the CLI will build
max_periods = 5000
# Ladder workers (0 = one per CPU)
workers = 0

[output]
# Directory for generated DOT, CSV and plot files
dir = "."
# Sample points across the payoff range
samples = 100
# Plot size in inches
plot_width = 8.0
plot_height = 5.0
# Enable colored output
color_enabled = true

[logging]
# Level: trace, debug, info, warn, error
level = "warn"
# Also write logs to a rotating file
file = false
# file_path = "~/.config/binomial-pricer/logs/pricer.log"
max_size = 20
max_backups = 3
max_age = 14

[store]
# SQLite position library
# path = "~/.config/binomial-pricer/positions.db"
`

// createTemplateConfig writes the commented template into configDir.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, FileName)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", FileName, err)
	}
	return nil
}
