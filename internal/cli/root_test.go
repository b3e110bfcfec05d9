package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "binomial-pricer/internal/errors"
)

// run executes the CLI against an isolated config directory.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"PRICER_RATE", "PRICER_METHOD", "PRICER_LOG_LEVEL", "PRICER_DB_PATH"} {
		t.Setenv(key, "")
	}

	cmd := NewRootCmd(nil, zerolog.Nop())
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--config", dir))

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func decode(t *testing.T, out string, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

var scenarioArgs = []string{"--spot", "100", "--strike", "100", "-r", "0.05", "-u", "1.1", "-d", "0.9", "-n", "1"}

func TestPriceJSON(t *testing.T) {
	out, err := run(t, t.TempDir(), append([]string{"price", "--json"}, scenarioArgs...)...)
	require.NoError(t, err)

	var res struct {
		Value       float64 `json:"value"`
		Method      string  `json:"method"`
		Evaluations int     `json:"evaluations"`
		Params      struct {
			Kind string `json:"kind"`
		} `json:"params"`
		Nodes []struct {
			ID string `json:"id"`
		} `json:"nodes"`
	}
	decode(t, out, &res)

	assert.InDelta(t, 2.380952380952381, res.Value, 1e-12)
	assert.Equal(t, "replicating", res.Method)
	assert.Equal(t, "put", res.Params.Kind)
	assert.Equal(t, 3, res.Evaluations)
	assert.Len(t, res.Nodes, 3)
}

func TestPriceBothMethods(t *testing.T) {
	out, err := run(t, t.TempDir(), append([]string{"price", "--json", "-m", "both"}, scenarioArgs...)...)
	require.NoError(t, err)

	var cmp struct {
		Replicating struct{ Value float64 } `json:"replicating"`
		RiskNeutral struct{ Value float64 } `json:"risk_neutral"`
		Consistent  bool                    `json:"consistent"`
	}
	decode(t, out, &cmp)
	assert.True(t, cmp.Consistent)
	assert.InDelta(t, cmp.Replicating.Value, cmp.RiskNeutral.Value, 1e-12)
}

func TestPriceText(t *testing.T) {
	out, err := run(t, t.TempDir(), append([]string{"price", "--tree"}, scenarioArgs...)...)
	require.NoError(t, err)

	assert.Contains(t, out, "Put(strike = 100)")
	assert.Contains(t, out, "2.3810")
	assert.Contains(t, out, "x = -0.5")
	assert.Contains(t, out, "1_110")
	assert.Contains(t, out, "1_90")
}

func TestPriceUsesConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg := "[pricing]\nrate = 0.05\nup = 1.1\ndown = 0.9\nperiods = 1\nmethod = \"risk-neutral\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(cfg), 0644))

	out, err := run(t, dir, "price", "--spot", "100", "--strike", "100", "--json")
	require.NoError(t, err)

	var res struct {
		Value  float64 `json:"value"`
		Method string  `json:"method"`
	}
	decode(t, out, &res)
	assert.Equal(t, "risk-neutral", res.Method)
	assert.InDelta(t, 2.380952380952381, res.Value, 1e-12)
}

func TestPriceExports(t *testing.T) {
	outDir := t.TempDir()
	dot := filepath.Join(outDir, "lattice.dot")
	csv := filepath.Join(outDir, "nodes.csv")

	_, err := run(t, t.TempDir(), append([]string{"price", "-m", "both", "--dot", dot, "--csv", csv}, scenarioArgs...)...)
	require.NoError(t, err)

	for _, name := range []string{"lattice-replicating.dot", "lattice-risk-neutral.dot", "nodes-replicating.csv", "nodes-risk-neutral.csv"} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}

	data, err := os.ReadFile(filepath.Join(outDir, "lattice-risk-neutral.dot"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph")
	assert.Contains(t, string(data), "1 - p")
}

func TestPriceErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		kind error
	}{
		{"equal factors", []string{"price", "--spot", "100", "--strike", "100", "-u", "1", "-d", "1"}, apperrors.ErrDomain},
		{"negative periods", []string{"price", "--spot", "100", "--strike", "100", "--periods=-1"}, apperrors.ErrInvalidArgument},
		{"too many periods", []string{"price", "--spot", "100", "--strike", "100", "-n", "100000"}, apperrors.ErrInvalidArgument},
		{"bad type", []string{"price", "--spot", "100", "--strike", "100", "-t", "straddle"}, apperrors.ErrInvalidArgument},
		{"bad method", []string{"price", "--spot", "100", "--strike", "100", "-m", "monte-carlo"}, apperrors.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, t.TempDir(), tt.args...)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestLadder(t *testing.T) {
	out, err := run(t, t.TempDir(), "ladder", "--spot", "100", "--strikes", "110,90,100", "-n", "10", "-t", "call", "-m", "both", "--json")
	require.NoError(t, err)

	var ladders map[string][]struct {
		Strike float64 `json:"strike"`
		Value  float64 `json:"value"`
	}
	decode(t, out, &ladders)

	require.Len(t, ladders["replicating"], 3)
	require.Len(t, ladders["risk-neutral"], 3)
	assert.Equal(t, 110.0, ladders["replicating"][0].Strike)
	assert.Equal(t, 90.0, ladders["replicating"][1].Strike)
	for i := range ladders["replicating"] {
		assert.InDelta(t, ladders["replicating"][i].Value, ladders["risk-neutral"][i].Value, 1e-9)
	}
}

func TestLadderRange(t *testing.T) {
	out, err := run(t, t.TempDir(), "ladder", "--spot", "100", "--from", "90", "--to", "110", "--step", "5", "-n", "5")
	require.NoError(t, err)

	for _, k := range []string{"90.00", "95.00", "100.00", "105.00", "110.00"} {
		assert.Contains(t, out, k)
	}

	_, err = run(t, t.TempDir(), "ladder", "--spot", "100", "--from", "90")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestLadderRejectsNonFiniteRange(t *testing.T) {
	tests := [][]string{
		{"--from", "90", "--to", "inf", "--step", "5"},
		{"--from=-Inf", "--to", "110", "--step", "5"},
		{"--from", "90", "--to", "NaN", "--step", "5"},
		{"--from", "90", "--to", "110", "--step", "NaN"},
	}
	for _, flags := range tests {
		t.Run(strings.Join(flags, " "), func(t *testing.T) {
			_, err := run(t, t.TempDir(), append([]string{"ladder", "--spot", "100"}, flags...)...)
			assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
		})
	}
}

func TestPayoffJSON(t *testing.T) {
	out, err := run(t, t.TempDir(), "payoff", "put:90", "call:110", "--json")
	require.NoError(t, err)

	var report PayoffReport
	decode(t, out, &report)

	assert.Equal(t, "Portfolio", report.Position)
	assert.Equal(t, "portfolio(put:90,call:110)", report.Notation)
	assert.Equal(t, 90.0, report.Range.Low)
	assert.Equal(t, 110.0, report.Range.High)
	assert.Equal(t, 80.0, report.Plotted.Low)
	assert.Equal(t, 120.0, report.Plotted.High)
	assert.Len(t, report.Points, 11)
	assert.Len(t, report.Legs, 2)

	// Between the strikes a strangle is worthless.
	assert.Equal(t, 0.0, report.Points[5].Value)
	assert.Equal(t, 100.0, report.Points[5].Price)
}

func TestPayoffShortCallProfit(t *testing.T) {
	out, err := run(t, t.TempDir(), "payoff", "short(call:100@5)", "--at", "90,100,120", "--json")
	require.NoError(t, err)

	var report PayoffReport
	decode(t, out, &report)
	require.Len(t, report.Points, 3)
	assert.Equal(t, 5.0, report.Points[0].Profit)
	assert.Equal(t, 5.0, report.Points[1].Profit)
	assert.Equal(t, -15.0, report.Points[2].Profit)
	assert.Equal(t, -5.0, report.Cost)
}

func TestPayoffPlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strangle.svg")
	out, err := run(t, t.TempDir(), "payoff", "put:90", "call:110", "--plot", path)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Contains(t, out, "Wrote")
}

func TestPayoffErrors(t *testing.T) {
	_, err := run(t, t.TempDir(), "payoff")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	_, err = run(t, t.TempDir(), "payoff", "put:")
	assert.ErrorIs(t, err, apperrors.ErrParse)
}

func TestPortfolioLifecycle(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "portfolio", "save", "straddle", "put:100@4", "call:100@5", "-D", "long vol", "--json")
	require.NoError(t, err)
	var saved struct {
		ID       string `json:"id"`
		Notation string `json:"notation"`
	}
	decode(t, out, &saved)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "portfolio(put:100@4,call:100@5)", saved.Notation)

	out, err = run(t, dir, "portfolio", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "straddle")
	assert.Contains(t, out, "long vol")

	out, err = run(t, dir, "portfolio", "show", "straddle", "--json")
	require.NoError(t, err)
	var shown struct {
		Name string  `json:"name"`
		Cost float64 `json:"cost"`
	}
	decode(t, out, &shown)
	assert.Equal(t, "straddle", shown.Name)
	assert.Equal(t, 9.0, shown.Cost)

	out, err = run(t, dir, "payoff", "--from", "straddle", "--at", "100", "--json")
	require.NoError(t, err)
	var report PayoffReport
	decode(t, out, &report)
	assert.Equal(t, -9.0, report.Points[0].Profit)

	_, err = run(t, dir, "portfolio", "delete", "straddle")
	require.NoError(t, err)

	_, err = run(t, dir, "portfolio", "show", "straddle")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	out, err = run(t, dir, "portfolio", "list", "--json")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), strings.TrimSpace(out))

	out, err = run(t, dir, "config", "validate", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"valid": true}`, out)

	out, err = run(t, dir, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Pricing")
	assert.Contains(t, out, filepath.Join(dir, "positions.db"))
}

func TestInvalidConfigFileFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[output]\nsamples = 1\n"), 0644))

	_, err := run(t, dir, "version")
	assert.ErrorIs(t, err, apperrors.ErrConfigInvalid)
}

func TestVersionAndExamples(t *testing.T) {
	out, err := run(t, t.TempDir(), "version", "--json")
	require.NoError(t, err)
	var v map[string]string
	decode(t, out, &v)
	assert.Equal(t, Version, v["version"])

	out, err = run(t, t.TempDir(), "examples")
	require.NoError(t, err)
	assert.Contains(t, out, "pricer price")
}
