package store

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"binomial-pricer/internal/payoff"
)

// Property: saving a position and loading it back yields a position with
// the same notation, cost and payoff everywhere.
func TestProperty_PositionRoundTrip(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "positions.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	strikeGen := gen.Float64Range(1, 500).Map(func(v float64) float64 { return math.Round(v*100) / 100 })
	premiumGen := gen.Float64Range(0, 20).Map(func(v float64) float64 { return math.Round(v*100) / 100 })

	n := 0
	properties.Property("save then load preserves the position", prop.ForAll(
		func(putStrike, callStrike, putPremium, callPremium float64, shortCall bool, price float64) bool {
			var call payoff.Position = payoff.NewCall(callStrike, callPremium)
			if shortCall {
				call = payoff.NewShort(call)
			}
			original, err := payoff.NewPortfolio(payoff.NewPut(putStrike, putPremium), call)
			if err != nil {
				return false
			}

			n++
			name := fmt.Sprintf("p%d", n)
			ctx := context.Background()
			if _, err := s.SavePortfolio(ctx, name, original, ""); err != nil {
				t.Logf("save: %v", err)
				return false
			}

			got, err := s.GetPortfolio(ctx, name)
			if err != nil {
				return false
			}
			loaded, err := got.Position()
			if err != nil {
				t.Logf("parse %q: %v", got.Notation, err)
				return false
			}

			return payoff.Format(loaded) == payoff.Format(original) &&
				loaded.Cost() == original.Cost() &&
				loaded.ValueAt(price) == original.ValueAt(price)
		},
		strikeGen,
		strikeGen,
		premiumGen,
		premiumGen,
		gen.Bool(),
		gen.Float64Range(0, 600),
	))

	properties.TestingRun(t)
}
