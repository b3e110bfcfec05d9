package lattice

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// Tolerances for agreement between the two strategies.
const (
	CompareAbsTol = 1e-12
	CompareRelTol = 1e-9
)

// Comparison holds the same option priced with both strategies.
type Comparison struct {
	Replicating *Result `json:"replicating"`
	RiskNeutral *Result `json:"risk_neutral"`
	AbsDiff     float64 `json:"abs_diff"`
	RelDiff     float64 `json:"rel_diff"`
	Consistent  bool    `json:"consistent"`
}

// Compare prices params with the replicating portfolio and with risk-neutral
// probabilities and reports how far apart the two root values are.
func Compare(ctx context.Context, params Params, opts ...PricerOption) (*Comparison, error) {
	rep, err := NewPricer(Replicating, opts...).Price(ctx, params)
	if err != nil {
		return nil, err
	}
	rn, err := NewPricer(RiskNeutral, opts...).Price(ctx, params)
	if err != nil {
		return nil, err
	}

	abs := math.Abs(rep.Value - rn.Value)
	rel := 0.0
	if scale := math.Max(math.Abs(rep.Value), math.Abs(rn.Value)); scale > 0 {
		rel = abs / scale
	}

	return &Comparison{
		Replicating: rep,
		RiskNeutral: rn,
		AbsDiff:     abs,
		RelDiff:     rel,
		Consistent:  scalar.EqualWithinAbsOrRel(rep.Value, rn.Value, CompareAbsTol, CompareRelTol),
	}, nil
}
