package payoff

import (
	"math"

	"gonum.org/v1/gonum/floats"

	apperrors "binomial-pricer/internal/errors"
)

// DefaultSamples is the number of points used when sampling a payoff curve.
const DefaultSamples = 100

// Range is a closed interval of stock prices.
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Union returns the smallest range covering both r and o.
func (r Range) Union(o Range) Range {
	return Range{Low: math.Min(r.Low, o.Low), High: math.Max(r.High, o.High)}
}

// Width returns High - Low.
func (r Range) Width() float64 {
	return r.High - r.Low
}

// Padded widens the range on both sides by max(10, 10% of its width).
func (r Range) Padded() Range {
	pad := math.Max(10, 0.1*r.Width())
	return Range{Low: r.Low - pad, High: r.High + pad}
}

// Values evaluates p at every price.
func Values(p Position, prices []float64) []float64 {
	out := make([]float64, len(prices))
	for i, x := range prices {
		out[i] = p.ValueAt(x)
	}
	return out
}

// Profits evaluates p's profit at every price.
func Profits(p Position, prices []float64) []float64 {
	out := make([]float64, len(prices))
	for i, x := range prices {
		out[i] = p.ProfitAt(x)
	}
	return out
}

// Grid returns n evenly spaced prices across r, both ends included.
func Grid(r Range, n int) ([]float64, error) {
	if n < 2 {
		return nil, apperrors.NewInvalidArgument("samples", n, "need at least two samples")
	}
	return floats.Span(make([]float64, n), r.Low, r.High), nil
}

// Curve is a sampled payoff curve.
type Curve struct {
	Label  string
	Prices []float64
	Values []float64
}

// Sample evaluates p on n points across its padded range of interest.
func Sample(p Position, n int) (*Curve, error) {
	rng, err := p.RangeOfInterest()
	if err != nil {
		return nil, err
	}
	return SampleOver(p, rng.Padded(), n)
}

// SampleOver evaluates p on n points across r.
func SampleOver(p Position, r Range, n int) (*Curve, error) {
	xs, err := Grid(r, n)
	if err != nil {
		return nil, err
	}
	return &Curve{Label: p.String(), Prices: xs, Values: Values(p, xs)}, nil
}
