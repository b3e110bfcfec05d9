package lattice

import (
	"math"

	apperrors "binomial-pricer/internal/errors"
	"binomial-pricer/internal/payoff"
)

// Params are the inputs of one pricing call.
type Params struct {
	Spot    float64     `json:"spot"`
	Strike  float64     `json:"strike"`
	Kind    payoff.Kind `json:"kind"`
	Rate    float64     `json:"rate"` // risk-free rate per period
	Up      float64     `json:"up"`   // price multiplier on an up move
	Down    float64     `json:"down"` // price multiplier on a down move
	Periods int         `json:"periods"`
}

// ParamsFor binds a plain option's kind and strike to lattice inputs.
func ParamsFor(opt *payoff.Option, spot, rate, up, down float64, periods int) Params {
	strike, _ := opt.Strike()
	return Params{
		Spot:    spot,
		Strike:  strike,
		Kind:    opt.Kind(),
		Rate:    rate,
		Up:      up,
		Down:    down,
		Periods: periods,
	}
}

// Validate checks the preconditions of the lattice. Degenerate inputs for
// which the formulas divide by zero are reported as ErrDomain, everything
// else as ErrInvalidArgument.
func (p Params) Validate() error {
	finite := []struct {
		field string
		value float64
	}{
		{"spot", p.Spot},
		{"strike", p.Strike},
		{"rate", p.Rate},
		{"up", p.Up},
		{"down", p.Down},
	}
	for _, f := range finite {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return apperrors.NewInvalidArgument(f.field, f.value, "must be a finite number")
		}
	}

	if p.Periods < 0 {
		return apperrors.NewInvalidArgument("periods", p.Periods, "must be non-negative")
	}
	if !p.Kind.Valid() {
		return apperrors.NewInvalidArgument("kind", int(p.Kind), "must be put (+1) or call (-1)")
	}
	if p.Spot <= 0 {
		return apperrors.NewInvalidArgument("spot", p.Spot, "must be positive")
	}
	if p.Strike < 0 {
		return apperrors.NewInvalidArgument("strike", p.Strike, "must be non-negative")
	}
	if p.Down <= 0 {
		return apperrors.NewInvalidArgument("down", p.Down, "must be positive")
	}
	if p.Up == p.Down {
		return apperrors.NewDomainError("up", p.Up, "up and down factors are equal, hedge ratio divides by zero")
	}
	if p.Up < p.Down {
		return apperrors.NewInvalidArgument("up", p.Up, "must exceed down")
	}
	if p.Rate <= -1 {
		return apperrors.NewDomainError("rate", p.Rate, "discount factor 1+rate must be positive")
	}
	return nil
}

// NodeCount is the number of distinct positions in a recombining lattice
// with the given number of periods.
func NodeCount(periods int) int {
	return (periods + 1) * (periods + 2) / 2
}

// grid maps lattice positions to stock prices. A position is addressed by
// its period and the number of up moves taken to reach it, so paths that
// recombine land on exactly the same float.
type grid struct {
	spot    float64
	upPow   []float64
	downPow []float64
	periods int
	growth  float64
	strike  float64
	kind    payoff.Kind
	// places is the decimal precision of node ids for this lattice.
	places int32
}

func newGrid(p Params) *grid {
	g := &grid{
		spot:    p.Spot,
		upPow:   make([]float64, p.Periods+1),
		downPow: make([]float64, p.Periods+1),
		periods: p.Periods,
		growth:  1 + p.Rate,
		strike:  p.Strike,
		kind:    p.Kind,
	}
	for i := 0; i <= p.Periods; i++ {
		g.upPow[i] = math.Pow(p.Up, float64(i))
		g.downPow[i] = math.Pow(p.Down, float64(i))
	}
	g.places = IDPlaces(p)
	return g
}

const (
	minIDPlaces = 8
	maxIDPlaces = 340
)

// IDPlaces returns the number of decimals node ids of p are rounded to. It is
// 8 unless two prices of the same period lie closer than 1e-8, in which case
// it grows until the closest pair rounds apart. The closest pair is the
// lowest two nodes of the last period when down < 1, or of period 1 otherwise.
func IDPlaces(p Params) int32 {
	if p.Periods < 1 || p.Up <= p.Down {
		return minIDPlaces
	}
	logGap := math.Log10(p.Spot) + math.Log10(p.Up-p.Down) +
		float64(p.Periods-1)*math.Min(0, math.Log10(p.Down))
	switch {
	case math.IsNaN(logGap) || logGap > -minIDPlaces:
		return minIDPlaces
	case logGap < -maxIDPlaces:
		return maxIDPlaces
	}
	return int32(math.Ceil(-logGap)) + 1
}

func (g *grid) price(period, ups int) float64 {
	return g.spot * g.upPow[ups] * g.downPow[period-ups]
}

func (g *grid) intrinsic(period, ups int) float64 {
	return payoff.Intrinsic(g.kind, g.strike, g.price(period, ups))
}
