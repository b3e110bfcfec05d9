// Package payoff models option positions and their payoff at expiry.
//
// A Position is one of three variants: a plain Option (put or call), a Short
// wrapper that flips the sign of another position, or a Portfolio summing an
// ordered list of positions. All variants are immutable value calculators.
package payoff

import (
	"fmt"
	"math"
	"strings"

	apperrors "binomial-pricer/internal/errors"
)

// Kind is the option type. Its numeric value is used as a sign multiplier
// in the payoff formula max(kind*(strike-price), 0).
type Kind int

const (
	Put  Kind = +1
	Call Kind = -1
)

// Valid reports whether k is Put or Call.
func (k Kind) Valid() bool {
	return k == Put || k == Call
}

func (k Kind) String() string {
	switch k {
	case Put:
		return "put"
	case Call:
		return "call"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MarshalText encodes the kind as "put" or "call".
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, apperrors.NewInvalidArgument("kind", int(k), "must be put (+1) or call (-1)")
	}
	return []byte(k.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind parses "put" or "call", case-insensitive. The exchange
// suffixes PE and CE are accepted too.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "put", "p", "pe":
		return Put, nil
	case "call", "c", "ce":
		return Call, nil
	}
	return 0, apperrors.NewInvalidArgument("kind", s, "must be put or call")
}

// Intrinsic returns the payoff of an option of the given kind and strike
// when the underlying trades at price.
func Intrinsic(kind Kind, strike, price float64) float64 {
	return math.Max(float64(kind)*(strike-price), 0)
}

// Position is the capability shared by options, shorts and portfolios.
type Position interface {
	fmt.Stringer

	// ValueAt returns the payoff at expiry for the given stock price.
	ValueAt(price float64) float64
	// ProfitAt returns ValueAt(price) - Cost().
	ProfitAt(price float64) float64
	// Cost is the net premium paid to enter the position. Negative when
	// premium is received.
	Cost() float64
	// RangeOfInterest returns the span of strikes worth plotting.
	RangeOfInterest() (Range, error)
	// Strike returns the single strike of the position, if it has one.
	Strike() (float64, bool)
}

// Option is a long put or call.
type Option struct {
	kind    Kind
	strike  float64
	premium float64
}

// NewOption creates an option. premium is what was paid for it.
func NewOption(kind Kind, strike, premium float64) (*Option, error) {
	if !kind.Valid() {
		return nil, apperrors.NewInvalidArgument("kind", int(kind), "must be put (+1) or call (-1)")
	}
	if math.IsNaN(strike) || math.IsInf(strike, 0) {
		return nil, apperrors.NewInvalidArgument("strike", strike, "must be finite")
	}
	if math.IsNaN(premium) || math.IsInf(premium, 0) {
		return nil, apperrors.NewInvalidArgument("premium", premium, "must be finite")
	}
	return &Option{kind: kind, strike: strike, premium: premium}, nil
}

// NewPut returns a put with the given strike and premium.
func NewPut(strike, premium float64) *Option {
	return &Option{kind: Put, strike: strike, premium: premium}
}

// NewCall returns a call with the given strike and premium.
func NewCall(strike, premium float64) *Option {
	return &Option{kind: Call, strike: strike, premium: premium}
}

func (o *Option) Kind() Kind       { return o.kind }
func (o *Option) Premium() float64 { return o.premium }

func (o *Option) String() string {
	if o.kind == Put {
		return fmt.Sprintf("Put(strike = %s)", formatNumber(o.strike))
	}
	return fmt.Sprintf("Call(strike = %s)", formatNumber(o.strike))
}

func (o *Option) ValueAt(price float64) float64 {
	return Intrinsic(o.kind, o.strike, price)
}

func (o *Option) ProfitAt(price float64) float64 {
	return o.ValueAt(price) - o.premium
}

func (o *Option) Cost() float64 {
	return o.premium
}

func (o *Option) RangeOfInterest() (Range, error) {
	return Range{Low: o.strike, High: o.strike}, nil
}

func (o *Option) Strike() (float64, bool) {
	return o.strike, true
}

// Short is the written side of a position: it pays the payoff and receives
// the premium.
type Short struct {
	inner Position
}

// NewShort wraps p. The Short owns p from here on.
func NewShort(p Position) *Short {
	return &Short{inner: p}
}

// Inner returns the wrapped position.
func (s *Short) Inner() Position { return s.inner }

func (s *Short) String() string {
	return fmt.Sprintf("Short(%s)", s.inner)
}

func (s *Short) ValueAt(price float64) float64 {
	return -s.inner.ValueAt(price)
}

func (s *Short) ProfitAt(price float64) float64 {
	return s.ValueAt(price) - s.Cost()
}

func (s *Short) Cost() float64 {
	return -s.inner.Cost()
}

func (s *Short) RangeOfInterest() (Range, error) {
	return s.inner.RangeOfInterest()
}

func (s *Short) Strike() (float64, bool) {
	return s.inner.Strike()
}

// Portfolio is an ordered sum of positions.
type Portfolio struct {
	legs []Position
}

// NewPortfolio creates a portfolio from at least one position.
func NewPortfolio(legs ...Position) (*Portfolio, error) {
	if len(legs) == 0 {
		return nil, apperrors.NewInvalidArgument("legs", 0, "portfolio needs at least one position")
	}
	owned := make([]Position, len(legs))
	copy(owned, legs)
	return &Portfolio{legs: owned}, nil
}

// Legs returns a copy of the portfolio's positions in order.
func (p *Portfolio) Legs() []Position {
	out := make([]Position, len(p.legs))
	copy(out, p.legs)
	return out
}

func (p *Portfolio) String() string {
	return "Portfolio"
}

func (p *Portfolio) ValueAt(price float64) float64 {
	total := 0.0
	for _, leg := range p.legs {
		total += leg.ValueAt(price)
	}
	return total
}

func (p *Portfolio) ProfitAt(price float64) float64 {
	return p.ValueAt(price) - p.Cost()
}

func (p *Portfolio) Cost() float64 {
	total := 0.0
	for _, leg := range p.legs {
		total += leg.Cost()
	}
	return total
}

// RangeOfInterest is the union of the legs' ranges. It fails on an empty
// portfolio.
func (p *Portfolio) RangeOfInterest() (Range, error) {
	if len(p.legs) == 0 {
		return Range{}, apperrors.NewInvalidArgument("legs", 0, "empty portfolio has no range of interest")
	}
	rng, err := p.legs[0].RangeOfInterest()
	if err != nil {
		return Range{}, err
	}
	for _, leg := range p.legs[1:] {
		r, err := leg.RangeOfInterest()
		if err != nil {
			return Range{}, err
		}
		rng = rng.Union(r)
	}
	return rng, nil
}

func (p *Portfolio) Strike() (float64, bool) {
	return 0, false
}

// formatNumber prints whole numbers without a fractional part.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%g", v)
}
