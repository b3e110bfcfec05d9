package lattice

import (
	"fmt"
	"strings"

	apperrors "binomial-pricer/internal/errors"
)

// Strategy selects how an interior node is valued from its two children.
// Both strategies are no-arbitrage prices and agree up to rounding.
type Strategy int

const (
	// Replicating solves for the stock/bond portfolio (x, B) matching the
	// option in both successor states.
	Replicating Strategy = iota
	// RiskNeutral discounts the expectation under the risk-neutral
	// probability p.
	RiskNeutral
)

func (s Strategy) String() string {
	switch s {
	case Replicating:
		return "replicating"
	case RiskNeutral:
		return "risk-neutral"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// MarshalText encodes the strategy by name.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Strategies lists every strategy in a fixed order.
func Strategies() []Strategy {
	return []Strategy{Replicating, RiskNeutral}
}

// ParseStrategy accepts the names printed by String plus a few aliases.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "replicating", "replication", "portfolio", "hedge":
		return Replicating, nil
	case "risk-neutral", "riskneutral", "risk_neutral", "rn", "probability":
		return RiskNeutral, nil
	}
	return 0, apperrors.NewInvalidArgument("method", s, "must be replicating or risk-neutral")
}

// step is the valuation of one interior node.
type step struct {
	Value float64
	Hedge float64 // x, units of stock held (replicating)
	Bond  float64 // B, cash in the bond (replicating)
	Prob  float64 // p, risk-neutral up probability
}

// combine values a node at price s whose successors trade at su and sd and
// are worth vu and vd. growth is 1+r.
func (s Strategy) combine(price, su, sd, vu, vd, growth float64) step {
	switch s {
	case RiskNeutral:
		p := (growth*price - sd) / (su - sd)
		return step{
			Value: (p*vu + (1-p)*vd) / growth,
			Prob:  p,
		}
	default:
		x := (vu - vd) / (su - sd)
		b := (vu - su*x) / growth
		return step{
			Value: price*x + b,
			Hedge: x,
			Bond:  b,
		}
	}
}

const labelRule = "------------"

func leafLabel(price, value float64) string {
	return fmt.Sprintf("STOCK = %.6g\n%s\nvalue = %.4g", price, labelRule, value)
}

func (s Strategy) label(price float64, st step) string {
	if s == RiskNeutral {
		return fmt.Sprintf("STOCK = %.6g\n%s\nvalue = %.4g\np = %.4g", price, labelRule, st.Value, st.Prob)
	}
	return fmt.Sprintf("STOCK = %.6g\n%s\nvalue = %.4g\nx = %.4g\nB = %.4g", price, labelRule, st.Value, st.Hedge, st.Bond)
}

// edgeLabels returns the labels of the up and down edges.
func (s Strategy) edgeLabels() (up, down string) {
	if s == RiskNeutral {
		return "p", "1 - p"
	}
	return "", ""
}
