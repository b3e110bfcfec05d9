// Package lattice prices European options on a recombining binomial tree.
//
// Each pricing call walks the tree from the root, values the terminal
// layer at intrinsic payoff and folds interior nodes with the selected
// Strategy. Values are memoized per lattice position and every evaluated
// position is emitted to a graph.Builder, which yields the derivation
// as a node/edge trail once the root is valued.
package lattice

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"binomial-pricer/internal/graph"
	"binomial-pricer/internal/logging"
)

// ctxCheckInterval is how many stack steps run between context checks.
const ctxCheckInterval = 1024

// NodeValue is one evaluated lattice position.
type NodeValue struct {
	ID     string  `json:"id" csv:"id"`
	Period int     `json:"period" csv:"period"`
	Ups    int     `json:"ups" csv:"ups"`
	Price  float64 `json:"price" csv:"price"`
	Value  float64 `json:"value" csv:"value"`
	Hedge  float64 `json:"x,omitempty" csv:"x"`
	Bond   float64 `json:"b,omitempty" csv:"b"`
	Prob   float64 `json:"p,omitempty" csv:"p"`
	Leaf   bool    `json:"leaf" csv:"leaf"`
}

// Result is the outcome of one pricing call.
type Result struct {
	Value       float64       `json:"value"`
	Strategy    Strategy      `json:"method"`
	Params      Params        `json:"params"`
	Graph       *graph.Graph  `json:"-"`
	Nodes       []NodeValue   `json:"nodes"`
	Evaluations int           `json:"evaluations"`
	Elapsed     time.Duration `json:"-"`
}

// Layer returns the nodes of one period ordered from the highest price
// down.
func (r *Result) Layer(period int) []NodeValue {
	var layer []NodeValue
	for _, n := range r.Nodes {
		if n.Period == period {
			layer = append(layer, n)
		}
	}
	sort.Slice(layer, func(i, j int) bool { return layer[i].Ups > layer[j].Ups })
	return layer
}

// Root returns the period-0 node.
func (r *Result) Root() NodeValue {
	for _, n := range r.Nodes {
		if n.Period == 0 {
			return n
		}
	}
	return NodeValue{}
}

// NodeID is the graph id of the lattice position at period with the given
// stock price. Prices are rounded to 8 decimals so the id survives float
// noise in the caller's arithmetic. Lattices whose prices come closer than
// that use more decimals; see IDPlaces and NodeIDAt.
func NodeID(period int, price float64) string {
	return NodeIDAt(period, price, minIDPlaces)
}

// NodeIDAt is NodeID with the price rounded to places decimals.
func NodeIDAt(period int, price float64, places int32) string {
	return fmt.Sprintf("%d_%s", period, decimal.NewFromFloat(price).Round(places).String())
}

// PricerOption configures a Pricer.
type PricerOption func(*Pricer)

// WithLogger sets the logger used for per-call debug events. Without it
// the logger carried by the call's context is used.
func WithLogger(logger zerolog.Logger) PricerOption {
	return func(p *Pricer) {
		p.logger = &logger
	}
}

// Pricer values options with a fixed Strategy. A Pricer holds no state
// between calls and may be shared by goroutines.
type Pricer struct {
	strategy Strategy
	logger   *zerolog.Logger
}

// NewPricer creates a Pricer for the given strategy.
func NewPricer(strategy Strategy, opts ...PricerOption) *Pricer {
	p := &Pricer{strategy: strategy}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Strategy returns the pricer's valuation strategy.
func (p *Pricer) Strategy() Strategy {
	return p.strategy
}

// Price values the option described by params.
func (p *Pricer) Price(ctx context.Context, params Params) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	w := newWalk(params, p.strategy)
	value, err := w.run(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Value:       value,
		Strategy:    p.strategy,
		Params:      params,
		Graph:       w.builder.Build(),
		Nodes:       w.nodes,
		Evaluations: w.evaluations,
		Elapsed:     time.Since(start),
	}

	logging.LogPricing(p.loggerFor(ctx), params.Kind.String(), params.Spot, params.Strike,
		params.Periods, result.Value, result.Evaluations, result.Elapsed)

	return result, nil
}

func (p *Pricer) loggerFor(ctx context.Context) zerolog.Logger {
	logger := logging.FromContext(ctx)
	if p.logger != nil {
		logger = *p.logger
	}
	return logging.WithStrategy(logger, p.strategy.String())
}

// Price values params with a throwaway Pricer.
func Price(ctx context.Context, params Params, strategy Strategy) (*Result, error) {
	return NewPricer(strategy).Price(ctx, params)
}

type position struct {
	period int
	ups    int
}

func (pos position) up() position   { return position{pos.period + 1, pos.ups + 1} }
func (pos position) down() position { return position{pos.period + 1, pos.ups} }

type frame struct {
	pos      position
	expanded bool
}

// walk holds the per-call memo and graph. It is discarded once the root is
// valued.
type walk struct {
	grid        *grid
	strategy    Strategy
	memo        map[position]float64
	builder     *graph.Builder
	nodes       []NodeValue
	evaluations int
}

func newWalk(params Params, strategy Strategy) *walk {
	return &walk{
		grid:     newGrid(params),
		strategy: strategy,
		memo:     make(map[position]float64, NodeCount(params.Periods)),
		builder:  graph.NewBuilder(),
		nodes:    make([]NodeValue, 0, NodeCount(params.Periods)),
	}
}

func (w *walk) id(pos position) string {
	return NodeIDAt(pos.period, w.grid.price(pos.period, pos.ups), w.grid.places)
}

// run evaluates the lattice in post-order with an explicit stack: a node is
// valued only after both of its successors, the up successor first.
// Positions already in the memo are skipped without emitting anything.
func (w *walk) run(ctx context.Context) (float64, error) {
	root := position{}
	stack := []frame{{pos: root}}

	for steps := 0; len(stack) > 0; steps++ {
		if steps%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}

		top := len(stack) - 1
		f := stack[top]

		if _, ok := w.memo[f.pos]; ok {
			stack = stack[:top]
			continue
		}

		if f.pos.period == w.grid.periods {
			w.leaf(f.pos)
			stack = stack[:top]
			continue
		}

		if !f.expanded {
			stack[top].expanded = true
			stack = append(stack, frame{pos: f.pos.down()}, frame{pos: f.pos.up()})
			continue
		}

		w.interior(f.pos)
		stack = stack[:top]
	}

	return w.memo[root], nil
}

func (w *walk) leaf(pos position) {
	price := w.grid.price(pos.period, pos.ups)
	value := w.grid.intrinsic(pos.period, pos.ups)
	w.memo[pos] = value
	w.evaluations++

	id := w.id(pos)
	w.builder.AddNode(id, leafLabel(price, value))
	w.nodes = append(w.nodes, NodeValue{
		ID:     id,
		Period: pos.period,
		Ups:    pos.ups,
		Price:  price,
		Value:  value,
		Leaf:   true,
	})
}

func (w *walk) interior(pos position) {
	up, down := pos.up(), pos.down()
	price := w.grid.price(pos.period, pos.ups)
	st := w.strategy.combine(
		price,
		w.grid.price(up.period, up.ups),
		w.grid.price(down.period, down.ups),
		w.memo[up],
		w.memo[down],
		w.grid.growth,
	)
	w.memo[pos] = st.Value
	w.evaluations++

	id := w.id(pos)
	upLabel, downLabel := w.strategy.edgeLabels()
	w.builder.AddNode(id, w.strategy.label(price, st))
	w.builder.AddEdge(id, w.id(up), upLabel)
	w.builder.AddEdge(id, w.id(down), downLabel)
	w.nodes = append(w.nodes, NodeValue{
		ID:     id,
		Period: pos.period,
		Ups:    pos.ups,
		Price:  price,
		Value:  st.Value,
		Hedge:  st.Hedge,
		Bond:   st.Bond,
		Prob:   st.Prob,
	})
}
