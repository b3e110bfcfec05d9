package lattice

// BackwardInduction values params by folding the lattice one layer at a
// time from expiry back to the root. It evaluates the same formulas in the
// same order as Pricer.Price but keeps only one layer in memory and emits
// no graph, which suits lattices too large to draw.
func BackwardInduction(params Params, strategy Strategy) (float64, error) {
	if err := params.Validate(); err != nil {
		return 0, err
	}

	g := newGrid(params)
	n := params.Periods

	values := make([]float64, n+1)
	for ups := 0; ups <= n; ups++ {
		values[ups] = g.intrinsic(n, ups)
	}

	for period := n - 1; period >= 0; period-- {
		for ups := 0; ups <= period; ups++ {
			st := strategy.combine(
				g.price(period, ups),
				g.price(period+1, ups+1),
				g.price(period+1, ups),
				values[ups+1],
				values[ups],
				g.growth,
			)
			values[ups] = st.Value
		}
	}

	return values[0], nil
}
