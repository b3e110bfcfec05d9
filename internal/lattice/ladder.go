package lattice

import (
	"context"
	"runtime"

	"github.com/sourcegraph/conc/pool"

	apperrors "binomial-pricer/internal/errors"
)

// LadderRow is one strike of a strike ladder.
type LadderRow struct {
	Strike      float64 `json:"strike" csv:"strike"`
	Value       float64 `json:"value" csv:"value"`
	Evaluations int     `json:"evaluations" csv:"evaluations"`
}

// Ladder prices base at every strike concurrently. Each strike is an
// independent pricing call with its own memo and graph. Rows come back in
// the order of strikes; the first failure cancels the remaining work.
func (p *Pricer) Ladder(ctx context.Context, base Params, strikes []float64, workers int) ([]LadderRow, error) {
	if len(strikes) == 0 {
		return nil, apperrors.NewInvalidArgument("strikes", 0, "at least one strike is required")
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	rows := make([]LadderRow, len(strikes))
	wp := pool.New().WithMaxGoroutines(workers).WithContext(ctx).WithCancelOnError().WithFirstError()

	for i, strike := range strikes {
		i, strike := i, strike
		wp.Go(func(ctx context.Context) error {
			params := base
			params.Strike = strike
			res, err := p.Price(ctx, params)
			if err != nil {
				return apperrors.Wrapf(err, "strike %g", strike)
			}
			rows[i] = LadderRow{
				Strike:      strike,
				Value:       res.Value,
				Evaluations: res.Evaluations,
			}
			return nil
		})
	}

	if err := wp.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}
