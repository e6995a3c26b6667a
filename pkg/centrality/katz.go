package centrality

import (
	"context"
	"errors"

	"gonum.org/v1/gonum/floats"
)

// KatzMaxIterations bounds the Katz power iteration.
const KatzMaxIterations = 1000

var errNotConverged = errors.New("katz: power iteration did not converge")

// katz computes unnormalized Katz centrality with a uniform beta of 1:
// x = alpha*Aᵀx + 1. It converges when the L1 change between iterations
// drops below n*Tolerance.
func katz(ctx context.Context, m *matrix, alpha float64, weighted bool) ([]float64, error) {
	n := len(m.ids)
	x := make([]float64, n)
	next := make([]float64, n)
	for iter := 0; iter < KatzMaxIterations; iter++ {
		if iter%50 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for i := range next {
			next[i] = 0
		}
		for _, e := range m.edges {
			next[e.to] += edgeWeight(e, weighted) * x[e.from]
		}
		floats.Scale(alpha, next)
		floats.AddConst(1, next)
		if floats.Distance(next, x, 1) < float64(n)*Tolerance {
			return next, nil
		}
		x, next = next, x
	}
	return nil, errNotConverged
}
