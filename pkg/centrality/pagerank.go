package centrality

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// PageRankMaxIterations bounds the PageRank power iteration.
const PageRankMaxIterations = 1000

// pageRank computes PageRank with damping damp by power iteration from the
// uniform vector. Each node's outgoing weights are normalized to sum to one
// and the mass of dangling nodes is spread uniformly. It converges when the
// L1 change between iterations drops below n*Tolerance.
//
// The iteration order is fixed by the matrix, so equal inputs give equal
// scores bit for bit.
func pageRank(ctx context.Context, m *matrix, damp float64, weighted bool) ([]float64, error) {
	if damp <= 0 || damp >= 1 {
		return nil, fmt.Errorf("pagerank: damping %v outside (0, 1)", damp)
	}
	n := len(m.ids)
	out := make([]float64, n)
	for _, e := range m.edges {
		out[e.from] += edgeWeight(e, weighted)
	}

	x := make([]float64, n)
	floats.AddConst(1/float64(n), x)
	next := make([]float64, n)
	for iter := 0; iter < PageRankMaxIterations; iter++ {
		if iter%50 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		dangling := 0.0
		for i, w := range out {
			if w == 0 {
				dangling += x[i]
			}
		}
		for i := range next {
			next[i] = 0
		}
		for _, e := range m.edges {
			next[e.to] += x[e.from] * edgeWeight(e, weighted) / out[e.from]
		}
		floats.Scale(damp, next)
		floats.AddConst((damp*dangling+1-damp)/float64(n), next)
		if floats.Distance(next, x, 1) < float64(n)*Tolerance {
			return next, nil
		}
		x, next = next, x
	}
	return nil, fmt.Errorf("pagerank: no convergence after %d iterations", PageRankMaxIterations)
}

func edgeWeight(e wedge, weighted bool) float64 {
	if weighted {
		return e.w
	}
	return 1
}
