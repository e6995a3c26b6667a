package centrality

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/drips-network/gardener/pkg/config"
	"github.com/drips-network/gardener/pkg/graph"
)

// Tolerance is the convergence threshold of both metrics.
const Tolerance = 1e-6

const scoreScale = 1e12

// Options selects the metric and edge weighting.
type Options struct {
	Metric  string // config.MetricPageRank or config.MetricKatz
	Alpha   float64
	Weights map[graph.EdgeType]float64 // missing types weigh 1
	Logger  *log.Logger
}

// Result holds one score per node ID.
type Result struct {
	Scores   map[string]float64
	Metric   string // metric that produced Scores
	Fallback bool   // Scores come from the unweighted PageRank fallback
}

// Compute scores every node of g.
func Compute(ctx context.Context, g *graph.Graph, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if len(g.Nodes) == 0 {
		return &Result{Scores: map[string]float64{}, Metric: opts.Metric}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := newMatrix(g, opts.Weights)
	var (
		scores []float64
		err    error
	)
	switch opts.Metric {
	case config.MetricKatz:
		scores, err = katz(ctx, m, opts.Alpha, true)
		if errors.Is(err, errNotConverged) {
			logger.Warn("katz did not converge, retrying without weights", "alpha", opts.Alpha)
			scores, err = katz(ctx, m, opts.Alpha, false)
		}
	case config.MetricPageRank:
		scores, err = pageRank(ctx, m, opts.Alpha, true)
	default:
		err = fmt.Errorf("unknown centrality metric %q", opts.Metric)
	}
	if err == nil {
		return &Result{Scores: m.byID(scores), Metric: opts.Metric}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	logger.Warn("centrality failed, falling back to unweighted pagerank", "metric", opts.Metric, "error", err)
	scores, err = pageRank(ctx, m, config.DefaultPageRankAlpha, false)
	if err != nil {
		return nil, fmt.Errorf("fallback pagerank: %w", err)
	}
	return &Result{Scores: m.byID(scores), Metric: config.MetricPageRank, Fallback: true}, nil
}

// matrix is the weighted adjacency of a graph over dense node indices.
// Parallel edges between one pair are summed and self loops are dropped.
type matrix struct {
	ids   []string
	edges []wedge
}

type wedge struct {
	from, to int
	w        float64
}

func newMatrix(g *graph.Graph, weights map[graph.EdgeType]float64) *matrix {
	m := &matrix{ids: make([]string, len(g.Nodes))}
	index := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		m.ids[i] = n.ID
		index[n.ID] = i
	}
	pos := make(map[[2]int]int)
	for _, e := range g.Edges {
		from, ok1 := index[e.Source]
		to, ok2 := index[e.Target]
		if !ok1 || !ok2 || from == to {
			continue
		}
		mult, ok := weights[e.Type]
		if !ok {
			mult = 1
		}
		w := mult * float64(max(e.Multiplicity, 1))
		key := [2]int{from, to}
		if i, ok := pos[key]; ok {
			m.edges[i].w += w
			continue
		}
		pos[key] = len(m.edges)
		m.edges = append(m.edges, wedge{from: from, to: to, w: w})
	}
	return m
}

// byID keys scores by node ID, rounded to 1e-12.
func (m *matrix) byID(scores []float64) map[string]float64 {
	out := make(map[string]float64, len(scores))
	for i, s := range scores {
		out[m.ids[i]] = math.Round(s*scoreScale) / scoreScale
	}
	return out
}
