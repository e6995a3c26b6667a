package centrality

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/drips-network/gardener/pkg/graph"
	"github.com/drips-network/gardener/pkg/urls"
)

// PercentPlaces is the number of decimals kept in a split percentage.
const PercentPlaces = 4

var hundred = decimal.NewFromInt(100)

// Entry is one ranked repository.
type Entry struct {
	PackageName string          `json:"package_name"`
	URL         string          `json:"canonical_url"`
	Ecosystem   string          `json:"ecosystem"`
	Packages    []string        `json:"packages"`
	Mass        float64         `json:"raw_score"`
	Percentage  decimal.Decimal `json:"split_percentage"`
}

// RankOptions controls aggregation and truncation.
type RankOptions struct {
	MaxLength  int    // 0 keeps every entry
	GitHubOnly bool   // keep github.com repositories only
	SelfURL    string // the analyzed repository, excluded from the ranking
}

type bucket struct {
	url      urls.CanonicalURL
	mass     float64
	packages []string
	eco      string
}

// Rank aggregates scores by canonical repository URL. Every package node
// with a URL contributes its own score and the scores of its components;
// only positive scores count. Self packages and packages whose URL equals
// SelfURL are skipped.
//
// Entries are ordered by mass, descending, with ties broken by URL. After
// truncation to MaxLength the percentages are rounded half up to
// [PercentPlaces] decimals and the last entry absorbs the rounding
// remainder, so the total is exactly 100. A zero total yields zeros.
func Rank(g *graph.Graph, scores map[string]float64, opts RankOptions) []Entry {
	self, hasSelf := urls.Parse(opts.SelfURL)

	componentMass := make(map[string]float64)
	for _, n := range g.Nodes {
		if n.Kind == graph.KindComponent && scores[n.ID] > 0 {
			componentMass[n.Package] += scores[n.ID]
		}
	}

	buckets := make(map[string]*bucket)
	for _, n := range g.Nodes {
		if n.Kind != graph.KindPackage || n.IsSelf || n.URL == "" {
			continue
		}
		u, ok := urls.Parse(n.URL)
		if !ok || (hasSelf && u.Key == self.Key) {
			continue
		}
		if opts.GitHubOnly && u.Forge != urls.GitHub {
			continue
		}
		b, ok := buckets[u.Key]
		if !ok {
			b = &bucket{url: u, eco: n.Ecosystem}
			buckets[u.Key] = b
		}
		b.packages = append(b.packages, n.Key)
		if s := scores[n.ID]; s > 0 {
			b.mass += s
		}
		b.mass += componentMass[n.ID]
	}

	ranked := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ranked = append(ranked, b)
	}
	slices.SortFunc(ranked, func(a, b *bucket) int {
		if c := cmp.Compare(b.mass, a.mass); c != 0 {
			return c
		}
		return cmp.Compare(a.url.Key, b.url.Key)
	})
	if opts.MaxLength > 0 && len(ranked) > opts.MaxLength {
		ranked = ranked[:opts.MaxLength]
	}

	entries := make([]Entry, len(ranked))
	masses := make([]decimal.Decimal, len(ranked))
	for i, b := range ranked {
		slices.Sort(b.packages)
		entries[i] = Entry{
			PackageName: b.url.OwnerRepo(),
			URL:         b.url.String(),
			Ecosystem:   b.eco,
			Packages:    slices.Compact(b.packages),
			Mass:        b.mass,
		}
		masses[i] = decimal.NewFromFloat(b.mass)
	}
	for i, p := range Percentages(masses) {
		entries[i].Percentage = p
	}
	return entries
}

// Percentages splits 100 across masses proportionally. Each share but the
// last is rounded half up to [PercentPlaces] decimals; the last gets the
// remainder. When rounding up overshoots 100, the excess is taken back from
// the preceding shares, smallest first, so no share is negative. A zero
// total gives every share 0.
func Percentages(masses []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(masses))
	if len(masses) == 0 {
		return out
	}
	total := decimal.Sum(decimal.Zero, masses...)
	if total.IsZero() {
		for i := range out {
			out[i] = decimal.Zero.Round(PercentPlaces)
		}
		return out
	}
	running := decimal.Zero
	for i, m := range masses[:len(masses)-1] {
		out[i] = m.Div(total).Mul(hundred).Round(PercentPlaces)
		running = running.Add(out[i])
	}
	last := hundred.Sub(running)
	for i := len(out) - 2; last.IsNegative() && i >= 0; i-- {
		take := decimal.Min(out[i], last.Neg())
		out[i] = out[i].Sub(take)
		last = last.Add(take)
	}
	out[len(out)-1] = last
	return out
}
