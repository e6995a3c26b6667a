package io

import (
	"github.com/drips-network/gardener/pkg/centrality"
	"github.com/drips-network/gardener/pkg/diag"
)

// Result is the serialized outcome of one analysis run.
type Result struct {
	Root           string             `json:"root"`
	RepoURL        string             `json:"repo_url,omitempty"`
	Metric         string             `json:"metric"`
	MetricFallback bool               `json:"metric_fallback,omitempty"`
	DripList       []centrality.Entry `json:"drip_list"`
	Diagnostics    []diag.Diagnostic  `json:"diagnostics"`
	Stats          Stats              `json:"stats"`
	Summary        map[diag.Kind]int  `json:"diagnostic_summary,omitempty"`
}

// Stats are node and resolution counts of a run.
type Stats struct {
	Files      int `json:"files"`
	Manifests  int `json:"manifests"`
	Packages   int `json:"packages"`
	Components int `json:"components"`
	Edges      int `json:"edges"`
	Resolved   int `json:"resolved"`
	Unresolved int `json:"unresolved"`
	Skipped    int `json:"skipped"`
}
