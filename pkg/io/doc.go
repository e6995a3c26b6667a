// Package io reads and writes the two artifacts of an analysis run: the
// dependency graph and the result document.
//
// # Graph Format
//
// A graph is a JSON object with "nodes" and "edges" arrays, in the
// canonical order produced by graph.Builder.Build:
//
//	{
//	  "nodes": [
//	    {"id": "file:src/app.ts", "kind": "file", "key": "src/app.ts", "language": "typescript", "size": 412},
//	    {"id": "package:npm:react", "kind": "package", "ecosystem": "npm", "key": "react",
//	     "version": "^18.2.0", "url": "https://github.com/facebook/react"}
//	  ],
//	  "edges": [
//	    {"source": "file:src/app.ts", "target": "package:npm:react", "type": "imports_package", "multiplicity": 2}
//	  ]
//	}
//
// [ReadGraph] validates what it decodes: node IDs are unique, kinds and
// edge types are known, and every edge references existing nodes.
//
// # Result Format
//
// A [Result] carries the drip list (ranked repositories with split
// percentages), the diagnostics of the run and summary counts. It holds no
// timings, so two runs over the same tree encode to the same bytes.
//
// Both writers emit indented JSON by default; pass Compact for the
// single-line form used inside compressed artifacts.
package io
