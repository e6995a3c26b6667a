// Package deps defines the language handlers that turn manifests and source
// files into dependency facts.
//
// # Overview
//
// Gardener understands five ecosystems: npm (JavaScript and TypeScript),
// pypi (Python), go, cargo (Rust) and solidity. Each is served by one
// [Handler] living in a subpackage:
//
//   - [github.com/drips-network/gardener/pkg/deps/javascript]
//   - [github.com/drips-network/gardener/pkg/deps/python]
//   - [github.com/drips-network/gardener/pkg/deps/golang]
//   - [github.com/drips-network/gardener/pkg/deps/rust]
//   - [github.com/drips-network/gardener/pkg/deps/solidity]
//
// The [github.com/drips-network/gardener/pkg/deps/languages] package returns
// a fresh set of handlers for each run.
//
// # Run Phases
//
// A run uses handlers in three phases:
//
//  1. ParseManifest is called for every scanned file matching one of the
//     handler's manifest patterns. Results are added to a [Project], which
//     merges duplicate declarations (see [MergeVersions]) and builds the
//     import-name index once every manifest is known.
//  2. Prepare is called once per handler with the finished project. Handlers
//     read build configuration here: tsconfig paths, Solidity remappings,
//     Go module roots and Rust crate roots.
//  3. Extract is called concurrently for every source file in the handler's
//     languages. It returns [Facts]: resolved local imports, external import
//     names and component usages. Extract must not mutate the project.
//
// # Import Names
//
// A declared package is indexed under every name source code may use for it,
// as reported by the distribution-name resolver in
// [github.com/drips-network/gardener/pkg/names] plus any names the manifest
// itself introduces (Cargo renames, Foundry dependency keys). When several
// packages claim one name, [Project.Lookup] picks the lexicographically
// smallest and reports the choice as ambiguous.
package deps
