// Package alias rewrites import specifiers into candidate repository paths.
//
// A [Resolver] answers one question for a specifier seen in a file: which
// local file, if any, does it refer to? Sources of rewriting are tried in a
// fixed order and the first that yields an existing file wins:
//
//  1. custom rules from configuration, by descending priority, then
//     declaration order
//  2. path aliases declared by the project's own build configuration
//     (tsconfig.json / jsconfig.json baseUrl and paths, Solidity remappings)
//  3. framework presets such as SvelteKit's $lib
//  4. relative specifiers, resolved against the importing file's directory
//
// A specifier none of these resolves is external. Framework presets may also
// name a package directly (SvelteKit's $app resolves to @sveltejs/kit), in
// which case the result carries that package instead of a path.
//
// Patterns and targets contain at most one '*'. The text the '*' matched in
// the specifier replaces the '*' in each target; targets are tried in
// declared order. Resolution is a pure function of the specifier, the rule
// set, the importing file and the file set.
package alias
