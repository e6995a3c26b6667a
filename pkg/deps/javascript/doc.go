// Package javascript implements the npm handler for JavaScript and
// TypeScript sources.
//
// # Manifests
//
// package.json files declare packages through dependencies,
// devDependencies, peerDependencies, optionalDependencies,
// bundle(d)Dependencies, pnpm.overrides and pnpm.patchedDependencies. A
// package.json that is not valid JSON is still scanned for
// "name": "version" pairs inside the dependency sections.
//
// # Imports
//
// Sources are parsed with tree-sitter. The handler recognizes static
// imports, re-exports, require calls and dynamic import() calls. Local
// specifiers go through the alias resolver built from custom rules,
// tsconfig.json or jsconfig.json paths and framework presets; relative
// specifiers fall back to plain path lookup.
//
// Component names follow the import form:
//
//	import x from "pkg"           -> pkg.default
//	import { a as b } from "pkg"  -> pkg.a
//	import * as ns from "pkg"     -> pkg.*
//	const { a, b: c } = require("pkg")  -> pkg.a, pkg.b
package javascript
