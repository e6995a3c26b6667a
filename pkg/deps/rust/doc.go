// Package rust implements the cargo handler.
//
// Cargo.toml files are decoded with BurntSushi/toml, including target
// specific and workspace dependency tables. Renamed dependencies are
// declared under their crates.io name and indexed under the key used in
// source.
//
// Sources are parsed with the tree-sitter Rust grammar. The handler
// understands use trees (nested lists, self, globs and aliases), extern
// crate items, "mod name;" declarations, attribute paths such as
// #[tokio::main] and crate-qualified paths of declared crates, including
// those inside macro arguments. Paths rooted at crate, self, super or a
// module declared in the file resolve to repository files: dir/a/b.rs or
// dir/a/b/mod.rs, longest path first.
package rust
