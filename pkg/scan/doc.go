// Package scan walks a repository tree and reports the files an analysis run
// should look at.
//
// The walk is defensive. Every path is checked with
// [errors.ValidateRelPath] before it is used, symbolic links are resolved and
// rejected when they leave the root or loop back onto a directory already on
// the current chain, and files are deduplicated by their resolved location so
// that two links to one manifest yield a single entry.
//
// Ignore rules come from the configured directory names and from
// .gitignore files, which apply to their own directory and everything below
// it. Root-level .gitmodules declarations are returned as a map from the
// submodule's local path to its remote URL.
//
// Problems with individual entries never fail a scan. They are recorded in
// the supplied [diag.Collector] and the entry is skipped. Only a missing or
// unreadable root, or limits that no scan could satisfy, return an error.
package scan
