// Package crates provides an HTTP client for the crates.io API.
//
// [Client.FetchCrate] returns the repository and homepage URLs of a crate.
// crates.io requires every request to identify its client, so the client
// always sends [integrations.UserAgent].
package crates
