// Package github provides an HTTP client for the GitHub REST API.
//
// The resolver uses it for one thing: collapsing renamed or transferred
// repositories to their current location. GitHub answers a request for an
// old owner/name with the current repository resource, whose html_url is
// the canonical address.
//
//	client := github.NewClient(backend, os.Getenv("GITHUB_TOKEN"), 24*time.Hour)
//	url, err := client.CanonicalURL(ctx, "pallets", "flask", false)
//
// # Authentication
//
// A token is optional. Without one the API allows 60 requests per hour.
package github
