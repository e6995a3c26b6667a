// Package httputil provides retry helpers for package registry clients.
//
// # Retry
//
// [Retry] re-runs an operation that failed with a transient error:
//
//   - network errors (connection refused, resets, client timeouts)
//   - 5xx server errors
//
// Callers mark an error as transient by wrapping it in [RetryableError];
// anything else (404, malformed metadata) is returned immediately so that
// the URL resolver can record the package as unresolved without waiting.
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return client.Get(ctx, url, &resp)
//	})
//
// # Configuration
//
// [DefaultPolicy] matches the registry defaults used by gardener:
//
//   - Attempts: 3
//   - Initial delay: 1 second, doubling after each failure
//
// Cancelling ctx aborts the wait between attempts and returns ctx.Err().
package httputil
