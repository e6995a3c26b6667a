// Package goproxy provides an HTTP client for the Go module proxy and for
// go-get vanity import metadata.
//
// # Usage
//
//	client := goproxy.NewClient(backend, 24*time.Hour)
//	mod, err := client.FetchModule(ctx, "github.com/spf13/cobra", false)
//	meta, err := client.FetchImportMeta(ctx, "go.uber.org/zap", false)
//
// [Client.FetchModule] reads the @latest endpoint, which records the VCS
// origin of recent versions. [Client.FetchImportMeta] reads the go-import
// and go-source meta tags served at https://<path>?go-get=1, the mechanism
// the go command itself uses for custom import paths.
package goproxy
