// Package pypi provides an HTTP client for the Python Package Index API.
//
// # Usage
//
//	client := pypi.NewClient(backend, 24*time.Hour)
//	pkg, err := client.FetchPackage(ctx, "requests", false) // false = use cache
//	if err != nil {
//	    return err
//	}
//	fmt.Println(pkg.ProjectURLs["Source"])
//
// # PackageInfo
//
// [Client.FetchPackage] returns the labelled project URLs and the legacy
// home_page field. Callers pick the repository with
// [integrations.ExtractRepoURL], which searches the Source, Repository, Code
// and Homepage labels first.
package pypi
