// Package npm provides an HTTP client for the npm registry API.
//
// # Usage
//
//	client := npm.NewClient(backend, 24*time.Hour)
//	pkg, err := client.FetchPackage(ctx, "@openzeppelin/contracts", false)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(pkg.Repository)
//
// # PackageInfo
//
// [Client.FetchPackage] returns the repository, homepage and bugs URLs of the
// version tagged "latest" in dist-tags, falling back to the document's
// top-level fields. The repository field may be a string or an object with
// url and directory keys; both forms are accepted.
package npm
