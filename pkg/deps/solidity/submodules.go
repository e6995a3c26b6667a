package solidity

import (
	"path"
	"strings"

	"github.com/drips-network/gardener/pkg/deps"
)

// associateSubmodules links library packages declared through remappings to
// the git submodule holding their sources. The submodule directly under
// lib/ named by the remapping target is tried first, then the longest
// submodule path containing the target. The submodule name must align with
// the package name either way.
func associateSubmodules(p *deps.Project, rs []Remapping) {
	if len(p.Submodules) == 0 {
		return
	}
	for _, r := range rs {
		if !r.libraryLike() {
			continue
		}
		name := PackageName(r.Prefix)
		pkg, ok := p.Package(deps.Solidity, name)
		if !ok || pkg.SubmoduleURL != "" {
			continue
		}
		smPath, smURL := matchSubmodule(p.Submodules, name, r.Path())
		if smURL == "" {
			continue
		}
		p.UpdatePackage(deps.Solidity, name, func(pkg *deps.Package) {
			pkg.SubmodulePath = smPath
			pkg.SubmoduleURL = smURL
		})
		p.Logger.Debug("associated submodule", "package", name, "path", smPath, "url", smURL)
	}
}

func matchSubmodule(subs map[string]string, name, target string) (string, string) {
	if i := strings.LastIndex(target, "lib/"); i >= 0 {
		seg, _, _ := strings.Cut(target[i+len("lib/"):], "/")
		cand := "lib/" + seg
		if u, ok := subs[cand]; ok && seg != "" && aligned(name, seg) {
			return cand, u
		}
	}
	best, bestURL := "", ""
	for sm, u := range subs {
		if target != sm && !strings.HasPrefix(target, sm+"/") {
			continue
		}
		if aligned(name, path.Base(sm)) && (len(sm) > len(best) || (len(sm) == len(best) && sm < best)) {
			best, bestURL = sm, u
		}
	}
	return best, bestURL
}

var alignReplacer = strings.NewReplacer("-", "", "_", "", "@", "", "/", "")

// aligned reports whether a package name and a directory name plausibly
// refer to the same library.
func aligned(name, dir string) bool {
	a := strings.ToLower(alignReplacer.Replace(name))
	b := strings.ToLower(alignReplacer.Replace(dir))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
