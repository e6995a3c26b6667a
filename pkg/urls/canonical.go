package urls

import (
	"net/url"
	"regexp"
	"strings"
)

// Forge identifies a code hosting service.
type Forge string

const (
	GitHub    Forge = "github"
	GitLab    Forge = "gitlab"
	Bitbucket Forge = "bitbucket"
	Other     Forge = "other"
)

var forgeHosts = map[string]Forge{
	"github.com":    GitHub,
	"gitlab.com":    GitLab,
	"bitbucket.org": Bitbucket,
}

// CanonicalURL is a normalized repository address. Key is the lower-cased,
// scheme-less form ("github.com/owner/repo") and defines equality.
type CanonicalURL struct {
	Key   string `json:"key"`
	Forge Forge  `json:"forge"`
	Owner string `json:"owner,omitempty"`
	Repo  string `json:"repo,omitempty"`
}

// String returns the https form of u, or "" for the zero value.
func (u CanonicalURL) String() string {
	if u.Key == "" {
		return ""
	}
	return "https://" + u.Key
}

// IsZero reports whether u is unset.
func (u CanonicalURL) IsZero() bool { return u.Key == "" }

// OwnerRepo returns "owner/repo" for forge URLs and the key otherwise.
func (u CanonicalURL) OwnerRepo() string {
	if u.Owner != "" && u.Repo != "" {
		return u.Owner + "/" + u.Repo
	}
	return u.Key
}

var (
	ownerRepoShorthand = regexp.MustCompile(`^[a-zA-Z0-9_-]+/[a-zA-Z0-9_.-]+$`)
	scpLike            = regexp.MustCompile(`^[\w.-]+@([\w.-]+):(.+)$`)
)

// Clean rewrites the common spellings of a repository URL into an https
// URL: "git+" prefixes, fragments, git:// and ssh:// schemes, scp-style
// "git@host:owner/repo", npm-style "github:owner/repo" and bare
// "owner/repo" shorthand (assumed to be GitHub). It returns "" when raw is
// not a repository URL.
func Clean(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	if i := strings.IndexByte(u, '#'); i >= 0 {
		u = u[:i]
	}
	u = strings.TrimPrefix(u, "git+")
	switch {
	case strings.HasPrefix(u, "git://"):
		u = "https://" + strings.TrimPrefix(u, "git://")
	case strings.HasPrefix(u, "ssh://"):
		u = "https://" + strings.TrimPrefix(u, "ssh://")
		if at := strings.IndexByte(u[len("https://"):], '@'); at >= 0 {
			u = "https://" + u[len("https://")+at+1:]
		}
	case strings.HasPrefix(u, "github:"):
		u = "https://github.com/" + strings.TrimPrefix(u, "github:")
	case strings.HasPrefix(u, "gitlab:"):
		u = "https://gitlab.com/" + strings.TrimPrefix(u, "gitlab:")
	case strings.HasPrefix(u, "bitbucket:"):
		u = "https://bitbucket.org/" + strings.TrimPrefix(u, "bitbucket:")
	}
	if m := scpLike.FindStringSubmatch(u); m != nil && !strings.Contains(u, "://") {
		u = "https://" + m[1] + "/" + m[2]
	}
	u = strings.TrimSuffix(strings.TrimSuffix(u, "/"), ".git")

	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	if ownerRepoShorthand.MatchString(u) {
		return "https://github.com/" + u
	}
	return ""
}

// Parse cleans raw and normalizes it into a [CanonicalURL]. Forge URLs are
// trimmed to owner/repo, with GitLab keeping its subgroups. The result is
// lower-cased and the host loses any "www." prefix and port.
func Parse(raw string) (CanonicalURL, bool) {
	cleaned := Clean(raw)
	if cleaned == "" {
		return CanonicalURL{}, false
	}
	pu, err := url.Parse(cleaned)
	if err != nil || pu.Hostname() == "" {
		return CanonicalURL{}, false
	}
	host := strings.TrimPrefix(strings.ToLower(pu.Hostname()), "www.")
	segs := splitPath(strings.ToLower(pu.Path))

	forge, ok := forgeHosts[host]
	if !ok {
		forge = Other
	}
	switch forge {
	case GitHub, Bitbucket:
		if len(segs) < 2 {
			return CanonicalURL{}, false
		}
		segs = segs[:2]
	case GitLab:
		for i, s := range segs {
			if s == "-" {
				segs = segs[:i]
				break
			}
		}
		if len(segs) < 2 {
			return CanonicalURL{}, false
		}
	}
	for i := range segs {
		segs[i] = strings.TrimSuffix(segs[i], ".git")
	}

	c := CanonicalURL{Key: host, Forge: forge}
	if len(segs) > 0 {
		c.Key += "/" + strings.Join(segs, "/")
	}
	if forge != Other {
		c.Owner = strings.Join(segs[:len(segs)-1], "/")
		c.Repo = segs[len(segs)-1]
	}
	return c, true
}

func splitPath(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
