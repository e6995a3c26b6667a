package deps

import (
	"strings"

	"golang.org/x/mod/semver"
)

// MergeVersions picks the version kept when two manifests declare the same
// package. Placeholder versions ("", "*", "latest", "workspace:...") lose to
// concrete ones; of two exact versions the higher wins; an exact version
// beats a range; otherwise the first declaration wins. conflict reports two
// different concrete versions.
func MergeVersions(first, second string) (kept string, conflict bool) {
	a, b := strings.TrimSpace(first), strings.TrimSpace(second)
	switch {
	case a == b:
		return a, false
	case placeholder(b):
		return a, false
	case placeholder(a):
		return b, false
	}

	va, pa := exact(a)
	vb, pb := exact(b)
	switch {
	case pa && pb:
		if semver.Compare(vb, va) > 0 {
			return b, true
		}
		return a, true
	case pb:
		return b, true
	}
	return a, true
}

func placeholder(v string) bool {
	switch v {
	case "", "*", "latest", "x":
		return true
	}
	return strings.HasPrefix(v, "workspace:")
}

// exact reports whether v pins one version, returning its canonical semver
// form. Two-part versions such as "2.31" are accepted.
func exact(v string) (string, bool) {
	v = strings.TrimPrefix(strings.TrimPrefix(v, "=="), "=")
	v = strings.TrimSpace(v)
	if v == "" || strings.ContainsAny(v, "^~<>*|, ") {
		return "", false
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", false
	}
	return v, true
}
