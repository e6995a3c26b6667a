package python

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/drips-network/gardener/pkg/deps"
)

var (
	depNameRE = regexp.MustCompile(`^([a-zA-Z0-9][-a-zA-Z0-9._]*)\s*(\[[^\]]*\])?\s*(.*)$`)
	eggRE     = regexp.MustCompile(`#egg=([a-zA-Z0-9][-a-zA-Z0-9._]*)`)
)

// ParseRequirement parses one PEP 508 requirement such as
// "requests[socks]>=2.28; python_version > '3.7'" into a name and version
// specifier. Direct URL references keep no version.
func ParseRequirement(s string) (name, version string, ok bool) {
	s = strings.TrimSpace(s)
	m := depNameRE.FindStringSubmatch(s)
	if m == nil {
		return "", "", false
	}
	name, rest := m[1], m[3]
	if i := strings.Index(rest, ";"); i >= 0 {
		rest = rest[:i]
	}
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "@") {
		return name, "", true
	}
	rest = strings.TrimSuffix(strings.TrimPrefix(rest, "("), ")")
	return name, strings.ReplaceAll(strings.TrimSpace(rest), " ", ""), true
}

// parseRequirements reads a pip requirements file. Options, includes and
// bare URLs are skipped; editable VCS installs contribute their #egg name.
func parseRequirements(data []byte) []deps.Package {
	var out []deps.Package
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	var pending string
	for scanner.Scan() {
		line := pending + scanner.Text()
		pending = ""
		if strings.HasSuffix(line, `\`) {
			pending = strings.TrimSuffix(line, `\`)
			continue
		}
		for _, sep := range []string{" #", " --"} {
			if i := strings.Index(line, sep); i >= 0 {
				line = line[:i]
			}
		}
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' {
			continue
		}
		if line[0] == '-' || strings.Contains(line, "://") || strings.HasPrefix(line, "git+") {
			if m := eggRE.FindStringSubmatch(line); m != nil {
				out = append(out, deps.Package{Name: m[1], Ecosystem: deps.PyPI})
			}
			continue
		}
		if name, version, ok := ParseRequirement(line); ok {
			out = append(out, deps.Package{Name: name, Version: version, Ecosystem: deps.PyPI})
		}
	}
	return out
}
