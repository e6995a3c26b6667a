package scan

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
)

// ParseGitmodules reads a .gitmodules file and maps each submodule's local
// path to its declared URL. A missing file yields an empty map.
func ParseGitmodules(file string) (map[string]string, error) {
	out := map[string]string{}
	data, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("read .gitmodules: %w", err)
	}
	return parseGitmodules(data)
}

func parseGitmodules(data []byte) (map[string]string, error) {
	out := map[string]string{}
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
		AllowShadows:        true,
	}, data)
	if err != nil {
		return out, fmt.Errorf("parse .gitmodules: %w", err)
	}
	for _, sec := range cfg.Sections() {
		if !strings.HasPrefix(sec.Name(), "submodule") {
			continue
		}
		p := strings.TrimSpace(sec.Key("path").String())
		u := strings.TrimSpace(sec.Key("url").String())
		if p == "" || u == "" {
			continue
		}
		p = path.Clean(strings.TrimPrefix(p, "./"))
		if p == "." || strings.HasPrefix(p, "../") || strings.HasPrefix(p, "/") {
			continue
		}
		out[p] = u
	}
	return out, nil
}

// SubmoduleFor returns the submodule containing rel, preferring the longest
// matching path.
func SubmoduleFor(subs map[string]string, rel string) (string, string, bool) {
	best := ""
	for p := range subs {
		if (rel == p || strings.HasPrefix(rel, p+"/")) && len(p) > len(best) {
			best = p
		}
	}
	if best == "" {
		return "", "", false
	}
	return best, subs[best], true
}

// OriginURL returns the URL of the "origin" remote from root's git config,
// or "" when there is none. A .git file pointing elsewhere is followed.
func OriginURL(root string) string {
	gitDir := filepath.Join(root, ".git")
	if data, err := os.ReadFile(gitDir); err == nil {
		dir, ok := strings.CutPrefix(strings.TrimSpace(string(data)), "gitdir: ")
		if !ok {
			return ""
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		gitDir = dir
		if common, err := os.ReadFile(filepath.Join(dir, "commondir")); err == nil {
			c := strings.TrimSpace(string(common))
			if !filepath.IsAbs(c) {
				c = filepath.Join(dir, c)
			}
			gitDir = c
		}
	}
	data, err := os.ReadFile(filepath.Join(gitDir, "config"))
	if err != nil {
		return ""
	}
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true, AllowShadows: true}, data)
	if err != nil {
		return ""
	}
	sec, err := cfg.GetSection(`remote "origin"`)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(sec.Key("url").String())
}
