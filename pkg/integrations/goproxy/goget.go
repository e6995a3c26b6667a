package goproxy

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ImportMeta is the repository a vanity import path points at, taken from
// the go-import (and, if present, go-source) meta tags of its ?go-get=1 page.
type ImportMeta struct {
	Prefix   string `json:"prefix"`
	VCS      string `json:"vcs"`
	RepoURL  string `json:"repo_url"`
	HomePage string `json:"home_page,omitempty"` // from go-source
}

// FetchImportMeta resolves a vanity import path through its go-get page.
// The longest go-import prefix that contains path wins.
func (c *Client) FetchImportMeta(ctx context.Context, path string, refresh bool) (*ImportMeta, error) {
	path = strings.TrimSpace(path)
	key := "meta:" + path

	var meta ImportMeta
	err := c.Cached(ctx, key, refresh, &meta, func() error {
		body, err := c.GetText(ctx, fmt.Sprintf("%s://%s?go-get=1", c.scheme, path))
		if err != nil {
			return err
		}
		m, ok := parseImportMeta(strings.NewReader(body), path)
		if !ok {
			return fmt.Errorf("no go-import meta tag for %s", path)
		}
		meta = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

func parseImportMeta(r io.Reader, path string) (ImportMeta, bool) {
	var (
		best    ImportMeta
		found   bool
		sources = map[string]string{}
	)
	z := html.NewTokenizer(r)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tok := z.Token()
		if tok.Data == "body" {
			break
		}
		if tok.Data != "meta" {
			continue
		}
		var name, content string
		for _, a := range tok.Attr {
			switch strings.ToLower(a.Key) {
			case "name":
				name = a.Val
			case "content":
				content = a.Val
			}
		}
		fields := strings.Fields(content)
		switch name {
		case "go-import":
			if len(fields) != 3 || !hasPathPrefix(path, fields[0]) {
				continue
			}
			if !found || len(fields[0]) > len(best.Prefix) {
				best = ImportMeta{Prefix: fields[0], VCS: fields[1], RepoURL: fields[2]}
				found = true
			}
		case "go-source":
			if len(fields) >= 2 {
				sources[fields[0]] = fields[1]
			}
		}
	}
	if found {
		best.HomePage = sources[best.Prefix]
	}
	return best, found
}

func hasPathPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
