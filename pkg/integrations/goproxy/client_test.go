package goproxy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/drips-network/gardener/pkg/cache"
	"github.com/drips-network/gardener/pkg/integrations"
)

func TestClient_FetchModule(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(latestResponse{
			Version: "v0.3.0",
			Origin:  &origin{VCS: "git", URL: "https://github.com/Azure/azure-sdk-for-go"},
		})
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	info, err := c.FetchModule(context.Background(), "github.com/Azure/azure-sdk-for-go", true)
	if err != nil {
		t.Fatalf("FetchModule failed: %v", err)
	}
	if gotPath != "/github.com/!azure/azure-sdk-for-go/@latest" {
		t.Errorf("path = %q, want escaped module path", gotPath)
	}
	if info.Version != "v0.3.0" || info.OriginURL != "https://github.com/Azure/azure-sdk-for-go" {
		t.Errorf("info = %+v", info)
	}
}

func TestClient_FetchModule_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	_, err := c.FetchModule(context.Background(), "example.com/missing", true)
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestParseImportMeta(t *testing.T) {
	page := `<!DOCTYPE html>
<html><head>
<meta name="go-import" content="go.uber.org/zap git https://github.com/uber-go/zap">
<meta name="go-source" content="go.uber.org/zap https://github.com/uber-go/zap https://github.com/uber-go/zap/tree/master{/dir} https://github.com/uber-go/zap/tree/master{/dir}/{file}#L{line}">
<meta name="go-import" content="go.uber.org git https://github.com/uber-go/root">
</head><body><meta name="go-import" content="go.uber.org/zap git https://evil.example/zap"></body></html>`

	meta, ok := parseImportMeta(strings.NewReader(page), "go.uber.org/zap/zapcore")
	if !ok {
		t.Fatal("expected a go-import match")
	}
	if meta.Prefix != "go.uber.org/zap" || meta.RepoURL != "https://github.com/uber-go/zap" || meta.VCS != "git" {
		t.Errorf("meta = %+v", meta)
	}
	if meta.HomePage != "https://github.com/uber-go/zap" {
		t.Errorf("HomePage = %q", meta.HomePage)
	}

	if _, ok := parseImportMeta(strings.NewReader(page), "go.uber.org.evil/x"); ok {
		t.Error("prefix must match on path boundaries")
	}
}

func TestClient_FetchImportMeta(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("go-get") != "1" {
			http.NotFound(w, r)
			return
		}
		host := r.Host
		w.Write([]byte(`<html><head><meta name="go-import" content="` + host + `/lib git https://gitlab.com/acme/lib"></head></html>`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	c.scheme = "http"
	host := strings.TrimPrefix(server.URL, "http://")

	meta, err := c.FetchImportMeta(context.Background(), host+"/lib/sub", true)
	if err != nil {
		t.Fatalf("FetchImportMeta failed: %v", err)
	}
	if meta.RepoURL != "https://gitlab.com/acme/lib" {
		t.Errorf("RepoURL = %q", meta.RepoURL)
	}
}

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c := NewClient(cache.NewNullCache(), time.Hour)
	c.baseURL = serverURL
	return c
}
