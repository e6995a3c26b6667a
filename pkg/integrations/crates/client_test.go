package crates

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/drips-network/gardener/pkg/cache"
	"github.com/drips-network/gardener/pkg/integrations"
)

func TestNewClient(t *testing.T) {
	c := NewClient(cache.NewNullCache(), time.Hour)
	if c.Client == nil {
		t.Error("expected client to be initialized")
	}
}

func TestClient_FetchCrate(t *testing.T) {
	crateResp := crateResponse{}
	crateResp.Crate.Name = "serde"
	crateResp.Crate.MaxVersion = "1.0.0"
	crateResp.Crate.Repository = "https://github.com/serde-rs/serde"

	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		if r.URL.Path == "/crates/serde" {
			json.NewEncoder(w).Encode(crateResp)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	info, err := c.FetchCrate(context.Background(), "serde", true)
	if err != nil {
		t.Fatalf("FetchCrate failed: %v", err)
	}
	if info.Name != "serde" || info.Version != "1.0.0" {
		t.Errorf("got %s@%s", info.Name, info.Version)
	}
	if info.Repository != "https://github.com/serde-rs/serde" {
		t.Errorf("Repository = %q", info.Repository)
	}
	if userAgent == "" {
		t.Error("crates.io requests must carry a User-Agent")
	}
}

func TestClient_FetchCrate_NotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	c := testClient(t, server.URL)
	_, err := c.FetchCrate(context.Background(), "nonexistent", true)
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c := NewClient(cache.NewNullCache(), time.Hour)
	c.baseURL = serverURL
	return c
}
