package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func get(t *testing.T, srv *httptest.Server, path string) (int, string) {
	t.Helper()

	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestServer_ReadyzGatedOnSetReady(t *testing.T) {
	s := NewServer(":0")
	srv := httptest.NewServer(s.server.Handler)
	defer srv.Close()

	if code, body := get(t, srv, "/readyz"); code != http.StatusServiceUnavailable || body != "starting" {
		t.Errorf("before SetReady: got (%d, %q), want (503, \"starting\")", code, body)
	}

	s.SetReady()

	if code, body := get(t, srv, "/readyz"); code != http.StatusOK || body != "ready" {
		t.Errorf("after SetReady: got (%d, %q), want (200, \"ready\")", code, body)
	}
}

func TestServer_HealthzAlwaysOK(t *testing.T) {
	s := NewServer(":0")
	srv := httptest.NewServer(s.server.Handler)
	defer srv.Close()

	if code, body := get(t, srv, "/healthz"); code != http.StatusOK || body != "ok" {
		t.Errorf("got (%d, %q), want (200, \"ok\")", code, body)
	}
}

func TestServer_MetricsExposesRegistry(t *testing.T) {
	s := NewServer(":0")
	srv := httptest.NewServer(s.server.Handler)
	defer srv.Close()

	code, body := get(t, srv, "/metrics")
	if code != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", code)
	}
	if !strings.Contains(body, "exbabel_") {
		t.Error("expected service metrics in scrape output")
	}
}
