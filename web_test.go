package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Seednode/triviabox/games/trivia"
)

type pendingTimer struct {
	d time.Duration
	f func()
}

// manualClock holds engine timers until a test fires them.
type manualClock struct {
	mu      sync.Mutex
	pending []pendingTimer
}

func (c *manualClock) schedule(d time.Duration, f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = append(c.pending, pendingTimer{d: d, f: f})
}

func (c *manualClock) fire(d time.Duration) int {
	c.mu.Lock()

	var due []func()
	kept := c.pending[:0]
	for _, p := range c.pending {
		if p.d == d {
			due = append(due, p.f)
		} else {
			kept = append(kept, p)
		}
	}
	c.pending = kept

	c.mu.Unlock()

	for _, f := range due {
		f()
	}

	return len(due)
}

type testServer struct {
	*httptest.Server
	cfg     *Config
	manager *trivia.Manager
	clock   *manualClock
}

func newTestServer(t *testing.T, mutate func(*Config)) *testServer {
	t.Helper()

	cfg := validConfig()
	cfg.metrics = true
	if mutate != nil {
		mutate(&cfg)
	}

	clock := &manualClock{}
	reg := newRegistry()

	opts := append(cfg.gameOptions(),
		trivia.WithScheduler(clock.schedule),
		trivia.WithMetrics(trivia.NewMetrics(reg)),
	)
	gm := trivia.NewManager(opts...)

	errs := make(chan error, 16)
	t.Cleanup(func() {
		select {
		case err := <-errs:
			t.Errorf("handler reported error: %v", err)
		default:
		}
	})

	srv := httptest.NewServer(newRouter(&cfg, gm, reg, errs))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, cfg: &cfg, manager: gm, clock: clock}
}

func (s *testServer) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()

	resp, err := http.Get(s.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}

	return resp, string(body)
}

func TestPlainPages(t *testing.T) {
	s := newTestServer(t, nil)

	cases := []struct {
		path        string
		contentType string
		contains    string
	}{
		{"/", "text/html", "triviabox v" + releaseVersion},
		{"/healthz", "text/plain", "Ok"},
		{"/robots.txt", "text/plain", "Disallow: /ws/"},
		{"/version", "text/plain", "triviabox v" + releaseVersion},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			resp, body := s.get(t, tc.path)

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			if !strings.HasPrefix(resp.Header.Get("Content-Type"), tc.contentType) {
				t.Fatalf("content type = %q, want %s", resp.Header.Get("Content-Type"), tc.contentType)
			}
			if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
				t.Fatal("security headers missing")
			}
			if !strings.Contains(body, tc.contains) {
				t.Fatalf("body = %q, want it to contain %q", body, tc.contains)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	if _, _, err := s.manager.Create(nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	resp, body := s.get(t, "/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "triviabox_games_created_total 1") {
		t.Fatalf("metrics missing games counter:\n%s", body)
	}
}

func TestOptionalRoutesDisabled(t *testing.T) {
	s := newTestServer(t, func(c *Config) { c.metrics = false })

	for _, path := range []string{"/metrics", "/pprof/heap"} {
		if resp, _ := s.get(t, path); resp.StatusCode != http.StatusNotFound {
			t.Fatalf("GET %s = %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestPrefixedRoutes(t *testing.T) {
	s := newTestServer(t, func(c *Config) { c.prefix = "/trivia" })

	if resp, _ := s.get(t, "/trivia/healthz"); resp.StatusCode != http.StatusOK {
		t.Fatalf("prefixed healthz = %d, want 200", resp.StatusCode)
	}
	if resp, _ := s.get(t, "/healthz"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unprefixed healthz = %d, want 404", resp.StatusCode)
	}
}

func TestRealIP(t *testing.T) {
	cases := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"remote addr", "10.0.0.1:1234", nil, "10.0.0.1:1234"},
		{"cloudflare", "10.0.0.1:1234", map[string]string{"CF-Connecting-IP": "192.0.2.7"}, "192.0.2.7:1234"},
		{"real ip", "10.0.0.1:1234", map[string]string{"X-Real-IP": "192.0.2.8"}, "192.0.2.8:1234"},
		{"bogus header", "10.0.0.1:1234", map[string]string{"X-Real-IP": "nope"}, "10.0.0.1:1234"},
		{"ipv6", "[::1]:1234", nil, "[::1]:1234"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}

			if got := realIP(r); got != tc.want {
				t.Fatalf("realIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestHumanReadableSize(t *testing.T) {
	cases := map[int64]string{
		0:       "0 B",
		999:     "999 B",
		1000:    "1.0 kB",
		1 << 20: "1.0 MB",
	}

	for in, want := range cases {
		if got := humanReadableSize(in); got != want {
			t.Fatalf("humanReadableSize(%d) = %q, want %q", in, got, want)
		}
	}
}
