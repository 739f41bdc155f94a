//go:build integration

package test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"umbra-hq/umbra/internal/backend"
	"umbra-hq/umbra/pkg/config"
	"umbra-hq/umbra/pkg/proxy"
	"umbra-hq/umbra/pkg/server"
	"umbra-hq/umbra/pkg/shadow"
)

func integrationConfig(t *testing.T, originURL, shadowURL string) *config.Config {
	t.Helper()

	cfg := &config.Config{}
	cfg.Origin.TargetURL = originURL
	cfg.Shadow.TargetURL = shadowURL
	config.ApplyDefaults(cfg)

	if err := config.Validate(cfg); err != nil {
		t.Fatalf("integration config invalid: %v", err)
	}
	return cfg
}

func startProxy(t *testing.T, cfg *config.Config) (*server.Server, *httptest.Server) {
	t.Helper()

	srv, err := server.NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Engine().Start(); err != nil {
		t.Fatalf("engine start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Engine().Stop(ctx)
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return srv, ts
}

// TestShadowProxyIntegration drives real HTTP traffic through the full
// stack: listener handler, origin forwarder, clone queue, worker pool, and
// shadow delivery.
func TestShadowProxyIntegration(t *testing.T) {
	origin := backend.New()
	defer origin.Close()
	origin.SetResponse("/ping", backend.Response{StatusCode: http.StatusOK, Body: "ok"})
	origin.SetResponse("/api/echo", backend.Response{StatusCode: http.StatusCreated, Body: "created"})

	shadowTarget := backend.New()
	defer shadowTarget.Close()

	_, ts := startProxy(t, integrationConfig(t, origin.URL(), shadowTarget.URL()))

	t.Run("GET passes through and is mirrored", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/ping")
		if err != nil {
			t.Fatalf("GET /ping: %v", err)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
		if string(body) != "ok" {
			t.Errorf("body = %q, want %q", body, "ok")
		}
		if resp.Header.Get(proxy.RequestIDHeader) == "" {
			t.Error("response missing request ID header")
		}

		if !shadowTarget.WaitForRequests(1, 3*time.Second) {
			t.Fatal("shadow target never received the clone")
		}
		cloned := shadowTarget.Requests()[0]
		if cloned.Method != http.MethodGet || cloned.Path != "/ping" {
			t.Errorf("clone = %s %s, want GET /ping", cloned.Method, cloned.Path)
		}
		if cloned.Header.Get(proxy.ShadowMarkerHeader) == "" {
			t.Error("clone missing shadow marker header")
		}
	})

	t.Run("POST body is cloned byte for byte", func(t *testing.T) {
		shadowTarget.Reset()

		payload := `{"order_id":42,"note":"mirror me"}`
		resp, err := http.Post(ts.URL+"/api/echo", "application/json", strings.NewReader(payload))
		if err != nil {
			t.Fatalf("POST /api/echo: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			t.Errorf("status = %d, want 201", resp.StatusCode)
		}

		if !shadowTarget.WaitForRequests(1, 3*time.Second) {
			t.Fatal("shadow target never received the clone")
		}
		cloned := shadowTarget.Requests()[0]
		if !bytes.Equal(cloned.Body, []byte(payload)) {
			t.Errorf("clone body = %q, want %q", cloned.Body, payload)
		}
		if got := cloned.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("clone Content-Type = %q, want application/json", got)
		}
	})

	t.Run("duplicate header values survive cloning", func(t *testing.T) {
		shadowTarget.Reset()

		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/ping", nil)
		req.Header.Add("X-Tag", "alpha")
		req.Header.Add("X-Tag", "beta")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET /ping: %v", err)
		}
		resp.Body.Close()

		if !shadowTarget.WaitForRequests(1, 3*time.Second) {
			t.Fatal("shadow target never received the clone")
		}
		got := shadowTarget.Requests()[0].Header.Values("X-Tag")
		if len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
			t.Errorf("clone X-Tag = %v, want [alpha beta]", got)
		}
	})
}

// TestShadowDownIntegration checks that a dead shadow target is completely
// invisible to callers while the failure is still recorded in metrics.
func TestShadowDownIntegration(t *testing.T) {
	origin := backend.New()
	defer origin.Close()
	origin.SetResponse("/ping", backend.Response{StatusCode: http.StatusOK, Body: "ok"})

	shadowTarget := backend.New()
	shadowURL := shadowTarget.URL()
	shadowTarget.Close()

	_, ts := startProxy(t, integrationConfig(t, origin.URL(), shadowURL))

	resp, err := http.Get(ts.URL + "/ping")
	if err != nil {
		t.Fatalf("GET /ping: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if string(body) != "ok" {
		t.Errorf("body = %q, want %q", body, "ok")
	}
	if got := origin.RequestCount(); got != 1 {
		t.Errorf("origin received %d requests, want 1", got)
	}

	// The failed delivery shows up in the exposition, the caller never
	// sees it.
	deadline := time.Now().Add(3 * time.Second)
	for {
		mresp, err := http.Get(ts.URL + "/metrics")
		if err != nil {
			t.Fatalf("GET /metrics: %v", err)
		}
		mbody, _ := io.ReadAll(mresp.Body)
		mresp.Body.Close()

		if strings.Contains(string(mbody), `umbra_shadow_outcomes_total{outcome="failed"} 1`) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("failed outcome never appeared in metrics:\n%s", mbody)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// TestOverflowIntegration floods a tiny queue behind a slow shadow target
// and checks that overflow never slows the caller path down.
func TestOverflowIntegration(t *testing.T) {
	origin := backend.New()
	defer origin.Close()

	shadowTarget := backend.New()
	defer shadowTarget.Close()
	shadowTarget.SetFallback(backend.Response{StatusCode: http.StatusOK, Delay: 200 * time.Millisecond})

	cfg := integrationConfig(t, origin.URL(), shadowTarget.URL())
	cfg.Shadow.QueueCapacity = 2
	cfg.Shadow.WorkerCount = 1
	cfg.Shadow.OverflowPolicy = "drop-oldest"

	srv, ts := startProxy(t, cfg)

	const flood = 8
	start := time.Now()
	for i := 0; i < flood; i++ {
		resp, err := http.Get(ts.URL + "/burst")
		if err != nil {
			t.Fatalf("GET /burst: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
	}
	elapsed := time.Since(start)

	// All 8 callers got answers while at most one clone per 200ms left the
	// queue; the caller path never waited for the shadow path.
	if elapsed > time.Second {
		t.Errorf("flood took %s, caller path appears coupled to shadow delivery", elapsed)
	}
	if got := origin.RequestCount(); got != flood {
		t.Errorf("origin received %d requests, want %d", got, flood)
	}

	qs := srv.Engine().QueueState()
	if qs.Evicted == 0 {
		t.Errorf("queue state = %+v, want evictions under drop-oldest flood", qs)
	}
	if qs.Rejected != 0 {
		t.Errorf("queue state = %+v, drop-oldest must not reject new clones", qs)
	}
}

// TestRejectNewIntegration is the same flood under the reject-new policy.
func TestRejectNewIntegration(t *testing.T) {
	origin := backend.New()
	defer origin.Close()

	shadowTarget := backend.New()
	defer shadowTarget.Close()
	shadowTarget.SetFallback(backend.Response{StatusCode: http.StatusOK, Delay: 200 * time.Millisecond})

	cfg := integrationConfig(t, origin.URL(), shadowTarget.URL())
	cfg.Shadow.QueueCapacity = 2
	cfg.Shadow.WorkerCount = 1
	cfg.Shadow.OverflowPolicy = "reject-new"

	srv, ts := startProxy(t, cfg)

	for i := 0; i < 8; i++ {
		resp, err := http.Get(ts.URL + "/burst")
		if err != nil {
			t.Fatalf("GET /burst: %v", err)
		}
		resp.Body.Close()
	}

	qs := srv.Engine().QueueState()
	if qs.Rejected == 0 {
		t.Errorf("queue state = %+v, want rejections under reject-new flood", qs)
	}
	if qs.Evicted != 0 {
		t.Errorf("queue state = %+v, reject-new must not evict", qs)
	}
}

// TestTargetSwitchIntegration swaps the shadow target at runtime and checks
// that subsequent clones land on the new target.
func TestTargetSwitchIntegration(t *testing.T) {
	origin := backend.New()
	defer origin.Close()

	firstTarget := backend.New()
	defer firstTarget.Close()
	secondTarget := backend.New()
	defer secondTarget.Close()

	cfg := integrationConfig(t, origin.URL(), firstTarget.URL())
	srv, ts := startProxy(t, cfg)

	resp, err := http.Get(ts.URL + "/before")
	if err != nil {
		t.Fatalf("GET /before: %v", err)
	}
	resp.Body.Close()

	if !firstTarget.WaitForRequests(1, 3*time.Second) {
		t.Fatal("first target never received the clone")
	}

	updated := integrationConfig(t, origin.URL(), secondTarget.URL())
	if err := srv.ApplyConfig(updated); err != nil {
		t.Fatalf("ApplyConfig: %v", err)
	}
	if got := srv.Engine().Target(); got != secondTarget.URL() {
		t.Fatalf("engine target = %q, want %q", got, secondTarget.URL())
	}

	resp, err = http.Get(ts.URL + "/after")
	if err != nil {
		t.Fatalf("GET /after: %v", err)
	}
	resp.Body.Close()

	if !secondTarget.WaitForRequests(1, 3*time.Second) {
		t.Fatal("second target never received the clone")
	}
	if got := secondTarget.Requests()[0].Path; got != "/after" {
		t.Errorf("second target clone path = %q, want /after", got)
	}
	if got := firstTarget.RequestCount(); got != 1 {
		t.Errorf("first target received %d requests after switch, want 1", got)
	}
}

// TestDrainIntegration checks stop semantics through the public engine
// surface: in-flight deliveries finish, the backlog is cancelled, and new
// clones are refused fast.
func TestDrainIntegration(t *testing.T) {
	origin := backend.New()
	defer origin.Close()

	shadowTarget := backend.New()
	defer shadowTarget.Close()
	shadowTarget.SetFallback(backend.Response{StatusCode: http.StatusOK, Delay: 150 * time.Millisecond})

	cfg := integrationConfig(t, origin.URL(), shadowTarget.URL())
	cfg.Shadow.WorkerCount = 1
	cfg.Shadow.QueueCapacity = 16

	srv, ts := startProxy(t, cfg)

	for i := 0; i < 3; i++ {
		resp, err := http.Get(ts.URL + "/drain")
		if err != nil {
			t.Fatalf("GET /drain: %v", err)
		}
		resp.Body.Close()
	}

	// Give the single worker time to pick up the first clone.
	shadowTarget.WaitForRequests(1, 3*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Engine().Stop(ctx); err != nil {
		t.Fatalf("engine stop: %v", err)
	}

	if state := srv.Engine().State(); state != shadow.EngineStopped {
		t.Errorf("engine state after stop = %s, want stopped", state)
	}
	if !srv.Engine().QueueState().Closed {
		t.Error("queue should be closed after stop")
	}

	// New clones are refused fast while the caller path would stay up.
	resp, err := http.Get(ts.URL + "/after-stop")
	if err != nil {
		t.Fatalf("GET /after-stop: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status after stop = %d, want 200", resp.StatusCode)
	}
}
