package upstream

import (
	"net/http"
	"testing"
)

func TestCopyEndToEnd(t *testing.T) {
	src := http.Header{}
	src.Add("Content-Type", "application/json")
	src.Add("X-Trace", "a")
	src.Add("X-Trace", "b")
	src.Add("Connection", "keep-alive, X-Dynamic")
	src.Add("Keep-Alive", "timeout=5")
	src.Add("Transfer-Encoding", "chunked")
	src.Add("Upgrade", "h2c")
	src.Add("X-Dynamic", "per-connection")

	dst := http.Header{}
	CopyEndToEnd(dst, src)

	if got := dst.Get("Content-Type"); got != "application/json" {
		t.Errorf("expected Content-Type to be copied, got %q", got)
	}
	if got := dst.Values("X-Trace"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("expected duplicate X-Trace values in order, got %v", got)
	}

	for _, name := range []string{"Connection", "Keep-Alive", "Transfer-Encoding", "Upgrade"} {
		if dst.Get(name) != "" {
			t.Errorf("expected hop-by-hop header %q to be dropped", name)
		}
	}

	// Headers named by the Connection header are hop-by-hop too.
	if dst.Get("X-Dynamic") != "" {
		t.Error("expected Connection-named header X-Dynamic to be dropped")
	}
}

func TestAppendForwardedFor(t *testing.T) {
	tests := []struct {
		name       string
		existing   string
		remoteAddr string
		want       string
	}{
		{
			name:       "first hop with port",
			remoteAddr: "203.0.113.7:9999",
			want:       "203.0.113.7",
		},
		{
			name:       "appends to existing chain",
			existing:   "198.51.100.1",
			remoteAddr: "203.0.113.7:9999",
			want:       "198.51.100.1, 203.0.113.7",
		},
		{
			name:       "address without port",
			remoteAddr: "203.0.113.7",
			want:       "203.0.113.7",
		},
		{
			name:       "empty address leaves header alone",
			existing:   "198.51.100.1",
			remoteAddr: "",
			want:       "198.51.100.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.existing != "" {
				h.Set("X-Forwarded-For", tt.existing)
			}

			AppendForwardedFor(h, tt.remoteAddr)

			if got := h.Get("X-Forwarded-For"); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestJoinTargetURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		path string
		want string
	}{
		{
			name: "plain join",
			base: "http://origin.test",
			path: "/ping",
			want: "http://origin.test/ping",
		},
		{
			name: "trailing slash on base",
			base: "http://origin.test/",
			path: "/ping",
			want: "http://origin.test/ping",
		},
		{
			name: "base with path prefix",
			base: "http://origin.test/api",
			path: "/v1/orders",
			want: "http://origin.test/api/v1/orders",
		},
		{
			name: "query preserved",
			base: "http://origin.test",
			path: "/search?q=widgets",
			want: "http://origin.test/search?q=widgets",
		},
		{
			name: "empty path",
			base: "http://origin.test",
			path: "",
			want: "http://origin.test/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinTargetURL(tt.base, tt.path); got != tt.want {
				t.Errorf("joinTargetURL(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
			}
		})
	}
}
