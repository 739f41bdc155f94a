package proxy

import (
	"bytes"
	"fmt"
	"net/http/httptest"
	"testing"
)

// BenchmarkCapture measures the cost of snapshotting an inbound request,
// which sits on the hot path of every proxied call.
func BenchmarkCapture(b *testing.B) {
	sizes := []int{0, 1024, 64 * 1024, 1024 * 1024}

	for _, size := range sizes {
		body := bytes.Repeat([]byte("a"), size)
		b.Run(fmt.Sprintf("body_%dB", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				r := httptest.NewRequest("POST", "/bench?x=1", bytes.NewReader(body))
				r.Header.Set("Content-Type", "application/json")
				r.Header.Set("X-Tenant", "bench")

				if _, err := Capture(r, "bench", DefaultMaxBodyBytes); err != nil {
					b.Fatalf("Capture() error = %v", err)
				}
			}
		})
	}
}

// BenchmarkCloneHeader measures the per-clone header copy performed for each
// shadow task.
func BenchmarkCloneHeader(b *testing.B) {
	r := httptest.NewRequest("GET", "/bench", nil)
	for i := 0; i < 12; i++ {
		r.Header.Add(fmt.Sprintf("X-Header-%d", i), "value")
	}

	req, err := Capture(r, "bench", DefaultMaxBodyBytes)
	if err != nil {
		b.Fatalf("Capture() error = %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = req.CloneHeader()
	}
}
