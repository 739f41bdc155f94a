package upstream

import (
	"net"
	"net/http"
	"strings"

	"umbra-hq/umbra/pkg/proxy"
)

// hopByHopHeaders are owned by a single transport connection and must not be
// forwarded by a proxy (RFC 7230 section 6.1).
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"TE",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// CopyEndToEnd copies src into dst, dropping hop-by-hop headers and any
// header the source's Connection header names. Duplicate values are
// preserved in order.
func CopyEndToEnd(dst, src http.Header) {
	drop := make(map[string]bool, len(hopByHopHeaders))
	for _, name := range hopByHopHeaders {
		drop[strings.ToLower(name)] = true
	}
	for _, value := range src.Values("Connection") {
		for _, token := range strings.Split(value, ",") {
			if token = strings.TrimSpace(token); token != "" {
				drop[strings.ToLower(token)] = true
			}
		}
	}

	for name, values := range src {
		if drop[strings.ToLower(name)] {
			continue
		}
		for _, value := range values {
			dst.Add(name, value)
		}
	}
}

// AppendForwardedFor extends the X-Forwarded-For chain with the client host
// taken from remoteAddr. A remoteAddr without a port is used as-is; an empty
// one leaves the header untouched.
func AppendForwardedFor(h http.Header, remoteAddr string) {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	if host == "" {
		return
	}

	if prior := h.Get(proxy.ForwardedForHeader); prior != "" {
		h.Set(proxy.ForwardedForHeader, prior+", "+host)
	} else {
		h.Set(proxy.ForwardedForHeader, host)
	}
}

// joinTargetURL joins a base URL with a request path plus query. The base
// may carry a path prefix of its own; trailing and leading slashes collapse
// to one.
func joinTargetURL(base, path string) string {
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(base, "/") + path
}
