// Package proxy defines the request and response model shared by the primary
// forwarding path and the shadow dispatch path.
//
// A Request is captured exactly once per inbound call, at the moment the
// listener hands the call to the dispatch coordinator. From then on it is
// immutable: the primary forwarder reads from it to reach the origin, and the
// shadow engine clones it into a task bound for the shadow target. Neither
// path may write to the snapshot, which is what makes sharing it between a
// synchronous and an asynchronous consumer safe.
//
// # Capture Semantics
//
// Capture buffers the entire request body so it can be replayed on both
// paths. Buffering is bounded: bodies larger than the configured limit are
// rejected with a BodyTooLargeError before either path runs, so an oversized
// request is never half-forwarded.
//
//	req, err := proxy.Capture(r, requestID, proxy.DefaultMaxBodyBytes)
//	if err != nil {
//	    var tooLarge *proxy.BodyTooLargeError
//	    if errors.As(err, &tooLarge) {
//	        // Reject with 413, nothing has been forwarded.
//	    }
//	}
//
// Headers are deep-copied at capture time with duplicate values preserved in
// arrival order. Consumers that need to mutate headers (the shadow sender
// adds a marker header, both senders extend X-Forwarded-For) work on copies
// obtained through CloneHeader, never on the snapshot itself.
//
// # Response Model
//
// Response carries the origin's reply with a streaming body. The coordinator
// copies it to the client without buffering, so the origin controls pacing
// and memory stays bounded regardless of response size.
//
// # Header Constants
//
// The package centralizes the header names the proxy owns:
//
//   - X-Request-ID: exchange correlation, set on every response
//   - X-Umbra-Shadow: marks cloned requests on the shadow path
//   - X-Forwarded-For: client address chain, extended on both paths
package proxy
