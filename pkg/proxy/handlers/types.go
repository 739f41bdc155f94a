package handlers

import (
	"context"

	"umbra-hq/umbra/pkg/proxy"
	"umbra-hq/umbra/pkg/shadow"
)

// PrimaryForwarder relays a captured request to the origin and returns the
// origin's response. Implemented by upstream.Forwarder.
type PrimaryForwarder interface {
	Forward(ctx context.Context, req *proxy.Request) (*proxy.Response, error)
	BaseURL() string
}

// ShadowSubmitter accepts a captured request for asynchronous shadow
// delivery. Submit reports whether the clone was admitted to the queue.
// Implemented by shadow.Engine.
type ShadowSubmitter interface {
	Submit(req *proxy.Request) bool
}

// ShadowStatus reports the dispatch engine's lifecycle state and queue
// occupancy for readiness checks. Implemented by shadow.Engine.
type ShadowStatus interface {
	State() shadow.EngineState
	QueueState() shadow.QueueState
}
