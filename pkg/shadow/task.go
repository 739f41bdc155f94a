package shadow

import (
	"net/http"
	"time"

	"umbra-hq/umbra/pkg/proxy"
)

// Task is a self-contained clone of a captured request, bound for the shadow
// target. A task owns private copies of the header map and body so delivery
// never touches the snapshot shared with the primary path. The queue owns a
// task until exactly one worker dequeues it; from then on only that worker
// reads or mutates it.
type Task struct {
	// RequestID ties the clone back to the originating exchange.
	RequestID string

	// Method is the HTTP method to replay.
	Method string

	// Path is the URL path plus raw query to replay.
	Path string

	// Header is the task's private header copy.
	Header http.Header

	// Body is the task's private body copy. It may be nil.
	Body []byte

	// RemoteAddr is the original client address, forwarded to the shadow
	// target via X-Forwarded-For.
	RemoteAddr string

	// Target is the shadow base URL the clone is bound to. It is stamped at
	// admission time, so retargeting the engine never redirects queued work.
	Target string

	// EnqueuedAt marks when the clone entered the queue.
	EnqueuedAt time.Time

	// Deadline bounds the task's total delivery budget across all attempts.
	// It is stamped by the owning worker when delivery begins.
	Deadline time.Time

	// Attempts counts delivery attempts made so far. Only the owning worker
	// updates it.
	Attempts int
}

// NewTask clones req into a delivery task bound for target.
func NewTask(req *proxy.Request, target string) *Task {
	return &Task{
		RequestID:  req.ID,
		Method:     req.Method,
		Path:       req.Path,
		Header:     req.CloneHeader(),
		Body:       req.CloneBody(),
		RemoteAddr: req.RemoteAddr,
		Target:     target,
		EnqueuedAt: time.Now().UTC(),
	}
}
