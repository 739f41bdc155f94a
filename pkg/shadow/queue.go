package shadow

import "sync"

// OverflowPolicy selects what happens when a clone arrives at a full queue.
type OverflowPolicy string

const (
	// OverflowReject refuses the newest clone and leaves the queue intact.
	OverflowReject OverflowPolicy = "reject-new"

	// OverflowDropOldest evicts the oldest queued clone to admit the newest.
	OverflowDropOldest OverflowPolicy = "drop-oldest"
)

// Valid reports whether p names a known overflow policy.
func (p OverflowPolicy) Valid() bool {
	return p == OverflowReject || p == OverflowDropOldest
}

// QueueState is a point-in-time snapshot of the queue.
type QueueState struct {
	// Length is the number of clones currently buffered.
	Length int

	// Capacity is the fixed maximum number of buffered clones.
	Capacity int

	// Policy is the configured overflow policy.
	Policy OverflowPolicy

	// Rejected counts clones refused because the queue was full or closed.
	Rejected uint64

	// Evicted counts clones displaced by newer arrivals under drop-oldest.
	Evicted uint64

	// Closed reports whether admission has stopped.
	Closed bool
}

// Queue is the bounded FIFO buffer between request admission and the
// delivery workers. Enqueue never blocks the producer; Dequeue suspends the
// calling worker until a clone is available or the queue is closed. All
// operations are safe under concurrent producers and consumers.
type Queue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	tasks    []*Task
	capacity int
	policy   OverflowPolicy
	rejected uint64
	evicted  uint64
	closed   bool
}

// NewQueue creates a bounded FIFO queue with the given capacity and overflow
// policy.
func NewQueue(capacity int, policy OverflowPolicy) *Queue {
	q := &Queue{
		tasks:    make([]*Task, 0, capacity),
		capacity: capacity,
		policy:   policy,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Enqueue admits t without blocking. When the queue is full, the reject-new
// policy refuses t with a QueueFullError; the drop-oldest policy evicts the
// head to make room and returns it so the caller can account for the
// displaced clone. A closed queue refuses t with a QueueClosedError.
func (q *Queue) Enqueue(t *Task) (evicted *Task, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		q.rejected++
		return nil, &QueueClosedError{}
	}

	if len(q.tasks) >= q.capacity {
		if q.policy != OverflowDropOldest {
			q.rejected++
			return nil, &QueueFullError{Capacity: q.capacity}
		}
		evicted = q.tasks[0]
		q.tasks = q.tasks[1:]
		q.evicted++
	}

	q.tasks = append(q.tasks, t)
	q.notEmpty.Signal()
	return evicted, nil
}

// Dequeue removes and returns the oldest queued clone, blocking while the
// queue is empty and open. Once the queue is closed and drained it returns
// ok=false, which tells the calling worker to exit.
func (q *Queue) Dequeue() (t *Task, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.tasks) == 0 && !q.closed {
		q.notEmpty.Wait()
	}

	if len(q.tasks) == 0 {
		return nil, false
	}

	t = q.tasks[0]
	q.tasks = q.tasks[1:]
	return t, true
}

// Close stops admission. Clones already queued remain available to Dequeue
// until Flush reclaims them; blocked consumers wake up.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.notEmpty.Broadcast()
}

// Flush removes and returns every queued clone. The engine calls it during
// shutdown to account for backlog that will never reach a worker.
func (q *Queue) Flush() []*Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	flushed := q.tasks
	q.tasks = nil
	return flushed
}

// State returns a snapshot of the queue.
func (q *Queue) State() QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()

	return QueueState{
		Length:   len(q.tasks),
		Capacity: q.capacity,
		Policy:   q.policy,
		Rejected: q.rejected,
		Evicted:  q.evicted,
		Closed:   q.closed,
	}
}

// Len returns the number of clones currently buffered.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.tasks)
}

// Capacity returns the fixed queue capacity.
func (q *Queue) Capacity() int {
	return q.capacity
}
