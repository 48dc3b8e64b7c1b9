package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"spectrocheck/internal/analyzer"
	"spectrocheck/internal/fileid"
)

// Task is one unit of analysis work. Created by the orchestrator, owned by
// the queue until the worker claims it, never mutated after enqueue.
type Task struct {
	ID           string
	Identity     fileid.Identity
	DeclaredKbps int // 0 when the worker must resolve it
	Backend      analyzer.Kind
	EnqueuedAt   time.Time
}

// NewTask builds a task for the given file identity.
func NewTask(id fileid.Identity, declaredKbps int, backend analyzer.Kind) Task {
	return Task{
		ID:           uuid.NewString(),
		Identity:     id,
		DeclaredKbps: declaredKbps,
		Backend:      backend,
		EnqueuedAt:   time.Now(),
	}
}

// Queue is a FIFO of analysis tasks safe for any number of producers and
// one consumer. Enqueue never blocks beyond the mutex. At most one task per
// file identity may be queued or in flight at a time.
//
// Close is the shutdown sentinel: pending tasks are abandoned and Dequeue
// returns false immediately, while a task already claimed by the worker
// finishes normally.
type Queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	tasks    []Task
	inflight map[string]struct{}
	closed   bool
}

// NewQueue constructs an empty queue.
func NewQueue() *Queue {
	q := &Queue{inflight: make(map[string]struct{})}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// EnqueueOutcome explains why the queue did or did not accept a task.
type EnqueueOutcome int

const (
	EnqueueAccepted EnqueueOutcome = iota
	EnqueueDuplicate
	EnqueueClosed
)

// Enqueue appends a task. A duplicate means a task for the same file
// identity is already queued or in flight; closed means the pipeline is
// shutting down and no more work is accepted.
func (q *Queue) Enqueue(task Task) EnqueueOutcome {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return EnqueueClosed
	}
	key := task.Identity.Key()
	if _, dup := q.inflight[key]; dup {
		return EnqueueDuplicate
	}
	q.inflight[key] = struct{}{}
	q.tasks = append(q.tasks, task)
	q.cond.Signal()
	return EnqueueAccepted
}

// Dequeue blocks until a task is available or the queue is closed. The
// second return value is false once the queue has been closed.
func (q *Queue) Dequeue() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.tasks) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return Task{}, false
	}

	task := q.tasks[0]
	q.tasks = q.tasks[1:]
	return task, true
}

// Done releases the identity claimed by the task so the file can be queued
// again later. Called by the worker after processing completes.
func (q *Queue) Done(task Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inflight, task.Identity.Key())
}

// Close wakes the consumer and abandons any pending tasks.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.tasks = nil
	q.cond.Broadcast()
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
