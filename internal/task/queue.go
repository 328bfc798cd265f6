package task

import (
	"log/slog"
	"sync"
	"time"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/google/uuid"

	"github.com/phrazzld/lumen-engine/internal/events"
)

// entry is the queue's live record for one task. seq is a monotonic
// arrival number; a retried or resumed task receives a fresh seq so it
// re-enters at the tail of its priority bucket.
type entry struct {
	task Task
	seq  uint64
}

// Queue holds tasks in priority order and hands out the next runnable one
// while a bounded number are running. All state is guarded by a single
// mutex so callers on any goroutine observe consistent lifecycle
// transitions.
//
// Pending tasks live in a treeset ordered by (priority rank, arrival seq),
// which gives strict critical > high > normal > low drain order with FIFO
// inside each bucket. Continuously replenished higher buckets starve lower
// ones; there is no aging.
type Queue struct {
	mu            sync.Mutex
	pending       *treeset.Set
	byID          map[uuid.UUID]*entry
	runningCount   int
	maxConcurrent  int
	defaultRetries int
	nextSeq        uint64

	logger      *slog.Logger
	broadcaster *events.Broadcaster[Event]
}

// NewQueue creates a queue allowing up to maxConcurrent running tasks.
// Values below 1 are clamped to 1.
func NewQueue(maxConcurrent int, logger *slog.Logger) *Queue {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Queue{
		pending:        treeset.NewWith(compareEntries),
		byID:           make(map[uuid.UUID]*entry),
		maxConcurrent:  maxConcurrent,
		defaultRetries: DefaultRetryBudget,
		logger:         logger.With(slog.String("component", "task_queue")),
		broadcaster:    events.NewBroadcaster[Event](logger),
	}
}

// compareEntries orders pending entries by priority rank, then arrival.
func compareEntries(a, b interface{}) int {
	ea, eb := a.(*entry), b.(*entry)
	if ra, rb := ea.task.Priority.rank(), eb.task.Priority.rank(); ra != rb {
		return ra - rb
	}
	switch {
	case ea.seq < eb.seq:
		return -1
	case ea.seq > eb.seq:
		return 1
	default:
		return 0
	}
}

// Subscribe registers a listener for queue lifecycle events and returns a
// function that removes it. Listener failures are isolated and never abort
// queue processing.
func (q *Queue) Subscribe(listener func(Event)) func() {
	return q.broadcaster.Subscribe(listener)
}

// Add enqueues a task described by spec and returns its id. An empty photo
// batch still enqueues; it will simply complete quickly.
func (q *Queue) Add(spec Spec) uuid.UUID {
	priority := spec.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	maxRetries := spec.MaxRetries
	if maxRetries == 0 {
		q.mu.Lock()
		budget := q.defaultRetries
		q.mu.Unlock()
		maxRetries = DefaultMaxRetries(spec.Type, budget)
	} else if maxRetries < 0 {
		// Negative means explicitly no retries.
		maxRetries = 0
	}

	t := Task{
		ID:         uuid.New(),
		Type:       spec.Type,
		Priority:   priority,
		Status:     StatusPending,
		Photos:     spec.Photos,
		MaxRetries: maxRetries,
		CreatedAt:  time.Now().UTC(),
	}

	q.mu.Lock()
	e := &entry{task: t, seq: q.nextSeq}
	q.nextSeq++
	q.byID[t.ID] = e
	q.pending.Add(e)
	snapshot := e.task
	q.mu.Unlock()

	q.logger.Debug("task enqueued",
		"task_id", t.ID,
		"task_type", t.Type,
		"priority", t.Priority)
	q.broadcaster.Publish(Event{Type: EventTaskAdded, Task: snapshot})
	return t.ID
}

// Next pops the highest-priority pending task, marks it running and
// returns a snapshot of it. It returns false when the running count has
// reached the concurrency ceiling or nothing is pending.
func (q *Queue) Next() (Task, bool) {
	q.mu.Lock()
	if q.runningCount >= q.maxConcurrent {
		q.mu.Unlock()
		return Task{}, false
	}

	it := q.pending.Iterator()
	if !it.Next() {
		q.mu.Unlock()
		return Task{}, false
	}
	e := it.Value().(*entry)
	q.pending.Remove(e)

	now := time.Now().UTC()
	e.task.Status = StatusRunning
	e.task.StartedAt = &now
	q.runningCount++
	snapshot := e.task
	q.mu.Unlock()

	q.logger.Debug("task started",
		"task_id", snapshot.ID,
		"task_type", snapshot.Type,
		"retry_count", snapshot.RetryCount)
	q.broadcaster.Publish(Event{Type: EventTaskStarted, Task: snapshot})
	return snapshot, true
}

// Complete records the outcome of one execution attempt. Failed attempts
// with retries remaining return the task to pending at the tail of its
// bucket; exhausted retries are terminal. Complete returns false when the
// task is unknown or no longer running, in which case the late result is
// discarded (the cooperative-cancellation path).
func (q *Queue) Complete(id uuid.UUID, result Result) bool {
	q.mu.Lock()
	e, ok := q.byID[id]
	if !ok || e.task.Status != StatusRunning {
		q.mu.Unlock()
		return false
	}

	q.runningCount--
	now := time.Now().UTC()

	var eventType EventType
	if result.Success {
		e.task.Status = StatusCompleted
		e.task.Progress = 100
		e.task.CompletedAt = &now
		e.task.Error = ""
		eventType = EventTaskCompleted
	} else if e.task.RetryCount < e.task.MaxRetries {
		e.task.RetryCount++
		e.task.Status = StatusPending
		e.task.Progress = 0
		e.task.StartedAt = nil
		e.task.Error = result.Err
		e.seq = q.nextSeq
		q.nextSeq++
		q.pending.Add(e)
		eventType = EventTaskRetrying
	} else {
		e.task.Status = StatusFailed
		e.task.CompletedAt = &now
		e.task.Error = result.Err
		eventType = EventTaskFailed
	}
	snapshot := e.task
	q.mu.Unlock()

	q.logger.Debug("task attempt finished",
		"task_id", id,
		"outcome", string(eventType),
		"processing_time", result.ProcessingTime)
	q.broadcaster.Publish(Event{Type: eventType, Task: snapshot})
	return true
}

// UpdateProgress clamps progress to [0,100], records it with an optional
// stage label and emits a progress event. Status is unchanged. Returns
// false for unknown tasks.
func (q *Queue) UpdateProgress(id uuid.UUID, progress float64, stage string) bool {
	if progress < 0 {
		progress = 0
	} else if progress > 100 {
		progress = 100
	}

	q.mu.Lock()
	e, ok := q.byID[id]
	if !ok {
		q.mu.Unlock()
		return false
	}
	e.task.Progress = progress
	if stage != "" {
		e.task.Stage = stage
	}
	snapshot := e.task
	q.mu.Unlock()

	q.broadcaster.Publish(Event{Type: EventTaskProgress, Task: snapshot})
	return true
}

// Pause suspends a running task. Returns false unless the task exists and
// is running.
func (q *Queue) Pause(id uuid.UUID) bool {
	q.mu.Lock()
	e, ok := q.byID[id]
	if !ok || e.task.Status != StatusRunning {
		q.mu.Unlock()
		return false
	}
	e.task.Status = StatusPaused
	q.runningCount--
	snapshot := e.task
	q.mu.Unlock()

	q.broadcaster.Publish(Event{Type: EventTaskPaused, Task: snapshot})
	return true
}

// Resume returns a paused task to pending at the tail of its bucket.
// Returns false unless the task exists and is paused.
func (q *Queue) Resume(id uuid.UUID) bool {
	q.mu.Lock()
	e, ok := q.byID[id]
	if !ok || e.task.Status != StatusPaused {
		q.mu.Unlock()
		return false
	}
	e.task.Status = StatusPending
	e.task.StartedAt = nil
	e.seq = q.nextSeq
	q.nextSeq++
	q.pending.Add(e)
	snapshot := e.task
	q.mu.Unlock()

	q.broadcaster.Publish(Event{Type: EventTaskResumed, Task: snapshot})
	return true
}

// Cancel marks a task cancelled from any state. A cancelled running task
// releases its concurrency slot immediately; the in-flight body is not
// aborted, and its eventual Complete call returns false. Returns false
// only when the task is unknown.
func (q *Queue) Cancel(id uuid.UUID) bool {
	q.mu.Lock()
	e, ok := q.byID[id]
	if !ok {
		q.mu.Unlock()
		return false
	}
	switch e.task.Status {
	case StatusRunning:
		q.runningCount--
	case StatusPending:
		q.pending.Remove(e)
	}
	now := time.Now().UTC()
	e.task.Status = StatusCancelled
	e.task.CompletedAt = &now
	snapshot := e.task
	q.mu.Unlock()

	q.broadcaster.Publish(Event{Type: EventTaskCancelled, Task: snapshot})
	return true
}

// SetMaxConcurrent adjusts the concurrency ceiling, clamping to at least 1.
// Lowering the ceiling never interrupts tasks already running; it only
// gates future Next calls.
func (q *Queue) SetMaxConcurrent(n int) {
	if n < 1 {
		n = 1
	}
	q.mu.Lock()
	q.maxConcurrent = n
	q.mu.Unlock()
}

// SetDefaultRetries adjusts the retry budget applied to future Add calls
// whose Spec does not set one, clamping to at least 0. Budgets of tasks
// already enqueued are unchanged.
func (q *Queue) SetDefaultRetries(n int) {
	if n < 0 {
		n = 0
	}
	q.mu.Lock()
	q.defaultRetries = n
	q.mu.Unlock()
}

// MaxConcurrent returns the current concurrency ceiling.
func (q *Queue) MaxConcurrent() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.maxConcurrent
}

// Clear drops all tasks and resets counters.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.pending.Clear()
	q.byID = make(map[uuid.UUID]*entry)
	q.runningCount = 0
	q.mu.Unlock()

	q.logger.Info("task queue cleared")
	q.broadcaster.Publish(Event{Type: EventQueueCleared})
}

// Get returns a snapshot of the task with the given id.
func (q *Queue) Get(id uuid.UUID) (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.byID[id]
	if !ok {
		return Task{}, false
	}
	return e.task, true
}

// Tasks returns snapshots of every known task, in no particular order.
func (q *Queue) Tasks() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	tasks := make([]Task, 0, len(q.byID))
	for _, e := range q.byID {
		tasks = append(tasks, e.task)
	}
	return tasks
}

// PendingCount returns the number of tasks waiting to run.
func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Size()
}

// RunningCount returns the number of tasks currently running.
func (q *Queue) RunningCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.runningCount
}
