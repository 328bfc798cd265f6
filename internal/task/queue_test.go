package task

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/lumen-engine/internal/photo"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPhotos(n int) []photo.Photo {
	photos := make([]photo.Photo, 0, n)
	for i := 0; i < n; i++ {
		photos = append(photos, photo.Photo{ID: uuid.New()})
	}
	return photos
}

// eventRecorder collects queue events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) record(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *eventRecorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

func TestAddAssignsDefaults(t *testing.T) {
	q := NewQueue(2, setupTestLogger())

	id := q.Add(Spec{Type: TypePhotoAnalysis, Photos: testPhotos(3)})

	got, ok := q.Get(id)
	require.True(t, ok)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, PriorityNormal, got.Priority)
	assert.Equal(t, 3, got.MaxRetries)
	assert.Equal(t, 0, got.RetryCount)
	assert.Zero(t, got.Progress)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSetDefaultRetriesAppliesToNewTasks(t *testing.T) {
	q := NewQueue(1, setupTestLogger())
	q.SetDefaultRetries(5)

	id := q.Add(Spec{Type: TypePhotoAnalysis})
	got, ok := q.Get(id)
	require.True(t, ok)
	assert.Equal(t, 5, got.MaxRetries)

	// Clustering and curation get one attempt fewer than the budget.
	id = q.Add(Spec{Type: TypeClustering})
	got, _ = q.Get(id)
	assert.Equal(t, 4, got.MaxRetries)

	// An explicit budget on the spec always wins.
	id = q.Add(Spec{Type: TypePhotoAnalysis, MaxRetries: 1})
	got, _ = q.Get(id)
	assert.Equal(t, 1, got.MaxRetries)

	q.SetDefaultRetries(-3)
	id = q.Add(Spec{Type: TypeCuration})
	got, _ = q.Get(id)
	assert.Zero(t, got.MaxRetries)
}

func TestAddAcceptsEmptyBatch(t *testing.T) {
	q := NewQueue(1, setupTestLogger())

	id := q.Add(Spec{Type: TypeClustering})
	got, ok := q.Get(id)
	require.True(t, ok)
	assert.Empty(t, got.Photos)
	assert.Equal(t, 2, got.MaxRetries)
}

func TestNextDrainsInPriorityOrder(t *testing.T) {
	q := NewQueue(10, setupTestLogger())

	q.Add(Spec{Type: TypePhotoAnalysis, Priority: PriorityLow})
	q.Add(Spec{Type: TypePhotoAnalysis, Priority: PriorityHigh})
	q.Add(Spec{Type: TypePhotoAnalysis, Priority: PriorityNormal})
	q.Add(Spec{Type: TypePhotoAnalysis, Priority: PriorityCritical})

	var order []Priority
	for {
		next, ok := q.Next()
		if !ok {
			break
		}
		order = append(order, next.Priority)
	}

	assert.Equal(t, []Priority{PriorityCritical, PriorityHigh, PriorityNormal, PriorityLow}, order)
}

func TestNextIsFIFOWithinBucket(t *testing.T) {
	q := NewQueue(10, setupTestLogger())

	first := q.Add(Spec{Type: TypePhotoAnalysis, Priority: PriorityNormal})
	second := q.Add(Spec{Type: TypeFaceDetection, Priority: PriorityNormal})
	third := q.Add(Spec{Type: TypeCuration, Priority: PriorityNormal})

	var order []uuid.UUID
	for {
		next, ok := q.Next()
		if !ok {
			break
		}
		order = append(order, next.ID)
	}

	assert.Equal(t, []uuid.UUID{first, second, third}, order)
}

func TestNextRespectsConcurrencyCeiling(t *testing.T) {
	q := NewQueue(2, setupTestLogger())

	for i := 0; i < 5; i++ {
		q.Add(Spec{Type: TypePhotoAnalysis})
	}

	first, ok := q.Next()
	require.True(t, ok)
	_, ok = q.Next()
	require.True(t, ok)

	// Ceiling reached: three tasks remain pending but none is handed out.
	_, ok = q.Next()
	assert.False(t, ok)
	assert.Equal(t, 2, q.RunningCount())
	assert.Equal(t, 3, q.PendingCount())

	// Finishing one frees a slot.
	require.True(t, q.Complete(first.ID, Result{Success: true}))
	_, ok = q.Next()
	assert.True(t, ok)
	assert.Equal(t, 2, q.RunningCount())
}

func TestCompleteSuccess(t *testing.T) {
	q := NewQueue(1, setupTestLogger())

	id := q.Add(Spec{Type: TypePhotoAnalysis})
	_, ok := q.Next()
	require.True(t, ok)

	require.True(t, q.Complete(id, Result{Success: true}))

	got, _ := q.Get(id)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.InDelta(t, 100, got.Progress, 1e-9)
	assert.NotNil(t, got.CompletedAt)
	assert.Equal(t, 0, q.RunningCount())
}

func TestRetryExhaustion(t *testing.T) {
	q := NewQueue(1, setupTestLogger())

	id := q.Add(Spec{Type: TypePhotoAnalysis, MaxRetries: 2})

	// First failure: back to pending with retry count 1.
	_, ok := q.Next()
	require.True(t, ok)
	require.True(t, q.Complete(id, Result{Success: false, Err: "backend down"}))
	got, _ := q.Get(id)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	assert.Zero(t, got.Progress)
	assert.Nil(t, got.StartedAt)

	// Second failure: pending again with retry count 2.
	_, ok = q.Next()
	require.True(t, ok)
	require.True(t, q.Complete(id, Result{Success: false, Err: "backend down"}))
	got, _ = q.Get(id)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, 2, got.RetryCount)

	// Third failure exhausts the budget.
	_, ok = q.Next()
	require.True(t, ok)
	require.True(t, q.Complete(id, Result{Success: false, Err: "backend down"}))
	got, _ = q.Get(id)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, 2, got.RetryCount)
	assert.Equal(t, "backend down", got.Error)

	// Terminal: the queue hands out nothing further.
	_, ok = q.Next()
	assert.False(t, ok)
}

func TestRetryReentersAtBucketTail(t *testing.T) {
	q := NewQueue(1, setupTestLogger())

	flaky := q.Add(Spec{Type: TypePhotoAnalysis, Priority: PriorityNormal})
	steady := q.Add(Spec{Type: TypeFaceDetection, Priority: PriorityNormal})

	next, ok := q.Next()
	require.True(t, ok)
	require.Equal(t, flaky, next.ID)
	require.True(t, q.Complete(flaky, Result{Success: false, Err: "transient"}))

	// The retried task waits behind same-priority work that was already
	// queued.
	next, ok = q.Next()
	require.True(t, ok)
	assert.Equal(t, steady, next.ID)
}

func TestUpdateProgressClamps(t *testing.T) {
	q := NewQueue(1, setupTestLogger())
	id := q.Add(Spec{Type: TypePhotoAnalysis})

	require.True(t, q.UpdateProgress(id, 150, "stage"))
	got, _ := q.Get(id)
	assert.InDelta(t, 100, got.Progress, 1e-9)
	assert.Equal(t, "stage", got.Stage)

	require.True(t, q.UpdateProgress(id, -5, ""))
	got, _ = q.Get(id)
	assert.Zero(t, got.Progress)

	assert.False(t, q.UpdateProgress(uuid.New(), 50, ""))
}

func TestPauseAndResume(t *testing.T) {
	q := NewQueue(1, setupTestLogger())
	id := q.Add(Spec{Type: TypePhotoAnalysis})

	// Pause requires a running task.
	assert.False(t, q.Pause(id))

	_, ok := q.Next()
	require.True(t, ok)
	require.True(t, q.Pause(id))

	got, _ := q.Get(id)
	assert.Equal(t, StatusPaused, got.Status)
	assert.Equal(t, 0, q.RunningCount())

	// Resume only applies to paused tasks.
	assert.False(t, q.Resume(uuid.New()))
	require.True(t, q.Resume(id))
	got, _ = q.Get(id)
	assert.Equal(t, StatusPending, got.Status)
	assert.Nil(t, got.StartedAt)

	_, ok = q.Next()
	assert.True(t, ok)
}

func TestCancelReleasesRunningSlot(t *testing.T) {
	q := NewQueue(1, setupTestLogger())
	id := q.Add(Spec{Type: TypePhotoAnalysis})

	_, ok := q.Next()
	require.True(t, ok)
	require.Equal(t, 1, q.RunningCount())

	require.True(t, q.Cancel(id))
	assert.Equal(t, 0, q.RunningCount())

	got, _ := q.Get(id)
	assert.Equal(t, StatusCancelled, got.Status)

	// The in-flight body's eventual completion is discarded.
	assert.False(t, q.Complete(id, Result{Success: true}))
	got, _ = q.Get(id)
	assert.Equal(t, StatusCancelled, got.Status)
}

func TestCancelPendingAndUnknown(t *testing.T) {
	q := NewQueue(1, setupTestLogger())
	id := q.Add(Spec{Type: TypePhotoAnalysis})

	require.True(t, q.Cancel(id))
	assert.Equal(t, 0, q.PendingCount())

	_, ok := q.Next()
	assert.False(t, ok)

	assert.False(t, q.Cancel(uuid.New()))
}

func TestSetMaxConcurrentClamps(t *testing.T) {
	q := NewQueue(0, setupTestLogger())
	assert.Equal(t, 1, q.MaxConcurrent())

	q.SetMaxConcurrent(-3)
	assert.Equal(t, 1, q.MaxConcurrent())

	q.SetMaxConcurrent(4)
	assert.Equal(t, 4, q.MaxConcurrent())
}

func TestClear(t *testing.T) {
	q := NewQueue(2, setupTestLogger())
	q.Add(Spec{Type: TypePhotoAnalysis})
	q.Add(Spec{Type: TypeClustering})
	_, ok := q.Next()
	require.True(t, ok)

	q.Clear()

	assert.Empty(t, q.Tasks())
	assert.Equal(t, 0, q.PendingCount())
	assert.Equal(t, 0, q.RunningCount())
}

func TestLifecycleEvents(t *testing.T) {
	q := NewQueue(1, setupTestLogger())
	recorder := &eventRecorder{}
	unsubscribe := q.Subscribe(recorder.record)
	defer unsubscribe()

	id := q.Add(Spec{Type: TypePhotoAnalysis, MaxRetries: 1})
	_, ok := q.Next()
	require.True(t, ok)
	q.UpdateProgress(id, 50, "halfway")
	q.Complete(id, Result{Success: false, Err: "transient"})
	_, ok = q.Next()
	require.True(t, ok)
	q.Complete(id, Result{Success: false, Err: "again"})
	q.Clear()

	assert.Equal(t, []EventType{
		EventTaskAdded,
		EventTaskStarted,
		EventTaskProgress,
		EventTaskRetrying,
		EventTaskStarted,
		EventTaskFailed,
		EventQueueCleared,
	}, recorder.types())
}

func TestListenerFailureDoesNotAbortQueue(t *testing.T) {
	q := NewQueue(1, setupTestLogger())
	q.Subscribe(func(Event) { panic("bad listener") })

	recorder := &eventRecorder{}
	q.Subscribe(recorder.record)

	var id uuid.UUID
	assert.NotPanics(t, func() {
		id = q.Add(Spec{Type: TypePhotoAnalysis})
	})

	got, ok := q.Get(id)
	require.True(t, ok)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, []EventType{EventTaskAdded}, recorder.types())
}
