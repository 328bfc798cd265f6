package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/lumen-engine/internal/analysis"
	"github.com/phrazzld/lumen-engine/internal/cluster"
	"github.com/phrazzld/lumen-engine/internal/events"
	"github.com/phrazzld/lumen-engine/internal/notify"
	"github.com/phrazzld/lumen-engine/internal/photo"
	"github.com/phrazzld/lumen-engine/internal/resource"
	"github.com/phrazzld/lumen-engine/internal/task"
)

// Scheduler orchestrates background processing: it owns the polling loop,
// integrates resource constraints, translates task types into operations
// and publishes aggregate state.
type Scheduler struct {
	queue   *task.Queue
	monitor resource.Monitor
	backend analysis.Backend
	engine  *cluster.Engine
	sink    notify.Sink
	logger  *slog.Logger

	handlers map[task.Type]handlerFunc

	stateBroadcaster *events.Broadcaster[State]

	mu            sync.Mutex
	settings      Settings
	explicitPause bool
	resourcePause bool
	loopActive    bool
	stats         Stats

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	unsubMonitor func()
	unsubQueue   func()
}

// New creates a Scheduler over the given collaborators. Call Start to
// begin processing and Destroy to tear down.
func New(
	queue *task.Queue,
	monitor resource.Monitor,
	backend analysis.Backend,
	engine *cluster.Engine,
	sink notify.Sink,
	settings Settings,
	logger *slog.Logger,
) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		queue:            queue,
		monitor:          monitor,
		backend:          backend,
		engine:           engine,
		sink:             sink,
		logger:           logger.With(slog.String("component", "scheduler")),
		stateBroadcaster: events.NewBroadcaster[State](logger),
		settings:         settings,
		ctx:              ctx,
		cancel:           cancel,
	}
	s.registerHandlers()
	queue.SetMaxConcurrent(settings.MaxConcurrentTasks)
	if settings.MaxRetries > 0 {
		queue.SetDefaultRetries(settings.MaxRetries)
	}
	return s
}

// Start begins the scheduling loop and subscribes to resource changes and
// queue events. Calling Start on an active scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.loopActive {
		s.mu.Unlock()
		return
	}
	s.loopActive = true
	s.mu.Unlock()

	// Edge-triggered resource reaction: flip the pause flag as soon as the
	// monitor reports a change instead of waiting for the next tick.
	s.unsubMonitor = s.monitor.Subscribe(s.onResourceChange)
	s.unsubQueue = s.queue.Subscribe(s.onQueueEvent)

	s.wg.Add(1)
	go s.loop()

	s.logger.Info("scheduler started", "intensity", s.Settings().Intensity)
	s.publishState()
}

// loop wakes at the current tick interval. Intensity changes take effect
// on the next wakeup.
func (s *Scheduler) loop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-time.After(s.Settings().Intensity.Interval()):
			s.Tick(s.ctx)
		}
	}
}

// Tick runs a single scheduling iteration: skip when paused, otherwise
// pull the next eligible task and dispatch it. Exposed for tests.
func (s *Scheduler) Tick(ctx context.Context) {
	if s.isPaused() {
		return
	}

	t, ok := s.queue.Next()
	if !ok {
		return
	}

	s.wg.Add(1)
	go s.execute(ctx, t)
	s.publishState()
}

// execute runs one task attempt. Exactly one queue completion call is
// made per attempt, panics included; a missed completion would inflate
// the queue's running count forever.
func (s *Scheduler) execute(ctx context.Context, t task.Task) {
	defer s.wg.Done()

	start := time.Now()
	var result task.Result

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task handler panicked",
				"task_id", t.ID,
				"task_type", t.Type,
				"panic", r)
			result = task.Result{Success: false, Err: fmt.Sprintf("panic: %v", r)}
		}
		result.ProcessingTime = time.Since(start)

		if s.queue.Complete(t.ID, result) {
			if result.Success {
				s.recordCompletion(result.ProcessingTime)
			}
		} else {
			// The task was cancelled or cleared while in flight; its
			// result is discarded.
			s.logger.Debug("discarding result for task no longer running",
				"task_id", t.ID)
		}
		s.publishState()
	}()

	handler, ok := s.handlers[t.Type]
	if !ok {
		result = task.Result{Success: false, Err: fmt.Sprintf("no handler registered for task type %q", t.Type)}
		return
	}

	data, err := handler(ctx, t)
	if err != nil {
		result = task.Result{Success: false, Err: err.Error()}
		return
	}
	result = task.Result{Success: true, Data: data}
}

// onResourceChange re-evaluates the pause predicate on every monitor
// sample.
func (s *Scheduler) onResourceChange(status resource.Status) {
	s.mu.Lock()
	paused := status.ShouldPause(s.settings.BatteryThreshold, s.settings.MemoryThreshold)
	changed := paused != s.resourcePause
	s.resourcePause = paused
	s.mu.Unlock()

	if changed {
		if paused {
			s.logger.Info("pausing processing under resource pressure",
				"battery", status.BatteryLevel,
				"memory_usage", status.MemoryUsage,
				"thermal", status.Thermal.String())
		} else {
			s.logger.Info("resource pressure cleared, resuming processing")
		}
		s.publishState()
	}
}

// onQueueEvent forwards lifecycle events to the notification sink and
// keeps outcome stats current.
func (s *Scheduler) onQueueEvent(e task.Event) {
	switch e.Type {
	case task.EventTaskProgress:
		s.sink.Progress(e.Task, e.Task.Progress, e.Task.Stage)
	case task.EventTaskCompleted:
		s.mu.Lock()
		s.stats.Completed++
		s.mu.Unlock()
		s.sink.Completion(e.Task, len(e.Task.Photos))
	case task.EventTaskFailed:
		s.mu.Lock()
		s.stats.Failed++
		s.mu.Unlock()
		s.sink.Failure(e.Task, e.Task.Error)
	}
}

// recordCompletion accumulates processing time for the ETA estimate.
func (s *Scheduler) recordCompletion(d time.Duration) {
	s.mu.Lock()
	s.stats.TotalTime += d
	s.mu.Unlock()
}

// AddPhotoAnalysisTask enqueues a photo-analysis task and returns its id.
func (s *Scheduler) AddPhotoAnalysisTask(photos []photo.Photo, priority task.Priority) uuid.UUID {
	return s.addTask(task.TypePhotoAnalysis, photos, priority)
}

// AddFaceDetectionTask enqueues a face-detection task and returns its id.
func (s *Scheduler) AddFaceDetectionTask(photos []photo.Photo, priority task.Priority) uuid.UUID {
	return s.addTask(task.TypeFaceDetection, photos, priority)
}

// AddClusteringTask enqueues a clustering task and returns its id.
func (s *Scheduler) AddClusteringTask(photos []photo.Photo, priority task.Priority) uuid.UUID {
	return s.addTask(task.TypeClustering, photos, priority)
}

// AddCurationTask enqueues a curation-ranking task and returns its id.
func (s *Scheduler) AddCurationTask(photos []photo.Photo, priority task.Priority) uuid.UUID {
	return s.addTask(task.TypeCuration, photos, priority)
}

func (s *Scheduler) addTask(taskType task.Type, photos []photo.Photo, priority task.Priority) uuid.UUID {
	id := s.queue.Add(task.Spec{Type: taskType, Priority: priority, Photos: photos})
	s.publishState()
	return id
}

// PauseProcessing suspends the loop until ResumeProcessing. Tasks already
// in flight continue; no new tasks start.
func (s *Scheduler) PauseProcessing() {
	s.mu.Lock()
	s.explicitPause = true
	s.mu.Unlock()
	s.logger.Info("processing paused")
	s.publishState()
}

// ResumeProcessing lifts an explicit pause. Resource-pressure pauses clear
// on their own when readings recover.
func (s *Scheduler) ResumeProcessing() {
	s.mu.Lock()
	s.explicitPause = false
	s.mu.Unlock()
	s.logger.Info("processing resumed")
	s.publishState()
}

// CancelTask cancels the task with the given id. Returns false when the
// task is unknown.
func (s *Scheduler) CancelTask(id uuid.UUID) bool {
	ok := s.queue.Cancel(id)
	if ok {
		s.publishState()
	}
	return ok
}

// ClearQueue drops all tasks.
func (s *Scheduler) ClearQueue() {
	s.queue.Clear()
	s.publishState()
}

// UpdateSettings applies a partial settings update. The tick interval and
// concurrency ceiling adjust from the next wakeup.
func (s *Scheduler) UpdateSettings(patch SettingsPatch) {
	s.mu.Lock()
	patch.apply(&s.settings)
	settings := s.settings
	s.mu.Unlock()

	s.queue.SetMaxConcurrent(settings.MaxConcurrentTasks)
	if settings.MaxRetries > 0 {
		s.queue.SetDefaultRetries(settings.MaxRetries)
	}
	s.logger.Info("settings updated",
		"intensity", settings.Intensity,
		"max_concurrent_tasks", settings.MaxConcurrentTasks)
	s.publishState()
}

// Settings returns the live settings.
func (s *Scheduler) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Stats returns cumulative task outcome statistics.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// SubscribeState registers a listener for aggregate state snapshots and
// returns a function that removes it.
func (s *Scheduler) SubscribeState(listener func(State)) func() {
	return s.stateBroadcaster.Subscribe(listener)
}

// State recomputes the aggregate snapshot.
func (s *Scheduler) State() State {
	tasks := s.queue.Tasks()

	var current *task.Task
	var progressSum float64
	for i := range tasks {
		progressSum += tasks[i].Progress
		if current == nil && tasks[i].Status == task.StatusRunning {
			t := tasks[i]
			current = &t
		}
	}
	var averageProgress float64
	if len(tasks) > 0 {
		averageProgress = progressSum / float64(len(tasks))
	}

	pending := s.queue.PendingCount()
	running := s.queue.RunningCount()

	s.mu.Lock()
	settings := s.settings
	isProcessing := s.loopActive && !s.explicitPause && !s.resourcePause
	stats := s.stats
	s.mu.Unlock()

	var eta *time.Duration
	if len(tasks) > 0 {
		var mean time.Duration
		if stats.Completed > 0 {
			mean = stats.TotalTime / time.Duration(stats.Completed)
		}
		remaining := time.Duration(pending+running) * mean
		eta = &remaining
	}

	return State{
		IsProcessing:           isProcessing,
		CurrentTask:            current,
		QueueLength:            pending,
		CompletedCount:         stats.Completed,
		FailedCount:            stats.Failed,
		AverageProgress:        averageProgress,
		EstimatedTimeRemaining: eta,
		Settings:               settings,
		Resources:              s.monitor.Current(),
	}
}

// publishState fans the current aggregate state out to subscribers.
func (s *Scheduler) publishState() {
	s.stateBroadcaster.Publish(s.State())
}

// isPaused reports whether the loop should skip this tick, folding in a
// fresh resource check so a pause never depends on the monitor having
// fired first.
func (s *Scheduler) isPaused() bool {
	s.mu.Lock()
	explicit := s.explicitPause
	battery := s.settings.BatteryThreshold
	memory := s.settings.MemoryThreshold
	resourcePaused := s.resourcePause
	s.mu.Unlock()

	if explicit || resourcePaused {
		return true
	}
	return s.monitor.ShouldPause(battery, memory)
}

// Destroy stops the loop, waits for in-flight tasks, unsubscribes from the
// monitor and queue and drops all state listeners.
func (s *Scheduler) Destroy() {
	s.cancel()
	s.wg.Wait()

	if s.unsubMonitor != nil {
		s.unsubMonitor()
		s.unsubMonitor = nil
	}
	if s.unsubQueue != nil {
		s.unsubQueue()
		s.unsubQueue = nil
	}
	s.stateBroadcaster.Clear()

	s.mu.Lock()
	s.loopActive = false
	s.mu.Unlock()

	s.logger.Info("scheduler destroyed")
}
