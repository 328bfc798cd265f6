package task

// EventType names a queue lifecycle event.
type EventType string

// Queue lifecycle events. Every queue mutation emits exactly one.
const (
	EventTaskAdded     EventType = "task-added"
	EventTaskStarted   EventType = "task-started"
	EventTaskCompleted EventType = "task-completed"
	EventTaskFailed    EventType = "task-failed"
	EventTaskRetrying  EventType = "task-retrying"
	EventTaskProgress  EventType = "task-progress"
	EventTaskPaused    EventType = "task-paused"
	EventTaskResumed   EventType = "task-resumed"
	EventTaskCancelled EventType = "task-cancelled"
	EventQueueCleared  EventType = "queue-cleared"
)

// Event is delivered to queue listeners on every mutation. Task is a
// snapshot taken at emission time; it is zero for EventQueueCleared.
type Event struct {
	Type EventType
	Task Task
}
