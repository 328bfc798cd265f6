package task

import (
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/lumen-engine/internal/photo"
)

// Type identifies what kind of work a task performs.
type Type string

// Supported task types.
const (
	TypePhotoAnalysis Type = "photo-analysis"
	TypeFaceDetection Type = "face-detection"
	TypeClustering    Type = "clustering"
	TypeCuration      Type = "curation"
)

// Priority orders tasks across queue buckets. Higher priorities are always
// drained before lower ones.
type Priority string

// Priority levels, highest first.
const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityNormal   Priority = "normal"
	PriorityLow      Priority = "low"
)

// rank maps a priority to its drain order; lower ranks drain first.
func (p Priority) rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 3
	default:
		// Unknown priorities sort after low.
		return 4
	}
}

// Valid reports whether p is one of the defined priority levels.
func (p Priority) Valid() bool {
	return p.rank() < 4
}

// Status is the lifecycle state of a task.
type Status string

// Possible task status values.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Task is a unit of background work over a photo batch. Queue methods
// return Task values as snapshots; the queue owns the live state.
type Task struct {
	ID          uuid.UUID     `json:"id"`
	Type        Type          `json:"type"`
	Priority    Priority      `json:"priority"`
	Status      Status        `json:"status"`
	Progress    float64       `json:"progress"`
	Stage       string        `json:"stage,omitempty"`
	RetryCount  int           `json:"retry_count"`
	MaxRetries  int           `json:"max_retries"`
	Photos      []photo.Photo `json:"photos"`
	CreatedAt   time.Time     `json:"created_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Spec describes a task to enqueue. Zero-value fields take defaults:
// priority normal, per-type retry budget. A negative MaxRetries disables
// retries entirely.
type Spec struct {
	Type       Type
	Priority   Priority
	Photos     []photo.Photo
	MaxRetries int
}

// DefaultRetryBudget is the retry budget used until configuration
// overrides it.
const DefaultRetryBudget = 3

// DefaultMaxRetries returns the retry budget used when a Spec does not set
// one. Analysis work is cheap to repeat and gets the full budget;
// clustering and curation get one attempt fewer.
func DefaultMaxRetries(taskType Type, budget int) int {
	if budget < 0 {
		budget = 0
	}
	switch taskType {
	case TypeClustering, TypeCuration:
		if budget > 0 {
			return budget - 1
		}
		return 0
	default:
		return budget
	}
}

// Result reports the outcome of one execution attempt.
type Result struct {
	Success        bool
	Data           any
	Err            string
	ProcessingTime time.Duration
}
