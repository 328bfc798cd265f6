package scheduler

import (
	"time"

	"github.com/phrazzld/lumen-engine/internal/resource"
	"github.com/phrazzld/lumen-engine/internal/task"
)

// State is the aggregate snapshot pushed to state subscribers after every
// tick and completion.
type State struct {
	// IsProcessing reports whether the loop is active and not paused.
	IsProcessing bool `json:"is_processing"`

	// CurrentTask is the first running task, nil when none is running.
	CurrentTask *task.Task `json:"current_task,omitempty"`

	// QueueLength is the number of pending tasks.
	QueueLength int `json:"queue_length"`

	// CompletedCount and FailedCount are cumulative since construction.
	CompletedCount int `json:"completed_count"`
	FailedCount    int `json:"failed_count"`

	// AverageProgress is the mean progress across all known tasks.
	AverageProgress float64 `json:"average_progress"`

	// EstimatedTimeRemaining is remaining task count × mean historical
	// processing time; nil when no tasks are known.
	EstimatedTimeRemaining *time.Duration `json:"estimated_time_remaining,omitempty"`

	// Settings is the live processing configuration.
	Settings Settings `json:"settings"`

	// Resources is the last resource snapshot.
	Resources resource.Status `json:"resources"`
}

// Stats summarizes task outcomes since construction.
type Stats struct {
	Completed int           `json:"completed"`
	Failed    int           `json:"failed"`
	TotalTime time.Duration `json:"total_time"`
}
