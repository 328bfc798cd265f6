// Package notify defines the sink that receives task lifecycle
// notifications for user-facing display. Calls are fire-and-forget; the
// scheduler never consumes a return value.
package notify

import (
	"log/slog"

	"github.com/phrazzld/lumen-engine/internal/task"
)

// Sink receives user-facing notifications about task progress and outcome.
type Sink interface {
	// Progress reports partial completion of a task.
	Progress(t task.Task, progress float64, stage string)

	// Completion reports a finished task and how many photos it processed.
	Completion(t task.Task, processed int)

	// Failure reports a terminally failed task.
	Failure(t task.Task, message string)
}

// SlogSink logs notifications instead of displaying them. It is the sink
// used when no platform notification surface is attached.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a SlogSink writing to the given logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger.With(slog.String("component", "notification_sink"))}
}

// Progress logs a progress notification at debug level.
func (s *SlogSink) Progress(t task.Task, progress float64, stage string) {
	s.logger.Debug("task progress",
		"task_id", t.ID,
		"task_type", t.Type,
		"progress", progress,
		"stage", stage)
}

// Completion logs a completion notification.
func (s *SlogSink) Completion(t task.Task, processed int) {
	s.logger.Info("task completed",
		"task_id", t.ID,
		"task_type", t.Type,
		"photos_processed", processed)
}

// Failure logs a failure notification.
func (s *SlogSink) Failure(t task.Task, message string) {
	s.logger.Warn("task failed",
		"task_id", t.ID,
		"task_type", t.Type,
		"error", message)
}
