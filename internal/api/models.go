// Package api provides the local HTTP control surface over the scheduler.
package api

import (
	"github.com/phrazzld/lumen-engine/internal/photo"
)

// AddTaskRequest is the body for POST /tasks.
type AddTaskRequest struct {
	Type     string        `json:"type"`
	Priority string        `json:"priority,omitempty"`
	Photos   []photo.Photo `json:"photos"`
}

// AddTaskResponse returns the id of an enqueued task.
type AddTaskResponse struct {
	TaskID string `json:"task_id"`
}

// CancelTaskResponse reports whether a cancellation took effect.
type CancelTaskResponse struct {
	Cancelled bool `json:"cancelled"`
}

// StatusResponse is the generic acknowledgement body.
type StatusResponse struct {
	Status string `json:"status"`
}
