// Package scheduler drives background processing against the task queue.
//
// A single cooperative loop wakes on a timer derived from the processing
// intensity, pulls the next eligible task unless paused (explicitly or by
// resource pressure), dispatches it to the operation registered for its
// type and reports the outcome back to the queue. Task bodies run on their
// own goroutines so several may be in flight up to the queue's concurrency
// ceiling, but every attempt produces exactly one completion call, panics
// included; anything less would leak a concurrency slot.
//
// Resource pressure is edge-triggered through the monitor subscription in
// addition to the per-tick check, so reaction latency is bounded by the
// monitor's sampling period rather than the tick interval.
package scheduler
