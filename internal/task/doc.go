// Package task defines the background task model and the priority queue
// that owns task lifecycle state.
//
// Tasks move strictly along pending → running → {completed | failed |
// cancelled}, with failed tasks returning to pending while retries remain
// and paused reachable only from running. The Queue serializes all state
// behind one mutex; every mutation emits a lifecycle Event through a
// fan-out that isolates listener failures.
package task
