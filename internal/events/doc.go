// Package events provides listener fan-out with per-listener isolation.
//
// Components that publish state (the task queue's lifecycle events, the
// scheduler's aggregate state) hold a Broadcaster and deliver each value to
// every registered listener. A listener that panics is logged and skipped;
// one malfunctioning observer must never stop scheduling or clustering.
package events
