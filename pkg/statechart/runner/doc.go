// Package runner drives a statechart from an event queue. Events posted from
// any goroutine are dispatched one at a time on the goroutine calling Run, so
// hooks and actions may post follow-up events without deadlocking the chart.
//
// Key constructs:
// - New/Run/Post/Close: own the chart lifecycle and the queue
// - WithQueueOptions/WithProcessOptions: queue size and cancel behaviour via context
// - Outcome: what happened to each dispatched event
package runner
