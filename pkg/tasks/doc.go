// Package tasks runs post-response background work. Each request owns a
// queue; once the response is sent the queue detaches onto the runtime,
// running its tasks in submission order under per-task panic guards.
package tasks
