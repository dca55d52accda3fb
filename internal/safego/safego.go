// Package safego provides a panic-recovering goroutine launcher for background
// work such as the rate limiter cleanup loop and the DB stats collector.
package safego

import "log/slog"

// Go launches fn in a new goroutine under the given task name. If fn panics,
// the panic is recovered and logged with the task name rather than crashing
// the process. Use it for every fire-and-forget goroutine where an
// unrecovered panic would silently kill the loop forever.
func Go(task string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("recovered panic in background task", "task", task, "panic", r)
			}
		}()
		fn()
	}()
}
