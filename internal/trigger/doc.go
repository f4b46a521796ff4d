// Package trigger decides which progress updates become notifications.
//
// Lifecycle boundary signals always fire. Progress signals are gated by a
// Policy: IntervalPolicy fires when enough time has passed or progress moved
// far enough, DeltaPolicy only on progress movement. A Gate owns the
// last-notified bookkeeping and resets it whenever a signal fires.
package trigger
