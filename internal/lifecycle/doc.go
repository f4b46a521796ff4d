// Package lifecycle defines the signal stream emitted by an instrumented task.
//
// A session is one Init, one Start, any number of Progress signals, and a
// single terminal Error or Terminate. Phase encodes that grammar so the
// tracker and every formatter reject out-of-order signals the same way.
package lifecycle
