// Package tracker drives one tracked process through its notification
// lifecycle.
//
// A Tracker owns the phase machine, the trigger gate, and one formatter per
// channel used by its dispatcher. Handle validates a signal, asks the gate
// whether it should be announced, renders a payload per channel and fans it
// out. Invalid transitions are returned as errors; delivery failures are
// reported in the Report and never abort the session.
package tracker
