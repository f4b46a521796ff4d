// Package backends turns the [[backends]] configuration into live adapters.
//
// Entries are constructed in configuration order. An entry that fails
// validation is reported and left out; the remaining entries still build.
package backends
