// Package progress provides a counting progress bar that reports through a
// lifecycle notifier. Each Add computes the completed fraction, throughput
// and ETA and hands them to the notifier, whose trigger policy decides
// whether anyone is told.
package progress
