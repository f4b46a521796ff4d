// Package main hosts the oven CLI entrypoint and command graph.
//
// The Cobra command tree wraps a child process with lifecycle notifications
// (`oven run`), sends one-off messages, lists configured backends, inspects
// the delivery journal, and scaffolds configuration. Configuration loading,
// logger setup, and backend construction live in commandContext so
// subcommands only deal with presentation.
package main
