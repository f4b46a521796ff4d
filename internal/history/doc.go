// Package history journals delivery results in SQLite.
//
// The journal is diagnostic only: it records which backend accepted or
// rejected each notification of a session and is never replayed. Schema
// creation is serialized across processes with a file lock so that concurrent
// `oven run` invocations can share one database.
package history
