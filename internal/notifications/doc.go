// Package notifications delivers formatted lifecycle payloads to pluggable
// backends.
//
// A Backend turns a Payload into exactly one network call and reports a
// Result; it never returns an error, so one broken channel cannot stop the
// others. The Dispatcher fans a payload out to every configured backend
// concurrently, joins all calls, and returns an Outcome ordered by backend
// configuration so logs and tests stay reproducible.
//
// Adapters for specific services live under internal/services. All tracker
// code depends only on the Backend interface declared here.
package notifications
