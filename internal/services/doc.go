// Package services defines shared utilities consumed by the notification
// backends and the tracker that drives them.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, backend names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that let callers tell
//     configuration problems, lifecycle misuse, and delivery failures apart
//     with errors.Is.
//
// Backend adapters live in sub-packages (slack, bark, ntfy, mailer). Each one
// validates its credentials up front and converts every runtime failure into
// a notifications.Result instead of an error.
package services
