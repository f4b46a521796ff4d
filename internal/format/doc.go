// Package format renders lifecycle signals into channel payloads.
//
// Each Formatter is an independent state machine for one channel. It captures
// host and command metadata at Init, the start time at Start, and renders every
// later signal through its Style. All styles build their bodies with Compose,
// which keeps part order and drops empty parts, so no payload ever contains an
// empty paragraph.
package format
