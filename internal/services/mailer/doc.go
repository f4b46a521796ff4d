// Package mailer sends email payloads through an HTTP mail API compatible
// with Resend's /emails endpoint.
package mailer
