// Package ntfy publishes push payloads to an ntfy server topic using the JSON
// publishing endpoint.
package ntfy
