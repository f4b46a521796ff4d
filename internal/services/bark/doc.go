// Package bark delivers push payloads to iOS devices through a Bark server.
package bark
