// Package redact scrubs credential material from file payloads before
// they are sent to external review agents.
package redact
