// Package audit provides an append-only trail of security-relevant events.
//
// Writes are best-effort: a failure to persist an audit event is logged
// locally and never propagated, so observability cannot abort the security
// operation that produced the event.
package audit
