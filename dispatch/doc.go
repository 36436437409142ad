// Package dispatch contains the per-request orchestration pipeline.
//
// Requests are routed by numeric transaction code rather than URL path:
// resolve, validate identifiers, authorize, invoke, audit. The pipeline is
// terminal on first failure and always returns a uniform result envelope.
package dispatch
