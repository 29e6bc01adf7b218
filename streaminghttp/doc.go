// Package streaminghttp implements the HTTP transport: each POST carries one
// JSON-RPC request in its body and is answered with exactly one
// newline-delimited JSON line, flushed as soon as it is ready so clients can
// keep the connection open for low-latency round trips. "Streaming" refers to
// the framing convention and connection-reuse posture, not to multiple lines
// per call.
//
// Two routes resolve to the same dispatch logic: "/" and "/mcp" (some IDE
// clients hardcode the latter). A liveness endpoint answers GET /health
// independently of the dispatcher. Every POST with a well-formed outcome is
// status 200; protocol errors travel inside the JSON-RPC envelope.
//
// Each request is served on its own goroutine by net/http, and the dispatcher
// holds no shared mutable state, so concurrent calls need no coordination
// beyond what the standard library provides.
package streaminghttp
