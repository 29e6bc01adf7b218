// Package stdio implements the line-oriented transport: one JSON-RPC message
// per line on a persistent input stream, one JSON response line per message
// on the output stream. It is intended for process-pipe integration where a
// parent process spawns the server and speaks over stdin/stdout.
//
// The transport is strictly sequential. Each message is fully dispatched and
// its response flushed before the next line is read, so responses are never
// reordered relative to requests. End of input terminates Serve cleanly.
//
// Example:
//
//	h := stdio.NewHandler(d)
//	if err := h.Serve(context.Background()); err != nil { log.Fatal(err) }
package stdio
