// Package remote is the network boundary to the document service.
//
// The service exposes three JSON endpoints consumed by the hub:
//   - POST /filter-documents {filter_prompt} -> {status, files|message}
//   - POST /chat {filename, question} -> {status, answer|message}
//   - GET  /documents -> {status, files|message}
//
// The client keeps the two failure classes apart: an application error
// (the service answered with a non-success status and a reason) and a
// transport error (unreachable, timed out, malformed body, or circuit
// open). Controllers rely on that distinction to drive the error
// states the Renderer shows.
package remote
