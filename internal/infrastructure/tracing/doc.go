// Package tracing provides lightweight request tracing for the hub.
//
// Every renderer-facing request gets a span tagged with method, URL,
// and status; completed spans are exported through the structured
// logger. Trace context propagates via X-Trace-ID/X-Span-ID headers so
// a renderer can correlate its own logs with hub operations.
package tracing
