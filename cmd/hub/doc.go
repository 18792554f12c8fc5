// Package main is the entry point for the ZettelHub server.
//
// ZettelHub manages chat sessions grounded in a document library. It
// sits between a renderer (web or native) and the document service
// that filters the library and answers questions:
//
//	Renderer (REST/WebSocket) → Hub → Document Service (HTTP)
//	                                → SQLite (session persistence)
//
// The server provides:
//   - REST intents for sessions and chat
//   - WebSocket snapshot streaming for live renderers
//   - Focused sessions that narrow the visible library
//   - Session persistence across restarts
//   - Rate limiting and Prometheus metrics
//
// Configuration:
//   - Environment variables (12-factor)
//   - Optional YAML file (-config)
//   - CLI flags (override both)
//
// Usage:
//
//	# Production mode
//	./hub -port 8000 -remote http://127.0.0.1:8080
//
//	# Development mode (colored logs, debug level)
//	./hub -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
