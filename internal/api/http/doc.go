// Package http exposes the hub over REST. Handlers translate between
// HTTP and hub intents; every mutating route answers with the
// snapshot the renderer should draw next.
package http
