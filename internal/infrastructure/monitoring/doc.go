// Package monitoring provides Prometheus metrics for the hub.
//
// Metrics cover the Renderer-facing HTTP surface, the remote document
// service calls (by endpoint and outcome), the session collection, and
// message exchange outcomes. Each Metrics instance carries its own
// registry so tests can create collectors freely.
//
// Example Usage:
//
//	metrics := monitoring.NewMetrics()
//	router.Use(monitoring.Middleware(metrics))
//	router.GET("/metrics", gin.WrapH(metrics.Handler()))
package monitoring
