// Package middleware provides HTTP middleware for the hub's
// renderer-facing surface.
//
// The stack includes:
//   - CORS: admits the configured Renderer origins so browser
//     renderers on other origins can reach the intent endpoints
//   - RateLimit: per-IP token bucket rate limiting
//
// Example Usage:
//
//	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
//	router.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
package middleware
