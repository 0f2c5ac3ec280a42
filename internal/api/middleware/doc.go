// Package middleware provides Gin middleware for the console's HTTP surface:
// CORS for the dashboard and per-client rate limiting for control routes.
package middleware
