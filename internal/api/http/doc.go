// Package http implements the console's HTTP endpoints.
//
// One Handlers value serves the agent's inference route, the operator
// dashboard (static pages, live event stream, health, screenshots, stats,
// export), the control routes (pause, crop, allowed tools, debug execute)
// and the polling side of the render rendezvous.
//
// Example Usage:
//
//	h := http.NewHandlers(deps)
//	router.POST("/v1/chat/completions", h.Inference)
//	router.GET("/events", h.Events)
package http
