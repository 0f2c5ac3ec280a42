// Package sse fans turn events out to dashboard viewers.
//
// Each viewer gets a Client with its own bounded queue. Broadcast serializes
// an event once and enqueues it for every client without blocking: when a
// queue is full its oldest message is dropped to make room. Slow viewers
// lose history, the proxy never waits on them.
//
// Serve drives one text/event-stream response:
//   - a connected frame on registration
//   - one data frame per broadcast event
//   - a keepalive comment after an idle window
//
// Example Usage:
//
//	hub := sse.NewHub(2000, logger)
//	router.GET("/events", func(c *gin.Context) {
//		hub.Serve(c.Request.Context(), c.Writer, 15*time.Second)
//	})
//	hub.Broadcast(record)
package sse
