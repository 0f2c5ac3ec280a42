// Package ws provides the push channel for canvas renderers.
//
// A renderer connected here is told about each render job as soon as it is
// published, instead of polling GET /render_job.
//
// Message Types (Server → Client):
//   - job: the outstanding render job, sent once per sequence number
//
// Message Types (Client → Server):
//   - result: {"seq": n, "image_b64": "..."} for the job it rendered
//
// Example Usage:
//
//	handler := ws.NewHandler(rendezvous, logger)
//	router.GET("/render/ws", handler.HandleConnection)
package ws
