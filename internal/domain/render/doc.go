// Package render hands screenshots to an external marker renderer.
//
// The Rendezvous is a single-slot mailbox. Annotate publishes a Job carrying
// the screenshot and the previous turn's actions, then blocks until the
// renderer posts a Result, the wait times out, or the caller gives up.
// Publishing a new job supersedes the outstanding one; its waiter is
// released at once with the original image.
//
// Outcomes:
//   - annotated: the result matched the job and carried an image
//   - fallback: stale, empty or superseded result, original image used
//   - timeout: no result within the configured wait
//   - no_renderer: no renderer seen recently, job never published
//   - canceled: the caller's context ended
//
// Renderers either poll Current (HTTP) or Attach and watch Changed
// (WebSocket). Both count as liveness for the no_renderer check.
package render
