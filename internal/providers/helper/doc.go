// Package helper runs short-lived companion commands.
//
// The console delegates two jobs to external programs: capturing a screen
// preview and dry-running raw model text through the execution engine.
// Both are spawned per request with a JSON document on stdin and a
// timeout, and share a circuit breaker so a broken helper fails fast.
//
// Providers:
//   - Previewer: {"width": n} in, {"image_b64": "..."} out
//   - Executor: {"raw", "run_dir", "debug": true} in, engine JSON out
package helper
