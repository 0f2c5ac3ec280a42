// Package server wires the operator console together.
//
// Server Lifecycle:
//  1. Create a fresh run directory under the log base
//  2. Initialize logger (console plus the run's panel.log)
//  3. Auto-pause the new run so the operator can pick a crop region
//  4. Build the turn store, event hub, render rendezvous, forwarder,
//     pause controller, settings and helper commands
//  5. Setup HTTP routes and middleware
//  6. Start the agent supervisor and the HTTP server
//  7. Graceful shutdown on signal: agent first, then dashboards, then HTTP
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go srv.Run()
//	defer srv.Close()
package server
